package utils

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// allowedExtensions is the lesson media allow-list.
var allowedExtensions = map[string]struct{}{
	"mp4": {}, "avi": {}, "mov": {}, "wmv": {}, "flv": {}, "webm": {},
	"pdf": {}, "doc": {}, "docx": {}, "ppt": {}, "pptx": {},
}

var ErrFileTypeNotAllowed = errors.New("file type not allowed")

// AllowedFile reports whether filename carries an allow-listed extension.
func AllowedFile(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return false
	}
	_, ok := allowedExtensions[strings.ToLower(filename[idx+1:])]
	return ok
}

// SaveUploadedFile stores file under destDir with a generated name and returns
// that name. The client-supplied name only contributes its extension.
func SaveUploadedFile(file *multipart.FileHeader, destDir string) (string, error) {
	if !AllowedFile(file.Filename) {
		return "", ErrFileTypeNotAllowed
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	return writeUpload(src, destDir, strings.ToLower(filepath.Ext(file.Filename)))
}

// writeUpload copies src into a new file under destDir. A partially written
// file is removed when the copy or the close fails.
func writeUpload(src io.Reader, destDir, ext string) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	newFilename := uuid.NewString() + ext
	path := filepath.Join(destDir, newFilename)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}

	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}

	return newFilename, nil
}

func GetFileURL(filename string) string {
	if filename == "" {
		return ""
	}
	return "/uploads/" + filename
}
