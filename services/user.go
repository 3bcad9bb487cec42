package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursehub/apperr"
	"coursehub/logger"
	"coursehub/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Principal is the identity asserted by the identity provider's token.
type Principal struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Picture   string
}

type UserService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger) *UserService {
	return &UserService{
		db:  db,
		log: baseLog.With("service", "UserService"),
	}
}

// Sync creates or refreshes the local user row for a principal. The provider
// owns the profile, so its values always win.
func (s *UserService) Sync(ctx context.Context, p Principal) (*models.User, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, apperr.New(apperr.KindInvalid, "principal has no subject")
	}

	user := &models.User{
		ID:              p.ID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		ProfileImageURL: p.Picture,
	}
	if email := strings.TrimSpace(p.Email); email != "" {
		user.Email = &email
	}

	err := s.upsert(ctx, user)
	if errors.Is(err, gorm.ErrDuplicatedKey) && user.Email != nil {
		// The email already belongs to another subject. Keep the account usable
		// without it.
		s.log.Warn("email already taken by another user", "user_id", p.ID, "email", *user.Email)
		user.Email = nil
		err = s.upsert(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("sync user %s: %w", p.ID, err)
	}
	return s.Get(ctx, p.ID)
}

func (s *UserService) upsert(ctx context.Context, user *models.User) error {
	columns := []string{"first_name", "last_name", "profile_image_url", "updated_at"}
	if user.Email != nil {
		columns = append(columns, "email")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(user).Error
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return &user, nil
}
