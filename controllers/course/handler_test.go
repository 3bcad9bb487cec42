package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	controllers "coursehub/controllers/course"
	"coursehub/database/testutil"
	"coursehub/mailer"
	"coursehub/middleware"
	courseModels "coursehub/models/course"
	"coursehub/payment"
	courseRoutes "coursehub/routers/courseRoutes"
	"coursehub/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type stubProcessor struct {
	sessions map[string]*payment.Session
}

func (s *stubProcessor) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	id := fmt.Sprintf("cs_%d", len(s.sessions)+1)
	sess := &payment.Session{
		ID:            id,
		URL:           "https://checkout.test/" + id,
		Status:        payment.SessionStatusOpen,
		PaymentStatus: payment.PaymentStatusUnpaid,
		Metadata:      req.Metadata,
	}
	s.sessions[id] = sess
	return sess, nil
}

func (s *stubProcessor) RetrieveCheckout(_ context.Context, id string) (*payment.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *sess
	return &cp, nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorData struct {
	Kind     string `json:"kind"`
	Redirect string `json:"redirect"`
	Warning  string `json:"warning"`
	Retry    string `json:"retry"`
}

type testServer struct {
	app       *fiber.App
	db        *gorm.DB
	processor *stubProcessor
	mail      *mailer.Recorder
	ctx       context.Context
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	processor := &stubProcessor{sessions: map[string]*payment.Session{}}
	mail := &mailer.Recorder{}

	users := services.NewUserService(db, log)
	h := &controllers.Handler{
		Enrollment: services.NewEnrollmentService(db, processor, mail, services.CheckoutConfig{
			Currency: "usd", PublicBaseURL: "https://courses.test",
		}, log),
		Progress:   services.NewProgressService(db, log),
		Quiz:       services.NewQuizService(db, log),
		Catalog:    services.NewCatalogService(db, log),
		Instructor: services.NewInstructorService(db, log),
		Users:      users,
		UploadDir:  t.TempDir(),
		Log:        log,
	}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.FiberErrorHandler})
	auth := []fiber.Handler{middleware.JWTMiddleware(testSecret), middleware.SyncUser(users, log)}
	courseRoutes.SetupCourseRoutes(app, h, auth)
	courseRoutes.SetupInstructorRoutes(app, h, auth, middleware.InstructorOnly(users))

	return &testServer{app: app, db: db, processor: processor, mail: mail, ctx: context.Background()}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := middleware.GenerateJWT(testSecret, services.Principal{
		ID: userID, Email: userID + "@example.com", FirstName: userID,
	}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token(t, userID))
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeError(t *testing.T, env envelope) errorData {
	t.Helper()
	var data errorData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func TestRequiresBearerToken(t *testing.T) {
	s := newServer(t)

	status, env := s.do(t, http.MethodGet, "/course/list", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Status)

	req := httptest.NewRequest(http.MethodGet, "/course/list", nil)
	bad, err := middleware.GenerateJWT("other-secret", services.Principal{ID: "alice"}, time.Hour)
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bad)
	status, _ = s.send(t, req)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	expired, err := middleware.GenerateJWT(testSecret, services.Principal{ID: "alice"}, -time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/course/list", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+expired)
	status, _ = s.send(t, req)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestCourseListAndDetail(t *testing.T) {
	s := newServer(t)
	course := testutil.SeedCourse(t, s.ctx, s.db, "bob", 0)

	status, env := s.do(t, http.MethodGet, "/course/list?search=course&limit=5", "alice", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list struct {
		Courses    []courseModels.Course `json:"courses"`
		Pagination struct {
			Total int64 `json:"total"`
			Limit int   `json:"limit"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.Pagination.Total)
	assert.Equal(t, 5, list.Pagination.Limit)

	status, _ = s.do(t, http.MethodGet, "/course/list?difficulty=Expert", "alice", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = s.do(t, http.MethodGet, fmt.Sprintf("/course/%d", course.ID), "alice", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/course/999", "alice", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "/course/list", decodeError(t, env).Redirect)

	status, _ = s.do(t, http.MethodGet, "/course/abc", "alice", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestEnrollFreeThenConflict(t *testing.T) {
	s := newServer(t)
	course := testutil.SeedCourse(t, s.ctx, s.db, "bob", 0)
	path := fmt.Sprintf("/course/%d/enroll", course.ID)

	status, env := s.do(t, http.MethodPost, path, "alice", nil)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	assert.True(t, env.Status)
	assert.Len(t, s.mail.Messages(), 1)

	status, env = s.do(t, http.MethodPost, path, "alice", nil)
	assert.Equal(t, fiber.StatusConflict, status)
	data := decodeError(t, env)
	assert.Equal(t, "ALREADY_ENROLLED", data.Kind)
	assert.Equal(t, fmt.Sprintf("/course/%d", course.ID), data.Redirect)
}

func TestPaidCheckoutAndReconcile(t *testing.T) {
	s := newServer(t)
	course := testutil.SeedCourse(t, s.ctx, s.db, "bob", 2000)

	status, env := s.do(t, http.MethodPost, fmt.Sprintf("/course/%d/enroll", course.ID), "alice", nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var res services.EnrollResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "https://checkout.test/cs_1", res.CheckoutURL)

	success := fmt.Sprintf("/payment/success?session_id=cs_1&course_id=%d", course.ID)
	status, env = s.do(t, http.MethodGet, success, "alice", nil)
	assert.Equal(t, fiber.StatusBadGateway, status)
	data := decodeError(t, env)
	assert.Equal(t, "PAYMENT_VERIFICATION_FAILED", data.Kind)
	assert.NotEmpty(t, data.Retry)

	s.processor.sessions["cs_1"].PaymentStatus = payment.PaymentStatusPaid
	status, env = s.do(t, http.MethodGet, success, "alice", nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)

	status, _ = s.do(t, http.MethodGet, success, "alice", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, s.mail.Messages(), 1)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/payment/success?session_id=cs_nope&course_id=%d", course.ID), "alice", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	data = decodeError(t, env)
	assert.Equal(t, "RECONCILIATION_MISS", data.Kind)
	assert.Equal(t, "/course/list", data.Redirect)

	status, _ = s.do(t, http.MethodGet, fmt.Sprintf("/payment/success?course_id=%d", course.ID), "alice", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestPaymentCancel(t *testing.T) {
	s := newServer(t)
	course := testutil.SeedCourse(t, s.ctx, s.db, "bob", 2000)
	e := testutil.SeedEnrollment(t, s.ctx, s.db, "alice", course.ID, courseModels.PaymentPending, "cs_9")

	status, _ := s.do(t, http.MethodGet, fmt.Sprintf("/payment/cancel?course_id=%d", course.ID), "alice", nil)
	require.Equal(t, fiber.StatusOK, status)

	var stored courseModels.Enrollment
	require.NoError(t, s.db.Where("id = ?", e.ID).First(&stored).Error)
	assert.Equal(t, courseModels.PaymentFailed, stored.PaymentStatus)
}

func TestGatedContentReturnsNotEnrolled(t *testing.T) {
	s := newServer(t)
	course := testutil.SeedCourse(t, s.ctx, s.db, "bob", 2000)
	lessons := testutil.SeedLessons(t, s.ctx, s.db, course.ID, 1)
	quiz, _ := testutil.SeedQuiz(t, s.ctx, s.db, course.ID, 70, testutil.QuestionSpec{CorrectAnswer: "a", Points: 1})
	testutil.SeedEnrollment(t, s.ctx, s.db, "alice", course.ID, courseModels.PaymentPending, "cs_1")

	cases := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, fmt.Sprintf("/lesson/%d", lessons[0].ID), nil},
		{http.MethodPost, fmt.Sprintf("/lesson/%d/complete", lessons[0].ID), nil},
		{http.MethodGet, fmt.Sprintf("/quiz/%d", quiz.ID), nil},
		{http.MethodPost, fmt.Sprintf("/quiz/%d/submit", quiz.ID), map[string]interface{}{"answers": map[string]string{}}},
	}
	for _, tc := range cases {
		status, env := s.do(t, tc.method, tc.path, "alice", tc.body)
		assert.Equal(t, fiber.StatusForbidden, status, tc.path)
		data := decodeError(t, env)
		assert.Equal(t, "NOT_ENROLLED", data.Kind, tc.path)
		assert.Equal(t, fmt.Sprintf("/course/%d", course.ID), data.Redirect, tc.path)
	}
}

func TestLearnerFlow(t *testing.T) {
	s := newServer(t)
	course := testutil.SeedCourse(t, s.ctx, s.db, "bob", 0)
	lessons := testutil.SeedLessons(t, s.ctx, s.db, course.ID, 2)
	quiz, qs := testutil.SeedQuiz(t, s.ctx, s.db, course.ID, 70, testutil.QuestionSpec{CorrectAnswer: "Go", Points: 1})

	status, _ := s.do(t, http.MethodPost, fmt.Sprintf("/course/%d/enroll", course.ID), "alice", nil)
	require.Equal(t, fiber.StatusCreated, status)

	status, env := s.do(t, http.MethodPost, fmt.Sprintf("/lesson/%d/complete", lessons[0].ID), "alice",
		map[string]int{"watch_time_seconds": 42})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var completion services.LessonCompletion
	require.NoError(t, json.Unmarshal(env.Data, &completion))
	assert.Equal(t, 50.0, completion.Percentage)
	assert.Equal(t, 42, completion.Progress.WatchTimeSeconds)

	status, _ = s.do(t, http.MethodPost, fmt.Sprintf("/lesson/%d/complete", lessons[1].ID), "alice",
		map[string]int{"watch_time_seconds": -5})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/quiz/%d", quiz.ID), "alice", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotContains(t, string(env.Data), "correct_answer")

	status, env = s.do(t, http.MethodPost, fmt.Sprintf("/quiz/%d/submit", quiz.ID), "alice",
		map[string]interface{}{"answers": map[string]string{fmt.Sprint(qs[0].ID): "go"}})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var attempt courseModels.QuizAttempt
	require.NoError(t, json.Unmarshal(env.Data, &attempt))
	assert.True(t, attempt.Passed)
	assert.Equal(t, 100.0, attempt.Percentage)

	status, _ = s.do(t, http.MethodPost, fmt.Sprintf("/quiz/%d/submit", quiz.ID), "alice", map[string]interface{}{})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/quiz/%d/attempts", quiz.ID), "alice", nil)
	require.Equal(t, fiber.StatusOK, status)
	var attempts []courseModels.QuizAttempt
	require.NoError(t, json.Unmarshal(env.Data, &attempts))
	assert.Len(t, attempts, 1)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/course/%d/progress", course.ID), "alice", nil)
	require.Equal(t, fiber.StatusOK, status)
	var progress services.CourseProgress
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	assert.Len(t, progress.Lessons, 1)

	status, _ = s.do(t, http.MethodGet, "/user/dashboard", "alice", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/user/profile", "alice", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), "alice@example.com")
}

func TestInstructorRoutes(t *testing.T) {
	s := newServer(t)

	status, _ := s.do(t, http.MethodPost, "/instructor/course/1/lesson", "bob", map[string]string{"title": "Intro"})
	assert.Equal(t, fiber.StatusForbidden, status, "users become instructors by creating a course")

	status, env := s.do(t, http.MethodPost, "/instructor/course", "bob", map[string]interface{}{"title": "x"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &fields))
	assert.Contains(t, fields, "title")

	status, env = s.do(t, http.MethodPost, "/instructor/course", "bob", map[string]interface{}{
		"title": "Rust for Gophers", "price_cents": 1500, "difficulty_level": "Intermediate",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var course courseModels.Course
	require.NoError(t, json.Unmarshal(env.Data, &course))
	assert.Equal(t, "bob", course.InstructorID)

	status, env = s.do(t, http.MethodPost, fmt.Sprintf("/instructor/course/%d/lesson", course.ID), "bob",
		map[string]interface{}{"title": "Ownership", "content": "borrowing"})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	status, env = s.do(t, http.MethodPost, fmt.Sprintf("/instructor/course/%d/quiz", course.ID), "bob",
		map[string]interface{}{"title": "Check", "passing_score": 80})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var quiz courseModels.Quiz
	require.NoError(t, json.Unmarshal(env.Data, &quiz))
	assert.Equal(t, 80.0, quiz.PassingScore)

	status, env = s.do(t, http.MethodPost, fmt.Sprintf("/instructor/quiz/%d/question", quiz.ID), "bob",
		map[string]interface{}{"question_text": "Is Rust GC'd?", "question_type": "true_false", "correct_answer": "false", "points": 2})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	status, _ = s.do(t, http.MethodPut, fmt.Sprintf("/instructor/course/%d/publish", course.ID), "bob", map[string]bool{"published": true})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, http.MethodPut, fmt.Sprintf("/instructor/course/%d/publish", course.ID), "bob", map[string]string{})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env = s.do(t, http.MethodGet, "/instructor/dashboard", "bob", nil)
	require.Equal(t, fiber.StatusOK, status)
	var dash services.InstructorDashboard
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, 1, dash.PublishedCourses)
}

func TestUploadMedia(t *testing.T) {
	s := newServer(t)
	status, _ := s.do(t, http.MethodPost, "/instructor/course", "bob", map[string]interface{}{"title": "Video course"})
	require.Equal(t, fiber.StatusCreated, status)

	upload := func(name string) (int, envelope) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("data"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/instructor/upload", &buf)
		req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token(t, "bob"))
		return s.send(t, req)
	}

	status, env := upload("intro.MP4")
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var out struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "/uploads/"+out.Filename, out.URL)

	status, _ = upload("script.sh")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}
