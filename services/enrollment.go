package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"coursehub/apperr"
	"coursehub/logger"
	"coursehub/mailer"
	"coursehub/models"
	courseModels "coursehub/models/course"
	"coursehub/payment"
	"coursehub/utils"

	"gorm.io/gorm"
)

// CheckoutConfig carries what the enrollment flow needs to build checkout sessions.
type CheckoutConfig struct {
	Currency      string
	PublicBaseURL string
}

type EnrollmentService struct {
	db        *gorm.DB
	log       *logger.Logger
	processor payment.Processor
	mailer    mailer.Mailer
	checkout  CheckoutConfig
	now       Clock
}

func NewEnrollmentService(db *gorm.DB, processor payment.Processor, m mailer.Mailer, checkout CheckoutConfig, baseLog *logger.Logger) *EnrollmentService {
	if checkout.Currency == "" {
		checkout.Currency = "usd"
	}
	checkout.PublicBaseURL = strings.TrimRight(checkout.PublicBaseURL, "/")
	return &EnrollmentService{
		db:        db,
		log:       baseLog.With("service", "EnrollmentService"),
		processor: processor,
		mailer:    m,
		checkout:  checkout,
		now:       utcNow,
	}
}

// EnrollResult is returned by Enroll. For paid courses CheckoutURL is where the
// learner must be sent to pay; it is empty for free courses.
type EnrollResult struct {
	Enrollment  *courseModels.Enrollment `json:"enrollment"`
	CheckoutURL string                   `json:"checkout_url,omitempty"`
}

// ReconcileResult reports the outcome of a checkout success callback.
// AlreadyCompleted is set when a previous callback had already granted access.
type ReconcileResult struct {
	Enrollment       *courseModels.Enrollment `json:"enrollment"`
	AlreadyCompleted bool                     `json:"already_completed"`
}

// Enroll starts an enrollment. Free courses complete immediately. Paid courses
// get a pending row bound to a fresh checkout session.
func (s *EnrollmentService) Enroll(ctx context.Context, userID string, courseID uint) (*EnrollResult, error) {
	course, err := findCourse(ctx, s.db, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, apperr.NotFound("course").WithRedirect(catalogPath)
	}

	if course.IsFree() {
		return s.enrollFree(ctx, userID, course)
	}
	return s.enrollPaid(ctx, userID, course)
}

func (s *EnrollmentService) enrollFree(ctx context.Context, userID string, course *courseModels.Course) (*EnrollResult, error) {
	var enrollment *courseModels.Enrollment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findEnrollment(ctx, tx, userID, course.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return alreadyEnrolled(course.ID)
		}

		enrollment = &courseModels.Enrollment{
			UserID:        userID,
			CourseID:      course.ID,
			PaymentStatus: courseModels.PaymentCompleted,
			EnrolledAt:    s.now(),
		}
		if err := tx.Create(enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return alreadyEnrolled(course.ID)
			}
			return fmt.Errorf("create enrollment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("free enrollment completed", "user_id", userID, "course_id", course.ID)
	s.notifyEnrolled(ctx, userID, course, false)
	return &EnrollResult{Enrollment: enrollment}, nil
}

func (s *EnrollmentService) enrollPaid(ctx context.Context, userID string, course *courseModels.Course) (*EnrollResult, error) {
	existing, err := findEnrollment(ctx, s.db, userID, course.ID)
	if err != nil {
		return nil, err
	}
	if existing.HasAccess() {
		return nil, alreadyEnrolled(course.ID)
	}

	session, err := s.processor.CreateCheckout(ctx, s.checkoutRequest(userID, course))
	if err != nil {
		s.log.Error("create checkout failed", "user_id", userID, "course_id", course.ID, "error", err)
		return nil, apperr.Wrap(apperr.KindPaymentVerificationFailed, "could not start checkout", err).
			WithRedirect(coursePath(course.ID))
	}

	var enrollment *courseModels.Enrollment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findEnrollment(ctx, tx, userID, course.ID)
		if err != nil {
			return err
		}

		if current == nil {
			enrollment = &courseModels.Enrollment{
				UserID:            userID,
				CourseID:          course.ID,
				PaymentStatus:     courseModels.PaymentPending,
				CheckoutSessionID: &session.ID,
				EnrolledAt:        s.now(),
			}
			if err := tx.Create(enrollment).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return alreadyEnrolled(course.ID)
				}
				return fmt.Errorf("create enrollment: %w", err)
			}
			return nil
		}

		// A pending or failed row is re-armed with the new session. The
		// status guard keeps a concurrent reconcile from being overwritten.
		s.log.Warn("re-arming enrollment with new checkout session",
			"user_id", userID, "course_id", course.ID,
			"previous_status", current.PaymentStatus, "enrollment_id", current.ID)
		res := tx.Model(&courseModels.Enrollment{}).
			Where("id = ? AND payment_status <> ?", current.ID, courseModels.PaymentCompleted).
			Updates(map[string]interface{}{
				"payment_status":      courseModels.PaymentPending,
				"checkout_session_id": session.ID,
				"enrolled_at":         s.now(),
			})
		if res.Error != nil {
			return fmt.Errorf("re-arm enrollment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return alreadyEnrolled(course.ID)
		}
		enrollment = &courseModels.Enrollment{}
		return tx.Where("id = ?", current.ID).First(enrollment).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("checkout started", "user_id", userID, "course_id", course.ID, "session_id", session.ID)
	return &EnrollResult{Enrollment: enrollment, CheckoutURL: session.URL}, nil
}

func (s *EnrollmentService) checkoutRequest(userID string, course *courseModels.Course) payment.CheckoutRequest {
	currency := course.Currency
	if currency == "" {
		currency = s.checkout.Currency
	}
	courseID := strconv.FormatUint(uint64(course.ID), 10)
	base := s.checkout.PublicBaseURL

	// Stripe substitutes {CHECKOUT_SESSION_ID} itself, so it must stay unescaped.
	successURL := base + "/payment/success?session_id={CHECKOUT_SESSION_ID}&course_id=" + url.QueryEscape(courseID)
	cancelURL := base + "/payment/cancel?course_id=" + url.QueryEscape(courseID)

	return payment.CheckoutRequest{
		AmountCents: course.PriceCents,
		Currency:    currency,
		Name:        course.Title,
		Description: course.Description,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
		Metadata: map[string]string{
			payment.MetadataCourseID: courseID,
			payment.MetadataUserID:   userID,
		},
	}
}

// Reconcile handles the checkout success callback. The processor is the
// authority: the enrollment only completes when the session reports paid.
// A paid session completes the learner's row even after a cancel callback
// marked it failed or a later checkout superseded the session.
func (s *EnrollmentService) Reconcile(ctx context.Context, sessionID string, courseID uint) (*ReconcileResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.New(apperr.KindInvalid, "session_id is required").WithRedirect(catalogPath)
	}

	enrollment, err := s.findBySession(ctx, s.db, sessionID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment.HasAccess() {
		return &ReconcileResult{Enrollment: enrollment, AlreadyCompleted: true}, nil
	}

	session, err := s.processor.RetrieveCheckout(ctx, sessionID)
	if enrollment == nil {
		return s.reconcileSuperseded(ctx, sessionID, courseID, session, err)
	}
	if err != nil {
		s.log.Error("retrieve checkout failed", "session_id", sessionID, "error", err)
		return nil, verificationFailed(courseID, "could not verify payment", err)
	}
	if err := matchSession(session, enrollment); err != nil {
		s.log.Warn("checkout session metadata mismatch", "session_id", sessionID, "enrollment_id", enrollment.ID, "error", err)
		return nil, verificationFailed(courseID, "payment does not match this enrollment", err)
	}

	if !session.Paid() {
		if enrollment.PaymentStatus == courseModels.PaymentFailed {
			s.log.Warn("checkout session points at failed enrollment", "session_id", sessionID, "enrollment_id", enrollment.ID)
			return nil, apperr.New(apperr.KindReconciliationMiss, "this payment attempt is no longer active").
				WithRedirect(coursePath(courseID))
		}
		if session.Expired() {
			if err := s.transition(ctx, enrollment.ID, courseModels.PaymentFailed); err != nil {
				return nil, err
			}
			s.log.Info("checkout session expired", "session_id", sessionID, "enrollment_id", enrollment.ID)
			return nil, verificationFailed(courseID, "checkout session expired", nil)
		}
		return nil, verificationFailed(courseID, "payment has not been completed", nil)
	}

	return s.complete(ctx, enrollment, session.ID)
}

// reconcileSuperseded handles a session id no row points at any more. Only a
// paid session whose metadata names this course and a learner with a row for
// it is honoured.
func (s *EnrollmentService) reconcileSuperseded(ctx context.Context, sessionID string, courseID uint, session *payment.Session, retrieveErr error) (*ReconcileResult, error) {
	miss := apperr.New(apperr.KindReconciliationMiss, "no enrollment found for this payment").WithRedirect(catalogPath)
	if retrieveErr != nil || !session.Paid() {
		s.log.Warn("no enrollment for checkout session", "session_id", sessionID, "course_id", courseID, "error", retrieveErr)
		return nil, miss
	}

	userID := session.Metadata[payment.MetadataUserID]
	if userID == "" || session.Metadata[payment.MetadataCourseID] != strconv.FormatUint(uint64(courseID), 10) {
		s.log.Warn("paid checkout session does not name this course", "session_id", sessionID, "course_id", courseID)
		return nil, miss
	}

	enrollment, err := findEnrollment(ctx, s.db, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		s.log.Warn("no enrollment for paid checkout session", "session_id", sessionID, "user_id", userID, "course_id", courseID)
		return nil, miss
	}
	if enrollment.HasAccess() {
		return &ReconcileResult{Enrollment: enrollment, AlreadyCompleted: true}, nil
	}

	s.log.Warn("completing enrollment from superseded checkout session",
		"session_id", sessionID, "enrollment_id", enrollment.ID,
		"current_session_id", enrollment.CheckoutSessionID)
	return s.complete(ctx, enrollment, sessionID)
}

// complete grants access for a verified paid session and points the row at it.
func (s *EnrollmentService) complete(ctx context.Context, enrollment *courseModels.Enrollment, sessionID string) (*ReconcileResult, error) {
	var completed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		res := tx.Model(&courseModels.Enrollment{}).
			Where("id = ? AND payment_status <> ?", enrollment.ID, courseModels.PaymentCompleted).
			Updates(map[string]interface{}{
				"payment_status":      courseModels.PaymentCompleted,
				"checkout_session_id": sessionID,
				"enrolled_at":         now,
				"updated_at":          now,
			})
		if res.Error != nil {
			return fmt.Errorf("complete enrollment: %w", res.Error)
		}
		completed = res.RowsAffected == 1
		return tx.Where("id = ?", enrollment.ID).First(enrollment).Error
	})
	if err != nil {
		return nil, err
	}

	if !completed {
		// Another callback got there first.
		return &ReconcileResult{Enrollment: enrollment, AlreadyCompleted: true}, nil
	}

	s.log.Info("paid enrollment completed", "user_id", enrollment.UserID, "course_id", enrollment.CourseID, "session_id", sessionID)
	course, err := findCourse(ctx, s.db, enrollment.CourseID)
	if err == nil {
		s.notifyEnrolled(ctx, enrollment.UserID, course, true)
	}
	return &ReconcileResult{Enrollment: enrollment}, nil
}

// Cancel handles the checkout cancel callback. The learner's pending row, if
// any, is marked failed; nothing else changes.
func (s *EnrollmentService) Cancel(ctx context.Context, userID string, courseID uint) (bool, error) {
	if _, err := findCourse(ctx, s.db, courseID); err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND payment_status = ?", userID, courseID, courseModels.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status": courseModels.PaymentFailed,
			"updated_at":     s.now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("cancel enrollment: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Info("checkout cancelled", "user_id", userID, "course_id", courseID)
	}
	return res.RowsAffected > 0, nil
}

// RequireAccess is the access gate for callers outside this package. It fails
// with NotEnrolled unless the learner holds a completed enrollment; the
// catalog, progress and quiz services run the same check inside their own
// transactions.
func (s *EnrollmentService) RequireAccess(ctx context.Context, userID string, courseID uint) (*courseModels.Enrollment, error) {
	return requireAccess(ctx, s.db, userID, courseID)
}

func (s *EnrollmentService) findBySession(ctx context.Context, tx *gorm.DB, sessionID string, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := tx.WithContext(ctx).
		Where("checkout_session_id = ? AND course_id = ?", sessionID, courseID).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load enrollment by session: %w", err)
	}
	return &enrollment, nil
}

// transition moves a pending enrollment to status. Rows that already left
// pending are left alone.
func (s *EnrollmentService) transition(ctx context.Context, enrollmentID uint, status courseModels.PaymentStatus) error {
	err := s.db.WithContext(ctx).Model(&courseModels.Enrollment{}).
		Where("id = ? AND payment_status = ?", enrollmentID, courseModels.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status": status,
			"updated_at":     s.now(),
		}).Error
	if err != nil {
		return fmt.Errorf("update enrollment %d to %s: %w", enrollmentID, status, err)
	}
	return nil
}

func (s *EnrollmentService) notifyEnrolled(ctx context.Context, userID string, course *courseModels.Course, paid bool) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		s.log.Warn("enrollment email skipped: user not found", "user_id", userID, "error", err)
		return
	}
	if user.Email == nil || *user.Email == "" {
		return
	}

	courseURL := s.checkout.PublicBaseURL + coursePath(course.ID)
	subject, text, html := utils.EnrollmentEmail(user.DisplayName(), course.Title, courseURL, paid)
	msg := mailer.Message{
		ToName:  user.DisplayName(),
		ToEmail: *user.Email,
		Subject: subject,
		Text:    text,
		HTML:    html,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn("enrollment email failed", "user_id", userID, "course_id", course.ID, "error", err)
	}
}

func matchSession(session *payment.Session, enrollment *courseModels.Enrollment) error {
	if v, ok := session.Metadata[payment.MetadataCourseID]; ok {
		if v != strconv.FormatUint(uint64(enrollment.CourseID), 10) {
			return fmt.Errorf("session course_id %q does not match enrollment course %d", v, enrollment.CourseID)
		}
	}
	if v, ok := session.Metadata[payment.MetadataUserID]; ok && v != enrollment.UserID {
		return fmt.Errorf("session user_id %q does not match enrollment user", v)
	}
	return nil
}

func alreadyEnrolled(courseID uint) *apperr.Error {
	return apperr.New(apperr.KindAlreadyEnrolled, "you are already enrolled in this course").
		WithRedirect(coursePath(courseID))
}

func verificationFailed(courseID uint, msg string, err error) *apperr.Error {
	return apperr.Wrap(apperr.KindPaymentVerificationFailed, msg, err).WithRedirect(coursePath(courseID))
}
