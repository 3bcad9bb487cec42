package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"coursehub/database/testutil"
	"coursehub/mailer"
	"coursehub/payment"

	"gorm.io/gorm"
)

// fakeProcessor is an in-memory payment processor.
type fakeProcessor struct {
	mu            sync.Mutex
	createErr     error
	retrieveErr   error
	sessions      map[string]*payment.Session
	requests      []payment.CheckoutRequest
	retrieveCalls int
	seq           int
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{sessions: map[string]*payment.Session{}}
}

func (f *fakeProcessor) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	id := fmt.Sprintf("cs_test_%d", f.seq)
	s := &payment.Session{
		ID:            id,
		URL:           "https://checkout.test/pay/" + id,
		Status:        payment.SessionStatusOpen,
		PaymentStatus: payment.PaymentStatusUnpaid,
		AmountTotal:   req.AmountCents,
		Currency:      req.Currency,
		Metadata:      req.Metadata,
	}
	f.sessions[id] = s
	f.requests = append(f.requests, req)
	cp := *s
	return &cp, nil
}

func (f *fakeProcessor) RetrieveCheckout(_ context.Context, id string) (*payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieveCalls++
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeProcessor) pay(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id].Status = payment.SessionStatusComplete
	f.sessions[id].PaymentStatus = payment.PaymentStatusPaid
}

func (f *fakeProcessor) expire(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id].Status = payment.SessionStatusExpired
}

func (f *fakeProcessor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retrieveCalls
}

type fixture struct {
	ctx        context.Context
	db         *gorm.DB
	processor  *fakeProcessor
	mail       *mailer.Recorder
	enrollment *EnrollmentService
	progress   *ProgressService
	quiz       *QuizService
	catalog    *CatalogService
	instructor *InstructorService
	users      *UserService
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := &fixture{
		ctx:       context.Background(),
		db:        db,
		processor: newFakeProcessor(),
		mail:      &mailer.Recorder{},
	}
	f.enrollment = NewEnrollmentService(db, f.processor, f.mail, CheckoutConfig{
		Currency:      "usd",
		PublicBaseURL: "https://courses.example.com/",
	}, log)
	f.enrollment.now = func() time.Time { return fixedNow }
	f.progress = NewProgressService(db, log)
	f.progress.now = func() time.Time { return fixedNow }
	f.quiz = NewQuizService(db, log)
	f.quiz.now = func() time.Time { return fixedNow }
	f.catalog = NewCatalogService(db, log)
	f.instructor = NewInstructorService(db, log)
	f.users = NewUserService(db, log)
	return f
}
