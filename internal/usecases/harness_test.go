package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/internal/infrastructure/models"
	"gradvillage.backend/internal/infrastructure/receipt"
	"gradvillage.backend/internal/infrastructure/repositories"
	"gradvillage.backend/internal/usecases"
	"gradvillage.backend/pkg/jwt"
	"gradvillage.backend/pkg/metrics"
)

const testJWTSecret = "usecase-test-secret"

// recordingMailer keeps every sent message; failing topics return an error instead.
type recordingMailer struct {
	mu   sync.Mutex
	sent []services.EmailMessage
	fail map[string]error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{fail: map[string]error{}}
}

func (m *recordingMailer) Send(_ context.Context, msg services.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.fail[msg.Category]; ok {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) failCategory(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[category] = errors.New("smtp: connection refused")
}

func (m *recordingMailer) restore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = map[string]error{}
}

func (m *recordingMailer) byCategory(category string) []services.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []services.EmailMessage
	for _, msg := range m.sent {
		if msg.Category == category {
			out = append(out, msg)
		}
	}
	return out
}

// memoryStorage keeps uploaded objects by key. A non-nil err fails every Put.
type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	err     error
}

func (s *memoryStorage) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = body
	s.puts++
	return "https://files.test/" + key, nil
}

// MockGateway is a mock implementation of services.PaymentGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string { return "stripe" }

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, input services.PaymentIntentInput) (*services.PaymentIntent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PaymentIntent), args.Error(1)
}

func (m *MockGateway) ConfirmPayment(ctx context.Context, intentID, paymentMethodID string) (*services.PaymentIntent, error) {
	args := m.Called(ctx, intentID, paymentMethodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PaymentIntent), args.Error(1)
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*services.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.WebhookEvent), args.Error(1)
}

// harness wires the usecases against real repositories on an in-memory database.
type harness struct {
	db      *gorm.DB
	gateway *MockGateway
	mailer  *recordingMailer
	storage *memoryStorage
	jwt     *jwt.JWTService

	userRepo         *repositories.UserRepository
	studentRepo      *repositories.StudentRepository
	verificationRepo *repositories.SchoolVerificationRepository
	feeRepo          *repositories.RegistrationFeeRepository
	donationRepo     *repositories.DonationRepository
	txRepo           *repositories.PaymentTransactionRepository
	receiptRepo      *repositories.TaxReceiptRepository
	outboxRepo       *repositories.OutboxRepository

	outbox       *usecases.OutboxDispatcher
	receipts     *usecases.TaxReceiptUsecase
	registration *usecases.RegistrationPaymentUsecase
	donations    *usecases.DonationUsecase
	students     *usecases.StudentUsecase
	admin        *usecases.AdminUsecase
	auth         *usecases.AuthUsecase
	webhooks     *usecases.WebhookUsecase
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:uc_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "open sqlite")
	require.NoError(t, db.AutoMigrate(models.All()...), "migrate")
	return db
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newTestDB(t)
	h := &harness{
		db:      db,
		gateway: new(MockGateway),
		mailer:  newRecordingMailer(),
		storage: &memoryStorage{},
		jwt:     jwt.NewJWTService(testJWTSecret, time.Hour),

		userRepo:         repositories.NewUserRepository(db),
		studentRepo:      repositories.NewStudentRepository(db),
		verificationRepo: repositories.NewSchoolVerificationRepository(db),
		feeRepo:          repositories.NewRegistrationFeeRepository(db),
		donationRepo:     repositories.NewDonationRepository(db),
		txRepo:           repositories.NewPaymentTransactionRepository(db),
		receiptRepo:      repositories.NewTaxReceiptRepository(db),
		outboxRepo:       repositories.NewOutboxRepository(db),
	}
	uow := repositories.NewUnitOfWork(db)
	schoolRepo := repositories.NewSchoolRepository(db)
	boxRepo := repositories.NewWelcomeBoxRepository(db)
	m := metrics.New("test")

	h.outbox = usecases.NewOutboxDispatcher(h.outboxRepo, usecases.OutboxConfig{MaxAttempts: 3}, m)
	h.receipts = usecases.NewTaxReceiptUsecase(h.receiptRepo, h.feeRepo, h.donationRepo, h.studentRepo,
		receipt.NewPDFRenderer(), h.storage, usecases.Nonprofit{Name: "GradVillage", EIN: "12-3456789", Address: "1 Main St"})
	usecases.NewNotificationUsecase(h.mailer, h.receipts, h.receiptRepo, h.studentRepo, h.feeRepo,
		h.donationRepo, h.verificationRepo, "https://gradvillage.test").RegisterHandlers(h.outbox)

	cfg := usecases.ChargeConfig{AllowTestCards: true, FeePercentage: 2.9, FeeFixedCents: 30}
	h.registration = usecases.NewRegistrationPaymentUsecase(uow, h.userRepo, h.studentRepo, h.feeRepo, h.txRepo,
		h.receiptRepo, h.gateway, h.outbox, h.jwt, cfg, m)
	h.donations = usecases.NewDonationUsecase(uow, h.studentRepo, h.donationRepo, h.txRepo, h.receiptRepo,
		h.gateway, h.outbox, cfg, m)
	h.students = usecases.NewStudentUsecase(uow, h.studentRepo, schoolRepo, h.verificationRepo, boxRepo,
		h.feeRepo, h.receiptRepo)
	h.admin = usecases.NewAdminUsecase(uow, h.studentRepo, h.verificationRepo, boxRepo, h.feeRepo,
		h.donationRepo, h.outboxRepo, h.outbox)
	h.auth = usecases.NewAuthUsecase(h.userRepo, h.studentRepo, h.jwt)
	h.webhooks = usecases.NewWebhookUsecase(h.gateway, h.donations)
	return h
}

func (h *harness) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(model).Count(&n).Error)
	return n
}

func syntheticInput(email string) *entities.RegistrationPaymentInput {
	return &entities.RegistrationPaymentInput{
		Email:      email,
		Amount:     mustDecimal("25"),
		AmountUnit: "dollars",
		RegistrationData: &entities.RegistrationData{
			FirstName: "Ada",
			LastName:  "Lovelace",
			School:    "State University",
			Email:     email,
			Password:  "correct-horse",
		},
		TestCardData: &entities.TestCardData{Number: "6011111111111117", ExpMonth: "12", ExpYear: "2030", CVC: "123"},
	}
}

// registerStudent runs a synthetic registration and returns the new student.
func (h *harness) registerStudent(t *testing.T, email string) *entities.Student {
	t.Helper()
	res, err := h.registration.ProcessRegistrationPayment(context.Background(), syntheticInput(email))
	require.NoError(t, err)
	s, err := h.studentRepo.GetByID(context.Background(), res.User.ID)
	require.NoError(t, err)
	return s
}

// publishedStudent registers a student and publishes the profile.
func (h *harness) publishedStudent(t *testing.T, email string) *entities.Student {
	t.Helper()
	s := h.registerStudent(t, email)
	published := true
	s, err := h.students.UpdateProfile(context.Background(), s.ID, &entities.UpdateStudentProfileInput{IsPublished: &published})
	require.NoError(t, err)
	return s
}

func requireAppError(t *testing.T, err error, status int, code string) *domainerrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := domainerrors.As(err)
	require.True(t, ok, "expected *AppError, got %T: %v", err, err)
	require.Equal(t, status, appErr.Status, appErr.Message)
	if code != "" {
		require.Equal(t, code, appErr.Code)
	}
	return appErr
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
