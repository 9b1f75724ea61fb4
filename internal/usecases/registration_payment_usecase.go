package usecases

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/repositories"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/pkg/crypto"
	"gradvillage.backend/pkg/jwt"
	"gradvillage.backend/pkg/logger"
	"gradvillage.backend/pkg/metrics"
	"gradvillage.backend/pkg/money"
	"gradvillage.backend/pkg/utils"
)

// RegistrationPaymentUsecase charges the registration fee and activates the student account
type RegistrationPaymentUsecase struct {
	uow         repositories.UnitOfWork
	userRepo    repositories.UserRepository
	studentRepo repositories.StudentRepository
	feeRepo     repositories.RegistrationFeeRepository
	txRepo      repositories.PaymentTransactionRepository
	receiptRepo repositories.TaxReceiptRepository
	charger     *paymentCharger
	outbox      *OutboxDispatcher
	jwtService  *jwt.JWTService
	now         func() time.Time
}

// NewRegistrationPaymentUsecase creates a new registration payment usecase
func NewRegistrationPaymentUsecase(
	uow repositories.UnitOfWork,
	userRepo repositories.UserRepository,
	studentRepo repositories.StudentRepository,
	feeRepo repositories.RegistrationFeeRepository,
	txRepo repositories.PaymentTransactionRepository,
	receiptRepo repositories.TaxReceiptRepository,
	gateway services.PaymentGateway,
	outbox *OutboxDispatcher,
	jwtService *jwt.JWTService,
	cfg ChargeConfig,
	m *metrics.Metrics,
) *RegistrationPaymentUsecase {
	return &RegistrationPaymentUsecase{
		uow:         uow,
		userRepo:    userRepo,
		studentRepo: studentRepo,
		feeRepo:     feeRepo,
		txRepo:      txRepo,
		receiptRepo: receiptRepo,
		charger:     newPaymentCharger(gateway, cfg, m),
		outbox:      outbox,
		jwtService:  jwtService,
		now:         time.Now,
	}
}

// GatewayStatus describes the payment backend for health checks
type GatewayStatus struct {
	Provider         string `json:"provider"`
	TestCardsEnabled bool   `json:"testCardsEnabled"`
	Currency         string `json:"currency"`
}

// GatewayStatus reports which gateway and test mode are active.
func (u *RegistrationPaymentUsecase) GatewayStatus() GatewayStatus {
	return GatewayStatus{
		Provider:         u.charger.providerName(),
		TestCardsEnabled: u.charger.cfg.AllowTestCards,
		Currency:         u.charger.currency(""),
	}
}

type registrationRequest struct {
	email          string
	amount         money.Normalized
	unit           money.Unit
	currency       string
	data           entities.RegistrationData
	idempotencyKey string
}

func (u *RegistrationPaymentUsecase) validate(input *entities.RegistrationPaymentInput) (*registrationRequest, error) {
	if input == nil {
		return nil, domainerrors.BadRequest("request body is required")
	}
	email := utils.NormalizeEmail(input.Email)
	if email == "" {
		return nil, domainerrors.FieldError("email", "email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, domainerrors.FieldError("email", "email is invalid")
	}

	rd := input.RegistrationData
	if rd == nil {
		return nil, domainerrors.FieldError("registrationData", "registrationData is required")
	}
	data := entities.RegistrationData{
		FirstName: strings.TrimSpace(rd.FirstName),
		LastName:  strings.TrimSpace(rd.LastName),
		School:    strings.TrimSpace(rd.School),
		Email:     utils.NormalizeEmail(rd.Email),
		Major:     strings.TrimSpace(rd.Major),
		Password:  rd.Password,
	}
	switch {
	case data.FirstName == "":
		return nil, domainerrors.FieldError("registrationData.firstName", "first name is required")
	case data.LastName == "":
		return nil, domainerrors.FieldError("registrationData.lastName", "last name is required")
	case data.School == "":
		return nil, domainerrors.FieldError("registrationData.school", "school is required")
	}
	if data.Email == "" {
		return nil, domainerrors.FieldError("registrationData.email", "registration email is required")
	}
	if data.Email != email {
		return nil, domainerrors.FieldError("registrationData.email", "registration email must match the payment email")
	}
	if data.Password != "" && len(data.Password) < minPasswordLen {
		return nil, domainerrors.FieldError("registrationData.password", "password must be at least 8 characters")
	}

	unit, err := money.ParseUnit(input.AmountUnit)
	if err != nil {
		return nil, domainerrors.FieldError("amountUnit", err.Error())
	}
	amount, err := money.Normalize(input.Amount, unit)
	if err != nil {
		return nil, domainerrors.FieldError("amount", err.Error())
	}

	if input.TestCardData == nil && strings.TrimSpace(input.PaymentMethodID) == "" {
		return nil, domainerrors.FieldError("paymentMethodId", "paymentMethodId or testCardData is required")
	}
	if input.TestCardData != nil && strings.TrimSpace(input.TestCardData.Number) == "" && strings.TrimSpace(input.PaymentMethodID) == "" {
		return nil, domainerrors.FieldError("testCardData.number", "card number is required")
	}

	return &registrationRequest{
		email:          email,
		amount:         amount,
		unit:           unit,
		currency:       u.charger.currency(input.Currency),
		data:           data,
		idempotencyKey: strings.TrimSpace(input.IdempotencyKey),
	}, nil
}

// ProcessRegistrationPayment charges the fee and, on success, atomically records the
// student, fee, transaction and deferred side effects.
func (u *RegistrationPaymentUsecase) ProcessRegistrationPayment(ctx context.Context, input *entities.RegistrationPaymentInput) (*entities.RegistrationPaymentResult, error) {
	startedAt := u.now()

	req, err := u.validate(input)
	if err != nil {
		return nil, err
	}
	if req.amount.Legacy {
		logger.Warn(ctx, "Registration amount sent without amountUnit; unit inferred from magnitude",
			zap.String("email", req.email),
			zap.String("amount", input.Amount.String()),
			zap.String("normalized", req.amount.Value.String()),
		)
	}

	if req.idempotencyKey != "" {
		fee, err := u.feeRepo.GetByIdempotencyKey(ctx, req.idempotencyKey)
		if err == nil {
			return u.replay(ctx, fee, startedAt)
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return nil, err
		}
	}

	student, err := u.studentRepo.GetByEmail(ctx, req.email)
	switch {
	case err == nil:
		if student.RegistrationCompleted() {
			return nil, alreadyRegistered(student)
		}
	case errors.Is(err, domainerrors.ErrNotFound):
		student = nil
	default:
		return nil, err
	}

	user, err := u.userRepo.GetByEmail(ctx, req.email)
	switch {
	case err == nil:
		if user.Role != entities.UserRoleStudent {
			return nil, domainerrors.Conflict("email is already registered to a non-student account")
		}
	case errors.Is(err, domainerrors.ErrNotFound):
		user = nil
	default:
		return nil, err
	}

	passwordHash := ""
	if req.data.Password != "" {
		if passwordHash, err = crypto.HashPassword(req.data.Password); err != nil {
			return nil, err
		}
	}

	metadata := map[string]string{
		"flow":  FlowRegistration,
		"email": req.email,
	}
	if student != nil {
		metadata["student_id"] = student.ID.String()
	}
	pi, err := u.charger.charge(ctx, chargeRequest{
		Flow:            FlowRegistration,
		Amount:          req.amount.Value,
		Currency:        req.currency,
		PaymentMethodID: input.PaymentMethodID,
		TestCard:        input.TestCardData,
		Email:           req.email,
		Description:     RegistrationFeeDescription,
		Metadata:        metadata,
		IdempotencyKey:  req.idempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	if err := intentOutcomeError(pi); err != nil {
		return nil, err
	}

	receiptNumber, err := utils.GenerateReceiptNumber(u.now())
	if err != nil {
		return nil, err
	}

	studentCreated := student == nil
	var (
		fee    *entities.RegistrationFee
		paymTx *entities.PaymentTransaction
		msgs   []*entities.OutboxMessage
	)
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		locked := u.uow.WithLock(txCtx)
		current, err := u.studentRepo.GetByEmail(locked, req.email)
		switch {
		case err == nil:
			if current.RegistrationCompleted() {
				return alreadyRegistered(current)
			}
			student = current
			studentCreated = false
		case errors.Is(err, domainerrors.ErrNotFound):
			student = nil
		default:
			return err
		}

		if user == nil {
			user = &entities.User{
				Email:        req.email,
				Name:         utils.DisplayName(req.data.FirstName, req.data.LastName),
				PasswordHash: passwordHash,
				Role:         entities.UserRoleStudent,
			}
			if err := u.userRepo.Create(txCtx, user); err != nil {
				return err
			}
		} else if passwordHash != "" && user.PasswordHash == "" {
			user.PasswordHash = passwordHash
			if err := u.userRepo.Update(txCtx, user); err != nil {
				return err
			}
		}

		now := u.now()
		if student == nil {
			studentCreated = true
			student = &entities.Student{
				ID:          utils.GenerateUUIDv7(),
				UserID:      user.ID,
				Email:       req.email,
				FirstName:   req.data.FirstName,
				LastName:    req.data.LastName,
				School:      req.data.School,
				Major:       req.data.Major,
				ProfileSlug: utils.ProfileSlug(req.data.FirstName, req.data.LastName, now),
			}
		}
		student.UserID = user.ID
		student.RegistrationStatus = entities.RegistrationComplete
		student.PaymentComplete = true
		student.RegistrationPaid = true
		student.PaymentStatus = entities.PaymentStatusCompleted
		student.PaymentIntentID = null.StringFrom(pi.ID)
		student.PaymentCompletedAt = null.TimeFrom(now)
		student.RegistrationFee = req.amount.Value
		if studentCreated {
			if err := u.studentRepo.Create(txCtx, student); err != nil {
				return err
			}
		} else if err := u.studentRepo.Update(txCtx, student); err != nil {
			return err
		}

		fee = &entities.RegistrationFee{
			StudentID:       student.ID,
			PayerEmail:      req.email,
			Amount:          req.amount.Value,
			Currency:        req.currency,
			Status:          entities.PaymentStatusCompleted,
			PaymentIntentID: pi.ID,
			ReceiptNumber:   receiptNumber,
		}
		if req.idempotencyKey != "" {
			fee.IdempotencyKey = null.StringFrom(req.idempotencyKey)
		}
		if err := u.feeRepo.Create(txCtx, fee); err != nil {
			return err
		}

		net, feeAmount := u.charger.fees(req.amount.Value)
		paymTx = &entities.PaymentTransaction{
			SourceType:            entities.SourceRegistrationFee,
			SourceID:              fee.ID,
			Provider:              u.provider(pi),
			ProviderTransactionID: pi.ID,
			GrossAmount:           req.amount.Value,
			NetAmount:             net,
			FeeAmount:             feeAmount,
			Currency:              req.currency,
			Status:                entities.PaymentStatusCompleted,
			RiskMetadata:          pi.RiskMetadata,
		}
		if err := u.txRepo.Create(txCtx, paymTx); err != nil {
			return err
		}

		source := entities.SourceRef{SourceType: entities.SourceRegistrationFee, SourceID: fee.ID}
		for _, e := range []struct {
			topic   string
			payload interface{}
		}{
			{entities.TopicIssueTaxReceipt, source},
			{entities.TopicPaymentConfirmation, source},
			{entities.TopicReceiptDownload, source},
			{entities.TopicWelcomeEmail, entities.EntityRef{ID: student.ID}},
		} {
			msg, err := u.outbox.Enqueue(txCtx, e.topic, e.payload)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) && req.idempotencyKey != "" {
			if prior, lookupErr := u.feeRepo.GetByIdempotencyKey(ctx, req.idempotencyKey); lookupErr == nil {
				return u.replay(ctx, prior, startedAt)
			}
		}
		logger.Error(ctx, "Registration payment charged but not recorded",
			zap.String("payment_intent_id", pi.ID),
			zap.String("email", req.email),
			zap.Error(err),
		)
		return nil, err
	}

	sideEffects := u.outbox.Dispatch(ctx, msgs)

	token, err := u.issueToken(student)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Registration payment processed",
		zap.String("student_id", student.ID.String()),
		zap.String("registration_fee_id", fee.ID.String()),
		zap.String("payment_intent_id", pi.ID),
		zap.Bool("synthetic", pi.SyntheticResult),
	)

	txID := paymTx.ID
	return &entities.RegistrationPaymentResult{
		Message:       "Registration payment processed successfully",
		PaymentIntent: intentSummary(pi),
		User:          registeredUser(student),
		Token:         token,
		TaxReceipt:    receiptSummary(ctx, u.receiptRepo, entities.SourceRegistrationFee, fee.ID),
		SideEffects:   sideEffects,
		Metadata: entities.RegistrationMetadata{
			ProcessingStartedAt:  startedAt,
			ProcessedAt:          u.now(),
			StudentCreated:       studentCreated,
			RegistrationFeeID:    fee.ID,
			PaymentTransactionID: &txID,
			AmountUnit:           amountUnitLabel(req),
			TestMode:             u.charger.testMode(chargeRequest{TestCard: input.TestCardData}),
		},
	}, nil
}

// replay rebuilds the response for a fee already recorded under the idempotency key.
func (u *RegistrationPaymentUsecase) replay(ctx context.Context, fee *entities.RegistrationFee, startedAt time.Time) (*entities.RegistrationPaymentResult, error) {
	student, err := u.studentRepo.GetByID(ctx, fee.StudentID)
	if err != nil {
		return nil, err
	}
	token, err := u.issueToken(student)
	if err != nil {
		return nil, err
	}

	var txID *uuid.UUID
	if txs, err := u.txRepo.ListBySource(ctx, entities.SourceRegistrationFee, fee.ID); err == nil && len(txs) > 0 {
		txID = &txs[0].ID
	}

	logger.Info(ctx, "Registration payment replayed", zap.String("registration_fee_id", fee.ID.String()))
	return &entities.RegistrationPaymentResult{
		Message: "Registration payment already processed",
		PaymentIntent: entities.PaymentIntentSummary{
			ID:       fee.PaymentIntentID,
			Status:   services.IntentSucceeded,
			Amount:   fee.Amount,
			Currency: fee.Currency,
		},
		User:        registeredUser(student),
		Token:       token,
		TaxReceipt:  receiptSummary(ctx, u.receiptRepo, entities.SourceRegistrationFee, fee.ID),
		SideEffects: entities.SideEffectReport{Sent: []string{}, Pending: []string{}},
		Metadata: entities.RegistrationMetadata{
			ProcessingStartedAt:  startedAt,
			ProcessedAt:          u.now(),
			RegistrationFeeID:    fee.ID,
			PaymentTransactionID: txID,
			IdempotentReplay:     true,
		},
	}, nil
}

func (u *RegistrationPaymentUsecase) provider(pi *services.PaymentIntent) string {
	if pi.SyntheticResult {
		return "synthetic"
	}
	return u.charger.providerName()
}

func (u *RegistrationPaymentUsecase) issueToken(s *entities.Student) (string, error) {
	return u.jwtService.GenerateToken(jwt.Subject{
		ID:       s.ID,
		UserID:   s.UserID,
		Email:    s.Email,
		UserType: string(entities.UserRoleStudent),
		Verified: true,
	})
}

func amountUnitLabel(req *registrationRequest) string {
	if req.amount.Legacy {
		return "legacy"
	}
	return string(req.unit)
}

func alreadyRegistered(s *entities.Student) *domainerrors.AppError {
	return domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeAlreadyRegistered,
		"registration has already been completed for this email", domainerrors.ErrAlreadyExists).
		WithDetail("user", registeredUser(s))
}

func registeredUser(s *entities.Student) entities.RegisteredUser {
	return entities.RegisteredUser{
		ID:                 s.ID,
		UserID:             s.UserID,
		Email:              s.Email,
		FirstName:          s.FirstName,
		LastName:           s.LastName,
		School:             s.School,
		ProfileSlug:        s.ProfileSlug,
		RegistrationStatus: s.RegistrationStatus,
		PaymentComplete:    s.PaymentComplete,
		UserType:           entities.UserRoleStudent,
	}
}
