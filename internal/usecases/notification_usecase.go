package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/repositories"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/pkg/money"
	"gradvillage.backend/pkg/utils"
)

var errReceiptNotIssued = errors.New("tax receipt not issued yet")

// NotificationUsecase turns outbox messages into receipts and emails
type NotificationUsecase struct {
	mailer           services.Mailer
	receipts         *TaxReceiptUsecase
	receiptRepo      repositories.TaxReceiptRepository
	studentRepo      repositories.StudentRepository
	feeRepo          repositories.RegistrationFeeRepository
	donationRepo     repositories.DonationRepository
	verificationRepo repositories.SchoolVerificationRepository
	frontendURL      string
}

// NewNotificationUsecase creates a new notification usecase
func NewNotificationUsecase(
	mailer services.Mailer,
	receipts *TaxReceiptUsecase,
	receiptRepo repositories.TaxReceiptRepository,
	studentRepo repositories.StudentRepository,
	feeRepo repositories.RegistrationFeeRepository,
	donationRepo repositories.DonationRepository,
	verificationRepo repositories.SchoolVerificationRepository,
	frontendURL string,
) *NotificationUsecase {
	return &NotificationUsecase{
		mailer:           mailer,
		receipts:         receipts,
		receiptRepo:      receiptRepo,
		studentRepo:      studentRepo,
		feeRepo:          feeRepo,
		donationRepo:     donationRepo,
		verificationRepo: verificationRepo,
		frontendURL:      strings.TrimRight(frontendURL, "/"),
	}
}

// RegisterHandlers binds every notification topic on the dispatcher.
func (u *NotificationUsecase) RegisterHandlers(d *OutboxDispatcher) {
	d.Register(entities.TopicIssueTaxReceipt, u.handleIssueTaxReceipt)
	d.Register(entities.TopicPaymentConfirmation, u.handlePaymentConfirmation)
	d.Register(entities.TopicReceiptDownload, u.handleReceiptDownload)
	d.Register(entities.TopicWelcomeEmail, u.handleWelcome)
	d.Register(entities.TopicDonationReceipt, u.handleDonationReceipt)
	d.Register(entities.TopicDonationReceivedEmail, u.handleDonationReceived)
	d.Register(entities.TopicVerificationResult, u.handleVerificationResult)
}

func decodeSourceRef(msg *entities.OutboxMessage) (entities.SourceRef, error) {
	var ref entities.SourceRef
	if err := json.Unmarshal(msg.Payload, &ref); err != nil {
		return ref, fmt.Errorf("decode %s payload: %w", msg.Topic, err)
	}
	return ref, nil
}

func decodeEntityRef(msg *entities.OutboxMessage) (entities.EntityRef, error) {
	var ref entities.EntityRef
	if err := json.Unmarshal(msg.Payload, &ref); err != nil {
		return ref, fmt.Errorf("decode %s payload: %w", msg.Topic, err)
	}
	return ref, nil
}

func (u *NotificationUsecase) profileURL(s *entities.Student) string {
	return u.frontendURL + "/students/" + s.ProfileSlug
}

func (u *NotificationUsecase) send(ctx context.Context, template, to string, data interface{}) error {
	msg, err := renderEmail(template, to, data)
	if err != nil {
		return err
	}
	return u.mailer.Send(ctx, msg)
}

func (u *NotificationUsecase) handleIssueTaxReceipt(ctx context.Context, msg *entities.OutboxMessage) error {
	ref, err := decodeSourceRef(msg)
	if err != nil {
		return err
	}
	_, err = u.receipts.IssueForSource(ctx, ref)
	return err
}

// requireReceipt fails until the receipt for the source exists so the email is retried.
func (u *NotificationUsecase) requireReceipt(ctx context.Context, ref entities.SourceRef) (*entities.TaxReceipt, error) {
	receipt, err := u.receiptRepo.GetBySource(ctx, ref.SourceType, ref.SourceID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil, errReceiptNotIssued
	}
	return receipt, err
}

func (u *NotificationUsecase) handlePaymentConfirmation(ctx context.Context, msg *entities.OutboxMessage) error {
	ref, err := decodeSourceRef(msg)
	if err != nil {
		return err
	}
	fee, err := u.feeRepo.GetByID(ctx, ref.SourceID)
	if err != nil {
		return err
	}
	student, err := u.studentRepo.GetByID(ctx, fee.StudentID)
	if err != nil {
		return err
	}

	data := paymentConfirmationData{
		Name:     utils.DisplayName(student.FirstName),
		Amount:   money.Format(fee.Amount, fee.Currency),
		IntentID: fee.PaymentIntentID,
	}
	if receipt, err := u.receiptRepo.GetBySource(ctx, entities.SourceRegistrationFee, fee.ID); err == nil {
		data.ReceiptNumber = receipt.ReceiptNumber
		data.ReceiptURL = receipt.PDFURL
	}
	return u.send(ctx, emailPaymentConfirmation, fee.PayerEmail, data)
}

func (u *NotificationUsecase) handleReceiptDownload(ctx context.Context, msg *entities.OutboxMessage) error {
	ref, err := decodeSourceRef(msg)
	if err != nil {
		return err
	}
	receipt, err := u.requireReceipt(ctx, ref)
	if err != nil {
		return err
	}
	return u.send(ctx, emailReceiptDownload, receipt.DonorEmail, receiptDownloadData{
		Name:          receipt.DonorName,
		Amount:        money.Format(receipt.Amount, receipt.Currency),
		ReceiptNumber: receipt.ReceiptNumber,
		ReceiptURL:    receipt.PDFURL,
	})
}

func (u *NotificationUsecase) handleWelcome(ctx context.Context, msg *entities.OutboxMessage) error {
	ref, err := decodeEntityRef(msg)
	if err != nil {
		return err
	}
	student, err := u.studentRepo.GetByID(ctx, ref.ID)
	if err != nil {
		return err
	}
	return u.send(ctx, emailWelcome, student.Email, welcomeData{
		Name:         utils.DisplayName(student.FirstName),
		ProfileURL:   u.profileURL(student),
		DashboardURL: u.frontendURL + "/dashboard",
	})
}

func (u *NotificationUsecase) handleDonationReceipt(ctx context.Context, msg *entities.OutboxMessage) error {
	ref, err := decodeSourceRef(msg)
	if err != nil {
		return err
	}
	receipt, err := u.requireReceipt(ctx, ref)
	if err != nil {
		return err
	}
	donation, err := u.donationRepo.GetByID(ctx, ref.SourceID)
	if err != nil {
		return err
	}
	student, err := u.studentRepo.GetByID(ctx, donation.StudentID)
	if err != nil {
		return err
	}
	return u.send(ctx, emailDonationReceipt, donation.DonorEmail, donationReceiptData{
		DonorName:     donation.DonorName,
		StudentName:   utils.DisplayName(student.FirstName, student.LastName),
		Amount:        money.Format(donation.Amount, donation.Currency),
		ReceiptNumber: receipt.ReceiptNumber,
		ReceiptURL:    receipt.PDFURL,
	})
}

func (u *NotificationUsecase) handleDonationReceived(ctx context.Context, msg *entities.OutboxMessage) error {
	ref, err := decodeSourceRef(msg)
	if err != nil {
		return err
	}
	donation, err := u.donationRepo.GetByID(ctx, ref.SourceID)
	if err != nil {
		return err
	}
	student, err := u.studentRepo.GetByID(ctx, donation.StudentID)
	if err != nil {
		return err
	}
	donor := donation.DonorName
	if donation.Anonymous {
		donor = "An anonymous donor"
	}
	return u.send(ctx, emailDonationReceived, student.Email, donationReceivedData{
		StudentName: utils.DisplayName(student.FirstName),
		DonorName:   donor,
		Amount:      money.Format(donation.Amount, donation.Currency),
		Message:     donation.Message,
		ProfileURL:  u.profileURL(student),
	})
}

func (u *NotificationUsecase) handleVerificationResult(ctx context.Context, msg *entities.OutboxMessage) error {
	ref, err := decodeEntityRef(msg)
	if err != nil {
		return err
	}
	v, err := u.verificationRepo.GetByID(ctx, ref.ID)
	if err != nil {
		return err
	}
	if !v.VerificationEmail.Valid || v.VerificationEmail.String == "" {
		return nil
	}
	student, err := u.studentRepo.GetByID(ctx, v.StudentID)
	if err != nil {
		return err
	}
	return u.send(ctx, emailVerificationResult, v.VerificationEmail.String, verificationResultData{
		Name:       utils.DisplayName(student.FirstName),
		SchoolName: v.SchoolName,
		Verified:   v.Status == entities.VerificationVerified,
		Reason:     v.RejectionReason.String,
	})
}
