package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/infrastructure/models"
	"gradvillage.backend/pkg/utils"
)

// StudentRepository implements student data operations
type StudentRepository struct {
	db *gorm.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts a student row
func (r *StudentRepository) Create(ctx context.Context, s *entities.Student) error {
	now := time.Now()
	if s.ID == uuid.Nil {
		s.ID = utils.GenerateUUIDv7()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return translateErr(GetDB(ctx, r.db).Create(fromStudentEntity(s)).Error)
}

// Update saves every mutable column of the student
func (r *StudentRepository) Update(ctx context.Context, s *entities.Student) error {
	s.UpdatedAt = time.Now()
	m := fromStudentEntity(s)
	result := GetDB(ctx, r.db).Model(&models.Student{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"first_name":           m.FirstName,
		"last_name":            m.LastName,
		"school":               m.School,
		"major":                m.Major,
		"bio":                  m.Bio,
		"photo_url":            m.PhotoURL,
		"registration_status":  m.RegistrationStatus,
		"payment_complete":     m.PaymentComplete,
		"registration_paid":    m.RegistrationPaid,
		"payment_status":       m.PaymentStatus,
		"payment_intent_id":    m.PaymentIntentID,
		"payment_completed_at": m.PaymentCompletedAt,
		"registration_fee":     m.RegistrationFee,
		"funding_goal":         m.FundingGoal,
		"is_published":         m.IsPublished,
		"updated_at":           m.UpdatedAt,
	})
	if result.Error != nil {
		return translateErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// GetByID gets a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Student, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByUserID gets the student owned by a user account
func (r *StudentRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Student, error) {
	return r.first(ctx, "user_id = ?", userID)
}

// GetByEmail gets a student by email
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*entities.Student, error) {
	return r.first(ctx, "email = ?", utils.NormalizeEmail(email))
}

// GetBySlug gets a student by public profile slug
func (r *StudentRepository) GetBySlug(ctx context.Context, slug string) (*entities.Student, error) {
	return r.first(ctx, "profile_slug = ?", slug)
}

func (r *StudentRepository) first(ctx context.Context, query string, arg interface{}) (*entities.Student, error) {
	var m models.Student
	if err := GetDB(ctx, r.db).Where(query, arg).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toStudentEntity(&m), nil
}

// List lists students with filters and returns the total count
func (r *StudentRepository) List(ctx context.Context, filter entities.StudentFilter) ([]*entities.Student, int64, error) {
	query := GetDB(ctx, r.db).Model(&models.Student{})

	if filter.Status != "" {
		query = query.Where("registration_status = ?", string(filter.Status))
	}
	if filter.PublishedOnly {
		query = query.Where("is_published = ? AND payment_complete = ?", true, true)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		term := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(school) LIKE ?", term, term, term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Student
	if err := query.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(utils.PaginationParams{Page: filter.Page, Limit: filter.Limit}.CalculateOffset()).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*entities.Student, 0, len(ms))
	for i := range ms {
		out = append(out, toStudentEntity(&ms[i]))
	}
	return out, total, nil
}

// UpdateRegistrationStatus sets the lifecycle status
func (r *StudentRepository) UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status entities.RegistrationStatus) error {
	result := GetDB(ctx, r.db).Model(&models.Student{}).Where("id = ?", id).Updates(map[string]interface{}{
		"registration_status": string(status),
		"updated_at":          time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// RecalculateAmountRaised rewrites amount_raised from completed donations
func (r *StudentRepository) RecalculateAmountRaised(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	db := GetDB(ctx, r.db)

	var sum decimal.NullDecimal
	if err := db.Model(&models.Donation{}).
		Select("SUM(net_amount)").
		Where("student_id = ? AND status = ?", id, string(entities.PaymentStatusCompleted)).
		Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	if sum.Valid {
		total = sum.Decimal.Round(2)
	}

	result := db.Model(&models.Student{}).Where("id = ?", id).Updates(map[string]interface{}{
		"amount_raised": total,
		"updated_at":    time.Now(),
	})
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, domainerrors.ErrNotFound
	}
	return total, nil
}

// CountByStatus groups students by registration status
func (r *StudentRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countByStatus(GetDB(ctx, r.db), &models.Student{}, "registration_status")
}

func fromStudentEntity(s *entities.Student) *models.Student {
	return &models.Student{
		ID:                 s.ID,
		UserID:             s.UserID,
		Email:              utils.NormalizeEmail(s.Email),
		FirstName:          s.FirstName,
		LastName:           s.LastName,
		School:             s.School,
		Major:              s.Major,
		Bio:                s.Bio,
		PhotoURL:           s.PhotoURL,
		ProfileSlug:        s.ProfileSlug,
		RegistrationStatus: string(s.RegistrationStatus),
		PaymentComplete:    s.PaymentComplete,
		RegistrationPaid:   s.RegistrationPaid,
		PaymentStatus:      string(s.PaymentStatus),
		PaymentIntentID:    s.PaymentIntentID.Ptr(),
		PaymentCompletedAt: s.PaymentCompletedAt.Ptr(),
		RegistrationFee:    s.RegistrationFee,
		FundingGoal:        s.FundingGoal,
		AmountRaised:       s.AmountRaised,
		IsPublished:        s.IsPublished,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func toStudentEntity(m *models.Student) *entities.Student {
	return &entities.Student{
		ID:                 m.ID,
		UserID:             m.UserID,
		Email:              m.Email,
		FirstName:          m.FirstName,
		LastName:           m.LastName,
		School:             m.School,
		Major:              m.Major,
		Bio:                m.Bio,
		PhotoURL:           m.PhotoURL,
		ProfileSlug:        m.ProfileSlug,
		RegistrationStatus: entities.RegistrationStatus(m.RegistrationStatus),
		PaymentComplete:    m.PaymentComplete,
		RegistrationPaid:   m.RegistrationPaid,
		PaymentStatus:      entities.PaymentStatus(m.PaymentStatus),
		PaymentIntentID:    null.StringFromPtr(m.PaymentIntentID),
		PaymentCompletedAt: null.TimeFromPtr(m.PaymentCompletedAt),
		RegistrationFee:    m.RegistrationFee,
		FundingGoal:        m.FundingGoal,
		AmountRaised:       m.AmountRaised,
		IsPublished:        m.IsPublished,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
