package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/infrastructure/models"
	"gradvillage.backend/pkg/utils"
)

// SchoolRepository implements school data operations
type SchoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository creates a new school repository
func NewSchoolRepository(db *gorm.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// FindOrCreate returns the school with the given name, creating it when absent
func (r *SchoolRepository) FindOrCreate(ctx context.Context, name, emailDomain string) (*entities.School, error) {
	name = strings.TrimSpace(name)
	db := GetDB(ctx, r.db)

	var m models.School
	err := db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&m).Error
	if err == nil {
		return toSchoolEntity(&m), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	m = models.School{
		ID:          utils.GenerateUUIDv7(),
		Name:        name,
		EmailDomain: strings.ToLower(strings.TrimSpace(emailDomain)),
		CreatedAt:   time.Now(),
	}
	if err := db.Create(&m).Error; err != nil {
		if errors.Is(translateErr(err), domainerrors.ErrAlreadyExists) {
			// lost a race with a concurrent insert
			if err := db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&m).Error; err != nil {
				return nil, translateErr(err)
			}
			return toSchoolEntity(&m), nil
		}
		return nil, err
	}
	return toSchoolEntity(&m), nil
}

func toSchoolEntity(m *models.School) *entities.School {
	return &entities.School{ID: m.ID, Name: m.Name, EmailDomain: m.EmailDomain, CreatedAt: m.CreatedAt}
}

// SchoolVerificationRepository implements verification data operations
type SchoolVerificationRepository struct {
	db *gorm.DB
}

// NewSchoolVerificationRepository creates a new verification repository
func NewSchoolVerificationRepository(db *gorm.DB) *SchoolVerificationRepository {
	return &SchoolVerificationRepository{db: db}
}

// Create inserts a verification request
func (r *SchoolVerificationRepository) Create(ctx context.Context, v *entities.SchoolVerification) error {
	now := time.Now()
	if v.ID == uuid.Nil {
		v.ID = utils.GenerateUUIDv7()
	}
	v.CreatedAt, v.UpdatedAt = now, now

	m := &models.SchoolVerification{
		ID:                v.ID,
		StudentID:         v.StudentID,
		SchoolID:          v.SchoolID,
		SchoolName:        v.SchoolName,
		Status:            string(v.Status),
		Method:            string(v.Method),
		VerificationEmail: v.VerificationEmail.Ptr(),
		DocumentURL:       v.DocumentURL.Ptr(),
		RejectionReason:   v.RejectionReason.Ptr(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return translateErr(GetDB(ctx, r.db).Omit("Student").Create(m).Error)
}

// GetByID gets a verification with its student
func (r *SchoolVerificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SchoolVerification, error) {
	var m models.SchoolVerification
	if err := GetDB(ctx, r.db).Preload("Student").Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toVerificationEntity(&m), nil
}

// GetByStudentID gets the student's verification
func (r *SchoolVerificationRepository) GetByStudentID(ctx context.Context, studentID uuid.UUID) (*entities.SchoolVerification, error) {
	var m models.SchoolVerification
	if err := GetDB(ctx, r.db).Where("student_id = ?", studentID).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toVerificationEntity(&m), nil
}

// List lists verifications, oldest pending first
func (r *SchoolVerificationRepository) List(ctx context.Context, status entities.VerificationStatus, limit, offset int) ([]*entities.SchoolVerification, int64, error) {
	query := GetDB(ctx, r.db).Model(&models.SchoolVerification{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.SchoolVerification
	if err := query.Preload("Student").Order("created_at ASC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*entities.SchoolVerification, 0, len(ms))
	for i := range ms {
		out = append(out, toVerificationEntity(&ms[i]))
	}
	return out, total, nil
}

// Review records the admin decision while the verification is still pending
func (r *SchoolVerificationRepository) Review(ctx context.Context, review entities.VerificationReview) error {
	result := GetDB(ctx, r.db).Model(&models.SchoolVerification{}).
		Where("id = ? AND status = ?", review.ID, string(entities.VerificationPending)).
		Updates(map[string]interface{}{
			"status":           string(review.Status),
			"rejection_reason": review.RejectionReason.Ptr(),
			"reviewed_by":      review.ReviewedBy,
			"reviewed_at":      review.ReviewedAt,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := GetDB(ctx, r.db).Model(&models.SchoolVerification{}).Where("id = ?", review.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrNotFound
		}
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

// Resubmit moves a rejected verification back to pending
func (r *SchoolVerificationRepository) Resubmit(ctx context.Context, v *entities.SchoolVerification) error {
	v.UpdatedAt = time.Now()
	result := GetDB(ctx, r.db).Model(&models.SchoolVerification{}).
		Where("id = ? AND status = ?", v.ID, string(entities.VerificationRejected)).
		Updates(map[string]interface{}{
			"school_id":          v.SchoolID,
			"school_name":        v.SchoolName,
			"status":             string(entities.VerificationPending),
			"method":             string(v.Method),
			"verification_email": v.VerificationEmail.Ptr(),
			"document_url":       v.DocumentURL.Ptr(),
			"rejection_reason":   nil,
			"reviewed_by":        nil,
			"reviewed_at":        nil,
			"updated_at":         v.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidTransition
	}
	v.Status = entities.VerificationPending
	v.RejectionReason = null.String{}
	v.ReviewedBy = nil
	v.ReviewedAt = null.Time{}
	return nil
}

// CountByStatus groups verifications by status
func (r *SchoolVerificationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countByStatus(GetDB(ctx, r.db), &models.SchoolVerification{}, "status")
}

func toVerificationEntity(m *models.SchoolVerification) *entities.SchoolVerification {
	v := &entities.SchoolVerification{
		ID:                m.ID,
		StudentID:         m.StudentID,
		SchoolID:          m.SchoolID,
		SchoolName:        m.SchoolName,
		Status:            entities.VerificationStatus(m.Status),
		Method:            entities.VerificationMethod(m.Method),
		VerificationEmail: null.StringFromPtr(m.VerificationEmail),
		DocumentURL:       null.StringFromPtr(m.DocumentURL),
		RejectionReason:   null.StringFromPtr(m.RejectionReason),
		ReviewedBy:        m.ReviewedBy,
		ReviewedAt:        null.TimeFromPtr(m.ReviewedAt),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.Student != nil {
		v.Student = toStudentEntity(m.Student)
	}
	return v
}
