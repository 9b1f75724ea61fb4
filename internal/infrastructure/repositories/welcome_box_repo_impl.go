package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/infrastructure/models"
	"gradvillage.backend/pkg/utils"
)

// WelcomeBoxRepository implements welcome box data operations
type WelcomeBoxRepository struct {
	db *gorm.DB
}

// NewWelcomeBoxRepository creates a new welcome box repository
func NewWelcomeBoxRepository(db *gorm.DB) *WelcomeBoxRepository {
	return &WelcomeBoxRepository{db: db}
}

// Create inserts a shipping request
func (r *WelcomeBoxRepository) Create(ctx context.Context, box *entities.WelcomeBox) error {
	now := time.Now()
	if box.ID == uuid.Nil {
		box.ID = utils.GenerateUUIDv7()
	}
	box.CreatedAt, box.UpdatedAt = now, now

	m := &models.WelcomeBox{
		ID:             box.ID,
		StudentID:      box.StudentID,
		RecipientName:  box.RecipientName,
		AddressLine1:   box.AddressLine1,
		AddressLine2:   box.AddressLine2,
		City:           box.City,
		State:          box.State,
		PostalCode:     box.PostalCode,
		Country:        box.Country,
		Status:         string(box.Status),
		TrackingNumber: box.TrackingNumber.Ptr(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return translateErr(GetDB(ctx, r.db).Create(m).Error)
}

// GetByID gets a welcome box by ID
func (r *WelcomeBoxRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.WelcomeBox, error) {
	var m models.WelcomeBox
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toWelcomeBoxEntity(&m), nil
}

// GetByStudentID gets the student's welcome box
func (r *WelcomeBoxRepository) GetByStudentID(ctx context.Context, studentID uuid.UUID) (*entities.WelcomeBox, error) {
	var m models.WelcomeBox
	if err := GetDB(ctx, r.db).Where("student_id = ?", studentID).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toWelcomeBoxEntity(&m), nil
}

// List lists welcome boxes by status
func (r *WelcomeBoxRepository) List(ctx context.Context, status entities.WelcomeBoxStatus, limit, offset int) ([]*entities.WelcomeBox, int64, error) {
	query := GetDB(ctx, r.db).Model(&models.WelcomeBox{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.WelcomeBox
	if err := query.Order("created_at ASC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*entities.WelcomeBox, 0, len(ms))
	for i := range ms {
		out = append(out, toWelcomeBoxEntity(&ms[i]))
	}
	return out, total, nil
}

// UpdateStatus moves a box forward only from the expected status
func (r *WelcomeBoxRepository) UpdateStatus(ctx context.Context, box *entities.WelcomeBox, from entities.WelcomeBoxStatus) error {
	box.UpdatedAt = time.Now()
	result := GetDB(ctx, r.db).Model(&models.WelcomeBox{}).
		Where("id = ? AND status = ?", box.ID, string(from)).
		Updates(map[string]interface{}{
			"status":          string(box.Status),
			"tracking_number": box.TrackingNumber.Ptr(),
			"shipped_at":      box.ShippedAt.Ptr(),
			"delivered_at":    box.DeliveredAt.Ptr(),
			"updated_at":      box.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

// CountByStatus groups boxes by status
func (r *WelcomeBoxRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countByStatus(GetDB(ctx, r.db), &models.WelcomeBox{}, "status")
}

func toWelcomeBoxEntity(m *models.WelcomeBox) *entities.WelcomeBox {
	return &entities.WelcomeBox{
		ID:             m.ID,
		StudentID:      m.StudentID,
		RecipientName:  m.RecipientName,
		AddressLine1:   m.AddressLine1,
		AddressLine2:   m.AddressLine2,
		City:           m.City,
		State:          m.State,
		PostalCode:     m.PostalCode,
		Country:        m.Country,
		Status:         entities.WelcomeBoxStatus(m.Status),
		TrackingNumber: null.StringFromPtr(m.TrackingNumber),
		ShippedAt:      null.TimeFromPtr(m.ShippedAt),
		DeliveredAt:    null.TimeFromPtr(m.DeliveredAt),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
