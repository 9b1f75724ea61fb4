package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gradvillage.backend/internal/domain/entities"
	"gradvillage.backend/internal/interfaces/http/response"
	"gradvillage.backend/pkg/utils"
)

type adminService interface {
	ListStudents(ctx context.Context, filter entities.StudentFilter) ([]*entities.Student, utils.PaginationMeta, error)
	GetStudent(ctx context.Context, id uuid.UUID) (*entities.StudentDetail, error)
	UpdateStudentStatus(ctx context.Context, id uuid.UUID, input *entities.UpdateStudentStatusInput) (*entities.Student, error)
	ListVerifications(ctx context.Context, status entities.VerificationStatus, page, limit int) ([]*entities.SchoolVerification, utils.PaginationMeta, error)
	GetVerification(ctx context.Context, id uuid.UUID) (*entities.SchoolVerification, error)
	ReviewVerification(ctx context.Context, adminID, id uuid.UUID, input *entities.ReviewVerificationInput) (*entities.SchoolVerification, error)
	GetAnalytics(ctx context.Context) (*entities.Analytics, error)
	ListWelcomeBoxes(ctx context.Context, status entities.WelcomeBoxStatus, page, limit int) ([]*entities.WelcomeBox, utils.PaginationMeta, error)
	UpdateWelcomeBox(ctx context.Context, id uuid.UUID, input *entities.UpdateWelcomeBoxInput) (*entities.WelcomeBox, error)
	ListOutbox(ctx context.Context, status entities.OutboxStatus, page, limit int) ([]*entities.OutboxMessage, utils.PaginationMeta, error)
	RetryOutbox(ctx context.Context, id uuid.UUID) (*entities.OutboxMessage, error)
}

// AdminHandler handles admin endpoints
type AdminHandler struct {
	adminUsecase adminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminUsecase adminService) *AdminHandler {
	return &AdminHandler{adminUsecase: adminUsecase}
}

// ListStudents GET /api/admin/students
func (h *AdminHandler) ListStudents(c *gin.Context) {
	page, limit := pageParams(c)
	students, meta, err := h.adminUsecase.ListStudents(c.Request.Context(), entities.StudentFilter{
		Status: entities.RegistrationStatus(c.Query("status")),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"students":   students,
		"pagination": meta,
	})
}

// GetStudent GET /api/admin/students/:id
func (h *AdminHandler) GetStudent(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "student")
	if !ok {
		return
	}

	detail, err := h.adminUsecase.GetStudent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// UpdateStudentStatus PATCH /api/admin/students/:id/status
func (h *AdminHandler) UpdateStudentStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "student")
	if !ok {
		return
	}
	var input entities.UpdateStudentStatusInput
	if !bindJSON(c, &input) {
		return
	}

	student, err := h.adminUsecase.UpdateStudentStatus(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// ListVerifications GET /api/admin/verifications
func (h *AdminHandler) ListVerifications(c *gin.Context) {
	page, limit := pageParams(c)
	verifications, meta, err := h.adminUsecase.ListVerifications(c.Request.Context(), entities.VerificationStatus(c.Query("status")), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"verifications": verifications,
		"pagination":    meta,
	})
}

// GetVerification GET /api/admin/verifications/:id
func (h *AdminHandler) GetVerification(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "verification")
	if !ok {
		return
	}

	verification, err := h.adminUsecase.GetVerification(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"verification": verification})
}

// ReviewVerification approves or rejects a pending verification
// PATCH /api/admin/verifications/:id
func (h *AdminHandler) ReviewVerification(c *gin.Context) {
	adminID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "verification")
	if !ok {
		return
	}
	var input entities.ReviewVerificationInput
	if !bindJSON(c, &input) {
		return
	}

	verification, err := h.adminUsecase.ReviewVerification(c.Request.Context(), adminID, id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"verification": verification})
}

// GetAnalytics GET /api/admin/analytics
func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	analytics, err := h.adminUsecase.GetAnalytics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, analytics)
}

// ListWelcomeBoxes GET /api/admin/welcome-boxes
func (h *AdminHandler) ListWelcomeBoxes(c *gin.Context) {
	page, limit := pageParams(c)
	boxes, meta, err := h.adminUsecase.ListWelcomeBoxes(c.Request.Context(), entities.WelcomeBoxStatus(c.Query("status")), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"welcomeBoxes": boxes,
		"pagination":   meta,
	})
}

// UpdateWelcomeBox PATCH /api/admin/welcome-boxes/:id
func (h *AdminHandler) UpdateWelcomeBox(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "welcome box")
	if !ok {
		return
	}
	var input entities.UpdateWelcomeBoxInput
	if !bindJSON(c, &input) {
		return
	}

	box, err := h.adminUsecase.UpdateWelcomeBox(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"welcomeBox": box})
}

// ListOutbox GET /api/admin/outbox
func (h *AdminHandler) ListOutbox(c *gin.Context) {
	page, limit := pageParams(c)
	messages, meta, err := h.adminUsecase.ListOutbox(c.Request.Context(), entities.OutboxStatus(c.Query("status")), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"messages":   messages,
		"pagination": meta,
	})
}

// RetryOutbox requeues a dead message
// POST /api/admin/outbox/:id/retry
func (h *AdminHandler) RetryOutbox(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "outbox message")
	if !ok {
		return
	}

	msg, err := h.adminUsecase.RetryOutbox(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": msg})
}
