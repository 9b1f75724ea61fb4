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

type studentService interface {
	GetProfile(ctx context.Context, studentID uuid.UUID) (*entities.Student, error)
	UpdateProfile(ctx context.Context, studentID uuid.UUID, input *entities.UpdateStudentProfileInput) (*entities.Student, error)
	SubmitVerification(ctx context.Context, studentID uuid.UUID, input *entities.SubmitVerificationInput) (*entities.SchoolVerification, error)
	GetVerificationStatus(ctx context.Context, studentID uuid.UUID) (*entities.SchoolVerification, error)
	GetRegistrationFeeStatus(ctx context.Context, studentID uuid.UUID) (*entities.RegistrationFeeStatus, error)
	RequestWelcomeBox(ctx context.Context, studentID uuid.UUID, input *entities.RequestWelcomeBoxInput) (*entities.WelcomeBox, error)
	GetWelcomeBox(ctx context.Context, studentID uuid.UUID) (*entities.WelcomeBox, error)
	ListPublic(ctx context.Context, search string, page, limit int) ([]*entities.PublicStudent, utils.PaginationMeta, error)
	GetPublicBySlug(ctx context.Context, slug string) (*entities.PublicStudent, error)
}

// StudentHandler handles student self-service and the public directory
type StudentHandler struct {
	studentUsecase studentService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentUsecase studentService) *StudentHandler {
	return &StudentHandler{studentUsecase: studentUsecase}
}

// GetProfile returns the signed-in student's profile
// GET /api/students/me
func (h *StudentHandler) GetProfile(c *gin.Context) {
	studentID, ok := requireSubjectID(c)
	if !ok {
		return
	}

	student, err := h.studentUsecase.GetProfile(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// UpdateProfile edits the signed-in student's profile
// PATCH /api/students/me
func (h *StudentHandler) UpdateProfile(c *gin.Context) {
	studentID, ok := requireSubjectID(c)
	if !ok {
		return
	}
	var input entities.UpdateStudentProfileInput
	if !bindJSON(c, &input) {
		return
	}

	student, err := h.studentUsecase.UpdateProfile(c.Request.Context(), studentID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// SubmitVerification files a school verification request
// POST /api/students/verify-school
func (h *StudentHandler) SubmitVerification(c *gin.Context) {
	studentID, ok := requireSubjectID(c)
	if !ok {
		return
	}
	var input entities.SubmitVerificationInput
	if !bindJSON(c, &input) {
		return
	}

	verification, err := h.studentUsecase.SubmitVerification(c.Request.Context(), studentID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"verification": verification})
}

// GetVerificationStatus GET /api/students/verify-school/status
func (h *StudentHandler) GetVerificationStatus(c *gin.Context) {
	studentID, ok := requireSubjectID(c)
	if !ok {
		return
	}

	verification, err := h.studentUsecase.GetVerificationStatus(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"verification": verification})
}

// GetRegistrationFeeStatus GET /api/students/registration-fee/status
func (h *StudentHandler) GetRegistrationFeeStatus(c *gin.Context) {
	studentID, ok := requireSubjectID(c)
	if !ok {
		return
	}

	status, err := h.studentUsecase.GetRegistrationFeeStatus(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// RequestWelcomeBox POST /api/students/welcome-box/request
func (h *StudentHandler) RequestWelcomeBox(c *gin.Context) {
	studentID, ok := requireSubjectID(c)
	if !ok {
		return
	}
	var input entities.RequestWelcomeBoxInput
	if !bindJSON(c, &input) {
		return
	}

	box, err := h.studentUsecase.RequestWelcomeBox(c.Request.Context(), studentID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"welcomeBox": box})
}

// GetWelcomeBox GET /api/students/welcome-box/status
func (h *StudentHandler) GetWelcomeBox(c *gin.Context) {
	studentID, ok := requireSubjectID(c)
	if !ok {
		return
	}

	box, err := h.studentUsecase.GetWelcomeBox(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"welcomeBox": box})
}

// ListPublic lists published students
// GET /api/students
func (h *StudentHandler) ListPublic(c *gin.Context) {
	page, limit := pageParams(c)

	students, meta, err := h.studentUsecase.ListPublic(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"students":   students,
		"pagination": meta,
	})
}

// GetPublicBySlug GET /api/students/:slug
func (h *StudentHandler) GetPublicBySlug(c *gin.Context) {
	student, err := h.studentUsecase.GetPublicBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}
