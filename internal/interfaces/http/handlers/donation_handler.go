package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gradvillage.backend/internal/domain/entities"
	"gradvillage.backend/internal/interfaces/http/middleware"
	"gradvillage.backend/internal/interfaces/http/response"
	"gradvillage.backend/pkg/utils"
)

type donationService interface {
	CreateDonation(ctx context.Context, input *entities.CreateDonationInput) (*entities.DonationResult, error)
	ListMine(ctx context.Context, userID uuid.UUID, email string, page, limit int) ([]*entities.Donation, utils.PaginationMeta, error)
}

// DonationHandler handles donation endpoints
type DonationHandler struct {
	donationUsecase donationService
}

// NewDonationHandler creates a new donation handler
func NewDonationHandler(donationUsecase donationService) *DonationHandler {
	return &DonationHandler{donationUsecase: donationUsecase}
}

// CreateDonation charges a one-off gift to a student
// POST /api/donations
func (h *DonationHandler) CreateDonation(c *gin.Context) {
	var input entities.CreateDonationInput
	if !bindJSON(c, &input) {
		return
	}
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = strings.TrimSpace(c.GetHeader(middleware.IdempotencyHeader))
	}
	if userID, ok := middleware.GetUserID(c); ok {
		input.DonorUserID = &userID
		if input.DonorEmail == "" {
			input.DonorEmail, _ = middleware.GetUserEmail(c)
		}
	}

	result, err := h.donationUsecase.CreateDonation(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if result.IdempotentReplay {
		status = http.StatusOK
	}
	response.Success(c, status, result)
}

// ListMyDonations lists the signed-in donor's gifts
// GET /api/donations/mine
func (h *DonationHandler) ListMyDonations(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	email, _ := middleware.GetUserEmail(c)
	page, limit := pageParams(c)

	donations, meta, err := h.donationUsecase.ListMine(c.Request.Context(), userID, email, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"donations":  donations,
		"pagination": meta,
	})
}
