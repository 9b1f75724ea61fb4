package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/interfaces/http/middleware"
	"gradvillage.backend/internal/interfaces/http/response"
	"gradvillage.backend/pkg/utils"
)

// parseIDParam reads a uuid path parameter, writing a 400 on failure.
func parseIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, domainerrors.FieldError(name, "Invalid "+label+" ID"))
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	p := utils.ParsePagination(c.Query("page"), c.Query("limit"))
	return p.Page, p.Limit
}

// bindJSON binds the body and writes a 400 with the binder's message.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return false
	}
	return true
}

func requireUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return uuid.Nil, false
	}
	return userID, true
}

func requireSubjectID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetSubjectID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return uuid.Nil, false
	}
	return id, true
}
