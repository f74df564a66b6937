package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "facetimer/backend/internal/errors"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}

	errorBody := gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Details != nil {
		errorBody["details"] = apiErr.Details
	}

	c.JSON(apiErr.Status, gin.H{
		"error": errorBody,
	})
}

func writeInvalidJSON(c *gin.Context) {
	writeError(c, apperrors.BadRequest(apperrors.CodeInvalidJSON, "invalid request body"))
}

func writeInvalidQuery(c *gin.Context, message string) {
	writeError(c, apperrors.BadRequest(apperrors.CodeInvalidQuery, message))
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
