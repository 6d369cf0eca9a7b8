package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qwitter-backend/internal/shared/apperrors"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success responses

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

// Error responses

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message)
}

func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// FromError maps a classified command failure onto the HTTP envelope,
// always exposing only the user-displayable message.
func FromError(c *gin.Context, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		ErrorResponse(c, http.StatusBadRequest, "VALIDATION", apperrors.UserMessage(err))
	case apperrors.KindImageTooLarge:
		ErrorResponse(c, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", apperrors.UserMessage(err))
	case apperrors.KindAuth:
		ErrorResponse(c, http.StatusUnauthorized, "AUTH", apperrors.UserMessage(err))
	case apperrors.KindRemoteRead, apperrors.KindRemoteWrite:
		ErrorResponse(c, http.StatusBadGateway, "REMOTE", apperrors.UserMessage(err))
	default:
		InternalError(c, "Something went wrong")
	}
}
