package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuccessResponse is the {success, message, data} envelope every handler answers with.
func SuccessResponse(message string, data any) gin.H {
	return gin.H{
		"success": true,
		"message": message,
		"data":    data,
	}
}

func ErrorResponse(message string) gin.H {
	return gin.H{
		"success": false,
		"message": message,
	}
}

func NewRequestID() string {
	return uuid.NewString()
}
