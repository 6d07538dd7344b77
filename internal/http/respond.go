package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// envelope is the response shape of every endpoint:
// { success, message?, data?, errors?, code? }.
type envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    gin.H        `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Code    string       `json:"code,omitempty"`
}

func ok(c *gin.Context, status int, message string, data gin.H) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message})
}

func failValidation(c *gin.Context, errs []FieldError) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "Validation failed", Errors: errs})
}

func abortCode(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message, Code: code})
}
