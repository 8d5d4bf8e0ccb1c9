package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NoStore marks the response as uncacheable. Endpoints with side effects use it.
func NoStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Fail sends an error envelope with the given status.
func Fail(c *gin.Context, status int, err string) {
	c.JSON(status, Body{Success: false, Error: err})
}

// AbortUnauthorized sends 401 and stops the handler chain.
func AbortUnauthorized(c *gin.Context, err string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) { Fail(c, http.StatusBadRequest, err) }

// NotFound sends 404.
func NotFound(c *gin.Context, err string) { Fail(c, http.StatusNotFound, err) }

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) { Fail(c, http.StatusServiceUnavailable, err) }

// Internal sends 500.
func Internal(c *gin.Context, err string) { Fail(c, http.StatusInternalServerError, err) }
