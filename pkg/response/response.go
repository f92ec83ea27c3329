package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Page wraps a paginated listing.
type Page struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

// AppError carries the HTTP status and application code for a failure.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func newAppError(status int, msg string) *AppError {
	return &AppError{HTTPStatus: status, Code: status, Message: msg}
}

func NewBadRequest(msg string) *AppError   { return newAppError(http.StatusBadRequest, msg) }
func NewUnauthorized(msg string) *AppError { return newAppError(http.StatusUnauthorized, msg) }
func NewForbidden(msg string) *AppError    { return newAppError(http.StatusForbidden, msg) }
func NewNotFound(msg string) *AppError     { return newAppError(http.StatusNotFound, msg) }
func NewConflict(msg string) *AppError     { return newAppError(http.StatusConflict, msg) }
func NewServerError(msg string) *AppError  { return newAppError(http.StatusInternalServerError, msg) }

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// Paged sends a Page of items.
func Paged(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	Success(c, Page{Total: total, Page: page, PageSize: pageSize, Items: items})
}

// Error writes err. An *AppError anywhere in the chain decides the status;
// anything else is reported as a 500 without leaking its text.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{Code: appErr.Code, Message: appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: "internal server error"})
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Code: status, Message: msg})
}

func BadRequest(c *gin.Context, msg string)   { abort(c, http.StatusBadRequest, msg) }
func Unauthorized(c *gin.Context, msg string) { abort(c, http.StatusUnauthorized, msg) }
func Forbidden(c *gin.Context, msg string)    { abort(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)     { abort(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)     { abort(c, http.StatusConflict, msg) }
func TooManyRequests(c *gin.Context, msg string) {
	abort(c, http.StatusTooManyRequests, msg)
}
func ServerError(c *gin.Context, msg string) { abort(c, http.StatusInternalServerError, msg) }
