package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roominventory/errors"
)

// Response định nghĩa cấu trúc response
type Response struct {
	Code    int               `json:"code"`
	Mess    string            `json:"mess"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ResponseTotal struct {
	Code  int         `json:"code"`
	Mess  string      `json:"mess"`
	Data  interface{} `json:"data,omitempty"`
	Total int         `json:"total"`
}

// Success trả về response thành công
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: 1,
		Mess: "success",
		Data: data,
	})
}

// Created trả về 201 cùng dữ liệu vừa tạo
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code: 1,
		Mess: "created",
		Data: data,
	})
}

func SuccessWithTotal(c *gin.Context, data interface{}, total int) {
	c.JSON(http.StatusOK, ResponseTotal{
		Code:  1,
		Mess:  "success",
		Total: total,
		Data:  data,
	})
}

// BadRequest trả về response lỗi bad request
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:  0,
		Mess:  message,
		Error: string(errors.ErrCodeValidation),
	})
}

// FromError chuyển AppError sang HTTP status; lỗi nội bộ không lộ chi tiết
func FromError(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil || appErr.Code == errors.ErrCodeInternal {
		resp := Response{Code: 0, Mess: "internal error", Error: string(errors.ErrCodeInternal)}
		if appErr != nil && appErr.Retryable {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(StatusOf(appErr.Code), Response{
		Code:    0,
		Mess:    appErr.Message,
		Error:   string(appErr.Code),
		Details: appErr.Details,
	})
}

func StatusOf(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodeInvalidOperation, errors.ErrCodeBusinessRule:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
