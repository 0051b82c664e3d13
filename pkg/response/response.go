package response

import (
	"errors"
	"net/http"

	"marketplace/internal/model"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

const (
	CodeInvalidTransition    = 1001
	CodeInsufficientFunds    = 1002
	CodeOutOfStock           = 1003
	CodeConflict             = 1004
	CodeBalanceInconsistency = 1500
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeParamError, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func ServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeServerError, "internal server error")
}

// FromError writes the envelope for err. Expected outcomes carry their message,
// anything else becomes a generic 500 so internals never leak.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrBalanceInconsistency):
		Error(c, http.StatusInternalServerError, CodeBalanceInconsistency, "balance inconsistency, operator notified")
	case errors.Is(err, model.ErrValidation):
		Error(c, http.StatusBadRequest, CodeParamError, err.Error())
	case errors.Is(err, model.ErrForbidden):
		Error(c, http.StatusForbidden, CodeForbidden, err.Error())
	case errors.Is(err, model.ErrNotFound):
		Error(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, model.ErrInvalidTransition):
		Error(c, http.StatusConflict, CodeInvalidTransition, err.Error())
	case errors.Is(err, model.ErrConflict):
		Error(c, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, model.ErrInsufficientFunds):
		Error(c, http.StatusUnprocessableEntity, CodeInsufficientFunds, err.Error())
	case errors.Is(err, model.ErrOutOfStock):
		Error(c, http.StatusUnprocessableEntity, CodeOutOfStock, err.Error())
	default:
		ServerError(c)
	}
}
