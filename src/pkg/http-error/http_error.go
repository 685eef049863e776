package httperror

import "net/http"

type CommonError struct {
	Code         int    `json:"code"`
	ResponseCode int    `json:"responseCode,omitempty"`
	Message      string `json:"message"`
}

func (e *CommonError) Error() string {
	return e.Message
}

func NewBadRequest() *CommonError {
	return &CommonError{
		Code:    http.StatusBadRequest,
		Message: "bad request",
	}
}

func NewUnauthorized() *CommonError {
	return &CommonError{
		Code:    http.StatusUnauthorized,
		Message: "unauthorized",
	}
}

func NewForbidden() *CommonError {
	return &CommonError{
		Code:    http.StatusForbidden,
		Message: "forbidden",
	}
}

func NewNotFound() *CommonError {
	return &CommonError{
		Code:    http.StatusNotFound,
		Message: "not found",
	}
}

func NewConflict() *CommonError {
	return &CommonError{
		Code:    http.StatusConflict,
		Message: "conflict",
	}
}

func NewInternalServerError() *CommonError {
	return &CommonError{
		Code:    http.StatusInternalServerError,
		Message: "internal server error",
	}
}
