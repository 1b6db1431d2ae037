package common

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const internalErrorMessage = "サーバー内部でエラーが発生しました"

// AppError は HTTP ステータスと利用者向けメッセージを持つエラー。
// Cause はログにだけ出し、レスポンスには含めない。
type AppError struct {
	Status  int
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func BadRequest(message string, cause error) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message, Cause: cause}
}

func Unauthorized(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: message}
}

func Internal(cause error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: internalErrorMessage, Cause: cause}
}

// HandlerFunc is an http handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle はハンドラが返したエラーを共通の JSON 形式に変換する。
// AppError 以外のエラーはすべて 500 として扱う。
func Handle(logger *zap.Logger, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		var appErr *AppError
		if !errors.As(err, &appErr) {
			appErr = Internal(err)
		}

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", appErr.Status),
			zap.Error(err),
		}
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Debug("request rejected", fields...)
		}

		WriteError(logger, w, appErr.Status, appErr.Message)
	}
}
