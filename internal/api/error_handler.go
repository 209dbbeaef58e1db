package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-booking/internal/application"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-booking/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// StatusCode はドメインエラーを HTTP ステータスに変換する
func StatusCode(err error) int {
	var he *echo.HTTPError
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, seat.ErrSeatNotFound), errors.Is(err, booking.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, seat.ErrSeatNotBookable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, seat.ErrSeatAlreadyReserved), errors.Is(err, seat.ErrSeatNotReserved),
		errors.Is(err, booking.ErrDuplicateReference), errors.Is(err, booking.ErrSeatTaken),
		errors.Is(err, application.ErrSeatBusy):
		return http.StatusConflict
	case errors.As(err, &ve), errors.Is(err, booking.ErrPassportRequired),
		errors.Is(err, booking.ErrFirstNameRequired), errors.Is(err, booking.ErrLastNameRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := StatusCode(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			resp.Error = m
		} else {
			resp.Error = http.StatusText(code)
		}
		if he.Internal != nil {
			resp.Details = he.Internal.Error()
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
		resp.Error = "内部サーバーエラー"
		resp.Details = ""
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, resp)
	}
	if err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
