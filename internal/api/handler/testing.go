package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-seat-booking/internal/api"
)

// NewTestEcho はテスト用のEchoインスタンスを作成する
func NewTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	return e
}

// httpError はドメインエラーを対応するステータスの HTTPError に変換する
func httpError(err error) *echo.HTTPError {
	return echo.NewHTTPError(api.StatusCode(err), err.Error())
}
