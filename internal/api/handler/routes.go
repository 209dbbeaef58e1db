package handler

import "github.com/labstack/echo/v4"

// RegisterRoutes は /health と /api/v1 配下のルートを登録する
func RegisterRoutes(e *echo.Echo, svc BookingServiceInterface, health *HealthHandler) {
	seats := NewSeatHandler(svc)
	bookings := NewBookingHandler(svc)

	e.GET("/health", health.Check)

	v1 := e.Group("/api/v1")
	v1.GET("/seats/available", seats.GetAvailable)
	v1.GET("/seats/status", seats.GetStatus)
	v1.GET("/seats/:code", seats.GetByCode)
	v1.DELETE("/seats/:code/booking", seats.Free)
	v1.POST("/bookings", bookings.Create)
	v1.GET("/bookings/search", bookings.Search)
}
