package routes

import (
	"time"

	"authd/api/handler"
	"authd/api/middleware"
	"authd/internal/entity"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.IPRateLimiter
	LoginRate      *middleware.IPRateLimiter
}

func NewRouter(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware middleware.AuthMiddleware) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewIPRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.POST("/auth/register", r.Auth.Register, r.AuthRate.Middleware())
	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())
	e.POST("/auth/verify-email", r.Auth.VerifyEmail, r.AuthRate.Middleware())
	e.POST("/auth/resend-verification", r.Auth.ResendVerification, r.AuthRate.Middleware())
	e.POST("/auth/forgot-password", r.Auth.ForgotPassword, r.LoginRate.Middleware())
	e.POST("/auth/reset-password", r.Auth.ResetPassword, r.AuthRate.Middleware())
	e.POST("/auth/refresh-token", r.Auth.RefreshToken, r.AuthRate.Middleware())
	e.POST("/auth/logout", r.Auth.Logout, r.AuthMiddleware.RequireAuth)

	e.GET("/auth/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)
	e.POST("/admin/accounts/:id/block", r.Auth.AdminBlockAccount, r.AuthMiddleware.RequireAuth, middleware.RequireRole(entity.RoleAdmin))
}
