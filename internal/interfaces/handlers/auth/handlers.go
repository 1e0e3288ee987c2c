package auth

import (
	"context"
	"errors"

	authsvc "propertydeals-backend/internal/application/auth"
	"propertydeals-backend/internal/middleware"
	"propertydeals-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const operatorSessionsPrefix = "operator_sessions:"

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Authenticator authsvc.Authenticator
	Rdb           *redis.Client
	Config        middleware.SessionConfig
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login: check operator credentials, create session, set cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.Authenticator == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, authsvc.ErrCredentialsRequired.Error(), fiber.StatusBadRequest, nil)
	}

	op, err := h.Authenticator.Authenticate(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrCredentialsRequired):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, authsvc.ErrInvalidCredentials):
			log.Info().Str("path", "/auth/login").Str("username", req.Username).Msg("auth/login: rejected")
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		case errors.Is(err, authsvc.ErrNotConfigured):
			return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionOperator(c, middleware.SessionOperator{Username: op.Username, Role: op.Role})

	ctx := context.Background()
	if err := h.Rdb.SAdd(ctx, operatorSessionsPrefix+op.Username, sessionID).Err(); err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	log.Info().Str("username", op.Username).Msg("auth/login: operator signed in")
	return response.Success(c, "Login successful", fiber.Map{"operator": op}, nil)
}

// Me GET /api/v1/auth/me: current operator.
func (h *Handlers) Me(c *fiber.Ctx) error {
	op, err := authsvc.VerifyOperator(middleware.GetUser(c))
	if err != nil {
		log.Debug().Str("path", "/auth/me").Bool("session_id_present", middleware.GetSessionID(c) != "").
			Msg("auth/me: not authenticated")
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"operator": op}, nil)
}

// Logout DELETE /api/v1/auth/logout: drop the session from Redis and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	if op, err := authsvc.VerifyOperator(middleware.GetUser(c)); err == nil && sessionID != "" {
		_ = h.Rdb.SRem(ctx, operatorSessionsPrefix+op.Username, sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}

	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}
