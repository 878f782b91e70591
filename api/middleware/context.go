package middleware

import (
	"authd/internal/entity"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contextAccountIDKey = "auth_account_id"
	contextRoleKey      = "auth_role"
)

func SetAuthContext(c echo.Context, accountID uuid.UUID, role entity.AccountRole) {
	c.Set(contextAccountIDKey, accountID)
	c.Set(contextRoleKey, role)
}

func AccountIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextAccountIDKey)
	accountID, ok := value.(uuid.UUID)
	return accountID, ok
}

func RoleFromContext(c echo.Context) (entity.AccountRole, bool) {
	value := c.Get(contextRoleKey)
	role, ok := value.(entity.AccountRole)
	return role, ok
}
