package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Clinic staff roles. super_admin passes every role check.
const (
	RoleSuperAdmin     = "super_admin"
	RoleDoctor         = "medico"
	RoleNurse          = "enfermero"
	RoleAdministrative = "administrativo"
	RolePharmacist     = "farmacologo"
	RolePatient        = "paciente"
)

var validRoles = map[string]bool{
	RoleSuperAdmin:     true,
	RoleDoctor:         true,
	RoleNurse:          true,
	RoleAdministrative: true,
	RolePharmacist:     true,
	RolePatient:        true,
}

// IsValidRole reports whether role is one of the known clinic roles.
func IsValidRole(role string) bool {
	return validRoles[role]
}

// RequireRole returns middleware that checks if the user has one of the
// specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if role == RoleSuperAdmin {
				return next(c)
			}
			for _, required := range roles {
				if role == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// RequireExactRole is like RequireRole but without the super_admin override,
// for actions that belong to a single role only.
func RequireExactRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if RoleFromContext(c.Request().Context()) != role {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("required role: %s", role))
			}
			return next(c)
		}
	}
}
