package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akhbar-news/backoffice/internal/core/domain"
	"github.com/akhbar-news/backoffice/internal/core/rbac"
)

// PermissionHandler exposes the role/permission registry read-only.
type PermissionHandler struct{}

func NewPermissionHandler() *PermissionHandler {
	return &PermissionHandler{}
}

type permissionsResponse struct {
	Permissions []domain.Permission `json:"permissions"`
}

type rolesResponse struct {
	Roles  []domain.Role                       `json:"roles"`
	Matrix map[domain.Role][]domain.Permission `json:"matrix"`
}

type myPermissionsResponse struct {
	Role        domain.Role         `json:"role"`
	Permissions []domain.Permission `json:"permissions"`
}

// List returns every known permission in canonical order.
//
// @Summary      List permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  permissionsResponse
// @Failure      401  {object}  middleware.AccessErrorBody
// @Router       /api/permissions [get]
func (h *PermissionHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, permissionsResponse{Permissions: domain.AllPermissions()})
}

// Roles returns the ordered roles and the permissions each one grants.
//
// @Summary      List roles
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  rolesResponse
// @Failure      401  {object}  middleware.AccessErrorBody
// @Router       /api/roles [get]
func (h *PermissionHandler) Roles(c echo.Context) error {
	return c.JSON(http.StatusOK, rolesResponse{Roles: domain.AllRoles(), Matrix: rbac.Matrix()})
}

// Mine returns the caller's role and its permissions.
//
// @Summary      My permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  myPermissionsResponse
// @Failure      401  {object}  middleware.AccessErrorBody
// @Router       /api/permissions/me [get]
func (h *PermissionHandler) Mine(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, myPermissionsResponse{
		Role:        user.Role,
		Permissions: rbac.PermissionsForRole(user.Role),
	})
}
