package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetProfile(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	profile, err := h.profileSvc.EnsureProfile(c.Request().Context(), ident)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}
