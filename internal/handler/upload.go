package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/roomly/booking-service/internal/model"
)

func (h *Handler) Upload(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	var req model.UploadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	switch req.Operation {
	case "cancel":
		if req.ItemID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("itemId is required for cancel"))
		}
		if err := h.storageSvc.Cancel(ctx, ident.Subject, req.ItemID); err != nil {
			return h.httpError(err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "removed": 1})
	default: // cleanup
		removed, err := h.storageSvc.Cleanup(ctx, ident.Subject)
		if err != nil {
			return h.httpError(err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "removed": removed})
	}
}
