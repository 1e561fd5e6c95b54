package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/roomly/booking-service/internal/query"
)

var roomSortFields = query.AllowList{
	"name":      "name",
	"capacity":  "capacity",
	"createdAt": "created_at",
}

var tourSortFields = query.AllowList{
	"name":      "name",
	"capacity":  "capacity",
	"createdAt": "created_at",
}

func (h *Handler) GetRooms(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	params, err := query.Parse(c.QueryParams(), roomSortFields, "name")
	if err != nil {
		return h.httpError(err)
	}
	rooms, err := h.catalogSvc.ListRooms(c.Request().Context(), params, ident.IsAdmin())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, rooms)
}

func (h *Handler) GetRoom(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	roomID := c.Param("roomId")
	if roomID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, errors.New("empty roomId"))
	}
	room, err := h.catalogSvc.GetRoom(c.Request().Context(), roomID, ident.IsAdmin())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, room)
}

func (h *Handler) GetTours(c echo.Context) error {
	params, err := query.Parse(c.QueryParams(), tourSortFields, "name")
	if err != nil {
		return h.httpError(err)
	}
	tours, err := h.catalogSvc.ListTours(c.Request().Context(), params)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, tours)
}
