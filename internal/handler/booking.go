package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/roomly/booking-service/internal/model"
	"github.com/roomly/booking-service/internal/query"
)

var bookingSortFields = query.AllowList{
	"createdAt":  "b.created_at",
	"updatedAt":  "b.updated_at",
	"startTime":  "b.start_time",
	"endTime":    "b.end_time",
	"status":     "b.status",
	"guestCount": "b.guest_count",
}

func (h *Handler) GetBookings(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	params, err := query.Parse(c.QueryParams(), bookingSortFields, "createdAt")
	if err != nil {
		return h.httpError(err)
	}
	var filter model.BookingFilter
	if raw := c.QueryParam("isTour"); raw != "" {
		isTour, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("isTour is invalid"))
		}
		filter.IsTour = &isTour
	}

	bookings, err := h.bookingSvc.ListBookings(c.Request().Context(), params, filter, ident)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, bookings)
}

func (h *Handler) CreateBooking(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	var req model.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	booking, err := h.bookingSvc.Create(c.Request().Context(), req, ident)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, booking)
}

func (h *Handler) UpdateBookingStatus(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	bookingID := c.Param("bookingId")
	if bookingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, errors.New("empty bookingId"))
	}
	var req model.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	booking, err := h.bookingSvc.Transition(c.Request().Context(), bookingID, req.Status, ident)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, booking)
}

func (h *Handler) CancelBooking(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	bookingID := c.Param("bookingId")
	if bookingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, errors.New("empty bookingId"))
	}
	booking, err := h.bookingSvc.Cancel(c.Request().Context(), bookingID, ident)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, booking)
}
