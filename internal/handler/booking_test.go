package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/roomly/booking-service/internal/errs"
	"github.com/roomly/booking-service/internal/model"
	"github.com/roomly/booking-service/internal/query"
	"github.com/roomly/booking-service/pkg/auth"
)

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)
	env.booking.EXPECT().
		Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req model.CreateBookingRequest, ident auth.Identity) (model.Booking, error) {
			require.Equal(t, "room-1", req.RoomID)
			require.Equal(t, 3, req.GuestCount)
			require.Equal(t, "user-1", ident.Subject)
			return model.Booking{
				ID:          "b1",
				RoomID:      req.RoomID,
				RequesterID: ident.Subject,
				GuestCount:  req.GuestCount,
				Status:      model.StatusPending,
				Version:     1,
			}, nil
		})

	body := `{"roomId":"room-1","startTime":"2024-05-01T10:00:00Z","endTime":"2024-05-01T12:00:00Z","guestCount":3}`
	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/bookings",
		mintToken(t, "user-1", auth.RoleUser), body)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody(t, rec)
	require.Equal(t, "b1", resp["id"])
	require.Equal(t, "pending", resp["status"])
}

func TestCreateBooking_RejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)
	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/bookings",
		mintToken(t, "user-1", auth.RoleUser), `{"roomId":"room-1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, false, body["success"])
}

func TestCreateBooking_SlotTaken(t *testing.T) {
	env := newTestEnv(t)
	env.booking.EXPECT().
		Create(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(model.Booking{}, errs.ErrSlotTaken)

	body := `{"roomId":"room-1","startTime":"2024-05-01T10:00:00Z","endTime":"2024-05-01T12:00:00Z","guestCount":3}`
	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/bookings",
		mintToken(t, "user-1", auth.RoleUser), body)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateBookingStatus_Admin(t *testing.T) {
	env := newTestEnv(t)
	env.booking.EXPECT().
		Transition(gomock.Any(), "b1", model.StatusApproved, gomock.Any()).
		DoAndReturn(func(_ context.Context, id string, status model.Status, ident auth.Identity) (model.Booking, error) {
			require.True(t, ident.IsAdmin())
			return model.Booking{ID: id, Status: status, Version: 2}, nil
		})

	rec := doRequest(t, env.router, http.MethodPatch, "/api/v1/bookings/b1/status",
		mintToken(t, "admin-1", auth.RoleAdmin), `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "approved", body["status"])
	require.EqualValues(t, 2, body["version"])
}

func TestUpdateBookingStatus_ForbiddenForUsers(t *testing.T) {
	env := newTestEnv(t)
	rec := doRequest(t, env.router, http.MethodPatch, "/api/v1/bookings/b1/status",
		mintToken(t, "user-1", auth.RoleUser), `{"status":"approved"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, false, body["success"])
}

func TestUpdateBookingStatus_RejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	rec := doRequest(t, env.router, http.MethodPatch, "/api/v1/bookings/b1/status",
		mintToken(t, "admin-1", auth.RoleAdmin), `{"status":"RENTED"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateBookingStatus_Errors(t *testing.T) {
	tests := []struct {
		name     string
		svcErr   error
		wantCode int
	}{
		{"not found", errs.ErrNotFound, http.StatusNotFound},
		{"illegal transition", errs.ErrIllegalTransition, http.StatusConflict},
		{"version conflict", errs.ErrVersionConflict, http.StatusConflict},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.booking.EXPECT().
				Transition(gomock.Any(), "b1", model.StatusApproved, gomock.Any()).
				Return(model.Booking{}, tt.svcErr)

			rec := doRequest(t, env.router, http.MethodPatch, "/api/v1/bookings/b1/status",
				mintToken(t, "admin-1", auth.RoleAdmin), `{"status":"approved"}`)
			require.Equal(t, tt.wantCode, rec.Code)
			body := decodeBody(t, rec)
			require.Equal(t, false, body["success"])
			require.Equal(t, tt.svcErr.Error(), body["error"])
		})
	}
}

func TestCancelBooking(t *testing.T) {
	env := newTestEnv(t)
	env.booking.EXPECT().
		Cancel(gomock.Any(), "b1", gomock.Any()).
		Return(model.Booking{ID: "b1", Status: model.StatusCancelled}, nil)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/bookings/b1/cancel",
		mintToken(t, "user-1", auth.RoleUser), "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "cancelled", body["status"])
}

func TestCancelBooking_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	env.booking.EXPECT().
		Cancel(gomock.Any(), "b1", gomock.Any()).
		Return(model.Booking{}, errs.ErrForbidden)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/bookings/b1/cancel",
		mintToken(t, "user-2", auth.RoleUser), "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetBookings(t *testing.T) {
	env := newTestEnv(t)
	env.booking.EXPECT().
		ListBookings(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p query.Params, f model.BookingFilter, _ auth.Identity) (model.ListBookings, error) {
			require.Equal(t, []model.Status{model.StatusPending}, p.Statuses)
			require.NotNil(t, f.IsTour)
			require.False(t, *f.IsTour)
			return model.ListBookings{
				Paging:   model.Paging{TotalCount: 1, CurrentPage: 1, TotalPages: 1},
				Bookings: []model.Booking{{ID: "b1", Status: model.StatusPending}},
			}, nil
		})

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/bookings?status=pending&isTour=false",
		mintToken(t, "user-1", auth.RoleUser), "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Len(t, body["bookings"].([]interface{}), 1)
}

func TestGetBookings_InvalidCursor(t *testing.T) {
	env := newTestEnv(t)
	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/bookings?cursor=%21%21bad",
		mintToken(t, "user-1", auth.RoleUser), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, false, body["success"])
}

func TestGetBookings_InvalidIsTour(t *testing.T) {
	env := newTestEnv(t)
	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/bookings?isTour=maybe",
		mintToken(t, "user-1", auth.RoleUser), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
