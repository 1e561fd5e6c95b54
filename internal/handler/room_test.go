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

func TestGetRooms_Pagination(t *testing.T) {
	env := newTestEnv(t)

	next := query.EncodeCursor("Room B")
	env.catalog.EXPECT().
		ListRooms(gomock.Any(), gomock.Any(), false).
		DoAndReturn(func(_ context.Context, p query.Params, _ bool) (model.ListRooms, error) {
			require.Equal(t, 1, p.Page)
			require.Equal(t, 2, p.Limit)
			require.Equal(t, "name", p.SortColumn)
			return model.ListRooms{
				Paging: model.Paging{
					TotalCount:  5,
					CurrentPage: 1,
					TotalPages:  3,
					NextCursor:  &next,
					HasNext:     true,
				},
				Rooms: []model.Room{
					{ID: "r1", Name: "Room A", Capacity: 4, IsActive: true},
					{ID: "r2", Name: "Room B", Capacity: 6, IsActive: true},
				},
			}, nil
		})

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/rooms?limit=2&page=1",
		mintToken(t, "user-1", auth.RoleUser), "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.EqualValues(t, 5, body["totalCount"])
	require.EqualValues(t, 1, body["currentPage"])
	require.EqualValues(t, 3, body["totalPages"])
	require.Equal(t, true, body["hasNext"])
	rooms := body["rooms"].([]interface{})
	require.Len(t, rooms, 2)
	require.Equal(t, "Room A", rooms[0].(map[string]interface{})["name"])
	require.Equal(t, "Room B", rooms[1].(map[string]interface{})["name"])
}

// Admins see inactive rooms, regular users do not.
func TestGetRooms_AdminIncludesInactive(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.EXPECT().
		ListRooms(gomock.Any(), gomock.Any(), true).
		Return(model.ListRooms{Rooms: []model.Room{}}, nil)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/rooms",
		mintToken(t, "admin-1", auth.RoleAdmin), "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetRooms_RejectsUnknownSortField(t *testing.T) {
	env := newTestEnv(t)
	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/rooms?sortBy=password",
		mintToken(t, "user-1", auth.RoleUser), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, false, body["success"])
}

func TestGetRoom_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.EXPECT().
		GetRoom(gomock.Any(), "missing", false).
		Return(model.Room{}, errs.ErrNotFound)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/rooms/missing",
		mintToken(t, "user-1", auth.RoleUser), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"success":false,"error":"not found"}`, rec.Body.String())
}

func TestGetTours(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.EXPECT().
		ListTours(gomock.Any(), gomock.Any()).
		Return(model.ListTours{
			Paging: model.Paging{TotalCount: 1, CurrentPage: 1, TotalPages: 1},
			Tours:  []model.Tour{{ID: "t1", Name: "Archive Tour", Capacity: 10, DurationMinutes: 45, IsActive: true}},
		}, nil)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/tours",
		mintToken(t, "user-1", auth.RoleUser), "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	tours := body["tours"].([]interface{})
	require.Len(t, tours, 1)
	require.Equal(t, "Archive Tour", tours[0].(map[string]interface{})["name"])
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)
	env.profile.EXPECT().
		EnsureProfile(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ident auth.Identity) (model.Profile, error) {
			require.Equal(t, "user-1", ident.Subject)
			return model.Profile{ID: ident.Subject, Email: ident.Email, FullName: ident.Name, Role: ident.Role}, nil
		})

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/profile",
		mintToken(t, "user-1", auth.RoleUser), "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "user-1", body["id"])
	require.Equal(t, "user-1@lib.io", body["email"])
}
