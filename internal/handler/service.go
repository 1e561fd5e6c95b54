package handler

import (
	"context"

	"github.com/roomly/booking-service/internal/model"
	"github.com/roomly/booking-service/internal/query"
	"github.com/roomly/booking-service/internal/service"
	"github.com/roomly/booking-service/internal/storage"
	"github.com/roomly/booking-service/pkg/auth"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookingService interface {
	Create(ctx context.Context, req model.CreateBookingRequest, requester auth.Identity) (model.Booking, error)
	Transition(ctx context.Context, bookingID string, newStatus model.Status, actor auth.Identity) (model.Booking, error)
	Cancel(ctx context.Context, bookingID string, requester auth.Identity) (model.Booking, error)
	ListBookings(ctx context.Context, p query.Params, f model.BookingFilter, ident auth.Identity) (model.ListBookings, error)
}

type CatalogService interface {
	GetRoom(ctx context.Context, roomID string, includeInactive bool) (model.Room, error)
	ListRooms(ctx context.Context, p query.Params, includeInactive bool) (model.ListRooms, error)
	ListTours(ctx context.Context, p query.Params) (model.ListTours, error)
}

type ProfileService interface {
	EnsureProfile(ctx context.Context, ident auth.Identity) (model.Profile, error)
}

type StorageService interface {
	Cancel(ctx context.Context, owner, itemID string) error
	Cleanup(ctx context.Context, owner string) (int, error)
}

var (
	_ BookingService = (*service.Service)(nil)
	_ CatalogService = (*service.Service)(nil)
	_ ProfileService = (*service.Service)(nil)
	_ StorageService = (*storage.Cleaner)(nil)
)
