package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/roomly/booking-service/internal/model"
	"github.com/roomly/booking-service/internal/query"
)

type Repository interface {
	GetBooking(ctx context.Context, bookingID string) (model.Booking, error)
	CreateBooking(ctx context.Context, req model.CreateBookingRequest, requesterID string) (model.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status model.Status, version int) (model.Booking, error)
	ListBookings(ctx context.Context, p query.Params, f model.BookingFilter) (model.ListBookings, error)
	SweepExpiredApproved(ctx context.Context, now time.Time) (int64, error)
	InsertBookingEvent(ctx context.Context, bookingID string, status model.Status, actor string) error

	GetRoom(ctx context.Context, roomID string) (model.Room, error)
	ListRooms(ctx context.Context, p query.Params, includeInactive bool) (model.ListRooms, error)

	ListTours(ctx context.Context, p query.Params) (model.ListTours, error)

	UpsertProfile(ctx context.Context, profile model.Profile) (model.Profile, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	bookingsTableName      = `bookings`
	roomsTableName         = `rooms`
	toursTableName         = `tours`
	profilesTableName      = `profiles`
	bookingEventsTableName = `booking_events`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
