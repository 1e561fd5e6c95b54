package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roomly/booking-service/internal/errs"
	"github.com/roomly/booking-service/internal/model"
	"github.com/roomly/booking-service/internal/notify"
	"github.com/roomly/booking-service/internal/query"
	"github.com/roomly/booking-service/pkg/auth"
)

type fakeRepo struct {
	getBooking    func(ctx context.Context, id string) (model.Booking, error)
	createBooking func(ctx context.Context, req model.CreateBookingRequest, requesterID string) (model.Booking, error)
	updateStatus  func(ctx context.Context, id string, status model.Status, version int) (model.Booking, error)
	listBookings  func(ctx context.Context, p query.Params, f model.BookingFilter) (model.ListBookings, error)
	sweep         func(ctx context.Context, now time.Time) (int64, error)
	insertEvent   func(ctx context.Context, id string, status model.Status, actor string) error
	getRoom       func(ctx context.Context, id string) (model.Room, error)
	listRooms     func(ctx context.Context, p query.Params, includeInactive bool) (model.ListRooms, error)
	listTours     func(ctx context.Context, p query.Params) (model.ListTours, error)
	upsertProfile func(ctx context.Context, profile model.Profile) (model.Profile, error)
}

func (f *fakeRepo) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	return f.getBooking(ctx, id)
}
func (f *fakeRepo) CreateBooking(ctx context.Context, req model.CreateBookingRequest, requesterID string) (model.Booking, error) {
	return f.createBooking(ctx, req, requesterID)
}
func (f *fakeRepo) UpdateBookingStatus(ctx context.Context, id string, status model.Status, version int) (model.Booking, error) {
	return f.updateStatus(ctx, id, status, version)
}
func (f *fakeRepo) ListBookings(ctx context.Context, p query.Params, filter model.BookingFilter) (model.ListBookings, error) {
	return f.listBookings(ctx, p, filter)
}
func (f *fakeRepo) SweepExpiredApproved(ctx context.Context, now time.Time) (int64, error) {
	return f.sweep(ctx, now)
}
func (f *fakeRepo) InsertBookingEvent(ctx context.Context, id string, status model.Status, actor string) error {
	if f.insertEvent == nil {
		return nil
	}
	return f.insertEvent(ctx, id, status, actor)
}
func (f *fakeRepo) GetRoom(ctx context.Context, id string) (model.Room, error) {
	return f.getRoom(ctx, id)
}
func (f *fakeRepo) ListRooms(ctx context.Context, p query.Params, includeInactive bool) (model.ListRooms, error) {
	return f.listRooms(ctx, p, includeInactive)
}
func (f *fakeRepo) ListTours(ctx context.Context, p query.Params) (model.ListTours, error) {
	return f.listTours(ctx, p)
}
func (f *fakeRepo) UpsertProfile(ctx context.Context, profile model.Profile) (model.Profile, error) {
	return f.upsertProfile(ctx, profile)
}

type fakePublisher struct {
	err       error
	published []notify.Notice
}

func (f *fakePublisher) Publish(_ context.Context, notice notify.Notice) error {
	f.published = append(f.published, notice)
	return f.err
}

func newTestService(repo *fakeRepo, pub *fakePublisher) *Service {
	return NewService(repo, pub, nil, 0, zap.NewExample().Named("test"))
}

var admin = auth.Identity{Subject: "admin-1", Email: "admin@lib.io", Name: "Admin", Role: auth.RoleAdmin}

func pendingBooking(id string) model.Booking {
	return model.Booking{
		ID:          id,
		RoomID:      "room-1",
		RequesterID: "user-1",
		Status:      model.StatusPending,
		Version:     1,
		Requester:   &model.Profile{ID: "user-1", Email: "user@lib.io", FullName: "User One"},
		Room:        &model.Room{ID: "room-1", Name: "Reading Room", Capacity: 8, IsActive: true},
	}
}

func TestTransition_Approve(t *testing.T) {
	t.Parallel()
	booking := pendingBooking("b1")
	repo := &fakeRepo{
		getBooking: func(_ context.Context, id string) (model.Booking, error) {
			require.Equal(t, "b1", id)
			return booking, nil
		},
		updateStatus: func(_ context.Context, id string, status model.Status, version int) (model.Booking, error) {
			require.Equal(t, model.StatusApproved, status)
			require.Equal(t, 1, version)
			updated := booking
			updated.Status = status
			updated.Version = 2
			return updated, nil
		},
	}
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	got, err := svc.Transition(context.Background(), "b1", model.StatusApproved, admin)
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, got.Status)
	require.Len(t, pub.published, 1)
	require.Equal(t, "user@lib.io", pub.published[0].Recipient)
	require.Equal(t, "Reading Room", pub.published[0].RoomName)
}

func TestTransition_NotFound(t *testing.T) {
	t.Parallel()
	repo := &fakeRepo{
		getBooking: func(context.Context, string) (model.Booking, error) {
			return model.Booking{}, errs.ErrNotFound
		},
		updateStatus: func(context.Context, string, model.Status, int) (model.Booking, error) {
			t.Fatal("update must not run for a missing booking")
			return model.Booking{}, nil
		},
	}
	svc := newTestService(repo, &fakePublisher{})

	_, err := svc.Transition(context.Background(), "missing", model.StatusApproved, admin)
	require.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestTransition_IllegalFromTerminal(t *testing.T) {
	t.Parallel()
	booking := pendingBooking("b1")
	booking.Status = model.StatusCompleted
	repo := &fakeRepo{
		getBooking: func(context.Context, string) (model.Booking, error) {
			return booking, nil
		},
		updateStatus: func(context.Context, string, model.Status, int) (model.Booking, error) {
			t.Fatal("update must not run for an illegal transition")
			return model.Booking{}, nil
		},
	}
	svc := newTestService(repo, &fakePublisher{})

	_, err := svc.Transition(context.Background(), "b1", model.StatusPending, admin)
	require.True(t, errors.Is(err, errs.ErrIllegalTransition))
}

// A failed notice publish must not fail the transition.
func TestTransition_PublishFailureStillSucceeds(t *testing.T) {
	t.Parallel()
	booking := pendingBooking("b1")
	repo := &fakeRepo{
		getBooking: func(context.Context, string) (model.Booking, error) {
			return booking, nil
		},
		updateStatus: func(_ context.Context, _ string, status model.Status, _ int) (model.Booking, error) {
			updated := booking
			updated.Status = status
			return updated, nil
		},
	}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(repo, pub)

	got, err := svc.Transition(context.Background(), "b1", model.StatusRejected, admin)
	require.NoError(t, err)
	require.Equal(t, model.StatusRejected, got.Status)
	require.Len(t, pub.published, 1)
}

func TestTransition_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()
	svc := newTestService(&fakeRepo{}, &fakePublisher{})
	_, err := svc.Transition(context.Background(), "b1", model.Status("RENTED"), admin)
	require.True(t, errors.Is(err, errs.ErrValidation))
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := &fakeRepo{
		getRoom: func(context.Context, string) (model.Room, error) {
			return model.Room{ID: "room-1", Capacity: 4, IsActive: true}, nil
		},
	}
	svc := newTestService(repo, &fakePublisher{})
	user := auth.Identity{Subject: "user-1", Role: auth.RoleUser}

	_, err := svc.Create(context.Background(), model.CreateBookingRequest{
		RoomID: "room-1", StartTime: now, EndTime: now.Add(-time.Hour), GuestCount: 2,
	}, user)
	require.True(t, errors.Is(err, errs.ErrValidation))

	_, err = svc.Create(context.Background(), model.CreateBookingRequest{
		RoomID: "room-1", StartTime: now, EndTime: now.Add(time.Hour), GuestCount: 12,
	}, user)
	require.True(t, errors.Is(err, errs.ErrValidation))
}

func TestCreate_HidesInactiveRoomFromUsers(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := &fakeRepo{
		getRoom: func(context.Context, string) (model.Room, error) {
			return model.Room{ID: "room-1", Capacity: 4, IsActive: false}, nil
		},
	}
	svc := newTestService(repo, &fakePublisher{})

	_, err := svc.Create(context.Background(), model.CreateBookingRequest{
		RoomID: "room-1", StartTime: now, EndTime: now.Add(time.Hour), GuestCount: 2,
	}, auth.Identity{Subject: "user-1", Role: auth.RoleUser})
	require.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestCancel_ForbiddenForOtherUser(t *testing.T) {
	t.Parallel()
	repo := &fakeRepo{
		getBooking: func(context.Context, string) (model.Booking, error) {
			return pendingBooking("b1"), nil
		},
	}
	svc := newTestService(repo, &fakePublisher{})

	_, err := svc.Cancel(context.Background(), "b1", auth.Identity{Subject: "user-2", Role: auth.RoleUser})
	require.True(t, errors.Is(err, errs.ErrForbidden))
}

func TestSweep_CompletesExpiredApproved(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var swept time.Time
	repo := &fakeRepo{
		sweep: func(_ context.Context, now time.Time) (int64, error) {
			swept = now
			return 3, nil
		},
	}
	svc := newTestService(repo, &fakePublisher{})
	svc.now = func() time.Time { return fixed }

	n, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	require.Equal(t, fixed, swept)
}

func TestListBookings_ScopesNonAdminToOwnRows(t *testing.T) {
	t.Parallel()
	var gotFilter model.BookingFilter
	repo := &fakeRepo{
		sweep: func(context.Context, time.Time) (int64, error) { return 0, nil },
		listBookings: func(_ context.Context, _ query.Params, f model.BookingFilter) (model.ListBookings, error) {
			gotFilter = f
			return model.ListBookings{}, nil
		},
	}
	svc := newTestService(repo, &fakePublisher{})

	_, err := svc.ListBookings(context.Background(), query.Params{Page: 1, Limit: 10}, model.BookingFilter{}, auth.Identity{Subject: "user-1", Role: auth.RoleUser})
	require.NoError(t, err)
	require.Equal(t, "user-1", gotFilter.RequesterID)

	_, err = svc.ListBookings(context.Background(), query.Params{Page: 1, Limit: 10}, model.BookingFilter{}, admin)
	require.NoError(t, err)
	require.Empty(t, gotFilter.RequesterID)
}
