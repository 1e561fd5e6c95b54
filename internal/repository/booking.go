package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/roomly/booking-service/internal/errs"
	"github.com/roomly/booking-service/internal/model"
	"github.com/roomly/booking-service/internal/query"
)

// bookingRow scans a booking joined with its requester profile and room.
type bookingRow struct {
	model.Booking

	PID          string           `db:"p_id"`
	PEmail       string           `db:"p_email"`
	PFullName    string           `db:"p_full_name"`
	PInstitution string           `db:"p_institution"`
	PPhone       string           `db:"p_phone"`
	PPhotoURL    string           `db:"p_photo_url"`
	PRole        string           `db:"p_role"`
	PCreatedAt   time.Time        `db:"p_created_at"`
	RID          string           `db:"r_id"`
	RName        string           `db:"r_name"`
	RDescription string           `db:"r_description"`
	RCapacity    int              `db:"r_capacity"`
	RFacilities  model.StringList `db:"r_facilities"`
	RPhotos      model.StringList `db:"r_photos"`
	RIsActive    bool             `db:"r_is_active"`
	RCreatedAt   time.Time        `db:"r_created_at"`
}

func (row bookingRow) toBooking() model.Booking {
	b := row.Booking
	b.Requester = &model.Profile{
		ID:          row.PID,
		Email:       row.PEmail,
		FullName:    row.PFullName,
		Institution: row.PInstitution,
		Phone:       row.PPhone,
		PhotoURL:    row.PPhotoURL,
		Role:        row.PRole,
		CreatedAt:   row.PCreatedAt,
	}
	b.Room = &model.Room{
		ID:          row.RID,
		Name:        row.RName,
		Description: row.RDescription,
		Capacity:    row.RCapacity,
		Facilities:  row.RFacilities,
		Photos:      row.RPhotos,
		IsActive:    row.RIsActive,
		CreatedAt:   row.RCreatedAt,
	}
	return b
}

func joinedBookingSelect() sq.SelectBuilder {
	return qb.Select(
		"b.id", "b.room_id", "b.requester_id", "b.start_time", "b.end_time",
		"b.guest_count", "b.status", "b.notes", "b.proposal_url", "b.is_tour",
		"b.tour_id", "b.version", "b.created_at", "b.updated_at",
		`p.id as p_id`, `p.email as p_email`, `p.full_name as p_full_name`,
		`p.institution as p_institution`, `p.phone as p_phone`,
		`p.photo_url as p_photo_url`, `p.role as p_role`, `p.created_at as p_created_at`,
		`r.id as r_id`, `r.name as r_name`, `r.description as r_description`,
		`r.capacity as r_capacity`, `r.facilities as r_facilities`,
		`r.photos as r_photos`, `r.is_active as r_is_active`, `r.created_at as r_created_at`,
	).
		From(bookingsTableName + " b").
		Join(profilesTableName + " p on p.id = b.requester_id").
		Join(roomsTableName + " r on r.id = b.room_id")
}

func (r *repository) GetBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	q, args, err := joinedBookingSelect().
		Where(sq.Eq{"b.id": bookingID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Booking{}, err
	}

	var row bookingRow
	if err := r.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, errs.ErrNotFound
		}
		return model.Booking{}, err
	}
	return row.toBooking(), nil
}

func (r *repository) CreateBooking(ctx context.Context, req model.CreateBookingRequest, requesterID string) (model.Booking, error) {
	var tourID *string
	if req.TourID != "" {
		tourID = &req.TourID
	}
	q, args, err := qb.Insert(bookingsTableName).
		Columns("id", "room_id", "requester_id", "start_time", "end_time",
			"guest_count", "status", "notes", "proposal_url", "is_tour", "tour_id").
		Values(uuid.New(), req.RoomID, requesterID, req.StartTime, req.EndTime,
			req.GuestCount, model.StatusPending, req.Notes, req.ProposalURL, req.IsTour, tourID).
		Suffix("returning id").
		ToSql()
	if err != nil {
		return model.Booking{}, err
	}

	var id string
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
		r.log.Error("CreateBooking", zap.String("q", q), zap.Any("args", args))
		return model.Booking{}, mapPgError(err)
	}
	return r.GetBooking(ctx, id)
}

// UpdateBookingStatus applies the new status guarded by the optimistic
// version check. Zero rows affected means either a vanished booking or a
// concurrent writer; the follow-up read disambiguates.
func (r *repository) UpdateBookingStatus(ctx context.Context, bookingID string, status model.Status, version int) (model.Booking, error) {
	q, args, err := qb.Update(bookingsTableName).
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": bookingID, "version": version}).
		ToSql()
	if err != nil {
		return model.Booking{}, err
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		r.log.Error("UpdateBookingStatus", zap.String("q", q), zap.Any("args", args))
		return model.Booking{}, mapPgError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Booking{}, err
	}
	if affected == 0 {
		if _, err := r.GetBooking(ctx, bookingID); errors.Is(err, errs.ErrNotFound) {
			return model.Booking{}, errs.ErrNotFound
		}
		return model.Booking{}, errs.ErrVersionConflict
	}
	return r.GetBooking(ctx, bookingID)
}

func bookingPredicates(p query.Params, f model.BookingFilter) []sq.Sqlizer {
	var preds []sq.Sqlizer
	if f.RequesterID != "" {
		preds = append(preds, sq.Eq{"b.requester_id": f.RequesterID})
	}
	if f.IsTour != nil {
		preds = append(preds, sq.Eq{"b.is_tour": *f.IsTour})
	}
	if len(p.Statuses) > 0 {
		preds = append(preds, sq.Eq{"b.status": p.Statuses})
	}
	if p.Search != "" {
		pattern := "%" + p.Search + "%"
		preds = append(preds, sq.Or{
			sq.ILike{"b.notes": pattern},
			sq.ILike{"r.name": pattern},
			sq.ILike{"p.full_name": pattern},
		})
	}
	if !p.From.IsZero() {
		preds = append(preds, sq.GtOrEq{"b.start_time": p.From})
	}
	if !p.To.IsZero() {
		preds = append(preds, sq.LtOrEq{"b.end_time": p.To})
	}
	return preds
}

func (r *repository) ListBookings(ctx context.Context, p query.Params, f model.BookingFilter) (model.ListBookings, error) {
	preds := bookingPredicates(p, f)

	countQ := qb.Select("count(*)").
		From(bookingsTableName + " b").
		Join(profilesTableName + " p on p.id = b.requester_id").
		Join(roomsTableName + " r on r.id = b.room_id")
	listQ := joinedBookingSelect()
	for _, pred := range preds {
		countQ = countQ.Where(pred)
		listQ = listQ.Where(pred)
	}

	q, args, err := countQ.ToSql()
	if err != nil {
		return model.ListBookings{}, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return model.ListBookings{}, err
	}

	q, args, err = p.ApplyTo(listQ, "b.id").ToSql()
	if err != nil {
		return model.ListBookings{}, err
	}
	r.log.Debug("ListBookings", zap.String("query", q), zap.Any("args", args))

	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return model.ListBookings{}, err
	}

	rows, hasMore := query.Window(rows, p.Limit)
	if p.HasCursor && p.CursorDir == query.DirPrev {
		query.Reverse(rows)
	}
	items := make([]model.Booking, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toBooking())
	}

	var firstKey, lastKey string
	if len(items) > 0 {
		firstKey = bookingSortKey(items[0], p.SortBy)
		lastKey = bookingSortKey(items[len(items)-1], p.SortBy)
	}
	return model.ListBookings{
		Paging:   query.NewPaging(p, total, hasMore, firstKey, lastKey),
		Bookings: items,
	}, nil
}

func bookingSortKey(b model.Booking, sortBy string) string {
	switch sortBy {
	case "startTime":
		return b.StartTime.UTC().Format(time.RFC3339Nano)
	case "endTime":
		return b.EndTime.UTC().Format(time.RFC3339Nano)
	case "status":
		return string(b.Status)
	case "guestCount":
		return strconv.Itoa(b.GuestCount)
	case "updatedAt":
		return b.UpdatedAt.UTC().Format(time.RFC3339Nano)
	default: // createdAt
		return b.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
}

// SweepExpiredApproved completes approved bookings whose end time has passed.
func (r *repository) SweepExpiredApproved(ctx context.Context, now time.Time) (int64, error) {
	q, args, err := qb.Update(bookingsTableName).
		Set("status", model.StatusCompleted).
		Set("updated_at", sq.Expr("now()")).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"status": model.StatusApproved}).
		Where(sq.Lt{"end_time": now}).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) InsertBookingEvent(ctx context.Context, bookingID string, status model.Status, actor string) error {
	q, args, err := qb.Insert(bookingEventsTableName).
		Columns("booking_id", "status", "actor").
		Values(bookingID, status, actor).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

// mapPgError converts store constraint violations into domain errors.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation:
			return errs.ErrSlotTaken
		case pgerrcode.ForeignKeyViolation:
			return errs.ErrNotFound
		case pgerrcode.CheckViolation:
			return errors.Wrap(errs.ErrValidation, pgErr.ConstraintName)
		}
	}
	return err
}
