package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/roomly/booking-service/internal/errs"
	"github.com/roomly/booking-service/internal/model"
	"github.com/roomly/booking-service/internal/query"
)

func (r *repository) GetRoom(ctx context.Context, roomID string) (model.Room, error) {
	q, args, err := qb.Select("id", "name", "description", "capacity", "facilities", "photos", "is_active", "created_at").
		From(roomsTableName).
		Where(sq.Eq{"id": roomID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Room{}, err
	}

	var room model.Room
	if err := r.db.GetContext(ctx, &room, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Room{}, errs.ErrNotFound
		}
		return model.Room{}, err
	}
	return room, nil
}

func roomPredicates(p query.Params, includeInactive bool) []sq.Sqlizer {
	var preds []sq.Sqlizer
	if !includeInactive {
		preds = append(preds, sq.Eq{"is_active": true})
	}
	if p.Search != "" {
		pattern := "%" + p.Search + "%"
		preds = append(preds, sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"description": pattern},
		})
	}
	return preds
}

func (r *repository) ListRooms(ctx context.Context, p query.Params, includeInactive bool) (model.ListRooms, error) {
	preds := roomPredicates(p, includeInactive)

	countQ := qb.Select("count(*)").From(roomsTableName)
	listQ := qb.Select("id", "name", "description", "capacity", "facilities", "photos", "is_active", "created_at").
		From(roomsTableName)
	for _, pred := range preds {
		countQ = countQ.Where(pred)
		listQ = listQ.Where(pred)
	}

	q, args, err := countQ.ToSql()
	if err != nil {
		return model.ListRooms{}, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return model.ListRooms{}, err
	}

	q, args, err = p.ApplyTo(listQ, "id").ToSql()
	if err != nil {
		return model.ListRooms{}, err
	}
	r.log.Debug("ListRooms", zap.String("query", q), zap.Any("args", args))

	var rooms []model.Room
	if err := r.db.SelectContext(ctx, &rooms, q, args...); err != nil {
		return model.ListRooms{}, err
	}

	rooms, hasMore := query.Window(rooms, p.Limit)
	if p.HasCursor && p.CursorDir == query.DirPrev {
		query.Reverse(rooms)
	}

	var firstKey, lastKey string
	if len(rooms) > 0 {
		firstKey = roomSortKey(rooms[0], p.SortBy)
		lastKey = roomSortKey(rooms[len(rooms)-1], p.SortBy)
	}
	return model.ListRooms{
		Paging: query.NewPaging(p, total, hasMore, firstKey, lastKey),
		Rooms:  rooms,
	}, nil
}

func roomSortKey(r model.Room, sortBy string) string {
	switch sortBy {
	case "capacity":
		return strconv.Itoa(r.Capacity)
	case "createdAt":
		return r.CreatedAt.UTC().Format(time.RFC3339Nano)
	default: // name
		return r.Name
	}
}
