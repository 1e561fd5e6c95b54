package repository

import (
	"context"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/roomly/booking-service/internal/model"
	"github.com/roomly/booking-service/internal/query"
)

func (r *repository) ListTours(ctx context.Context, p query.Params) (model.ListTours, error) {
	preds := []sq.Sqlizer{sq.Eq{"is_active": true}}
	if p.Search != "" {
		pattern := "%" + p.Search + "%"
		preds = append(preds, sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"description": pattern},
		})
	}

	countQ := qb.Select("count(*)").From(toursTableName)
	listQ := qb.Select("id", "name", "description", "capacity", "duration_minutes", "is_active", "created_at").
		From(toursTableName)
	for _, pred := range preds {
		countQ = countQ.Where(pred)
		listQ = listQ.Where(pred)
	}

	q, args, err := countQ.ToSql()
	if err != nil {
		return model.ListTours{}, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return model.ListTours{}, err
	}

	q, args, err = p.ApplyTo(listQ, "id").ToSql()
	if err != nil {
		return model.ListTours{}, err
	}
	r.log.Debug("ListTours", zap.String("query", q), zap.Any("args", args))

	var tours []model.Tour
	if err := r.db.SelectContext(ctx, &tours, q, args...); err != nil {
		return model.ListTours{}, err
	}

	tours, hasMore := query.Window(tours, p.Limit)
	if p.HasCursor && p.CursorDir == query.DirPrev {
		query.Reverse(tours)
	}

	var firstKey, lastKey string
	if len(tours) > 0 {
		firstKey = tourSortKey(tours[0], p.SortBy)
		lastKey = tourSortKey(tours[len(tours)-1], p.SortBy)
	}
	return model.ListTours{
		Paging: query.NewPaging(p, total, hasMore, firstKey, lastKey),
		Tours:  tours,
	}, nil
}

func tourSortKey(t model.Tour, sortBy string) string {
	switch sortBy {
	case "capacity":
		return strconv.Itoa(t.Capacity)
	case "createdAt":
		return t.CreatedAt.UTC().Format(time.RFC3339Nano)
	default: // name
		return t.Name
	}
}
