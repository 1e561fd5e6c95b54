// Package query translates caller-supplied filter/sort/page parameters into
// bounded, deterministic store queries and derives pagination metadata.
package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/roomly/booking-service/internal/errs"
	"github.com/roomly/booking-service/internal/model"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

type Direction string

const (
	DirNext Direction = "next"
	DirPrev Direction = "prev"
)

// AllowList is the closed set of sortable fields for one listing endpoint,
// mapping the API field name to its column.
type AllowList map[string]string

type Params struct {
	Page       int
	Limit      int
	SortBy     string // API field name
	SortColumn string // resolved column
	Order      string // "asc" | "desc"
	Search     string
	Statuses   []model.Status
	From       time.Time
	To         time.Time
	Cursor     string // decoded sort-key value
	HasCursor  bool
	CursorDir  Direction
}

// Parse extracts and validates listing parameters. Unknown sort fields and
// malformed cursors are rejected rather than silently dropped.
func Parse(vals url.Values, allow AllowList, defaultSort string) (Params, error) {
	p := Params{
		Page:      1,
		Limit:     DefaultLimit,
		Order:     "asc",
		CursorDir: DirNext,
	}

	if raw := vals.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Params{}, errors.Wrap(errs.ErrValidation, "page must be a positive integer")
		}
		p.Page = n
	}
	rawLimit := vals.Get("limit")
	if rawLimit == "" {
		rawLimit = vals.Get("pageSize")
	}
	if rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n < 1 {
			return Params{}, errors.Wrap(errs.ErrValidation, "limit must be a positive integer")
		}
		if n > MaxLimit {
			n = MaxLimit
		}
		p.Limit = n
	}

	p.SortBy = vals.Get("sortBy")
	if p.SortBy == "" {
		p.SortBy = defaultSort
	}
	col, ok := allow[p.SortBy]
	if !ok {
		return Params{}, errors.Wrapf(errs.ErrValidation, "unsortable field %q", p.SortBy)
	}
	p.SortColumn = col

	switch order := vals.Get("sortOrder"); order {
	case "", "asc":
		p.Order = "asc"
	case "desc":
		p.Order = "desc"
	default:
		return Params{}, errors.Wrap(errs.ErrValidation, "sortOrder must be asc or desc")
	}

	p.Search = strings.TrimSpace(vals.Get("search"))

	if raw := vals.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st := model.Status(strings.TrimSpace(s))
			if !st.IsValid() {
				return Params{}, errors.Wrapf(errs.ErrValidation, "unknown status %q", s)
			}
			p.Statuses = append(p.Statuses, st)
		}
	}

	var err error
	if p.From, err = parseTime(vals.Get("from")); err != nil {
		return Params{}, err
	}
	if p.To, err = parseTime(vals.Get("to")); err != nil {
		return Params{}, err
	}

	if tok := vals.Get("cursor"); tok != "" {
		val, err := DecodeCursor(tok)
		if err != nil {
			return Params{}, err
		}
		p.Cursor = val
		p.HasCursor = true
		switch dir := vals.Get("cursorDirection"); dir {
		case "", string(DirNext):
			p.CursorDir = DirNext
		case string(DirPrev):
			p.CursorDir = DirPrev
		default:
			return Params{}, errors.Wrap(errs.ErrValidation, "cursorDirection must be next or prev")
		}
	}

	return p, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.Wrapf(errs.ErrValidation, "invalid timestamp %q", raw)
	}
	return t, nil
}

func (p Params) Offset() uint64 {
	return uint64((p.Page - 1) * p.Limit)
}

// ApplyTo adds ordering and pagination to a select. One extra row beyond the
// limit is requested so the caller can tell whether a further page exists.
// tieBreak is a unique column qualifying the sort for a stable order.
// For DirPrev the ordering is inverted; callers reverse the scanned rows.
func (p Params) ApplyTo(b sq.SelectBuilder, tieBreak string) sq.SelectBuilder {
	order := p.Order
	cmp := p.cursorComparator()
	if p.HasCursor && p.CursorDir == DirPrev {
		order = invert(order)
	}
	b = b.OrderBy(p.SortColumn+" "+order, tieBreak+" "+order)

	if p.HasCursor {
		b = b.Where(sq.Expr(p.SortColumn+" "+cmp+" ?", p.Cursor))
	} else {
		b = b.Offset(p.Offset())
	}
	return b.Limit(uint64(p.Limit) + 1)
}

func (p Params) cursorComparator() string {
	after := ">"
	if p.Order == "desc" {
		after = "<"
	}
	if p.CursorDir == DirPrev {
		return invertCmp(after)
	}
	return after
}

func invert(order string) string {
	if order == "asc" {
		return "desc"
	}
	return "asc"
}

func invertCmp(cmp string) string {
	if cmp == ">" {
		return "<"
	}
	return ">"
}

// Window trims the lookahead row and reports whether it existed.
func Window[T any](items []T, limit int) ([]T, bool) {
	if len(items) > limit {
		return items[:limit], true
	}
	return items, false
}

func Reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

// NewPaging derives the page metadata. hasMore is the lookahead result in the
// requested direction; firstKey/lastKey are the sort-key values of the first
// and last returned items (in presentation order), empty when the page is empty.
func NewPaging(p Params, total int, hasMore bool, firstKey, lastKey string) model.Paging {
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}

	hasNext := hasMore
	hasPrev := p.Page > 1
	if p.HasCursor {
		switch p.CursorDir {
		case DirPrev:
			// Walking backwards: something newer than this page necessarily exists.
			hasNext = true
			hasPrev = hasMore
		default:
			hasPrev = true
		}
	}

	pg := model.Paging{
		TotalCount:  total,
		CurrentPage: p.Page,
		TotalPages:  totalPages,
		HasNext:     hasNext,
		HasPrev:     hasPrev,
	}
	if hasNext && lastKey != "" {
		tok := EncodeCursor(lastKey)
		pg.NextCursor = &tok
	}
	if hasPrev && firstKey != "" {
		tok := EncodeCursor(firstKey)
		pg.PrevCursor = &tok
	}
	return pg
}
