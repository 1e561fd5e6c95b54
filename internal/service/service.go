package service

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/roomly/booking-service/internal/errs"
	"github.com/roomly/booking-service/internal/model"
	"github.com/roomly/booking-service/internal/notify"
	"github.com/roomly/booking-service/internal/query"
	"github.com/roomly/booking-service/internal/repository"
	"github.com/roomly/booking-service/pkg/auth"
)

type Service struct {
	log       *zap.Logger
	repo      repository.Repository
	publisher notify.Publisher
	rdb       *redis.Client
	cacheTTL  time.Duration

	sweepGroup singleflight.Group
	now        func() time.Time
}

// NewService wires the booking workflow. rdb may be nil, which disables the
// room listing cache.
func NewService(repo repository.Repository, publisher notify.Publisher, rdb *redis.Client, cacheTTL time.Duration, log *zap.Logger) *Service {
	return &Service{
		log:       log,
		repo:      repo,
		publisher: publisher,
		rdb:       rdb,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

func (s *Service) GetRoom(ctx context.Context, roomID string, includeInactive bool) (model.Room, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return model.Room{}, err
	}
	if !room.IsActive && !includeInactive {
		return model.Room{}, errs.ErrNotFound
	}
	return room, nil
}

func (s *Service) ListRooms(ctx context.Context, p query.Params, includeInactive bool) (model.ListRooms, error) {
	key := roomsCacheKey(p, includeInactive)
	if cached, ok := s.cacheGetRooms(ctx, key); ok {
		return cached, nil
	}
	rooms, err := s.repo.ListRooms(ctx, p, includeInactive)
	if err != nil {
		return model.ListRooms{}, err
	}
	s.cacheSetRooms(ctx, key, rooms)
	return rooms, nil
}

func (s *Service) ListTours(ctx context.Context, p query.Params) (model.ListTours, error) {
	return s.repo.ListTours(ctx, p)
}

// ListBookings sweeps opportunistically first so stale approved bookings are
// reported completed, then lists. Non-admins only ever see their own rows.
func (s *Service) ListBookings(ctx context.Context, p query.Params, f model.BookingFilter, ident auth.Identity) (model.ListBookings, error) {
	if _, err := s.Sweep(ctx); err != nil {
		s.log.Warn("opportunistic sweep", zap.Error(err))
	}
	if !ident.IsAdmin() {
		f.RequesterID = ident.Subject
	}
	return s.repo.ListBookings(ctx, p, f)
}

func (s *Service) EnsureProfile(ctx context.Context, ident auth.Identity) (model.Profile, error) {
	return s.repo.UpsertProfile(ctx, model.Profile{
		ID:       ident.Subject,
		Email:    ident.Email,
		FullName: ident.Name,
		Role:     ident.Role,
	})
}

func roomsCacheKey(p query.Params, includeInactive bool) string {
	raw := fmt.Sprintf("%d:%d:%s:%s:%s:%s:%s:%v",
		p.Page, p.Limit, p.SortBy, p.Order, p.Search, p.Cursor, p.CursorDir, includeInactive)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("rooms:%x", sum[:])
}

func (s *Service) cacheGetRooms(ctx context.Context, key string) (model.ListRooms, bool) {
	if s.rdb == nil {
		return model.ListRooms{}, false
	}
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Debug("rooms cache get", zap.Error(err))
		}
		return model.ListRooms{}, false
	}
	var rooms model.ListRooms
	if err := json.Unmarshal(data, &rooms); err != nil {
		return model.ListRooms{}, false
	}
	return rooms, true
}

func (s *Service) cacheSetRooms(ctx context.Context, key string, rooms model.ListRooms) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(rooms)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.log.Debug("rooms cache set", zap.Error(err))
	}
}
