package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/roomly/booking-service/internal/errs"
	"github.com/roomly/booking-service/internal/model"
	"github.com/roomly/booking-service/internal/notify"
	"github.com/roomly/booking-service/pkg/auth"
)

// Transition applies an admin-initiated status change. The transition table
// is enforced here; the store's version column guards against concurrent
// writers. Notification dispatch is fire-and-forget: a publish failure is
// logged and the transition still succeeds.
func (s *Service) Transition(ctx context.Context, bookingID string, newStatus model.Status, actor auth.Identity) (model.Booking, error) {
	if !newStatus.IsValid() {
		return model.Booking{}, errors.Wrapf(errs.ErrValidation, "unknown status %q", newStatus)
	}
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if !booking.Status.CanTransitionTo(newStatus) {
		return model.Booking{}, errors.Wrapf(errs.ErrIllegalTransition, "%s -> %s", booking.Status, newStatus)
	}

	updated, err := s.repo.UpdateBookingStatus(ctx, bookingID, newStatus, booking.Version)
	if err != nil {
		return model.Booking{}, err
	}
	s.audit(ctx, bookingID, newStatus, actor.Subject)

	if newStatus.Notifiable() && updated.Requester != nil && updated.Room != nil {
		notice := notify.Notice{
			BookingID: updated.ID,
			Recipient: updated.Requester.Email,
			Name:      updated.Requester.FullName,
			RoomName:  updated.Room.Name,
			Status:    newStatus,
			StartsAt:  updated.StartTime,
		}
		if err := s.publisher.Publish(ctx, notice); err != nil {
			s.log.Error("publish booking notice",
				zap.String("bookingId", updated.ID), zap.Error(err))
		}
	}
	return updated, nil
}

// Create files a new pending booking for the authenticated requester.
func (s *Service) Create(ctx context.Context, req model.CreateBookingRequest, requester auth.Identity) (model.Booking, error) {
	if !req.EndTime.After(req.StartTime) {
		return model.Booking{}, errors.Wrap(errs.ErrValidation, "endTime must be after startTime")
	}
	room, err := s.GetRoom(ctx, req.RoomID, requester.IsAdmin())
	if err != nil {
		return model.Booking{}, err
	}
	if req.GuestCount > room.Capacity {
		return model.Booking{}, errors.Wrapf(errs.ErrValidation, "guest count %d exceeds room capacity %d", req.GuestCount, room.Capacity)
	}

	booking, err := s.repo.CreateBooking(ctx, req, requester.Subject)
	if err != nil {
		return model.Booking{}, err
	}
	s.audit(ctx, booking.ID, model.StatusPending, requester.Subject)
	return booking, nil
}

// Cancel lets the requester withdraw their own booking; admins may cancel any.
func (s *Service) Cancel(ctx context.Context, bookingID string, requester auth.Identity) (model.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if booking.RequesterID != requester.Subject && !requester.IsAdmin() {
		return model.Booking{}, errs.ErrForbidden
	}
	if !booking.Status.CanTransitionTo(model.StatusCancelled) {
		return model.Booking{}, errors.Wrapf(errs.ErrIllegalTransition, "%s -> %s", booking.Status, model.StatusCancelled)
	}
	updated, err := s.repo.UpdateBookingStatus(ctx, bookingID, model.StatusCancelled, booking.Version)
	if err != nil {
		return model.Booking{}, err
	}
	s.audit(ctx, bookingID, model.StatusCancelled, requester.Subject)
	return updated, nil
}

// audit failures must not fail the transition that produced them.
func (s *Service) audit(ctx context.Context, bookingID string, status model.Status, actor string) {
	if err := s.repo.InsertBookingEvent(ctx, bookingID, status, actor); err != nil {
		s.log.Error("insert booking event",
			zap.String("bookingId", bookingID), zap.Error(err))
	}
}
