package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// StringList is a jsonb-backed ordered list of strings.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return errors.Errorf("unsupported scan type %T for StringList", src)
	}
}

type Room struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Capacity    int        `json:"capacity" db:"capacity"`
	Facilities  StringList `json:"facilities" db:"facilities"`
	Photos      StringList `json:"photos" db:"photos"`
	IsActive    bool       `json:"isActive" db:"is_active"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

type Tour struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	Capacity        int       `json:"capacity" db:"capacity"`
	DurationMinutes int       `json:"durationMinutes" db:"duration_minutes"`
	IsActive        bool      `json:"isActive" db:"is_active"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

type Profile struct {
	ID          string    `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	FullName    string    `json:"fullName" db:"full_name"`
	Institution string    `json:"institution" db:"institution"`
	Phone       string    `json:"phone" db:"phone"`
	PhotoURL    string    `json:"photoUrl" db:"photo_url"`
	Role        string    `json:"role" db:"role"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type Booking struct {
	ID          string    `json:"id" db:"id"`
	RoomID      string    `json:"roomId" db:"room_id"`
	RequesterID string    `json:"requesterId" db:"requester_id"`
	StartTime   time.Time `json:"startTime" db:"start_time"`
	EndTime     time.Time `json:"endTime" db:"end_time"`
	GuestCount  int       `json:"guestCount" db:"guest_count"`
	Status      Status    `json:"status" db:"status"`
	Notes       string    `json:"notes" db:"notes"`
	ProposalURL string    `json:"proposalUrl" db:"proposal_url"`
	IsTour      bool      `json:"isTour" db:"is_tour"`
	TourID      *string   `json:"tourId,omitempty" db:"tour_id"`
	Version     int       `json:"version" db:"version"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	Requester *Profile `json:"requester,omitempty" db:"-"`
	Room      *Room    `json:"room,omitempty" db:"-"`
}

// BookingEvent is one row of the status audit trail.
type BookingEvent struct {
	ID        int       `json:"id" db:"id"`
	BookingID string    `json:"bookingId" db:"booking_id"`
	Status    Status    `json:"status" db:"status"`
	Actor     string    `json:"actor" db:"actor"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CreateBookingRequest struct {
	RoomID      string    `json:"roomId" validate:"required"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required"`
	GuestCount  int       `json:"guestCount" validate:"required,min=1"`
	Notes       string    `json:"notes"`
	ProposalURL string    `json:"proposalUrl"`
	IsTour      bool      `json:"isTour"`
	TourID      string    `json:"tourId"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=pending approved rejected completed cancelled"`
}

type UploadRequest struct {
	Operation string `json:"operation" validate:"required,oneof=cancel cleanup"`
	ItemID    string `json:"itemId"`
}

// BookingFilter narrows booking listings beyond the generic query params.
type BookingFilter struct {
	RequesterID string
	IsTour      *bool
}

type Paging struct {
	TotalCount  int     `json:"totalCount"`
	CurrentPage int     `json:"currentPage"`
	TotalPages  int     `json:"totalPages"`
	NextCursor  *string `json:"nextCursor"`
	PrevCursor  *string `json:"prevCursor"`
	HasNext     bool    `json:"hasNext"`
	HasPrev     bool    `json:"hasPrev"`
}

type ListRooms struct {
	Paging `json:",inline"`
	Rooms  []Room `json:"rooms"`
}

type ListTours struct {
	Paging `json:",inline"`
	Tours  []Tour `json:"tours"`
}

type ListBookings struct {
	Paging   `json:",inline"`
	Bookings []Booking `json:"bookings"`
}
