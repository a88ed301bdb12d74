package app

import (
	"errors"
	"time"

	"availability-engine/internal/engine"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrBeyondLookahead is returned for dates past the resource's booking horizon.
	ErrBeyondLookahead = errors.New("date is beyond the booking horizon")
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// BookingSourcePrefix namespaces internal bookings in busy-interval source ids.
const BookingSourcePrefix = "booking"

type Booking struct {
	ID            string        `json:"id"`
	ResourceID    string        `json:"resource_id"`
	ProductID     string        `json:"product_id,omitempty"`
	CustomerEmail string        `json:"customer_email"`
	StartAt       time.Time     `json:"start_at"`
	EndAt         time.Time     `json:"end_at"`
	Status        BookingStatus `json:"status"`
	Source        string        `json:"source,omitempty"`
	Title         string        `json:"title,omitempty"`
	Description   string        `json:"description,omitempty"`
	CreatedAt     time.Time     `json:"created_at,omitempty"`
}

func BookingSourceID(bookingID string) string {
	return BookingSourcePrefix + ":" + bookingID
}

func (b Booking) SourceID() string {
	return BookingSourceID(b.ID)
}

func (b Booking) Busy() engine.BusyInterval {
	return engine.BusyInterval{Start: b.StartAt, End: b.EndAt, SourceID: b.SourceID()}
}

// BookingRequest is a proposed commitment.
type BookingRequest struct {
	ResourceID    string
	ProductID     string
	CustomerEmail string
	Start         time.Time
	End           time.Time
	Source        string
	Title         string
	Description   string
}

// SlotsResult is the read-path answer for one date. Warnings is non-empty when
// some external calendar could not be consulted.
type SlotsResult struct {
	ResourceID string                `json:"resource_id"`
	Date       engine.Date           `json:"date"`
	Config     engine.ScheduleConfig `json:"config"`
	Slots      []engine.Slot         `json:"slots"`
	Degraded   bool                  `json:"degraded"`
	Warnings   []string              `json:"warnings,omitempty"`
}
