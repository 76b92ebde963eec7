package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending     BookingStatus = "pending"
	BookingStatusConfirmed   BookingStatus = "confirmed"
	BookingStatusInProgress  BookingStatus = "in-progress"
	BookingStatusCompleted   BookingStatus = "completed"
	BookingStatusCancelled   BookingStatus = "cancelled"
	BookingStatusRescheduled BookingStatus = "rescheduled"
	BookingStatusNoShow      BookingStatus = "no-show"
)

// IsTerminal reports whether no further status transitions are allowed
// (completed bookings still accept rating and feedback).
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

// ActiveStatuses are the statuses that occupy a slot.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress}
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Clinic branches. Bookings reference branches by slug.
const (
	LocationKoramangala = "koramangala"
	LocationIndiranagar = "indiranagar"
	LocationWhitefield  = "whitefield"
)

// Locations returns the fixed set of bookable clinic branches.
func Locations() []string {
	return []string{LocationKoramangala, LocationIndiranagar, LocationWhitefield}
}

// IsValidLocation reports membership in the fixed branch set.
func IsValidLocation(loc string) bool {
	for _, l := range Locations() {
		if l == loc {
			return true
		}
	}
	return false
}

// ReminderKind distinguishes reminder dispatches in the reminders log.
type ReminderKind string

const (
	ReminderKind12Hour ReminderKind = "12-hour"
	ReminderKind1Hour  ReminderKind = "1-hour"
)

// ReminderEntry records one reminder dispatch.
type ReminderEntry struct {
	Kind   ReminderKind `json:"kind"`
	SentAt time.Time    `json:"sent_at"`
}

// ReminderLog is an append-only log of reminder dispatches, stored as jsonb.
type ReminderLog []ReminderEntry

func (l ReminderLog) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

func (l *ReminderLog) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for ReminderLog: %T", src)
	}
	return json.Unmarshal(data, l)
}

// Contains reports whether a reminder of the given kind was already sent.
func (l ReminderLog) Contains(kind ReminderKind) bool {
	for _, e := range l {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// Booking is the central appointment entity. The customer contact and
// treatment fields are snapshots captured at booking time, independent of
// later profile or catalog edits.
type Booking struct {
	Base
	BookingReference string    `db:"booking_reference" json:"booking_reference"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`

	CustomerName   string `db:"customer_name" json:"customer_name"`
	CustomerMobile string `db:"customer_mobile" json:"customer_mobile"`
	CustomerEmail  string `db:"customer_email" json:"customer_email"`

	TreatmentID          uuid.UUID `db:"treatment_id" json:"treatment_id"`
	TreatmentName        string    `db:"treatment_name" json:"treatment_name"`
	TreatmentCategory    string    `db:"treatment_category" json:"treatment_category"`
	TreatmentPrice       float64   `db:"treatment_price" json:"treatment_price"`
	TreatmentDurationMin int       `db:"treatment_duration_min" json:"treatment_duration_min"`

	Location        string        `db:"location" json:"location"`
	AppointmentDate time.Time     `db:"appointment_date" json:"appointment_date"`
	AppointmentTime string        `db:"appointment_time" json:"appointment_time"`
	Status          BookingStatus `db:"status" json:"status"`

	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentMethod string        `db:"payment_method" json:"payment_method"`
	TotalAmount   float64       `db:"total_amount" json:"total_amount"`

	RescheduleCount     int        `db:"reschedule_count" json:"reschedule_count"`
	RescheduledFromDate *time.Time `db:"rescheduled_from_date" json:"rescheduled_from_date,omitempty"`
	RescheduledFromTime *string    `db:"rescheduled_from_time" json:"rescheduled_from_time,omitempty"`
	RescheduledAt       *time.Time `db:"rescheduled_at" json:"rescheduled_at,omitempty"`
	CancellationReason  *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`

	CheckedIn            bool       `db:"checked_in" json:"checked_in"`
	CheckInTime          *time.Time `db:"check_in_time" json:"check_in_time,omitempty"`
	CheckoutOTP          *string    `db:"checkout_otp" json:"-"`
	CheckOutEligibleTime *time.Time `db:"check_out_eligible_time" json:"check_out_eligible_time,omitempty"`
	CanCheckOut          bool       `db:"can_check_out" json:"can_check_out"`
	CheckedOut           bool       `db:"checked_out" json:"checked_out"`
	CheckOutTime         *time.Time `db:"check_out_time" json:"check_out_time,omitempty"`
	AdminCheckout        *uuid.UUID `db:"admin_checkout" json:"admin_checkout,omitempty"`

	Rating   *int    `db:"rating" json:"rating,omitempty"`
	Feedback *string `db:"feedback" json:"feedback,omitempty"`

	NoShowMarkedAt *time.Time  `db:"no_show_marked_at" json:"no_show_marked_at,omitempty"`
	RemindersSent  ReminderLog `db:"reminders_sent" json:"reminders_sent"`
}

// PersonalDetails is the customer contact snapshot captured at booking time.
type PersonalDetails struct {
	Name   string `json:"name" binding:"required,min=2,max=100"`
	Mobile string `json:"mobile" binding:"required,min=10,max=15"`
	Email  string `json:"email" binding:"required,email"`
}

type CreateBookingRequest struct {
	TreatmentID     uuid.UUID       `json:"treatment_id" binding:"required"`
	PersonalDetails PersonalDetails `json:"personal_details" binding:"required"`
	Location        string          `json:"location" binding:"required"`
	AppointmentDate string          `json:"appointment_date" binding:"required"`
	AppointmentTime string          `json:"appointment_time" binding:"required"`
	PaymentMethod   string          `json:"payment_method" binding:"omitempty,oneof=cash card upi"`
}

type RescheduleBookingRequest struct {
	AppointmentDate string `json:"appointment_date" binding:"required"`
	AppointmentTime string `json:"appointment_time" binding:"required"`
}

type UpdateBookingStatusRequest struct {
	Status             BookingStatus `json:"status" binding:"required"`
	CancellationReason string        `json:"cancellation_reason"`
}

type StaffCheckoutRequest struct {
	OTP string `json:"otp" binding:"required,len=6,numeric"`
}

type RateBookingRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Feedback string `json:"feedback" binding:"max=1000"`
}

type CheckInResponse struct {
	BookingReference     string    `json:"booking_reference"`
	CheckInTime          time.Time `json:"check_in_time"`
	CheckOutEligibleTime time.Time `json:"check_out_eligible_time"`
	OTP                  string    `json:"otp"`
}

// BookingFilters narrow admin booking listings.
type BookingFilters struct {
	Status    BookingStatus
	Location  string
	StartDate *time.Time
	EndDate   *time.Time
}
