package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Status is the payment state of a ledger row. It only moves
// PendingPayment -> PaymentConfirmed.
type Status string

const (
	StatusPendingPayment   Status = "PendingPayment"
	StatusPaymentConfirmed Status = "PaymentConfirmed"
)

// Label is the Spanish text written to the ledger sheet.
func (s Status) Label() string {
	switch s {
	case StatusPendingPayment:
		return "Pago pendiente"
	case StatusPaymentConfirmed:
		return "Pago confirmado"
	default:
		return string(s)
	}
}

// ParseStatus accepts both the enum value and the sheet label.
func ParseStatus(v string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "pendingpayment", "pago pendiente":
		return StatusPendingPayment, nil
	case "paymentconfirmed", "pago confirmado":
		return StatusPaymentConfirmed, nil
	default:
		return "", domain.ValidationError{Field: "status", Msg: fmt.Sprintf("unknown status %q", v)}
	}
}

// Reservation is one ledger row.
type Reservation struct {
	ID                    string     `json:"id" validate:"required"`
	Timestamp             time.Time  `json:"timestamp" validate:"required"`
	Name                  string     `json:"name" validate:"required"`
	DocumentID            string     `json:"document_id" validate:"required,numeric,min=6,max=12"`
	Phone                 string     `json:"phone"`
	Route                 string     `json:"route" validate:"required"`
	DepartureTime         string     `json:"departure_time" validate:"required"`
	Fare                  int64      `json:"fare" validate:"gt=0"`
	Status                Status     `json:"status" validate:"oneof=PendingPayment PaymentConfirmed"`
	ConfirmationTimestamp *time.Time `json:"confirmation_timestamp,omitempty"`
	ProofReference        string     `json:"proof_reference,omitempty"`

	// Cell text kept verbatim when a legacy sheet value could not be parsed,
	// so rewriting the sheet does not blank it.
	TimestampText    string `json:"-"`
	ConfirmationText string `json:"-"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func reservationValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// NewReservation builds a pending ledger row from a completed draft. The
// route must come from the catalog so the fare snapshot and time are checked
// against it.
func NewReservation(d Draft, route Route, senderID string, now time.Time) (Reservation, error) {
	if route.Key == "" || d.RouteKey != route.Key {
		return Reservation{}, domain.ValidationError{Field: "route", Msg: "route does not match draft"}
	}
	if !route.HasTime(d.DepartureTime) {
		return Reservation{}, domain.ValidationError{Field: "departure_time", Msg: "time not offered on route"}
	}
	r := Reservation{
		ID:            uuid.NewString(),
		Timestamp:     now,
		Name:          strings.TrimSpace(d.Name),
		DocumentID:    d.DocumentID,
		Phone:         senderID,
		Route:         route.Key,
		DepartureTime: d.DepartureTime,
		Fare:          d.Fare,
		Status:        StatusPendingPayment,
	}
	if err := r.Validate(); err != nil {
		return Reservation{}, err
	}
	return r, nil
}

// Validate checks the fixed field set of a row.
func (r Reservation) Validate() error {
	if err := reservationValidator().Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.ValidationError{Field: verrs[0].Field(), Msg: "failed " + verrs[0].Tag(), Err: err}
		}
		return domain.ValidationError{Msg: "invalid reservation", Err: err}
	}
	if r.Status == StatusPaymentConfirmed && r.ConfirmationTimestamp == nil {
		return domain.ValidationError{Field: "confirmation_timestamp", Msg: "required when confirmed"}
	}
	return nil
}

// Confirm moves a pending row to PaymentConfirmed.
func (r *Reservation) Confirm(now time.Time, proofRef string) error {
	if r.Status != StatusPendingPayment {
		return domain.ConflictError{Resource: "reservation", Msg: "already confirmed"}
	}
	r.Status = StatusPaymentConfirmed
	r.ConfirmationTimestamp = &now
	if proofRef != "" {
		r.ProofReference = proofRef
	}
	return nil
}

// ConfirmedOn reports whether the row was confirmed on the same calendar day
// as day, in day's location.
func (r Reservation) ConfirmedOn(day time.Time) bool {
	if r.Status != StatusPaymentConfirmed || r.ConfirmationTimestamp == nil {
		return false
	}
	c := r.ConfirmationTimestamp.In(day.Location())
	y1, m1, d1 := c.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
