package shop

import "strings"

type Status string

const (
	StatusNew       Status = "new"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// DefaultCancelReason is substituted when staff cancel without a reason.
const DefaultCancelReason = "cancelled by staff"

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// ReasonFor keeps the reason/status pairing invariant: a non-empty reason
// exists exactly while an order is cancelled.
func ReasonFor(to Status, reason string) string {
	if to != StatusCancelled {
		return ""
	}
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}
	return DefaultCancelReason
}

// Deletable reports whether a customer may still delete the order.
func (s Status) Deletable() bool { return s == StatusNew }
