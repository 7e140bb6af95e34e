package enums

import (
	"fmt"
	"strings"
)

// BookingState is the list filter keyword accepted by the booking endpoints.
type BookingState string

const (
	BookingStateAll      BookingState = "ALL"
	BookingStateCurrent  BookingState = "CURRENT"
	BookingStatePast     BookingState = "PAST"
	BookingStateFuture   BookingState = "FUTURE"
	BookingStateWaiting  BookingState = "WAITING"
	BookingStateRejected BookingState = "REJECTED"
)

var validBookingStates = []BookingState{
	BookingStateAll,
	BookingStateCurrent,
	BookingStatePast,
	BookingStateFuture,
	BookingStateWaiting,
	BookingStateRejected,
}

// String implements fmt.Stringer.
func (s BookingState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BookingState.
func (s BookingState) IsValid() bool {
	for _, candidate := range validBookingStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBookingState matches the keyword case-insensitively. An empty value
// selects BookingStateAll.
func ParseBookingState(value string) (BookingState, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return BookingStateAll, nil
	}
	for _, candidate := range validBookingStates {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("Unknown state: %s", value)
}
