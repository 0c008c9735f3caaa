package wizard

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidTransition = errors.New("action not allowed in the current step")
	ErrVenueNotFound     = errors.New("venue not found")
	ErrTableNotFound     = errors.New("table not found")
	ErrTableUnavailable  = errors.New("table is fully booked for this date")
	ErrCapacityExceeded  = errors.New("quantity exceeds the experience capacity")
	ErrNothingSelected   = errors.New("select at least one ticket")
	ErrUnknownCategory   = errors.New("ticket category not offered for this event")
)

// Field names used in ValidationError.
const (
	FieldDate     = "date"
	FieldGuests   = "guests"
	FieldName     = "name"
	FieldEmail    = "email"
	FieldQuantity = "quantity"
)

// ValidationError carries field-scoped, recoverable input errors.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

type fieldErrors map[string]string

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	cp := make(map[string]string, len(f))
	for k, v := range f {
		cp[k] = v
	}
	return &ValidationError{Fields: cp}
}
