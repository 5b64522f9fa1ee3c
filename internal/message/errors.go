package message

import "errors"

var (
	// ErrCompositionConflict is returned when mutually exclusive operations are
	// combined: raw blocks with guided blocks, nested sections, or a header
	// inside a section.
	ErrCompositionConflict = errors.New("composition conflict")

	// ErrLimitExceeded is returned when a context block gets more than
	// MaxContextElements elements.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrFieldsNotOpen is returned when a field is added, or fields are closed,
	// outside Fields()/EndFields().
	ErrFieldsNotOpen = errors.New("fields not open")

	ErrUnterminatedSection = errors.New("a section was opened but never closed")
	ErrUnterminatedFields  = errors.New("fields were opened but never closed")
)
