package shared

import "errors"

// Error taxonomy shared by every domain package. Domain errors wrap one of
// these so the transport layer can map them without knowing the domain.
var (
	// ErrInvalidInput indicates malformed or missing request data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates a product cannot cover the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict indicates a concurrent mutation won the race for shared state.
	ErrConflict = errors.New("conflict")
	// ErrForbidden indicates the caller lacks the capability for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized indicates no caller identity was supplied.
	ErrUnauthorized = errors.New("unauthorized")
)

