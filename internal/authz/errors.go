package authz

import "errors"

var (
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden")
	ErrToolInputInvalid = errors.New("invalid tool input")
	ErrValidation       = errors.New("validation failed")

	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidResource = errors.New("invalid resource")
	ErrInvalidAction   = errors.New("invalid action")
)

// Kind classifies an error for callers that need to pick a response.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindNotFound
	KindForbidden
	KindToolInputInvalid
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindToolInputInvalid:
		return "tool_input_invalid"
	case KindValidation:
		return "validation_error"
	default:
		return "internal"
	}
}

// KindOf maps an error onto the taxonomy. Anything unrecognised is internal,
// including store failures and invalid stored roles.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrToolInputInvalid):
		return KindToolInputInvalid
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindInternal
	}
}
