package errors

import (
	"errors"
	"net/http"
)

// Sentinel errors, one per spec.md §7 error kind plus the generic ones
// the Query Interface needs for its HTTP surface.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrBadRequest            = errors.New("bad request")
	ErrTransientRPC          = errors.New("transient RPC error")
	ErrTransientMetadata     = errors.New("transient metadata fetch error")
	ErrMissingMetadataKey    = errors.New("required metadata key missing")
	ErrUnsupportedToken      = errors.New("unsupported token for price lookup")
	ErrInsufficientFunds     = errors.New("insufficient user balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrBuildOrSign           = errors.New("failed to build or sign transaction")
	ErrReceiptTimeout        = errors.New("timed out waiting for transaction receipt")
	ErrSchemaInvariant       = errors.New("schema invariant violated")
	ErrChainFrozen           = errors.New("chain initiator is frozen")
)

// AppError is the typed error the Query Interface's HTTP layer renders,
// mirroring the teacher's AppError shape (status + code + message).
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, "not_found", message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, "bad_request", message, ErrBadRequest)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "internal_error", "internal server error", err)
}

// Classification describes how the Scheduler and Payment Initiator
// should react to an error kind, per spec.md §7's propagation table.
type Classification struct {
	Retryable bool // safe to retry on the next tick without operator action
	Latching  bool // freezes the chain until an operator clears it
}

var classifications = map[error]Classification{
	ErrTransientRPC:          {Retryable: true},
	ErrTransientMetadata:     {Retryable: true},
	ErrMissingMetadataKey:    {Retryable: false},
	ErrUnsupportedToken:      {Retryable: false},
	ErrInsufficientFunds:     {Retryable: true},
	ErrInsufficientAllowance: {Retryable: true},
	ErrBuildOrSign:           {Retryable: true},
	ErrReceiptTimeout:        {Retryable: false, Latching: true},
	ErrSchemaInvariant:       {},
}

// Classify returns the classification for a known sentinel, matching via
// errors.Is so wrapped errors still resolve. Unknown errors default to
// the zero value (not retryable, not latching).
func Classify(err error) Classification {
	for sentinel, c := range classifications {
		if errors.Is(err, sentinel) {
			return c
		}
	}
	return Classification{}
}
