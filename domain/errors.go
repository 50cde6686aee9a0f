package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkFailure indicates a transient transport or server failure.
	ErrNetworkFailure = errors.New("network failure")

	// ErrRenderFailure indicates the markup converter rejected a message body.
	ErrRenderFailure = errors.New("render failure")

	// ErrPermissionDenied indicates the server refused the action for this user.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation indicates a request rejected before any network call.
	ErrValidation = errors.New("validation failure")
)

var (
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = fmt.Errorf("%w: unauthorized", ErrPermissionDenied)

	// ErrEmptyMessage indicates the user submitted an empty message.
	ErrEmptyMessage = fmt.Errorf("%w: message cannot be empty", ErrValidation)

	// ErrGuidelinesNotAccepted indicates posting before accepting the community guidelines.
	ErrGuidelinesNotAccepted = fmt.Errorf("%w: community guidelines not accepted", ErrValidation)

	// ErrUnknownMessage indicates an action on an id the store does not hold.
	ErrUnknownMessage = fmt.Errorf("%w: unknown message", ErrValidation)

	// ErrActionPending indicates another like/delete is still in flight for the message.
	ErrActionPending = fmt.Errorf("%w: action already in progress", ErrValidation)
)

// ErrorKind classifies failures for user feedback.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindNetwork
	KindRender
	KindPermission
	KindValidation
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindRender:
		return "render"
	case KindPermission:
		return "permission"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Unclassified errors are KindUnknown.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrPermissionDenied):
		return KindPermission
	case errors.Is(err, ErrRenderFailure):
		return KindRender
	case errors.Is(err, ErrNetworkFailure):
		return KindNetwork
	default:
		return KindUnknown
	}
}
