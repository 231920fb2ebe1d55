package admission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

type Kind string

const (
	KindValidationFailed     Kind = "validation_failed"
	KindDeadlinePassed       Kind = "deadline_passed"
	KindAnnouncementClosed   Kind = "announcement_closed"
	KindAlreadyRegistered    Kind = "already_registered"
	KindCapacityFull         Kind = "capacity_full"
	KindTooManyProductGroups Kind = "too_many_product_groups"
	KindStoreUnavailable     Kind = "store_unavailable"
	KindNotFound             Kind = "not_found"
	KindForbidden            Kind = "forbidden"
)

// Category groups kinds by what the user has to do about them.
type Category string

const (
	CategoryInput  Category = "input"  // fix the submission
	CategoryClosed Category = "closed" // pick another announcement
	CategoryFull   Category = "full"   // pick another channel or wait for an opening
	CategoryRetry  Category = "retry"  // resubmit unchanged
)

// Error is the result of a refused submission or review.
type Error struct {
	Kind     Kind
	Field    string
	Channels []models.Channel
	Limit    int
	Groups   int
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindValidationFailed:
		return fmt.Sprintf("validation failed: %s", e.Field)
	case KindCapacityFull:
		return fmt.Sprintf("capacity full: %s", joinChannels(e.Channels))
	case KindTooManyProductGroups:
		return fmt.Sprintf("too many product groups on %s: %d > %d", joinChannels(e.Channels), e.Groups, e.Limit)
	case KindStoreUnavailable:
		if e.Err != nil {
			return fmt.Sprintf("store unavailable: %v", e.Err)
		}
	case KindForbidden, KindNotFound:
		if e.Field != "" {
			return fmt.Sprintf("%s: %s", strings.ReplaceAll(string(e.Kind), "_", " "), e.Field)
		}
	}
	return strings.ReplaceAll(string(e.Kind), "_", " ")
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Category() Category {
	switch e.Kind {
	case KindDeadlinePassed, KindAnnouncementClosed, KindAlreadyRegistered:
		return CategoryClosed
	case KindCapacityFull:
		return CategoryFull
	case KindStoreUnavailable:
		return CategoryRetry
	}
	return CategoryInput
}

// Retryable is true only when resubmitting the same input can succeed.
func (e *Error) Retryable() bool { return e.Kind == KindStoreUnavailable }

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func validationFailed(field string) *Error {
	return &Error{Kind: KindValidationFailed, Field: field}
}

func forbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Field: reason}
}

func storeUnavailable(err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Err: err}
}

func joinChannels(chs []models.Channel) string {
	parts := make([]string, 0, len(chs))
	for _, c := range chs {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ",")
}
