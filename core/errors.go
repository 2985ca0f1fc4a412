package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput           = "DEEPLINK_BAD_INPUT"
	ErrorDuplicateToken     = "DEEPLINK_DUPLICATE_TOKEN"
	ErrorRedirectCancelled  = "DEEPLINK_REDIRECT_CANCELLED"
	ErrorOfferChannelClosed = "DEEPLINK_OFFER_CHANNEL_CLOSED"
	ErrorOfferQueueFull     = "DEEPLINK_OFFER_QUEUE_FULL"
	ErrorServiceClosed      = "DEEPLINK_SERVICE_CLOSED"
	ErrorNotFound           = "DEEPLINK_NOT_FOUND"
	ErrorOperationFailed    = "DEEPLINK_OPERATION_FAILED"
	ErrorInternal           = "DEEPLINK_INTERNAL_ERROR"
)

const defaultInternalMessage = "An unexpected error occurred"

func newDeeplinkError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func wrapDeeplinkError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	if source == nil {
		return newDeeplinkError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func duplicateTokenError(token string) error {
	return newDeeplinkError(
		"core: redirect wait already registered for token",
		goerrors.CategoryConflict,
		http.StatusConflict,
		ErrorDuplicateToken,
		map[string]any{"token": token},
	)
}

func redirectCancelledError(token string, cause error) error {
	return wrapDeeplinkError(
		cause,
		goerrors.CategoryOperation,
		"core: redirect wait cancelled",
		http.StatusRequestTimeout,
		ErrorRedirectCancelled,
		map[string]any{"token": token},
	)
}

func offerChannelClosedError() error {
	return newDeeplinkError(
		"core: offer channel is closed",
		goerrors.CategoryOperation,
		http.StatusServiceUnavailable,
		ErrorOfferChannelClosed,
		nil,
	)
}

func offerQueueFullError(capacity int) error {
	return newDeeplinkError(
		"core: offer queue is full",
		goerrors.CategoryRateLimit,
		http.StatusTooManyRequests,
		ErrorOfferQueueFull,
		map[string]any{"capacity": capacity},
	)
}

func serviceClosedError() error {
	return newDeeplinkError(
		"core: service is closed",
		goerrors.CategoryOperation,
		http.StatusServiceUnavailable,
		ErrorServiceClosed,
		nil,
	)
}

func badInputError(message string, metadata map[string]any) error {
	return newDeeplinkError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		ErrorBadInput,
		metadata,
	)
}

func IsDuplicateToken(err error) bool {
	return HasTextCode(err, ErrorDuplicateToken)
}

func IsRedirectCancelled(err error) bool {
	return HasTextCode(err, ErrorRedirectCancelled)
}

func IsOfferChannelClosed(err error) bool {
	return HasTextCode(err, ErrorOfferChannelClosed)
}

func IsOfferQueueFull(err error) bool {
	return HasTextCode(err, ErrorOfferQueueFull)
}

// HasTextCode reports whether err carries a go-errors envelope with textCode.
func HasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == textCode
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "already registered"):
		return ensureErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryConflict).WithTextCode(ErrorDuplicateToken))
	case strings.Contains(msg, "cancel"):
		return ensureErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryOperation).WithTextCode(ErrorRedirectCancelled))
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return ensureErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryBadInput).WithTextCode(ErrorBadInput))
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatusForCategory(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = defaultInternalMessage
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryConflict:
		return ErrorDuplicateToken
	case goerrors.CategoryRateLimit:
		return ErrorOfferQueueFull
	case goerrors.CategoryOperation:
		return ErrorOperationFailed
	default:
		return ErrorInternal
	}
}

func httpStatusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
