// Package errors contains domain-specific errors for the media domain
package errors

import (
	pkgerrors "github.com/yourusername/media-fetch-bot/pkg/errors"
)

// Domain errors for media delivery operations
var (
	// Catalog
	ErrUnsupportedSource    = pkgerrors.NewValidationError("source is not supported")
	ErrExtractionFailed     = pkgerrors.NewInternalError("media extraction failed")
	ErrPrivateOrUnavailable = pkgerrors.NewUnavailableError("media is private or unavailable")

	// Selection store
	ErrSelectionNotFound = pkgerrors.NewNotFoundError("selection not found")
	ErrSelectionExpired  = pkgerrors.NewExpiredError("selection expired")

	// Use case
	ErrTooFrequent = pkgerrors.NewRateLimitError("request arrived inside the per-user cooldown")

	// Fetch orchestrator
	ErrFetchFailed  = pkgerrors.NewInternalError("fetch failed")
	ErrFetchTimeout = pkgerrors.NewTimeoutError("fetch timed out")

	// Messaging transport
	ErrTooLarge  = pkgerrors.NewTooLargeError("file exceeds the upload ceiling")
	ErrTransport = pkgerrors.NewInternalError("telegram transport error")

	// Relay transport
	ErrRelayUnavailable = pkgerrors.NewUnavailableError("relay transport is unavailable")
	ErrRelayUpload      = pkgerrors.NewInternalError("relay upload failed")

	// Router
	ErrDeliveryImpossible = pkgerrors.NewUnavailableError("no delivery tier can serve this file")
	ErrDeliveryAbandoned  = pkgerrors.NewExpiredError("selection was replaced while delivering")
)
