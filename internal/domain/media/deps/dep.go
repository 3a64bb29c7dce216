// Package deps contains interface definitions for the media domain dependencies
package deps

import (
	"context"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
)

// ProgressFunc receives download progress. total is 0 when unknown.
type ProgressFunc func(downloaded, total int64)

// Extractor defines the media extractor collaborator.
// Implementations wrap the site-specific scraping tool; the engine treats
// format identifiers as opaque.
type Extractor interface {
	// Probe lists the available variants for a URL without fetching bytes
	Probe(ctx context.Context, url string) (*entities.ProbeResult, error)

	// Fetch materializes a chosen variant into a local file. When the
	// descriptor carries a separate audio format id, the extractor muxes
	// both tracks into one container before returning.
	// On error no temporary files are left behind.
	Fetch(ctx context.Context, url string, desc entities.VariantDescriptor, progress ProgressFunc) (*entities.LocalFile, error)

	// DirectURL returns a direct remote URL for the chosen variant,
	// or an error when the source offers none
	DirectURL(ctx context.Context, url string, desc entities.VariantDescriptor) (string, error)
}

// MessengerSender defines the primary messaging transport.
// This interface breaks the cyclic dependency between UseCase and the
// Telegram delivery handlers.
type MessengerSender interface {
	// SendText sends a plain text message
	SendText(ctx context.Context, chatID int64, text string) error

	// SendTextAndGetID sends a text message and returns its message ID
	SendTextAndGetID(ctx context.Context, chatID int64, text string) (int, error)

	// EditText edits a previously sent message
	EditText(ctx context.Context, chatID int64, messageID int, text string) error

	// SendLink sends a direct-link result with an inline URL button
	SendLink(ctx context.Context, chatID int64, text, label, url string) error

	// SendFile uploads a local file inline and returns the transport file id
	// of the sent media. Fails with ErrTooLarge when the transport rejects
	// the upload for size, ErrTransport otherwise.
	SendFile(ctx context.Context, chatID int64, file *entities.LocalFile, caption string) (fileID string, err error)

	// ResendFile re-sends an already uploaded file by transport file id
	ResendFile(ctx context.Context, chatID int64, mediaClass, fileID, caption string) error

	// CopyMessage copies a message between chats, used to forward
	// relay-uploaded files into the original conversation
	CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int, caption string) error

	// BotUsername returns the bot's own username, the relay upload target
	BotUsername() string
}

// RelayTransport defines the privileged size-unconstrained upload channel
type RelayTransport interface {
	// Enabled reports whether the relay is configured and connected
	Enabled() bool

	// UploadToBot uploads a local file into the bot's private chat with the
	// given caption. The bot recognizes the caption marker and forwards the
	// file into the original conversation.
	UploadToBot(ctx context.Context, botUsername string, file *entities.LocalFile, caption string, progress func(pct int)) error
}

// OutcomeProducer publishes delivery outcomes for downstream consumers
type OutcomeProducer interface {
	// DeliverySucceeded publishes a successful delivery event
	DeliverySucceeded(ctx context.Context, chatID int64, url string, outcome *entities.DeliveryOutcome) error

	// DeliveryFailed publishes a failed delivery event
	DeliveryFailed(ctx context.Context, chatID int64, url string, reason string) error

	// Close closes the producer
	Close() error
}
