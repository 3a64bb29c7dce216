// Package dto contains request/response structures for the media use case
package dto

import (
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
)

// InboundURLRequest is a user message carrying a media URL
type InboundURLRequest struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
}

// MenuResponse describes the selection menu to render for a resolved URL
type MenuResponse struct {
	Token     string
	URL       string
	Title     string
	Duration  float64
	Thumbnail string
	Lang      string
	Options   []entities.VariantDescriptor
}

// MenuNavigateRequest switches between the recommended and full menus
type MenuNavigateRequest struct {
	Token  string
	UserID int64
	Action string // "more" | "back"
}

// SelectRequest is a completed quality choice from a button press
type SelectRequest struct {
	Token  string
	UserID int64
	ChatID int64
	Kind   entities.MediaKind
	Class  entities.ResolutionClass
	// StatusMessageID is the progress message the delivery flow edits
	StatusMessageID int
}

// ForwardTicket is the pending relay forward registered before a relay upload.
// The bot's private-message handler consumes it when the marked file arrives.
type ForwardTicket struct {
	TargetChatID int64
	Caption      string
	MediaClass   string
	CacheChatID  int64
	CacheURL     string
	CacheKind    entities.MediaKind
	CacheClass   entities.ResolutionClass
}
