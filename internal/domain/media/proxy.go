// Package media wires the media domain components together
package media

import (
	"context"
	"sync"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	mediaerrors "github.com/yourusername/media-fetch-bot/internal/domain/media/errors"
)

// senderProxy defers the messaging transport binding until wiring time.
// The delivery router needs a sender at construction, but the concrete
// sender (the Telegram handlers) depends on the use case, which depends on
// the router. The proxy closes that loop: everything is built against the
// proxy and the handlers are installed in wireAndRegister before startup.
type senderProxy struct {
	mu     sync.RWMutex
	target deps.MessengerSender
}

var _ deps.MessengerSender = (*senderProxy)(nil)

func (p *senderProxy) install(s deps.MessengerSender) {
	p.mu.Lock()
	p.target = s
	p.mu.Unlock()
}

func (p *senderProxy) get() deps.MessengerSender {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.target
}

func (p *senderProxy) SendText(ctx context.Context, chatID int64, text string) error {
	if s := p.get(); s != nil {
		return s.SendText(ctx, chatID, text)
	}
	return mediaerrors.ErrTransport
}

func (p *senderProxy) SendTextAndGetID(ctx context.Context, chatID int64, text string) (int, error) {
	if s := p.get(); s != nil {
		return s.SendTextAndGetID(ctx, chatID, text)
	}
	return 0, mediaerrors.ErrTransport
}

func (p *senderProxy) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	if s := p.get(); s != nil {
		return s.EditText(ctx, chatID, messageID, text)
	}
	return mediaerrors.ErrTransport
}

func (p *senderProxy) SendLink(ctx context.Context, chatID int64, text, label, url string) error {
	if s := p.get(); s != nil {
		return s.SendLink(ctx, chatID, text, label, url)
	}
	return mediaerrors.ErrTransport
}

func (p *senderProxy) SendFile(ctx context.Context, chatID int64, file *entities.LocalFile, caption string) (string, error) {
	if s := p.get(); s != nil {
		return s.SendFile(ctx, chatID, file, caption)
	}
	return "", mediaerrors.ErrTransport
}

func (p *senderProxy) ResendFile(ctx context.Context, chatID int64, mediaClass, fileID, caption string) error {
	if s := p.get(); s != nil {
		return s.ResendFile(ctx, chatID, mediaClass, fileID, caption)
	}
	return mediaerrors.ErrTransport
}

func (p *senderProxy) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int, caption string) error {
	if s := p.get(); s != nil {
		return s.CopyMessage(ctx, toChatID, fromChatID, messageID, caption)
	}
	return mediaerrors.ErrTransport
}

func (p *senderProxy) BotUsername() string {
	if s := p.get(); s != nil {
		return s.BotUsername()
	}
	return ""
}
