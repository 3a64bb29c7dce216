// Package telegram contains Telegram bot infrastructure
package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

// Bot wraps the Telegram bot for infrastructure layer
type Bot struct {
	bot    *tgbot.Bot
	logger zerolog.Logger

	mu         sync.RWMutex
	username   string
	defHandler tgbot.HandlerFunc
}

// NewBot creates a new Telegram bot wrapper
func NewBot(token string, logger zerolog.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	b := &Bot{logger: logger}

	opts := []tgbot.Option{
		tgbot.WithDefaultHandler(b.dispatchDefault),
	}

	bot, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.bot = bot

	logger.Info().Msg("Telegram bot created successfully")

	return b, nil
}

// Raw returns the underlying telegram bot for handler registration
func (b *Bot) Raw() *tgbot.Bot {
	return b.bot
}

// SetDefaultHandler installs the handler for updates no route matched.
// Plain text messages carry media URLs, so the domain layer owns this.
func (b *Bot) SetDefaultHandler(h tgbot.HandlerFunc) {
	b.mu.Lock()
	b.defHandler = h
	b.mu.Unlock()
}

// Username returns the bot's own username, resolving it once via GetMe.
func (b *Bot) Username(ctx context.Context) (string, error) {
	b.mu.RLock()
	name := b.username
	b.mu.RUnlock()
	if name != "" {
		return name, nil
	}

	me, err := b.bot.GetMe(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve bot identity: %w", err)
	}

	b.mu.Lock()
	b.username = me.Username
	b.mu.Unlock()
	return me.Username, nil
}

// Start starts the bot (blocking call)
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info().Msg("Starting Telegram bot...")
	b.bot.Start(ctx)
	b.logger.Info().Msg("Telegram bot stopped")
	return nil
}

// Stop stops the bot
func (b *Bot) Stop() error {
	b.logger.Info().Msg("Stopping Telegram bot...")
	return nil
}

// dispatchDefault forwards unmatched updates to the installed handler
func (b *Bot) dispatchDefault(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	b.mu.RLock()
	h := b.defHandler
	b.mu.RUnlock()
	if h != nil {
		h(ctx, bot, update)
	}
}
