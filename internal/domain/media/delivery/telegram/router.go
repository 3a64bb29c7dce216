package telegram

import (
	tgbot "github.com/go-telegram/bot"
	"github.com/rs/zerolog"
)

// Router registers Telegram bot handlers
type Router struct {
	handlers *Handlers
	logger   zerolog.Logger
}

// NewRouter creates new Telegram router
func NewRouter(handlers *Handlers, logger zerolog.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   logger,
	}
}

// RegisterRoutes registers all command and callback handlers on the bot
func (r *Router) RegisterRoutes(bot *tgbot.Bot) {
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, r.handlers.HandleStart)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/help", tgbot.MatchTypeExact, r.handlers.HandleHelp)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/settings", tgbot.MatchTypeExact, r.handlers.HandleSettings)

	bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, prefixSelect, tgbot.MatchTypePrefix, r.handlers.HandleSelectCallback)
	bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, prefixMenu, tgbot.MatchTypePrefix, r.handlers.HandleMenuCallback)
	bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, prefixLang, tgbot.MatchTypePrefix, r.handlers.HandleLangCallback)

	r.logger.Info().Msg("All Telegram handlers registered successfully")
}
