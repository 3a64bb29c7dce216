// Package app contains application bootstrap
package app

import (
	"go.uber.org/fx"

	"github.com/yourusername/media-fetch-bot/config"
	"github.com/yourusername/media-fetch-bot/internal/domain"
	"github.com/yourusername/media-fetch-bot/internal/infrastructure"
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		// Configuration
		fx.Provide(config.Out),

		// Infrastructure (logger, telegram bot, extractor, relay, kafka)
		infrastructure.Module,

		// Domain (catalog, selection, delivery routing)
		domain.Module,
	)
}
