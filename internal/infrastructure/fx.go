// Package infrastructure contains infrastructure layer components
package infrastructure

import (
	"go.uber.org/fx"

	"github.com/yourusername/media-fetch-bot/internal/infrastructure/extractor"
	"github.com/yourusername/media-fetch-bot/internal/infrastructure/kafka"
	"github.com/yourusername/media-fetch-bot/internal/infrastructure/logger"
	"github.com/yourusername/media-fetch-bot/internal/infrastructure/relay"
	"github.com/yourusername/media-fetch-bot/internal/infrastructure/telegram"
)

// Module provides all infrastructure components for fx dependency injection
var Module = fx.Module("infrastructure",
	logger.Module,
	telegram.Module,
	extractor.Module,
	relay.Module,
	kafka.Module,
)
