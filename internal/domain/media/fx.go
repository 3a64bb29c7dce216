package media

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/media-fetch-bot/config"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/catalog"
	telegramDelivery "github.com/yourusername/media-fetch-bot/internal/domain/media/delivery/telegram"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/fetch"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/router"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/selection"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/usecase/business"
	"github.com/yourusername/media-fetch-bot/internal/i18n"
	"github.com/yourusername/media-fetch-bot/internal/infrastructure/telegram"
)

// forwardTTL bounds how long a relay upload may take before its pending
// forward ticket is dropped
const forwardTTL = time.Hour

// janitorInterval paces the background sweep of expired selections
const janitorInterval = time.Minute

// Module provides media domain components for fx dependency injection
var Module = fx.Module("media",
	fx.Provide(provideStore),
	fx.Provide(provideDeliveryCache),
	fx.Provide(provideForwards),
	fx.Provide(providePrefs),
	fx.Provide(catalog.NewResolver),
	fx.Provide(provideOrchestrator),
	fx.Provide(provideSenderProxy),
	fx.Provide(provideRouter),
	fx.Provide(provideUseCase),
	fx.Provide(provideHandlers),
	fx.Provide(telegramDelivery.NewRouter),

	// Wire cyclic dependencies, register routes, start the janitor
	fx.Invoke(wireAndRegister),
)

func provideStore(cfg *config.SelectionConfig, logger zerolog.Logger) (*selection.Store, error) {
	return selection.NewStore(cfg.Capacity, cfg.TTL, logger)
}

func provideDeliveryCache(cfg *config.SelectionConfig, logger zerolog.Logger) *selection.DeliveryCache {
	return selection.NewDeliveryCache(cfg.CacheTTL, logger)
}

func provideForwards() *selection.ForwardRegistry {
	return selection.NewForwardRegistry(forwardTTL)
}

func providePrefs() *i18n.Prefs {
	return i18n.NewPrefs()
}

func provideOrchestrator(extractor deps.Extractor, cfg *config.DeliveryConfig, logger zerolog.Logger) *fetch.Orchestrator {
	return fetch.NewOrchestrator(extractor, cfg.FetchTimeout, logger)
}

func provideSenderProxy() *senderProxy {
	return &senderProxy{}
}

func provideRouter(
	fetcher *fetch.Orchestrator,
	proxy *senderProxy,
	relay deps.RelayTransport,
	cfg *config.Config,
	logger zerolog.Logger,
) *router.Router {
	return router.NewRouter(fetcher, proxy, relay, router.Config{
		InlineLimit: cfg.Delivery.InlineLimitBytes,
		Mode:        router.BypassMode(cfg.Relay.Mode),
	}, logger)
}

func provideUseCase(
	resolver *catalog.Resolver,
	store *selection.Store,
	cache *selection.DeliveryCache,
	forwards *selection.ForwardRegistry,
	deliveryRouter *router.Router,
	prefs *i18n.Prefs,
	producer deps.OutcomeProducer,
	cfg *config.DeliveryConfig,
	logger zerolog.Logger,
) *business.UseCase {
	return business.NewUseCase(resolver, store, cache, forwards, deliveryRouter, prefs, producer, cfg.InlineLimitBytes, logger)
}

// provideHandlers creates Telegram handlers with the infrastructure bot
func provideHandlers(uc *business.UseCase, bot *telegram.Bot, logger zerolog.Logger) *telegramDelivery.Handlers {
	return telegramDelivery.NewHandlers(uc, bot, logger)
}

// wireAndRegister resolves the cyclic sender dependency and registers routes
func wireAndRegister(
	lc fx.Lifecycle,
	uc *business.UseCase,
	handlers *telegramDelivery.Handlers,
	proxy *senderProxy,
	tgRouter *telegramDelivery.Router,
	bot *telegram.Bot,
	store *selection.Store,
) {
	// Handlers implement deps.MessengerSender; install them behind the
	// proxy the router was built against and directly on the use case
	proxy.install(handlers)
	uc.SetSender(handlers)

	tgRouter.RegisterRoutes(bot.Raw())
	bot.SetDefaultHandler(handlers.HandleMessage)

	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			go store.RunJanitor(ctx, janitorInterval)
			return nil
		},
		OnStop: func(_ context.Context) error {
			if cancel != nil {
				cancel()
			}
			return nil
		},
	})
}
