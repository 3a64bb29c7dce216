// Package business contains the media delivery use case
package business

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/catalog"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/dto"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	mediaerrors "github.com/yourusername/media-fetch-bot/internal/domain/media/errors"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/estimate"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/router"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/selection"
	"github.com/yourusername/media-fetch-bot/internal/i18n"
	"github.com/yourusername/media-fetch-bot/pkg/format"
)

// RelayMarker prefixes the caption of relay uploads so the bot can route
// the arriving file back to the originating conversation
const RelayMarker = "UB|"

// progressEditInterval throttles status message edits
const progressEditInterval = 2 * time.Second

// userCooldown is the minimum gap between accepted URL submissions per user
const userCooldown = 3 * time.Second

var urlRe = regexp.MustCompile(`https?://\S+`)

// UseCase implements the bot's media delivery flows
type UseCase struct {
	resolver *catalog.Resolver
	store    *selection.Store
	cache    *selection.DeliveryCache
	forwards *selection.ForwardRegistry
	router   *router.Router
	prefs    *i18n.Prefs
	producer deps.OutcomeProducer
	logger   zerolog.Logger

	inlineLimit int64

	// sender is set after construction; see SetSender
	sender deps.MessengerSender

	mu      sync.Mutex
	jobs    map[selection.DeliveryKey]struct{}
	lastReq map[int64]time.Time
}

// NewUseCase creates the media use case
func NewUseCase(
	resolver *catalog.Resolver,
	store *selection.Store,
	cache *selection.DeliveryCache,
	forwards *selection.ForwardRegistry,
	deliveryRouter *router.Router,
	prefs *i18n.Prefs,
	producer deps.OutcomeProducer,
	inlineLimit int64,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		resolver:    resolver,
		store:       store,
		cache:       cache,
		forwards:    forwards,
		router:      deliveryRouter,
		prefs:       prefs,
		producer:    producer,
		inlineLimit: inlineLimit,
		logger:      logger.With().Str("component", "media_usecase").Logger(),
		jobs:        make(map[selection.DeliveryKey]struct{}),
		lastReq:     make(map[int64]time.Time),
	}
}

// SetSender wires the messaging transport after construction.
// Handlers implement deps.MessengerSender and also call into the use case,
// so the dependency is cyclic and resolved at wiring time.
func (uc *UseCase) SetSender(s deps.MessengerSender) {
	uc.sender = s
}

// Lang returns the user's interface language
func (uc *UseCase) Lang(userID int64) string {
	return uc.prefs.Lang(userID)
}

// SetLang records the user's language choice and returns the confirmation text
func (uc *UseCase) SetLang(userID int64, lang string) string {
	uc.prefs.Set(userID, lang)
	saved := uc.prefs.Lang(userID)
	return i18n.T(saved, "settings_saved", "lang", i18n.T(saved, "lang_"+saved))
}

// StartText returns the /start greeting
func (uc *UseCase) StartText(userID int64) string {
	return i18n.T(uc.Lang(userID), "start")
}

// HelpText returns the /help text with the inline ceiling substituted
func (uc *UseCase) HelpText(userID int64) string {
	limitMB := strconv.FormatInt(uc.inlineLimit>>20, 10)
	return i18n.T(uc.Lang(userID), "help", "limit", limitMB)
}

// HandleURL resolves the first URL in an inbound message into a variant
// catalog and opens a selection entry for it.
func (uc *UseCase) HandleURL(ctx context.Context, req *dto.InboundURLRequest) (*dto.MenuResponse, error) {
	url := urlRe.FindString(req.Text)
	if url == "" {
		return nil, mediaerrors.ErrUnsupportedSource
	}

	if !uc.acceptRequest(req.UserID) {
		return nil, mediaerrors.ErrTooFrequent
	}

	cat, err := uc.resolver.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}
	estimate.Annotate(cat)

	lang := uc.Lang(req.UserID)
	entry := &entities.SelectionEntry{
		Context: entities.SelectionContext{
			ChatID:    req.ChatID,
			UserID:    req.UserID,
			MessageID: req.MessageID,
		},
		Lang:    lang,
		Catalog: cat,
	}
	token := uc.store.Open(entry)

	uc.logger.Info().
		Str("url", url).
		Str("token", token).
		Int("variants", len(cat.Variants)).
		Msg("selection opened")

	return &dto.MenuResponse{
		Token:     token,
		URL:       cat.URL,
		Title:     cat.Title,
		Duration:  cat.Duration,
		Thumbnail: cat.Thumbnail,
		Lang:      lang,
		Options:   cat.Variants,
	}, nil
}

// MenuNavigate returns the live entry for a menu-page switch. The entry is
// touched so paging keeps the selection warm.
func (uc *UseCase) MenuNavigate(_ context.Context, req *dto.MenuNavigateRequest) (*entities.SelectionEntry, error) {
	var snapshot *entities.SelectionEntry
	err := uc.store.Update(req.Token, func(e *entities.SelectionEntry) {
		copied := *e
		snapshot = &copied
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Select handles a completed quality choice. Cached deliveries are replayed
// immediately; otherwise a delivery job is started in the background. A
// second press for the same file while a job runs is answered with a wait
// notice instead of a second fetch.
func (uc *UseCase) Select(ctx context.Context, req *dto.SelectRequest) error {
	entry, err := uc.store.Get(req.Token)
	if err != nil {
		uc.notifySelectionError(ctx, req.ChatID, uc.Lang(req.UserID), err)
		return err
	}

	choice := entities.PartialChoice{Kind: req.Kind, Class: req.Class}
	if _, ok := entry.Catalog.Find(choice.Kind, choice.Class); !ok {
		uc.notifySelectionError(ctx, req.ChatID, entry.Lang, mediaerrors.ErrSelectionNotFound)
		return mediaerrors.ErrSelectionNotFound
	}

	key := selection.DeliveryKey{
		ChatID: req.ChatID,
		URL:    entry.Catalog.URL,
		Kind:   req.Kind,
		Class:  req.Class,
	}

	// Replay a still-fresh previous delivery of the same file
	if cached, ok := uc.cache.Get(key); ok {
		if err := uc.replayCached(ctx, req.ChatID, entry.Lang, cached); err == nil {
			uc.store.Close(req.Token)
			return nil
		}
		// Stale cache entry; fall through to a fresh delivery
	}

	uc.mu.Lock()
	if _, running := uc.jobs[key]; running {
		uc.mu.Unlock()
		_ = uc.sender.SendText(ctx, req.ChatID, i18n.T(entry.Lang, "already_running"))
		return nil
	}
	uc.jobs[key] = struct{}{}
	uc.mu.Unlock()

	entry, err = uc.store.BeginDelivery(req.Token)
	if err != nil {
		uc.releaseJob(key)
		uc.notifySelectionError(ctx, req.ChatID, uc.Lang(req.UserID), err)
		return err
	}
	_ = uc.store.Update(req.Token, func(e *entities.SelectionEntry) {
		e.Choice = choice
	})

	// The delivery outlives the callback update; detach it
	go uc.runDelivery(context.Background(), entry, choice, key, req.StatusMessageID)
	return nil
}

// runDelivery drives one delivery attempt end to end: progress reporting,
// tier routing, user messaging, caching and event publication.
func (uc *UseCase) runDelivery(ctx context.Context, entry *entities.SelectionEntry, choice entities.PartialChoice, key selection.DeliveryKey, statusMessageID int) {
	defer uc.releaseJob(key)
	defer uc.store.Close(entry.Token)

	lang := entry.Lang
	chatID := entry.Context.ChatID
	caption := entry.Catalog.Title

	forwardToken := uc.forwards.Register(dto.ForwardTicket{
		TargetChatID: chatID,
		Caption:      caption,
		MediaClass:   mediaClassOf(choice.Kind),
		CacheChatID:  key.ChatID,
		CacheURL:     key.URL,
		CacheKind:    key.Kind,
		CacheClass:   key.Class,
	})

	progress := newProgressReporter(func(text string) {
		_ = uc.sender.EditText(ctx, chatID, statusMessageID, text)
	})

	outcome := uc.router.Deliver(ctx, &router.Request{
		Entry:        entry,
		Choice:       choice,
		Caption:      caption,
		RelayCaption: RelayMarker + forwardToken,
		Progress: func(downloaded, total int64) {
			progress.Download(lang, downloaded, total)
		},
		RelayProgress: func(pct int) {
			progress.RelayUpload(lang, pct)
		},
		Abandoned: func() bool {
			return !uc.store.Alive(entry.Token)
		},
	})

	// A fresh URL submission replaces the entry mid-flight; the stale
	// result belongs to nobody and must not reach the user.
	if !uc.store.Alive(entry.Token) || errors.Is(outcome.Reason, mediaerrors.ErrDeliveryAbandoned) {
		uc.logger.Info().
			Str("token", entry.Token).
			Str("url", entry.Catalog.URL).
			Msg("discarding abandoned delivery outcome")
		return
	}

	uc.finishDelivery(ctx, entry, key, outcome, statusMessageID)
}

// finishDelivery translates the router outcome into user messaging, cache
// population and delivery events.
func (uc *UseCase) finishDelivery(ctx context.Context, entry *entities.SelectionEntry, key selection.DeliveryKey, outcome *entities.DeliveryOutcome, statusMessageID int) {
	lang := entry.Lang
	chatID := entry.Context.ChatID
	url := entry.Catalog.URL
	caption := entry.Catalog.Title

	if !outcome.Delivered {
		text := i18n.T(lang, deliveryErrorKey(outcome.Reason))
		_ = uc.sender.EditText(ctx, chatID, statusMessageID, text)
		uc.logger.Warn().
			Err(outcome.Reason).
			Str("url", url).
			Str("tier", string(outcome.Tier)).
			Msg("delivery failed")
		if err := uc.producer.DeliveryFailed(ctx, chatID, url, outcome.Reason.Error()); err != nil {
			uc.logger.Error().Err(err).Msg("failed to publish delivery event")
		}
		return
	}

	switch outcome.Tier {
	case entities.TierInline:
		// The file message speaks for itself; retire the progress message
		_ = uc.sender.EditText(ctx, chatID, statusMessageID, i18n.T(lang, "download_finished"))
		if outcome.FileID != "" {
			uc.cache.PutFile(key, entities.TierInline, mediaClassOf(key.Kind), outcome.FileID, caption)
		}
	case entities.TierRelay:
		// The forward handler announces completion and fills the cache
		_ = uc.sender.EditText(ctx, chatID, statusMessageID, i18n.T(lang, "userbot_done"))
	case entities.TierDirectLink:
		_ = uc.sender.EditText(ctx, chatID, statusMessageID, i18n.T(lang, "direct_link"))
		if err := uc.sender.SendLink(ctx, chatID, caption, i18n.T(lang, "link_button"), outcome.DirectURL); err != nil {
			uc.logger.Error().Err(err).Msg("failed to send direct link")
		}
		uc.cache.PutLink(key, outcome.DirectURL, caption)
	}

	uc.logger.Info().
		Str("url", url).
		Str("tier", string(outcome.Tier)).
		Int64("size", outcome.Size).
		Msg("delivery completed")

	if err := uc.producer.DeliverySucceeded(ctx, chatID, url, outcome); err != nil {
		uc.logger.Error().Err(err).Msg("failed to publish delivery event")
	}
}

// HandleRelayForward consumes a pending forward ticket when the relay-marked
// file arrives in the bot's private chat, copies the file into the target
// conversation and caches it for replays.
func (uc *UseCase) HandleRelayForward(ctx context.Context, relayToken string, fromChatID int64, messageID int, fileID string) error {
	ticket, ok := uc.forwards.Consume(relayToken)
	if !ok {
		return fmt.Errorf("no pending forward for marker")
	}

	if err := uc.sender.CopyMessage(ctx, ticket.TargetChatID, fromChatID, messageID, ticket.Caption); err != nil {
		uc.logger.Error().Err(err).Int64("target", ticket.TargetChatID).Msg("relay forward failed")
		return err
	}

	if fileID != "" {
		key := selection.DeliveryKey{
			ChatID: ticket.CacheChatID,
			URL:    ticket.CacheURL,
			Kind:   ticket.CacheKind,
			Class:  ticket.CacheClass,
		}
		uc.cache.PutFile(key, entities.TierRelay, ticket.MediaClass, fileID, ticket.Caption)
	}

	uc.logger.Info().Int64("target", ticket.TargetChatID).Msg("relay file forwarded")
	return nil
}

// replayCached re-delivers a cached delivery without fetching anything
func (uc *UseCase) replayCached(ctx context.Context, chatID int64, lang string, cached selection.CachedDelivery) error {
	if cached.Tier == entities.TierDirectLink {
		return uc.sender.SendLink(ctx, chatID, cached.Caption, i18n.T(lang, "link_button"), cached.DirectURL)
	}
	return uc.sender.ResendFile(ctx, chatID, cached.MediaClass, cached.FileID, cached.Caption)
}

func (uc *UseCase) notifySelectionError(ctx context.Context, chatID int64, lang string, err error) {
	key := "error_download"
	if errors.Is(err, mediaerrors.ErrSelectionExpired) || errors.Is(err, mediaerrors.ErrSelectionNotFound) {
		key = "selection_expired"
	}
	_ = uc.sender.SendText(ctx, chatID, i18n.T(lang, key))
}

// acceptRequest enforces the per-user submission cooldown. Messages without
// a URL never reach it, so chatter does not burn the window.
func (uc *UseCase) acceptRequest(userID int64) bool {
	now := time.Now()
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if now.Sub(uc.lastReq[userID]) < userCooldown {
		return false
	}
	uc.lastReq[userID] = now
	return true
}

func (uc *UseCase) releaseJob(key selection.DeliveryKey) {
	uc.mu.Lock()
	delete(uc.jobs, key)
	uc.mu.Unlock()
}

// deliveryErrorKey maps a terminal delivery error to a message key
func deliveryErrorKey(err error) string {
	switch {
	case errors.Is(err, mediaerrors.ErrDeliveryImpossible):
		return "error_too_large"
	case errors.Is(err, mediaerrors.ErrRelayUpload), errors.Is(err, mediaerrors.ErrRelayUnavailable):
		return "error_relay"
	default:
		return "error_download"
	}
}

func mediaClassOf(kind entities.MediaKind) string {
	if kind == entities.KindAudioOnly {
		return "audio"
	}
	return "video"
}

// progressReporter throttles progress edits to one per interval and renders
// the download and relay-upload progress lines
type progressReporter struct {
	mu   sync.Mutex
	last time.Time
	edit func(text string)
}

func newProgressReporter(edit func(text string)) *progressReporter {
	return &progressReporter{edit: edit}
}

func (p *progressReporter) Download(lang string, downloaded, total int64) {
	if total <= 0 || !p.due() {
		return
	}
	pct := float64(downloaded) / float64(total) * 100
	p.edit(i18n.T(lang, "downloading",
		"pct", strconv.Itoa(int(pct)),
		"bar", format.ProgressBar(pct, 10),
	))
}

func (p *progressReporter) RelayUpload(lang string, pct int) {
	if !p.due() {
		return
	}
	p.edit(i18n.T(lang, "uploading_userbot",
		"pct", strconv.Itoa(pct),
		"bar", format.ProgressBar(float64(pct), 10),
	))
}

func (p *progressReporter) due() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if now.Sub(p.last) < progressEditInterval {
		return false
	}
	p.last = now
	return true
}
