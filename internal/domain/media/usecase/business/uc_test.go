package business

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/catalog"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/dto"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	mediaerrors "github.com/yourusername/media-fetch-bot/internal/domain/media/errors"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/fetch"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/router"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/selection"
	"github.com/yourusername/media-fetch-bot/internal/i18n"
)

const mb = int64(1 << 20)

type fakeExtractor struct {
	t        *testing.T
	probe    *entities.ProbeResult
	probeErr error
	size     int64
	// fetchGate, when set, holds every Fetch until the channel is closed
	fetchGate chan struct{}
}

func (f *fakeExtractor) Probe(_ context.Context, _ string) (*entities.ProbeResult, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.probe, nil
}

func (f *fakeExtractor) Fetch(_ context.Context, _ string, _ entities.VariantDescriptor, progress deps.ProgressFunc) (*entities.LocalFile, error) {
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	if progress != nil {
		progress(f.size/2, f.size)
	}
	dir, err := os.MkdirTemp("", "uctest-*")
	require.NoError(f.t, err)
	path := filepath.Join(dir, "media.mp4")
	require.NoError(f.t, os.WriteFile(path, []byte("x"), 0o644))
	return &entities.LocalFile{Path: path, Size: f.size, Title: "clip", Ext: "mp4", MediaClass: "video", TempDir: dir}, nil
}

func (f *fakeExtractor) DirectURL(_ context.Context, _ string, _ entities.VariantDescriptor) (string, error) {
	return "https://cdn.example/direct", nil
}

// recordingSender records every outbound interaction for assertions
type recordingSender struct {
	mu       sync.Mutex
	texts    []string
	edits    []string
	links    []string
	files    []string
	resends  []string
	copies   int
	username string
}

func (r *recordingSender) SendText(_ context.Context, _ int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingSender) SendTextAndGetID(_ context.Context, _ int64, text string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return 100, nil
}

func (r *recordingSender) EditText(_ context.Context, _ int64, _ int, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, text)
	return nil
}

func (r *recordingSender) SendLink(_ context.Context, _ int64, _, _, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, url)
	return nil
}

func (r *recordingSender) SendFile(_ context.Context, _ int64, file *entities.LocalFile, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, file.Path)
	return "file-id-1", nil
}

func (r *recordingSender) ResendFile(_ context.Context, _ int64, _, fileID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resends = append(r.resends, fileID)
	return nil
}

func (r *recordingSender) CopyMessage(context.Context, int64, int64, int, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.copies++
	return nil
}

func (r *recordingSender) BotUsername() string { return r.username }

type senderState struct {
	texts   []string
	edits   []string
	links   []string
	files   []string
	resends []string
	copies  int
}

func (r *recordingSender) snapshot() senderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return senderState{
		texts:   append([]string(nil), r.texts...),
		edits:   append([]string(nil), r.edits...),
		links:   append([]string(nil), r.links...),
		files:   append([]string(nil), r.files...),
		resends: append([]string(nil), r.resends...),
		copies:  r.copies,
	}
}

type offRelay struct{}

func (offRelay) Enabled() bool { return false }
func (offRelay) UploadToBot(context.Context, string, *entities.LocalFile, string, func(pct int)) error {
	return mediaerrors.ErrRelayUnavailable
}

type recordingProducer struct {
	mu        sync.Mutex
	delivered int
	failed    int
}

func (p *recordingProducer) DeliverySucceeded(context.Context, int64, string, *entities.DeliveryOutcome) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delivered++
	return nil
}

func (p *recordingProducer) DeliveryFailed(context.Context, int64, string, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed++
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func (p *recordingProducer) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.delivered, p.failed
}

type ucFixture struct {
	uc       *UseCase
	sender   *recordingSender
	producer *recordingProducer
	store    *selection.Store
	cache    *selection.DeliveryCache
}

func newFixture(t *testing.T, ext *fakeExtractor) *ucFixture {
	t.Helper()
	logger := zerolog.Nop()

	store, err := selection.NewStore(16, time.Minute, logger)
	require.NoError(t, err)
	cache := selection.NewDeliveryCache(time.Minute, logger)
	forwards := selection.NewForwardRegistry(time.Minute)
	resolver := catalog.NewResolver(ext, logger)
	fetcher := fetch.NewOrchestrator(ext, time.Minute, logger)

	sender := &recordingSender{username: "fetchbot"}
	producer := &recordingProducer{}

	deliveryRouter := router.NewRouter(fetcher, sender, offRelay{}, router.Config{
		InlineLimit: 48 * mb,
		Mode:        router.BypassOff,
	}, logger)

	uc := NewUseCase(resolver, store, cache, forwards, deliveryRouter, i18n.NewPrefs(), producer, 48*mb, logger)
	uc.SetSender(sender)

	return &ucFixture{uc: uc, sender: sender, producer: producer, store: store, cache: cache}
}

func testProbe() *entities.ProbeResult {
	return &entities.ProbeResult{
		Title:    "Test Clip",
		Duration: 120,
		URL:      "https://example.com/watch?v=1",
		Variants: []entities.VariantDescriptor{
			{FormatID: "best", Kind: entities.KindVideoAudio, Class: entities.ClassBest, EstSize: 30 * mb, Ext: "mp4", Height: 1080},
			{FormatID: "136", AudioFormatID: "140", Kind: entities.KindVideoAudio, Class: entities.Class720, EstSize: 16 * mb, Ext: "mp4", Height: 720},
			{FormatID: "140", Kind: entities.KindAudioOnly, EstSize: 2 * mb, Ext: "m4a"},
		},
	}
}

func TestHandleURL_OpensSelection(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{t: t, probe: testProbe(), size: 30 * mb})

	resp, err := fx.uc.HandleURL(context.Background(), &dto.InboundURLRequest{
		ChatID: 7, UserID: 9, MessageID: 1,
		Text: "check this https://example.com/watch?v=1 out",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "Test Clip", resp.Title)
	require.Len(t, resp.Options, 3)

	entry, err := fx.store.Get(resp.Token)
	require.NoError(t, err)
	require.Equal(t, int64(7), entry.Context.ChatID)
}

func resetCooldown(uc *UseCase, userID int64) {
	uc.mu.Lock()
	delete(uc.lastReq, userID)
	uc.mu.Unlock()
}

func TestHandleURL_PerUserCooldown(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{t: t, probe: testProbe(), size: 30 * mb})

	req := &dto.InboundURLRequest{
		ChatID: 7, UserID: 9, MessageID: 1, Text: "https://example.com/watch?v=1",
	}
	_, err := fx.uc.HandleURL(context.Background(), req)
	require.NoError(t, err)

	// An immediate resubmission from the same user is rejected
	_, err = fx.uc.HandleURL(context.Background(), req)
	require.ErrorIs(t, err, mediaerrors.ErrTooFrequent)

	// Another user is not affected
	other := &dto.InboundURLRequest{
		ChatID: 8, UserID: 10, MessageID: 2, Text: "https://example.com/watch?v=1",
	}
	_, err = fx.uc.HandleURL(context.Background(), other)
	require.NoError(t, err)

	// Past the cooldown window the user is served again
	fx.uc.mu.Lock()
	fx.uc.lastReq[9] = time.Now().Add(-userCooldown)
	fx.uc.mu.Unlock()
	_, err = fx.uc.HandleURL(context.Background(), req)
	require.NoError(t, err)
}

func TestHandleURL_NoURL(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{t: t, probe: testProbe()})

	_, err := fx.uc.HandleURL(context.Background(), &dto.InboundURLRequest{Text: "hello there"})
	require.ErrorIs(t, err, mediaerrors.ErrUnsupportedSource)
}

func TestHandleURL_ResolveErrorPropagates(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{t: t, probeErr: mediaerrors.ErrPrivateOrUnavailable})

	_, err := fx.uc.HandleURL(context.Background(), &dto.InboundURLRequest{Text: "https://example.com/x"})
	require.ErrorIs(t, err, mediaerrors.ErrPrivateOrUnavailable)
}

func TestSelect_InlineDeliveryEndToEnd(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{t: t, probe: testProbe(), size: 30 * mb})

	resp, err := fx.uc.HandleURL(context.Background(), &dto.InboundURLRequest{
		ChatID: 7, UserID: 9, MessageID: 1, Text: "https://example.com/watch?v=1",
	})
	require.NoError(t, err)

	err = fx.uc.Select(context.Background(), &dto.SelectRequest{
		Token: resp.Token, UserID: 9, ChatID: 7,
		Kind: entities.KindVideoAudio, Class: entities.ClassBest,
		StatusMessageID: 55,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(fx.sender.snapshot().files) == 1
	}, 2*time.Second, 10*time.Millisecond, "inline upload should happen")

	require.Eventually(t, func() bool {
		delivered, _ := fx.producer.counts()
		return delivered == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The token is retired after delivery
	require.Eventually(t, func() bool {
		_, err := fx.store.Get(resp.Token)
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)

	// A repeat press is served from the delivery cache
	key := selection.DeliveryKey{ChatID: 7, URL: resp.URL, Kind: entities.KindVideoAudio, Class: entities.ClassBest}
	cached, ok := fx.cache.Get(key)
	require.True(t, ok)
	require.Equal(t, "file-id-1", cached.FileID)
}

func TestSelect_ReplacedSelectionDiscardsDelivery(t *testing.T) {
	ext := &fakeExtractor{t: t, probe: testProbe(), size: 30 * mb, fetchGate: make(chan struct{})}
	fx := newFixture(t, ext)

	req := &dto.InboundURLRequest{
		ChatID: 7, UserID: 9, MessageID: 1, Text: "https://example.com/watch?v=1",
	}
	resp, err := fx.uc.HandleURL(context.Background(), req)
	require.NoError(t, err)

	err = fx.uc.Select(context.Background(), &dto.SelectRequest{
		Token: resp.Token, UserID: 9, ChatID: 7,
		Kind: entities.KindVideoAudio, Class: entities.ClassBest,
		StatusMessageID: 55,
	})
	require.NoError(t, err)

	// A fresh submission for the same conversation replaces the entry while
	// the first fetch is still running
	resetCooldown(fx.uc, 9)
	_, err = fx.uc.HandleURL(context.Background(), req)
	require.NoError(t, err)
	require.False(t, fx.store.Alive(resp.Token))

	close(ext.fetchGate)

	// The orphaned result must never reach the user, the cache or the
	// event stream
	require.Never(t, func() bool {
		snap := fx.sender.snapshot()
		delivered, failed := fx.producer.counts()
		return len(snap.files) > 0 || len(snap.links) > 0 || delivered > 0 || failed > 0
	}, 300*time.Millisecond, 20*time.Millisecond)

	key := selection.DeliveryKey{ChatID: 7, URL: resp.URL, Kind: entities.KindVideoAudio, Class: entities.ClassBest}
	_, ok := fx.cache.Get(key)
	require.False(t, ok)
}

func TestSelect_CachedReplaySkipsFetch(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{t: t, probe: testProbe(), size: 30 * mb})

	resp, err := fx.uc.HandleURL(context.Background(), &dto.InboundURLRequest{
		ChatID: 7, UserID: 9, MessageID: 1, Text: "https://example.com/watch?v=1",
	})
	require.NoError(t, err)

	key := selection.DeliveryKey{ChatID: 7, URL: resp.URL, Kind: entities.KindVideoAudio, Class: entities.ClassBest}
	fx.cache.PutFile(key, entities.TierInline, "video", "cached-file", "Test Clip")

	err = fx.uc.Select(context.Background(), &dto.SelectRequest{
		Token: resp.Token, UserID: 9, ChatID: 7,
		Kind: entities.KindVideoAudio, Class: entities.ClassBest,
	})
	require.NoError(t, err)

	snap := fx.sender.snapshot()
	require.Equal(t, []string{"cached-file"}, snap.resends)
	require.Empty(t, snap.files, "no fresh upload for a cached delivery")

	_, err = fx.store.Get(resp.Token)
	require.Error(t, err, "token retired after replay")
}

func TestSelect_CoalescesRunningJob(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{t: t, probe: testProbe(), size: 30 * mb})

	resp, err := fx.uc.HandleURL(context.Background(), &dto.InboundURLRequest{
		ChatID: 7, UserID: 9, MessageID: 1, Text: "https://example.com/watch?v=1",
	})
	require.NoError(t, err)

	key := selection.DeliveryKey{ChatID: 7, URL: resp.URL, Kind: entities.KindVideoAudio, Class: entities.ClassBest}
	fx.uc.mu.Lock()
	fx.uc.jobs[key] = struct{}{}
	fx.uc.mu.Unlock()

	err = fx.uc.Select(context.Background(), &dto.SelectRequest{
		Token: resp.Token, UserID: 9, ChatID: 7,
		Kind: entities.KindVideoAudio, Class: entities.ClassBest,
	})
	require.NoError(t, err)

	snap := fx.sender.snapshot()
	require.Len(t, snap.texts, 1)
	require.Equal(t, i18n.T("ru", "already_running"), snap.texts[0])
	require.Empty(t, snap.files)
}

func TestSelect_UnknownToken(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{t: t, probe: testProbe()})

	err := fx.uc.Select(context.Background(), &dto.SelectRequest{
		Token: "missing", UserID: 9, ChatID: 7,
		Kind: entities.KindVideoAudio, Class: entities.ClassBest,
	})
	require.Error(t, err)

	snap := fx.sender.snapshot()
	require.Len(t, snap.texts, 1)
	require.Contains(t, snap.texts[0], i18n.T("ru", "selection_expired"))
}

func TestSelect_MissingBucketRejected(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{t: t, probe: testProbe()})

	resp, err := fx.uc.HandleURL(context.Background(), &dto.InboundURLRequest{
		ChatID: 7, UserID: 9, MessageID: 1, Text: "https://example.com/watch?v=1",
	})
	require.NoError(t, err)

	err = fx.uc.Select(context.Background(), &dto.SelectRequest{
		Token: resp.Token, UserID: 9, ChatID: 7,
		Kind: entities.KindVideoOnly, Class: entities.Class360,
	})
	require.ErrorIs(t, err, mediaerrors.ErrSelectionNotFound)
}

func TestHandleRelayForward(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{t: t, probe: testProbe()})

	token := fx.uc.forwards.Register(dto.ForwardTicket{
		TargetChatID: 7,
		Caption:      "Test Clip",
		MediaClass:   "video",
		CacheChatID:  7,
		CacheURL:     "https://example.com/watch?v=1",
		CacheKind:    entities.KindVideoAudio,
		CacheClass:   entities.Class720,
	})

	err := fx.uc.HandleRelayForward(context.Background(), token, 555, 42, "relay-file-id")
	require.NoError(t, err)
	require.Equal(t, 1, fx.sender.snapshot().copies)

	key := selection.DeliveryKey{ChatID: 7, URL: "https://example.com/watch?v=1", Kind: entities.KindVideoAudio, Class: entities.Class720}
	cached, ok := fx.cache.Get(key)
	require.True(t, ok)
	require.Equal(t, entities.TierRelay, cached.Tier)
	require.Equal(t, "relay-file-id", cached.FileID)

	// Tickets are single use
	err = fx.uc.HandleRelayForward(context.Background(), token, 555, 43, "other")
	require.Error(t, err)
}

func TestSetLangAndHelp(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{t: t, probe: testProbe()})

	saved := fx.uc.SetLang(9, "en")
	require.Contains(t, saved, "English")
	require.Equal(t, "en", fx.uc.Lang(9))

	help := fx.uc.HelpText(9)
	require.Contains(t, help, "48")
	require.True(t, strings.Contains(help, "How to use"))
}
