// Package relay implements the size-unconstrained upload channel on a
// user account speaking MTProto via gotd/td.
package relay

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	mediaerrors "github.com/yourusername/media-fetch-bot/internal/domain/media/errors"
)

// Client implements deps.RelayTransport using gotd/td
type Client struct {
	apiID          int
	apiHash        string
	sessionStorage *FileSessionStorage

	client     *telegram.Client
	api        *tg.Client
	connected  bool
	mu         sync.RWMutex
	cancelFunc context.CancelFunc
	runDone    chan struct{}

	logger zerolog.Logger

	// Rate limiter for API calls
	rateLimiter *rate.Limiter
}

// Config holds configuration for the relay client
type Config struct {
	APIID      int
	APIHash    string
	SessionDir string
}

// NewClient creates a relay client. It does not connect; call Connect.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIID == 0 {
		return nil, fmt.Errorf("APIID is required")
	}
	if cfg.APIHash == "" {
		return nil, fmt.Errorf("APIHash is required")
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = "./sessions"
	}

	sessionStorage, err := NewFileSessionStorage(cfg.SessionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create session storage: %w", err)
	}

	return &Client{
		apiID:          cfg.APIID,
		apiHash:        cfg.APIHash,
		sessionStorage: sessionStorage,
		logger:         logger.With().Str("component", "relay").Logger(),
		rateLimiter:    rate.NewLimiter(rate.Every(time.Second), 10), // 10 requests per second
	}, nil
}

var _ deps.RelayTransport = (*Client)(nil)

// Connect connects the relay account. The stored session must already be
// authorized; connecting never drives an interactive login.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		c.logger.Debug().Msg("already connected")
		return nil
	}
	defer c.mu.Unlock()

	if !c.sessionStorage.SessionExists() {
		return fmt.Errorf("no relay session at %s", c.sessionStorage.GetFilePath())
	}

	c.logger.Info().Msg("connecting relay account")

	c.client = telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: c.sessionStorage,
	})

	clientCtx, cancel := context.WithCancel(context.Background())
	c.cancelFunc = cancel

	// Connect holds c.mu until the handshake settles, so the run goroutine
	// hands the API client back over a channel instead of touching fields.
	readyChan := make(chan *tg.Client, 1)
	errChan := make(chan error, 1)
	c.runDone = make(chan struct{})

	go func() {
		defer close(c.runDone)
		err := c.client.Run(clientCtx, func(ctx context.Context) error {
			status, err := c.client.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to check auth status: %w", err)
			}
			if !status.Authorized {
				return fmt.Errorf("relay session is not authorized")
			}

			readyChan <- c.client.API()

			// Keep connection alive
			<-ctx.Done()
			return ctx.Err()
		})
		select {
		case errChan <- err:
		default:
		}
		// Whatever ended the run loop, the relay is no longer usable
		c.setConnected(false)
	}()

	select {
	case api := <-readyChan:
		c.api = api
		c.connected = true
		c.logger.Info().Msg("relay account connected")
		return nil
	case err := <-errChan:
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect relay: %w", err)
		}
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// Disconnect stops the relay client and waits for its run loop to exit
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if !c.connected && c.cancelFunc == nil {
		c.mu.Unlock()
		return nil
	}
	cancelFunc := c.cancelFunc
	runDone := c.runDone
	c.cancelFunc = nil
	c.runDone = nil
	c.mu.Unlock()

	if cancelFunc != nil {
		cancelFunc()
		if runDone != nil {
			select {
			case <-runDone:
			case <-ctx.Done():
				c.logger.Warn().Msg("timeout waiting for relay shutdown")
			}
		}
	}

	c.setConnected(false)
	c.logger.Info().Msg("relay account disconnected")
	return nil
}

// Enabled reports whether the relay is connected and ready to upload
func (c *Client) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// UploadToBot uploads a local file into the bot's private chat. The caption
// carries the forward marker the bot resolves back to a conversation.
func (c *Client) UploadToBot(ctx context.Context, botUsername string, file *entities.LocalFile, caption string, progress func(pct int)) error {
	c.mu.RLock()
	api := c.api
	connected := c.connected
	c.mu.RUnlock()

	if !connected || api == nil {
		return mediaerrors.ErrRelayUnavailable
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	up := uploader.NewUploader(api).
		WithPartSize(uploader.MaximumPartSize).
		WithProgress(&progressAdapter{fn: progress})

	upload, err := up.FromPath(ctx, file.Path)
	if err != nil {
		c.logger.Error().Err(err).Str("path", file.Path).Msg("relay upload failed")
		return mediaerrors.ErrRelayUpload
	}

	doc := message.UploadedDocument(upload, styling.Plain(caption))
	doc.Filename(relayFilename(file)).MIME(relayMIME(file))

	var media message.MediaOption = doc
	switch file.MediaClass {
	case "video":
		media = doc.Video().SupportsStreaming()
	case "audio":
		media = doc.Audio().Title(file.Title)
	}

	sender := message.NewSender(api).WithUploader(up)
	if _, err := sender.Resolve(botUsername).Media(ctx, media); err != nil {
		c.logger.Error().Err(err).Str("target", botUsername).Msg("relay send failed")
		return mediaerrors.ErrRelayUpload
	}

	c.logger.Info().
		Str("target", botUsername).
		Int64("size", file.Size).
		Msg("relay upload completed")
	return nil
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// progressAdapter maps uploader chunk callbacks onto a percentage callback
type progressAdapter struct {
	fn   func(pct int)
	last int
}

func (p *progressAdapter) Chunk(_ context.Context, state uploader.ProgressState) error {
	if p.fn == nil || state.Total <= 0 {
		return nil
	}
	pct := int(state.Uploaded * 100 / state.Total)
	if pct != p.last {
		p.last = pct
		p.fn(pct)
	}
	return nil
}

func relayFilename(file *entities.LocalFile) string {
	name := strings.TrimSpace(file.Title)
	if name == "" {
		name = "media"
	}
	// Strip characters that confuse clients saving the file
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	ext := strings.TrimPrefix(file.Ext, ".")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

func relayMIME(file *entities.LocalFile) string {
	switch strings.ToLower(strings.TrimPrefix(file.Ext, ".")) {
	case "mp4", "m4v":
		return "video/mp4"
	case "webm":
		return "video/webm"
	case "mkv":
		return "video/x-matroska"
	case "mp3":
		return "audio/mpeg"
	case "m4a":
		return "audio/mp4"
	case "ogg", "opus":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
