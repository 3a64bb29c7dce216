// Package telegram contains the Telegram delivery layer
package telegram

import (
	"context"
	"errors"
	"html"
	"os"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/dto"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	mediaerrors "github.com/yourusername/media-fetch-bot/internal/domain/media/errors"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/usecase/business"
	"github.com/yourusername/media-fetch-bot/internal/i18n"
	infratelegram "github.com/yourusername/media-fetch-bot/internal/infrastructure/telegram"
	"github.com/yourusername/media-fetch-bot/pkg/format"
)

// Handlers contains Telegram update handlers.
// Implements deps.MessengerSender.
type Handlers struct {
	uc      *business.UseCase
	bot     *tgbot.Bot
	wrapper *infratelegram.Bot
	logger  zerolog.Logger
}

// NewHandlers creates new Telegram handlers
func NewHandlers(uc *business.UseCase, wrapper *infratelegram.Bot, logger zerolog.Logger) *Handlers {
	return &Handlers{
		uc:      uc,
		bot:     wrapper.Raw(),
		wrapper: wrapper,
		logger:  logger.With().Str("component", "telegram_handlers").Logger(),
	}
}

var _ deps.MessengerSender = (*Handlers)(nil)

// --- deps.MessengerSender ---

// SendText sends a plain text message
func (h *Handlers) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := h.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	return err
}

// SendTextAndGetID sends a text message and returns its message ID
func (h *Handlers) SendTextAndGetID(ctx context.Context, chatID int64, text string) (int, error) {
	msg, err := h.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// EditText edits a previously sent message
func (h *Handlers) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	_, err := h.bot.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	return err
}

// SendLink sends a direct-link result with an inline URL button
func (h *Handlers) SendLink(ctx context.Context, chatID int64, text, label, url string) error {
	_, err := h.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: label, URL: url},
		}}},
	})
	return err
}

// SendFile uploads a local file inline and returns the transport file id
func (h *Handlers) SendFile(ctx context.Context, chatID int64, file *entities.LocalFile, caption string) (string, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", file.Path).Msg("cannot open file for upload")
		return "", mediaerrors.ErrTransport
	}
	defer f.Close()

	upload := &models.InputFileUpload{Filename: uploadName(file), Data: f}

	var msg *models.Message
	switch file.MediaClass {
	case "video":
		msg, err = h.bot.SendVideo(ctx, &tgbot.SendVideoParams{
			ChatID:            chatID,
			Video:             upload,
			Caption:           caption,
			SupportsStreaming: true,
		})
	case "audio":
		msg, err = h.bot.SendAudio(ctx, &tgbot.SendAudioParams{
			ChatID:  chatID,
			Audio:   upload,
			Caption: caption,
			Title:   file.Title,
		})
	case "image":
		msg, err = h.bot.SendPhoto(ctx, &tgbot.SendPhotoParams{
			ChatID:  chatID,
			Photo:   upload,
			Caption: caption,
		})
	default:
		msg, err = h.bot.SendDocument(ctx, &tgbot.SendDocumentParams{
			ChatID:   chatID,
			Document: upload,
			Caption:  caption,
		})
	}
	if err != nil {
		if isTooLargeError(err) {
			return "", mediaerrors.ErrTooLarge
		}
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("inline upload failed")
		return "", mediaerrors.ErrTransport
	}

	return fileIDOf(msg), nil
}

// ResendFile re-sends an already uploaded file by transport file id
func (h *Handlers) ResendFile(ctx context.Context, chatID int64, mediaClass, fileID, caption string) error {
	ref := &models.InputFileString{Data: fileID}

	var err error
	switch mediaClass {
	case "video":
		_, err = h.bot.SendVideo(ctx, &tgbot.SendVideoParams{ChatID: chatID, Video: ref, Caption: caption})
	case "audio":
		_, err = h.bot.SendAudio(ctx, &tgbot.SendAudioParams{ChatID: chatID, Audio: ref, Caption: caption})
	case "image":
		_, err = h.bot.SendPhoto(ctx, &tgbot.SendPhotoParams{ChatID: chatID, Photo: ref, Caption: caption})
	default:
		_, err = h.bot.SendDocument(ctx, &tgbot.SendDocumentParams{ChatID: chatID, Document: ref, Caption: caption})
	}
	return err
}

// CopyMessage copies a message between chats
func (h *Handlers) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int, caption string) error {
	_, err := h.bot.CopyMessage(ctx, copyParams(toChatID, fromChatID, messageID, caption))
	return err
}

// copyParams builds the copy request. The source chat id is a string in the
// transport API, numeric ids included.
func copyParams(toChatID, fromChatID int64, messageID int, caption string) *tgbot.CopyMessageParams {
	return &tgbot.CopyMessageParams{
		ChatID:     toChatID,
		FromChatID: strconv.FormatInt(fromChatID, 10),
		MessageID:  messageID,
		Caption:    caption,
	}
}

// BotUsername returns the bot's own username, the relay upload target
func (h *Handlers) BotUsername() string {
	name, err := h.wrapper.Username(context.Background())
	if err != nil {
		h.logger.Error().Err(err).Msg("cannot resolve own username")
		return ""
	}
	return name
}

// --- update handlers ---

// HandleStart handles /start
func (h *Handlers) HandleStart(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	_ = h.SendText(ctx, update.Message.Chat.ID, h.uc.StartText(update.Message.From.ID))
}

// HandleHelp handles /help
func (h *Handlers) HandleHelp(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	_ = h.SendText(ctx, update.Message.Chat.ID, h.uc.HelpText(update.Message.From.ID))
}

// HandleSettings handles /settings with the language picker
func (h *Handlers) HandleSettings(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	lang := h.uc.Lang(update.Message.From.ID)
	_, err := h.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        i18n.T(lang, "settings_title"),
		ReplyMarkup: settingsKeyboard(),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to send settings menu")
	}
}

// HandleMessage handles plain messages: relay-marked files arriving in the
// bot's private chat, and user messages carrying media URLs.
func (h *Handlers) HandleMessage(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	if strings.HasPrefix(msg.Caption, business.RelayMarker) {
		h.handleRelayArrival(ctx, msg)
		return
	}

	if msg.Text == "" || msg.From == nil {
		return
	}

	req := &dto.InboundURLRequest{
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		MessageID: msg.ID,
		Text:      msg.Text,
	}

	resp, err := h.uc.HandleURL(ctx, req)
	if err != nil {
		lang := h.uc.Lang(msg.From.ID)
		_ = h.SendText(ctx, msg.Chat.ID, i18n.T(lang, resolveErrorKey(err)))
		return
	}

	_, err = h.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        menuText(resp),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: recommendedKeyboard(resp.Lang, resp.Token, catalogOf(resp)),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to send selection menu")
	}
}

// handleRelayArrival forwards a relay-uploaded file to its target chat
func (h *Handlers) handleRelayArrival(ctx context.Context, msg *models.Message) {
	token := strings.TrimPrefix(msg.Caption, business.RelayMarker)
	if err := h.uc.HandleRelayForward(ctx, token, msg.Chat.ID, msg.ID, fileIDOf(msg)); err != nil {
		h.logger.Warn().Err(err).Msg("unmatched relay upload")
	}
}

// HandleSelectCallback handles quality-choice button presses
func (h *Handlers) HandleSelectCallback(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	h.answerCallback(ctx, cb.ID)

	msg := cb.Message.Message
	if msg == nil {
		return
	}

	token, kind, class, err := parseSelect(cb.Data)
	if err != nil {
		h.logger.Warn().Str("data", cb.Data).Msg("malformed select callback")
		return
	}

	_ = h.uc.Select(ctx, &dto.SelectRequest{
		Token:           token,
		UserID:          cb.From.ID,
		ChatID:          msg.Chat.ID,
		Kind:            kind,
		Class:           class,
		StatusMessageID: msg.ID,
	})
}

// HandleMenuCallback switches between the recommended and full menus
func (h *Handlers) HandleMenuCallback(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	h.answerCallback(ctx, cb.ID)

	msg := cb.Message.Message
	if msg == nil {
		return
	}

	token, action, err := parseMenu(cb.Data)
	if err != nil {
		h.logger.Warn().Str("data", cb.Data).Msg("malformed menu callback")
		return
	}

	entry, err := h.uc.MenuNavigate(ctx, &dto.MenuNavigateRequest{Token: token, UserID: cb.From.ID, Action: action})
	if err != nil {
		lang := h.uc.Lang(cb.From.ID)
		_ = h.EditText(ctx, msg.Chat.ID, msg.ID, i18n.T(lang, "selection_expired"))
		return
	}

	keyboard := recommendedKeyboard(entry.Lang, token, entry.Catalog)
	if action == "more" {
		keyboard = fullKeyboard(entry.Lang, token, entry.Catalog)
	}

	_, err = h.bot.EditMessageReplyMarkup(ctx, &tgbot.EditMessageReplyMarkupParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to switch menu page")
	}
}

// HandleLangCallback applies a language choice from /settings
func (h *Handlers) HandleLangCallback(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	h.answerCallback(ctx, cb.ID)

	msg := cb.Message.Message
	if msg == nil {
		return
	}

	lang, err := parseLang(cb.Data)
	if err != nil {
		return
	}

	saved := h.uc.SetLang(cb.From.ID, lang)
	_ = h.EditText(ctx, msg.Chat.ID, msg.ID, saved)
}

func (h *Handlers) answerCallback(ctx context.Context, id string) {
	_, err := h.bot.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{CallbackQueryID: id})
	if err != nil {
		h.logger.Debug().Err(err).Msg("failed to answer callback query")
	}
}

// --- helpers ---

// menuText renders the selection menu header
func menuText(resp *dto.MenuResponse) string {
	var b strings.Builder
	if resp.Title != "" {
		b.WriteString("<b>")
		b.WriteString(html.EscapeString(resp.Title))
		b.WriteString("</b>\n")
	}
	if resp.Duration > 0 {
		b.WriteString("⏱ ")
		b.WriteString(format.Duration(resp.Duration))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(i18n.T(resp.Lang, "menu_title"))
	return b.String()
}

// catalogOf rebuilds a minimal catalog view for keyboard rendering
func catalogOf(resp *dto.MenuResponse) *entities.Catalog {
	return &entities.Catalog{
		URL:      resp.URL,
		Title:    resp.Title,
		Duration: resp.Duration,
		Variants: resp.Options,
	}
}

// fileIDOf extracts the transport file id from a media message
func fileIDOf(msg *models.Message) string {
	switch {
	case msg.Video != nil:
		return msg.Video.FileID
	case msg.Audio != nil:
		return msg.Audio.FileID
	case msg.Document != nil:
		return msg.Document.FileID
	case len(msg.Photo) > 0:
		return msg.Photo[len(msg.Photo)-1].FileID
	}
	return ""
}

// resolveErrorKey maps catalog resolution errors to message keys
func resolveErrorKey(err error) string {
	switch {
	case errors.Is(err, mediaerrors.ErrUnsupportedSource):
		return "unsupported_url"
	case errors.Is(err, mediaerrors.ErrPrivateOrUnavailable):
		return "private_unavailable"
	case errors.Is(err, mediaerrors.ErrTooFrequent):
		return "too_fast"
	default:
		return "formats_unavailable"
	}
}

// isTooLargeError detects the transport's size rejection
func isTooLargeError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "too large") || strings.Contains(s, "too big")
}

func uploadName(file *entities.LocalFile) string {
	name := strings.TrimSpace(file.Title)
	if name == "" {
		name = "media"
	}
	ext := strings.TrimPrefix(file.Ext, ".")
	if ext == "" {
		return name
	}
	return name + "." + ext
}
