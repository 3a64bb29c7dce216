// Package i18n holds the user-facing message catalog.
// Russian is the canonical table; English falls back to it per key.
package i18n

import (
	"strings"
	"sync"
)

// DefaultLang is used until a user picks a language in /settings
const DefaultLang = "ru"

var messages = map[string]map[string]string{
	"ru": {
		"start":               "<b>Привет!</b> Отправь ссылку на видео или аудио (YouTube, TikTok, Instagram и др.).\nЯ предложу варианты, а большие файлы загружу через userbot.",
		"help":                "<b>Как пользоваться</b>\n• Киньте ссылку — покажу варианты.\n• До ≈{limit} МБ отправлю сразу. Крупнее — через userbot или ссылкой.\n• Можно выбрать: <i>видео+аудио</i> / <i>только видео</i> / <i>только аудио</i>.",
		"menu_title":          "<b>Выберите качество</b>",
		"btn_more":            "🎛 Все форматы",
		"btn_back":            "↩️ Назад",
		"best_label":          "🎥 Лучшее",
		"video_audio":         "🎥 Видео+аудио {height}p",
		"video_only":          "🎬 Видео {height}p",
		"audio_only":          "🎵 Только аудио",
		"downloading":         "⏬ Скачивание {pct}%  {bar}",
		"download_finished":   "✅ Скачано. Обработка…",
		"uploading_userbot":   "⏫ Загрузка через userbot {pct}%  {bar}",
		"userbot_done":        "✅ Загрузка завершена через userbot. Пересылаю сюда…",
		"direct_link":         "Файл большой. Можно скачать по ссылке:",
		"link_button":         "⬇️ Скачать",
		"settings_title":      "Выберите язык интерфейса",
		"lang_ru":             "🇷🇺 Русский",
		"lang_en":             "🇬🇧 English",
		"settings_saved":      "✅ Язык сохранён: {lang}",
		"unsupported_url":     "Эта ссылка не поддерживается.",
		"private_unavailable": "Видео недоступно или скрыто настройками приватности.",
		"formats_unavailable": "Не удалось получить информацию о форматах. Проверьте ссылку.",
		"selection_expired":   "Меню устарело. Отправьте ссылку ещё раз.",
		"already_running":     "Этот файл уже скачивается, подождите.",
		"too_fast":            "Слишком часто. Подождите пару секунд и пришлите ссылку снова.",
		"error_download":      "Произошла ошибка при скачивании. Попробуйте другую ссылку.",
		"error_relay":         "Не удалось загрузить файл через userbot.",
		"error_too_large":     "Файл слишком большой, и нет способа его доставить.",
	},
	"en": {
		"start":               "<b>Hi!</b> Send a video or audio link (YouTube, TikTok, Instagram, etc.).\nI'll offer options and upload large files via userbot.",
		"help":                "<b>How to use</b>\n• Send a link — I'll show options.\n• Up to ≈{limit} MB I send directly. Larger — via userbot or a link.\n• Choose: <i>video+audio</i> / <i>video only</i> / <i>audio only</i>.",
		"menu_title":          "<b>Choose quality</b>",
		"btn_more":            "🎛 All formats",
		"btn_back":            "↩️ Back",
		"best_label":          "🎥 Best",
		"video_audio":         "🎥 Video+audio {height}p",
		"video_only":          "🎬 Video {height}p",
		"audio_only":          "🎵 Audio only",
		"downloading":         "⏬ Downloading {pct}%  {bar}",
		"download_finished":   "✅ Downloaded. Processing…",
		"uploading_userbot":   "⏫ Uploading via userbot {pct}%  {bar}",
		"userbot_done":        "✅ Uploaded via userbot. Forwarding…",
		"direct_link":         "File is large. Download via link:",
		"link_button":         "⬇️ Download",
		"settings_title":      "Choose interface language",
		"lang_ru":             "🇷🇺 Russian",
		"lang_en":             "🇬🇧 English",
		"settings_saved":      "✅ Language saved: {lang}",
		"unsupported_url":     "This link is not supported.",
		"private_unavailable": "The media is private or unavailable.",
		"formats_unavailable": "Failed to get formats. Check the link.",
		"selection_expired":   "The menu is stale. Send the link again.",
		"already_running":     "This file is already being fetched, hold on.",
		"too_fast":            "Too many requests. Wait a couple of seconds and send the link again.",
		"error_download":      "Error while downloading. Try another link.",
		"error_relay":         "Failed to upload the file via userbot.",
		"error_too_large":     "The file is too large and there is no way to deliver it.",
	},
}

// T renders the message for lang and key. kv holds placeholder name/value
// pairs substituted into {name} markers. Unknown languages and keys fall
// back to the canonical table, then to the key itself.
func T(lang, key string, kv ...string) string {
	table, ok := messages[lang]
	if !ok {
		table = messages[DefaultLang]
	}
	msg, ok := table[key]
	if !ok {
		msg, ok = messages[DefaultLang][key]
	}
	if !ok {
		return key
	}
	if len(kv) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Known reports whether lang has its own message table
func Known(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// Prefs stores per-user language choices in memory
type Prefs struct {
	mu    sync.RWMutex
	langs map[int64]string
}

// NewPrefs creates an empty preference store
func NewPrefs() *Prefs {
	return &Prefs{langs: make(map[int64]string)}
}

// Lang returns the user's chosen language or the default
func (p *Prefs) Lang(userID int64) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if lang, ok := p.langs[userID]; ok {
		return lang
	}
	return DefaultLang
}

// Set records the user's language choice; unknown languages are ignored
func (p *Prefs) Set(userID int64, lang string) {
	if !Known(lang) {
		return
	}
	p.mu.Lock()
	p.langs[userID] = lang
	p.mu.Unlock()
}
