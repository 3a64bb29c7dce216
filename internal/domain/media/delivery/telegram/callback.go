package telegram

import (
	"strings"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	pkgerrors "github.com/yourusername/media-fetch-bot/pkg/errors"
)

// Callback data prefixes. Telegram caps callback data at 64 bytes, so the
// payload is a compact pipe-separated tuple.
const (
	prefixSelect = "fmt|"
	prefixMenu   = "menu|"
	prefixLang   = "lang|"
)

var errBadCallback = pkgerrors.NewValidationError("malformed callback data")

// selectData encodes a completed quality choice
func selectData(token string, kind entities.MediaKind, class entities.ResolutionClass) string {
	return prefixSelect + token + "|" + string(kind) + "|" + string(class)
}

// menuData encodes a menu page switch ("more" or "back")
func menuData(token, action string) string {
	return prefixMenu + token + "|" + action
}

// langData encodes a language choice
func langData(lang string) string {
	return prefixLang + lang
}

// parseSelect decodes selectData payloads
func parseSelect(data string) (token string, kind entities.MediaKind, class entities.ResolutionClass, err error) {
	parts := strings.Split(strings.TrimPrefix(data, prefixSelect), "|")
	if len(parts) != 3 || parts[0] == "" {
		return "", "", "", errBadCallback
	}
	kind = entities.MediaKind(parts[1])
	switch kind {
	case entities.KindVideoAudio, entities.KindVideoOnly, entities.KindAudioOnly:
	default:
		return "", "", "", errBadCallback
	}
	return parts[0], kind, entities.ResolutionClass(parts[2]), nil
}

// parseMenu decodes menuData payloads
func parseMenu(data string) (token, action string, err error) {
	parts := strings.Split(strings.TrimPrefix(data, prefixMenu), "|")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", errBadCallback
	}
	switch parts[1] {
	case "more", "back":
	default:
		return "", "", errBadCallback
	}
	return parts[0], parts[1], nil
}

// parseLang decodes langData payloads
func parseLang(data string) (string, error) {
	lang := strings.TrimPrefix(data, prefixLang)
	if lang == "" || strings.Contains(lang, "|") {
		return "", errBadCallback
	}
	return lang, nil
}
