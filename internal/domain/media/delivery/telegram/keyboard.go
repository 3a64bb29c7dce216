package telegram

import (
	"github.com/go-telegram/bot/models"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	"github.com/yourusername/media-fetch-bot/internal/i18n"
	"github.com/yourusername/media-fetch-bot/pkg/format"
)

// recommendedKeyboard renders the short menu: best quality, a compact
// rendition and audio-only, plus the switch to the full format list.
func recommendedKeyboard(lang, token string, cat *entities.Catalog) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	if best, ok := cat.Find(entities.KindVideoAudio, entities.ClassBest); ok {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         variantLabel(lang, best),
			CallbackData: selectData(token, best.Kind, best.Class),
		}})
	}
	if compact, ok := compactVariant(cat); ok {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         variantLabel(lang, compact),
			CallbackData: selectData(token, compact.Kind, compact.Class),
		}})
	}
	if audio, ok := cat.Find(entities.KindAudioOnly, entities.ClassNone); ok {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         variantLabel(lang, audio),
			CallbackData: selectData(token, audio.Kind, audio.Class),
		}})
	}

	rows = append(rows, []models.InlineKeyboardButton{{
		Text:         i18n.T(lang, "btn_more"),
		CallbackData: menuData(token, "more"),
	}})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// fullKeyboard renders every catalog bucket grouped by kind, one per row,
// in the catalog's descending-quality order
func fullKeyboard(lang, token string, cat *entities.Catalog) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	for _, kind := range []entities.MediaKind{entities.KindVideoAudio, entities.KindVideoOnly, entities.KindAudioOnly} {
		for _, v := range cat.ByKind(kind) {
			rows = append(rows, []models.InlineKeyboardButton{{
				Text:         variantLabel(lang, v),
				CallbackData: selectData(token, v.Kind, v.Class),
			}})
		}
	}

	rows = append(rows, []models.InlineKeyboardButton{{
		Text:         i18n.T(lang, "btn_back"),
		CallbackData: menuData(token, "back"),
	}})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// settingsKeyboard renders the language picker
func settingsKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{{
		{Text: i18n.T("ru", "lang_ru"), CallbackData: langData("ru")},
		{Text: i18n.T("en", "lang_en"), CallbackData: langData("en")},
	}}}
}

// compactVariant picks the highest combined bucket below best for the
// recommended menu
func compactVariant(cat *entities.Catalog) (entities.VariantDescriptor, bool) {
	for _, v := range cat.ByKind(entities.KindVideoAudio) {
		if v.Class != entities.ClassBest {
			return v, true
		}
	}
	return entities.VariantDescriptor{}, false
}

// variantLabel renders one button caption with a size hint when known
func variantLabel(lang string, v entities.VariantDescriptor) string {
	var label string
	switch {
	case v.Kind == entities.KindAudioOnly:
		label = i18n.T(lang, "audio_only")
	case v.Class == entities.ClassBest:
		label = i18n.T(lang, "best_label")
	case v.Kind == entities.KindVideoOnly:
		label = i18n.T(lang, "video_only", "height", string(v.Class))
	default:
		label = i18n.T(lang, "video_audio", "height", string(v.Class))
	}
	if v.EstSize > 0 {
		label += " · ~" + format.Size(v.EstSize)
	}
	return label
}
