// Package estimate refines variant size estimates before any bytes are fetched
package estimate

import (
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
)

// Variant returns the best available size estimate in bytes for one
// descriptor, or 0 when no estimate can be derived.
//
// The extractor-supplied size is used verbatim when present; otherwise the
// declared average bitrate times the catalog duration is used. No network
// calls happen here, only already-fetched metadata.
func Variant(desc entities.VariantDescriptor, cat *entities.Catalog) int64 {
	if desc.EstSize > 0 {
		return desc.EstSize
	}
	if desc.BitrateKbps > 0 && cat != nil && cat.Duration > 0 {
		return int64(desc.BitrateKbps * 1000 / 8 * cat.Duration)
	}
	return 0
}

// Choice estimates the final artifact size for a completed user choice.
// When the chosen variant muxes a separately-tracked audio rendition, the
// two descriptors' sizes are summed.
func Choice(cat *entities.Catalog, choice entities.PartialChoice) int64 {
	desc, ok := cat.Find(choice.Kind, choice.Class)
	if !ok {
		return 0
	}
	size := Variant(desc, cat)
	if size == 0 {
		return 0
	}
	if desc.AudioFormatID != "" && desc.Kind == entities.KindVideoAudio {
		// EstSize of a muxed pair already carries the summed value when the
		// extractor knew both sizes; add the audio track only when the
		// estimate was derived from the video bitrate alone.
		if desc.EstSize == 0 {
			if audio, ok := audioTrack(cat); ok {
				if audioSize := Variant(audio, cat); audioSize > 0 {
					size += audioSize
				}
			}
		}
	}
	return size
}

// Annotate fills in missing variant size estimates across the catalog.
// Variants with no derivable estimate stay at 0; the router treats those as
// provisionally over the inline ceiling until the realized size is known.
func Annotate(cat *entities.Catalog) {
	for i := range cat.Variants {
		cat.Variants[i].EstSize = Variant(cat.Variants[i], cat)
	}
}

func audioTrack(cat *entities.Catalog) (entities.VariantDescriptor, bool) {
	for _, v := range cat.Variants {
		if v.Kind == entities.KindAudioOnly {
			return v, true
		}
	}
	return entities.VariantDescriptor{}, false
}
