// Package catalog normalizes extractor output into a user-facing variant catalog
package catalog

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
)

// Resolver builds variant catalogs by querying the extractor
type Resolver struct {
	extractor deps.Extractor
	logger    zerolog.Logger
}

// NewResolver creates a new catalog resolver
func NewResolver(extractor deps.Extractor, logger zerolog.Logger) *Resolver {
	return &Resolver{
		extractor: extractor,
		logger:    logger.With().Str("component", "catalog").Logger(),
	}
}

// Resolve queries the extractor exactly once for a URL and returns the
// normalized catalog. Extractor results are not cached across interactions:
// direct URLs are short-lived, so freshness wins over efficiency.
func (r *Resolver) Resolve(ctx context.Context, url string) (*entities.Catalog, error) {
	probe, err := r.extractor.Probe(ctx, url)
	if err != nil {
		r.logger.Warn().Err(err).Str("url", url).Msg("extractor probe failed")
		return nil, err
	}

	cat := &entities.Catalog{
		URL:        url,
		Title:      probe.Title,
		Duration:   probe.Duration,
		Thumbnail:  probe.Thumbnail,
		Variants:   Normalize(probe.Variants),
		ResolvedAt: time.Now(),
	}

	r.logger.Debug().
		Str("url", url).
		Int("raw_variants", len(probe.Variants)).
		Int("catalog_variants", len(cat.Variants)).
		Msg("catalog resolved")

	return cat, nil
}

// Normalize deduplicates variants by (kind, resolution class) and orders them
// for deterministic button layout: combined video+audio first, then video-only,
// then audio-only, resolution classes descending within each kind.
//
// Per bucket the smallest known-size variant is canonical; a variant with a
// known size beats one without, and the extractor's declared order (slice
// order, first wins) breaks ties. Buckets the source does not offer are
// dropped rather than synthesized.
func Normalize(raw []entities.VariantDescriptor) []entities.VariantDescriptor {
	type bucket struct {
		kind  entities.MediaKind
		class entities.ResolutionClass
	}

	canonical := make(map[bucket]entities.VariantDescriptor)
	for _, v := range raw {
		if v.FormatID == "" {
			continue
		}
		key := bucket{kind: v.Kind, class: v.Class}
		best, ok := canonical[key]
		if !ok {
			canonical[key] = v
			continue
		}
		if betterCanonical(v, best) {
			canonical[key] = v
		}
	}

	out := make([]entities.VariantDescriptor, 0, len(canonical))
	for _, v := range canonical {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return kindOrder(out[i].Kind) < kindOrder(out[j].Kind)
		}
		return out[i].Class.Rank() > out[j].Class.Rank()
	})
	return out
}

// betterCanonical reports whether candidate should replace current in a bucket.
func betterCanonical(candidate, current entities.VariantDescriptor) bool {
	switch {
	case !current.SizeKnown() && candidate.SizeKnown():
		return true
	case current.SizeKnown() && !candidate.SizeKnown():
		return false
	case candidate.SizeKnown() && candidate.EstSize < current.EstSize:
		return true
	default:
		// equal or larger size: first wins
		return false
	}
}

func kindOrder(k entities.MediaKind) int {
	switch k {
	case entities.KindVideoAudio:
		return 0
	case entities.KindVideoOnly:
		return 1
	case entities.KindAudioOnly:
		return 2
	default:
		return 3
	}
}
