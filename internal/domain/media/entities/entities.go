// Package entities contains domain entities
package entities

import (
	"os"
	"strconv"
	"time"
)

// MediaKind classifies a variant by which tracks it carries
type MediaKind string

const (
	KindVideoAudio MediaKind = "va"
	KindVideoOnly  MediaKind = "v"
	KindAudioOnly  MediaKind = "a"
)

// ResolutionClass is a user-facing quality bucket
type ResolutionClass string

const (
	ClassBest ResolutionClass = "best"
	Class1080 ResolutionClass = "1080"
	Class720  ResolutionClass = "720"
	Class480  ResolutionClass = "480"
	Class360  ResolutionClass = "360"
	ClassNone ResolutionClass = "" // audio-only variants carry no resolution
)

// VideoClasses lists the offered resolution buckets in descending order.
// Button layout and catalog ordering both follow this order.
var VideoClasses = []ResolutionClass{ClassBest, Class1080, Class720, Class480, Class360}

// Rank returns a comparable weight for descending quality ordering.
func (c ResolutionClass) Rank() int {
	if c == ClassBest {
		return 1 << 20
	}
	if n, err := strconv.Atoi(string(c)); err == nil {
		return n
	}
	return 0
}

// VariantDescriptor identifies one downloadable rendition of a source item.
// Immutable once the catalog is built.
type VariantDescriptor struct {
	// FormatID is the extractor's identifier for the variant, opaque to the engine
	FormatID string
	// AudioFormatID is set when delivering this variant requires muxing a
	// separately-tracked audio rendition into the container
	AudioFormatID string
	Kind          MediaKind
	Class         ResolutionClass
	// EstSize is the estimated size in bytes; 0 means unknown
	EstSize int64
	// BitrateKbps is the declared average bitrate, used as a size fallback
	BitrateKbps float64
	// Ext is the container/codec hint (mp4, webm, m4a, ...)
	Ext    string
	Height int
}

// SizeKnown reports whether the variant carries a usable size estimate.
func (v VariantDescriptor) SizeKnown() bool {
	return v.EstSize > 0
}

// Catalog is the ordered variant set for one resolved URL.
// Owned by the selection entry that created it, never shared across interactions.
type Catalog struct {
	URL        string
	Title      string
	Duration   float64
	Thumbnail  string
	Variants   []VariantDescriptor
	ResolvedAt time.Time
}

// Find returns the canonical variant for a (kind, class) bucket.
func (c *Catalog) Find(kind MediaKind, class ResolutionClass) (VariantDescriptor, bool) {
	for _, v := range c.Variants {
		if v.Kind == kind && v.Class == class {
			return v, true
		}
	}
	return VariantDescriptor{}, false
}

// ByKind returns the catalog variants of one kind, preserving catalog order.
func (c *Catalog) ByKind(kind MediaKind) []VariantDescriptor {
	var out []VariantDescriptor
	for _, v := range c.Variants {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

// PartialChoice is the user's in-progress narrowing of kind and quality
type PartialChoice struct {
	Kind  MediaKind
	Class ResolutionClass
}

// Chosen reports whether the choice is complete enough to deliver.
func (p PartialChoice) Chosen() bool {
	return p.Kind != "" && (p.Kind == KindAudioOnly || p.Class != "")
}

// SelectionContext identifies the conversation slot a selection belongs to.
// At most one live selection entry exists per context at a time.
type SelectionContext struct {
	ChatID    int64
	UserID    int64
	MessageID int
}

// SelectionEntry is the ephemeral record of one in-progress quality choice
type SelectionEntry struct {
	Token       string
	Context     SelectionContext
	Lang        string
	Catalog     *Catalog
	Choice      PartialChoice
	CreatedAt   time.Time
	LastTouched time.Time
	// Delivering is set once a delivery attempt starts; further attempts
	// on the same token are rejected
	Delivering bool
}

// Tier is one of the three delivery strategies
type Tier string

const (
	TierInline     Tier = "inline"
	TierRelay      Tier = "relay"
	TierDirectLink Tier = "direct_link"
)

// DeliveryOutcome is the terminal result of routing one delivery attempt
type DeliveryOutcome struct {
	Tier      Tier
	Size      int64
	DirectURL string
	// FileID is the transport id of the inline-uploaded media, when any
	FileID    string
	Delivered bool
	Reason    error
}

// LocalFile is a materialized variant on local disk. The temp directory it
// lives in is owned by the materializing call and removed via Cleanup.
type LocalFile struct {
	Path  string
	Size  int64
	Title string
	Ext   string
	// MediaClass is the transport hint: video, audio, image or document
	MediaClass string
	TempDir    string
}

// Cleanup removes the file's temp directory. Safe to call more than once.
func (f *LocalFile) Cleanup() {
	if f == nil || f.TempDir == "" {
		return
	}
	_ = os.RemoveAll(f.TempDir)
}

// ProbeResult is the raw extractor answer for one URL, before normalization
type ProbeResult struct {
	Title     string
	Duration  float64
	Thumbnail string
	URL       string
	Variants  []VariantDescriptor
}
