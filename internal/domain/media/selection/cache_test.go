package selection

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
)

func TestDeliveryCache_RoundTripAndExpiry(t *testing.T) {
	c := NewDeliveryCache(20*time.Millisecond, zerolog.Nop())
	key := DeliveryKey{ChatID: 1, URL: "https://example.com/v", Kind: entities.KindVideoAudio, Class: entities.Class720}

	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache returned a hit")
	}

	c.PutFile(key, entities.TierInline, "video", "file-id-1", "caption")
	entry, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if entry.FileID != "file-id-1" || entry.Tier != entities.TierInline {
		t.Errorf("unexpected entry: %+v", entry)
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("stale entry returned after TTL")
	}
}

func TestDeliveryCache_LinkEntries(t *testing.T) {
	c := NewDeliveryCache(time.Minute, zerolog.Nop())
	key := DeliveryKey{ChatID: 2, URL: "https://example.com/v", Kind: entities.KindAudioOnly}

	c.PutLink(key, "https://cdn.example.com/a.m4a", "t")
	entry, ok := c.Get(key)
	if !ok || entry.Tier != entities.TierDirectLink || entry.DirectURL == "" {
		t.Errorf("unexpected link entry: %+v ok=%v", entry, ok)
	}
}

func TestDeliveryCache_BoundedCapacity(t *testing.T) {
	c := NewDeliveryCache(time.Hour, zerolog.Nop())

	for i := 0; i < deliveryCacheSize+100; i++ {
		key := DeliveryKey{ChatID: int64(i), URL: "https://example.com/v", Kind: entities.KindVideoAudio, Class: entities.Class720}
		c.PutFile(key, entities.TierInline, "video", "fid", "c")
	}

	if got := c.Len(); got > deliveryCacheSize {
		t.Errorf("cache grew past its bound: %d entries", got)
	}

	// Oldest entries are evicted, newest survive
	if _, ok := c.Get(DeliveryKey{ChatID: 0, URL: "https://example.com/v", Kind: entities.KindVideoAudio, Class: entities.Class720}); ok {
		t.Error("oldest entry survived past capacity")
	}
	if _, ok := c.Get(DeliveryKey{ChatID: deliveryCacheSize + 99, URL: "https://example.com/v", Kind: entities.KindVideoAudio, Class: entities.Class720}); !ok {
		t.Error("newest entry missing")
	}
}
