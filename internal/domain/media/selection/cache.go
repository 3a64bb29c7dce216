package selection

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
)

// deliveryCacheSize bounds the cache regardless of TTL, so a burst of
// distinct downloads cannot grow it without limit.
const deliveryCacheSize = 2048

// DeliveryKey identifies one delivered artifact: a chat asking for one
// (url, kind, class) combination.
type DeliveryKey struct {
	ChatID int64
	URL    string
	Kind   entities.MediaKind
	Class  entities.ResolutionClass
}

// CachedDelivery is a short-lived record of a completed delivery, so a
// repeated identical choice re-sends the uploaded file or link without
// another download.
type CachedDelivery struct {
	Tier       entities.Tier
	MediaClass string
	FileID     string
	DirectURL  string
	Caption    string
}

// DeliveryCache caches completed deliveries by key. Entries expire after
// the configured TTL and the least recently used entry is evicted at
// capacity.
type DeliveryCache struct {
	cache  *expirable.LRU[DeliveryKey, CachedDelivery]
	logger zerolog.Logger
}

// NewDeliveryCache creates a delivery cache with the given entry TTL.
func NewDeliveryCache(ttl time.Duration, logger zerolog.Logger) *DeliveryCache {
	return &DeliveryCache{
		cache:  expirable.NewLRU[DeliveryKey, CachedDelivery](deliveryCacheSize, nil, ttl),
		logger: logger.With().Str("component", "delivery_cache").Logger(),
	}
}

// Get returns the cached delivery for a key.
func (c *DeliveryCache) Get(key DeliveryKey) (CachedDelivery, bool) {
	return c.cache.Get(key)
}

// PutFile caches an inline- or relay-delivered transport file id.
func (c *DeliveryCache) PutFile(key DeliveryKey, tier entities.Tier, mediaClass, fileID, caption string) {
	c.put(key, CachedDelivery{Tier: tier, MediaClass: mediaClass, FileID: fileID, Caption: caption})
}

// PutLink caches a direct-link delivery.
func (c *DeliveryCache) PutLink(key DeliveryKey, directURL, caption string) {
	c.put(key, CachedDelivery{Tier: entities.TierDirectLink, DirectURL: directURL, Caption: caption})
}

// Len returns the number of live entries.
func (c *DeliveryCache) Len() int {
	return c.cache.Len()
}

func (c *DeliveryCache) put(key DeliveryKey, entry CachedDelivery) {
	c.cache.Add(key, entry)
	c.logger.Debug().Str("url", key.URL).Str("tier", string(entry.Tier)).Msg("cached delivery")
}
