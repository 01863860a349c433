package application

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const adminConfigKey = "admin-config"

// adminConfigCache holds the admin-config document in memory for a bounded
// time. It is owned by one AdminService and never written to disk.
type adminConfigCache struct {
	cache *ttlcache.Cache[string, AdminConfig]
}

func newAdminConfigCache(ttl time.Duration) *adminConfigCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &adminConfigCache{
		cache: ttlcache.New[string, AdminConfig](
			ttlcache.WithTTL[string, AdminConfig](ttl),
			ttlcache.WithDisableTouchOnHit[string, AdminConfig](),
		),
	}
}

func (c *adminConfigCache) Get() (AdminConfig, bool) {
	if c == nil {
		return AdminConfig{}, false
	}
	item := c.cache.Get(adminConfigKey)
	if item == nil {
		return AdminConfig{}, false
	}
	return item.Value(), true
}

func (c *adminConfigCache) Store(cfg AdminConfig) {
	if c == nil {
		return
	}
	c.cache.Set(adminConfigKey, cfg, ttlcache.DefaultTTL)
}

func (c *adminConfigCache) Invalidate() {
	if c == nil {
		return
	}
	c.cache.Delete(adminConfigKey)
}
