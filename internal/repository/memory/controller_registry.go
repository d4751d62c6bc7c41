package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"watchfolio-be/pkg/assistant"
)

// ControllerRegistry keeps one live assistant controller per user. Idle
// controllers are evicted after an hour of inactivity; eviction closes the
// controller so any pending debounced save is flushed out.
type ControllerRegistry struct {
	cache *cache.Cache
}

func NewControllerRegistry() *ControllerRegistry {
	// Create a cache with a default expiration time of 1 hour, and which
	// purges expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	c.OnEvicted(func(key string, value interface{}) {
		if ctrl, ok := value.(*assistant.Controller); ok {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			ctrl.Close(ctx)
		}
	})
	return &ControllerRegistry{
		cache: c,
	}
}

func (r *ControllerRegistry) Save(userId string, ctrl *assistant.Controller) {
	r.cache.Set(userId, ctrl, cache.DefaultExpiration)
}

func (r *ControllerRegistry) Get(userId string) (*assistant.Controller, bool) {
	if x, found := r.cache.Get(userId); found {
		// Touch the entry so active users are not evicted mid-conversation.
		r.cache.Set(userId, x, cache.DefaultExpiration)
		return x.(*assistant.Controller), true
	}
	return nil, false
}

func (r *ControllerRegistry) Delete(userId string) {
	r.cache.Delete(userId)
}
