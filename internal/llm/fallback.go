package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"calai/internal/port"
)

// cooldown holds a provider out of rotation until its rate-limit
// window passes.
type cooldown struct {
	mu    sync.RWMutex
	until time.Time // zero value = in rotation
}

func (c *cooldown) active(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.until, !c.until.IsZero() && now.Before(c.until)
}

func (c *cooldown) start(until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.until = until
}

// FallbackModel runs a completion against an ordered list of chat
// providers, moving down the list until one answers. A provider that
// reports a rate limit sits out until its window passes. Image-heavy
// analysis burns tokens quickly, so a busy stretch can leave the whole
// list cooling down at once; the caller then gets a RateLimitError
// naming the soonest moment a retry can work. Implements
// port.ChatModel.
type FallbackModel struct {
	models    []port.ChatModel
	cooldowns []*cooldown
	names     []string
}

// NewFallbackModel creates a FallbackModel over providers in
// preference order. Names are for logs, index-matched to models.
func NewFallbackModel(models []port.ChatModel, names []string) *FallbackModel {
	cooldowns := make([]*cooldown, len(models))
	for i := range cooldowns {
		cooldowns[i] = &cooldown{}
	}
	return &FallbackModel{
		models:    models,
		cooldowns: cooldowns,
		names:     names,
	}
}

func (f *FallbackModel) Complete(ctx context.Context, input port.ChatInput) (*port.ChatOutput, error) {
	now := time.Now()
	var lastErr error
	onlyRateLimits := true
	var soonestRetry time.Time

	for i, m := range f.models {
		if until, cooling := f.cooldowns[i].active(now); cooling {
			log.Printf("llm.FallbackModel: %s cooling down until %s, trying next provider", f.names[i], until.Format(time.RFC3339))
			if soonestRetry.IsZero() || until.Before(soonestRetry) {
				soonestRetry = until
			}
			continue
		}

		out, err := m.Complete(ctx, input)
		if err == nil {
			return out, nil
		}

		log.Printf("llm.FallbackModel: %s failed: %v", f.names[i], err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			until := now.Add(rlErr.RetryAfter)
			f.cooldowns[i].start(until)
			if soonestRetry.IsZero() || until.Before(soonestRetry) {
				soonestRetry = until
			}
		} else {
			onlyRateLimits = false
		}
	}

	// lastErr == nil means every provider was already cooling down.
	if lastErr == nil || onlyRateLimits {
		retryAfter := time.Until(soonestRetry)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all providers rate limited"), int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}
