package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 4 * time.Second

const slot = "current"

// Severity of a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notification is the single status message shown to the user.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Controller holds at most one notification. A new one replaces the old, and each
// expires after the TTL unless dismissed first.
type Controller struct {
	cache  *ttlcache.Cache[string, Notification]
	ttl    time.Duration
	logger *zap.Logger

	mu        sync.Mutex
	currentID string
	listeners []func(*Notification)
}

// New returns a controller whose notifications live for ttl.
func New(ttl time.Duration, logger *zap.Logger) *Controller {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		cache: ttlcache.New[string, Notification](
			ttlcache.WithTTL[string, Notification](ttl),
			ttlcache.WithDisableTouchOnHit[string, Notification](),
		),
		ttl:    ttl,
		logger: logger,
	}
	c.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, Notification]) {
		if reason != ttlcache.EvictionReasonExpired {
			return
		}
		// Eviction may run under the cache lock; clear from a separate goroutine.
		go c.expire(item.Value().ID)
	})
	return c
}

// Start runs the expiry loop until Stop.
func (c *Controller) Start() {
	c.cache.Start()
}

// Stop ends the expiry loop.
func (c *Controller) Stop() {
	c.cache.Stop()
}

// OnChange registers fn to receive every new notification, or nil when it is cleared.
func (c *Controller) OnChange(fn func(*Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Notify replaces the current notification.
func (c *Controller) Notify(message string, severity Severity) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		ExpiresAt: time.Now().Add(c.ttl),
	}

	c.mu.Lock()
	c.currentID = n.ID
	c.cache.Set(slot, n, c.ttl)
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	c.logger.Debug("notification shown", zap.String("severity", string(severity)), zap.String("message", message))
	for _, fn := range listeners {
		fn(&n)
	}
	return n
}

// Dismiss clears the current notification and cancels its pending expiry.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	if c.currentID == "" {
		c.mu.Unlock()
		return
	}
	c.currentID = ""
	c.cache.Delete(slot)
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
}

// Current returns the visible notification, if any.
func (c *Controller) Current() (Notification, bool) {
	item := c.cache.Get(slot)
	if item == nil || item.IsExpired() {
		return Notification{}, false
	}
	return item.Value(), true
}

func (c *Controller) expire(id string) {
	c.mu.Lock()
	if c.currentID != id {
		c.mu.Unlock()
		return
	}
	c.currentID = ""
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
}

func (c *Controller) snapshotListeners() []func(*Notification) {
	return append([]func(*Notification){}, c.listeners...)
}
