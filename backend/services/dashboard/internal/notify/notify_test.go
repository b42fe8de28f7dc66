package notify_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"equipviz/backend/services/dashboard/internal/notify"
)

type changes struct {
	mu   sync.Mutex
	seen []*notify.Notification
}

func (c *changes) record(n *notify.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, n)
}

func (c *changes) last() (*notify.Notification, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.seen) == 0 {
		return nil, 0
	}
	return c.seen[len(c.seen)-1], len(c.seen)
}

func newController(t *testing.T, ttl time.Duration) (*notify.Controller, *changes) {
	t.Helper()
	c := notify.New(ttl, nil)
	go c.Start()
	t.Cleanup(c.Stop)
	ch := &changes{}
	c.OnChange(ch.record)
	return c, ch
}

func TestNotifyReplacesCurrent(t *testing.T) {
	c, ch := newController(t, time.Minute)

	c.Notify("first", notify.SeverityInfo)
	second := c.Notify("second", notify.SeverityError)

	cur, ok := c.Current()
	require.True(t, ok)
	require.Equal(t, second.ID, cur.ID)
	require.Equal(t, "second", cur.Message)
	require.Equal(t, notify.SeverityError, cur.Severity)

	last, count := ch.last()
	require.Equal(t, 2, count)
	require.Equal(t, "second", last.Message)
}

func TestNotifyExpires(t *testing.T) {
	c, ch := newController(t, 50*time.Millisecond)

	c.Notify("Generating PDF report...", notify.SeverityInfo)

	require.Eventually(t, func() bool {
		_, ok := c.Current()
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		last, count := ch.last()
		return count == 2 && last == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewerNotificationGovernsExpiry(t *testing.T) {
	c, _ := newController(t, 300*time.Millisecond)

	c.Notify("older", notify.SeveritySuccess)
	time.Sleep(200 * time.Millisecond)
	newer := c.Notify("newer", notify.SeveritySuccess)
	time.Sleep(150 * time.Millisecond)

	cur, ok := c.Current()
	require.True(t, ok, "newer notification must outlive the older timeout")
	require.Equal(t, newer.ID, cur.ID)
}

func TestDismissCancelsPendingExpiry(t *testing.T) {
	c, ch := newController(t, 100*time.Millisecond)

	c.Notify("uploaded", notify.SeveritySuccess)
	c.Dismiss()

	_, ok := c.Current()
	require.False(t, ok)
	last, count := ch.last()
	require.Nil(t, last)
	require.Equal(t, 2, count)

	time.Sleep(250 * time.Millisecond)
	_, count = ch.last()
	require.Equal(t, 2, count, "expiry must not fire after dismiss")

	c.Dismiss()
	_, count = ch.last()
	require.Equal(t, 2, count, "dismiss without a notification is a no-op")
}
