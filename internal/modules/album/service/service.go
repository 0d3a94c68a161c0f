package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	albumDomain "github.com/reshetovitsme/email-telegram-relay/internal/modules/album/domain"
	postDomain "github.com/reshetovitsme/email-telegram-relay/internal/modules/post/domain"
)

// Sink receives a completed album merged into a single post.
type Sink func(post *postDomain.Post)

// Collector buffers the parts of a media group until the group has been
// quiet for the configured window, then hands the merged post to the sink.
//
// Telegram sends no end-of-album marker and does not announce the group
// size, so arrival silence is the only completion signal available.
type Collector struct {
	quiet time.Duration
	sink  Sink

	mu      sync.Mutex
	pending map[albumDomain.Key]*group
	stopped bool
	wg      sync.WaitGroup
}

type group struct {
	parts []*postDomain.Post
	timer *time.Timer
}

// New creates a collector that flushes a group after quiet time without
// new parts.
func New(quiet time.Duration, sink Sink) *Collector {
	return &Collector{
		quiet:   quiet,
		sink:    sink,
		pending: make(map[albumDomain.Key]*group),
	}
}

// Add buffers one album part and restarts the group's quiet window. Parts
// arriving after Stop are dropped.
func (c *Collector) Add(part *postDomain.Post) {
	key := albumDomain.Key{ChatID: part.ChatID, GroupID: part.AlbumID}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		slog.Warn("Album part dropped, collector is stopped", "chat_id", key.ChatID, "group_id", key.GroupID)
		return
	}

	g, ok := c.pending[key]
	if !ok {
		g = &group{}
		g.timer = time.AfterFunc(c.quiet, func() {
			c.flush(key)
		})
		c.pending[key] = g
		c.wg.Add(1)
	} else {
		g.timer.Reset(c.quiet)
	}
	g.parts = append(g.parts, part)
	c.mu.Unlock()
}

// Pending returns the number of albums still waiting for their quiet
// window to elapse.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Stop flushes every buffered album immediately and waits until all
// deliveries, including ones already in flight, have finished.
func (c *Collector) Stop() {
	c.mu.Lock()
	c.stopped = true
	remaining := make([]*group, 0, len(c.pending))
	for key, g := range c.pending {
		g.timer.Stop()
		remaining = append(remaining, g)
		delete(c.pending, key)
	}
	c.mu.Unlock()

	for _, g := range remaining {
		c.sink(merge(g.parts))
		c.wg.Done()
	}
	c.wg.Wait()
}

// flush pops the group and delivers it. The group is removed from the map
// before the sink runs, so a part arriving mid-flush starts a fresh group
// instead of being lost, and a group is never delivered twice.
func (c *Collector) flush(key albumDomain.Key) {
	c.mu.Lock()
	g, ok := c.pending[key]
	if !ok {
		// Already taken by Stop or an earlier fire.
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	c.mu.Unlock()

	defer c.wg.Done()

	slog.Info("Album complete", "chat_id", key.ChatID, "group_id", key.GroupID, "parts", len(g.parts))
	c.sink(merge(g.parts))
}

// merge combines album parts into one post, ordered the way the album was
// composed. Message IDs are monotonic within a chat, so they restore the
// original order regardless of update arrival.
func merge(parts []*postDomain.Post) *postDomain.Post {
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].MessageID < parts[j].MessageID
	})

	merged := &postDomain.Post{
		ChatID:    parts[0].ChatID,
		MessageID: parts[0].MessageID,
		Date:      parts[0].Date,
		AlbumID:   parts[0].AlbumID,
	}
	for _, p := range parts {
		merged.HTMLParts = append(merged.HTMLParts, p.HTMLParts...)
		merged.Attachments = append(merged.Attachments, p.Attachments...)
	}
	return merged
}
