// Package ingest turns external feeds into social events. RSS/Atom items
// become rss-platform SocialEvents handed to the decision engine.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/pkg/logger"
)

const fetchTimeout = 30 * time.Second

// EventSink receives ingested events, typically the decision engine.
type EventSink interface {
	Ingest(ctx context.Context, event *domain.SocialEvent, brandID string) error
}

// FeedParser parses a feed URL. *gofeed.Parser satisfies this.
type FeedParser interface {
	ParseURLWithContext(url string, ctx context.Context) (*gofeed.Feed, error)
}

// RSSPoller polls configured feeds and emits one SocialEvent per new item.
// Items already seen (by GUID, falling back to link) are skipped.
type RSSPoller struct {
	cfg    config.IngestConfig
	parser FeedParser
	sink   EventSink
	clock  clock.Clock

	seenMu sync.Mutex
	seen   map[string]bool

	totalPolls  int64
	totalItems  int64
	totalEvents int64
	totalErrors int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewRSSPoller(cfg config.IngestConfig, sink EventSink, clk clock.Clock) *RSSPoller {
	return &RSSPoller{
		cfg:    cfg,
		parser: gofeed.NewParser(),
		sink:   sink,
		clock:  clk,
		seen:   map[string]bool{},
	}
}

// SetParser swaps the feed parser, for tests.
func (p *RSSPoller) SetParser(parser FeedParser) { p.parser = parser }

// Start begins the polling loop.
func (p *RSSPoller) Start() {
	p.mu.Lock()
	if p.running || !p.cfg.Enabled {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.mu.Unlock()

	logger.Info("rss poller starting",
		"feeds", len(p.cfg.Feeds), "interval_minutes", p.cfg.PollIntervalMinutes)

	p.wg.Add(1)
	go p.pollLoop()
}

// Stop gracefully stops the poller.
func (p *RSSPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	logger.Info("rss poller stopped",
		"polls", atomic.LoadInt64(&p.totalPolls),
		"items", atomic.LoadInt64(&p.totalItems),
		"events", atomic.LoadInt64(&p.totalEvents),
		"errors", atomic.LoadInt64(&p.totalErrors))
}

func (p *RSSPoller) pollLoop() {
	defer p.wg.Done()

	interval := time.Duration(p.cfg.PollIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.PollAll(p.ctx)
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.PollAll(p.ctx)
		}
	}
}

// PollAll fetches every configured feed once. Exposed so tests and the
// worker binary can drive polls directly.
func (p *RSSPoller) PollAll(ctx context.Context) {
	atomic.AddInt64(&p.totalPolls, 1)
	for _, feed := range p.cfg.Feeds {
		if err := p.pollFeed(ctx, feed); err != nil {
			atomic.AddInt64(&p.totalErrors, 1)
			logger.Warn("feed poll failed", "url", feed.URL, "error", err.Error())
		}
	}
}

func (p *RSSPoller) pollFeed(ctx context.Context, feedCfg config.FeedConfig) error {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	feed, err := p.parser.ParseURLWithContext(feedCfg.URL, fetchCtx)
	if err != nil {
		return fmt.Errorf("parse feed: %w", err)
	}

	for _, item := range feed.Items {
		atomic.AddInt64(&p.totalItems, 1)
		key := item.GUID
		if key == "" {
			key = item.Link
		}
		if key == "" {
			continue
		}

		p.seenMu.Lock()
		dup := p.seen[key]
		if !dup {
			p.seen[key] = true
		}
		p.seenMu.Unlock()
		if dup {
			continue
		}

		event := p.eventFromItem(feed, item, key)
		if err := p.sink.Ingest(ctx, event, feedCfg.BrandID); err != nil {
			logger.Warn("event ingest failed",
				"event_id", event.ID, "brand_id", feedCfg.BrandID, "error", err.Error())
			continue
		}
		atomic.AddInt64(&p.totalEvents, 1)
	}
	return nil
}

// eventFromItem maps a feed item onto the event shape the pipeline consumes.
func (p *RSSPoller) eventFromItem(feed *gofeed.Feed, item *gofeed.Item, key string) *domain.SocialEvent {
	published := p.clock.Now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	}

	text := item.Title
	if desc := strings.TrimSpace(item.Description); desc != "" {
		text = text + ". " + desc
	}

	author := feed.Title
	if item.Author != nil && item.Author.Name != "" {
		author = item.Author.Name
	}

	var tags []string
	for _, c := range item.Categories {
		tags = append(tags, strings.ToLower(c))
	}

	return &domain.SocialEvent{
		ID:        "rss-" + itemDigest(key),
		Type:      domain.EventPost,
		Platform:  domain.PlatformRSS,
		Timestamp: published,
		Content: domain.EventContent{
			Text:     text,
			Hashtags: tags,
		},
		Author: domain.Author{
			ID:          feed.Link,
			DisplayName: author,
		},
	}
}

// Stats reports poller counters.
func (p *RSSPoller) Stats() map[string]int64 {
	return map[string]int64{
		"total_polls":  atomic.LoadInt64(&p.totalPolls),
		"total_items":  atomic.LoadInt64(&p.totalItems),
		"total_events": atomic.LoadInt64(&p.totalEvents),
		"total_errors": atomic.LoadInt64(&p.totalErrors),
	}
}

func itemDigest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}
