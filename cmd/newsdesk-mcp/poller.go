package main

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/matthewjhunter/newsdesk"
)

const defaultPollInterval = 30 * time.Minute

// poller runs a background feed-import loop over the configured sources.
type poller struct {
	svc      *newsdesk.Service
	sources  []newsdesk.FeedImport
	interval time.Duration

	mu   sync.Mutex
	done chan struct{}
}

func newPoller(svc *newsdesk.Service, sources []newsdesk.FeedImport, interval time.Duration) *poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &poller{
		svc:      svc,
		sources:  sources,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// start launches the background poll loop. It polls immediately, then on
// each tick of the configured interval.
func (p *poller) start(ctx context.Context) {
	go p.loop(ctx)
	log.Printf("poller: started (%d feeds, interval=%s)", len(p.sources), p.interval)
}

// stop signals the poll loop to exit.
func (p *poller) stop() {
	close(p.done)
	log.Printf("poller: stopped")
}

// poll runs a single import cycle. Cycles never overlap; poll_now waits for
// a running cycle to finish.
func (p *poller) poll(ctx context.Context) (*newsdesk.PollResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	result, err := p.svc.PollFeeds(ctx, p.sources)
	if err != nil {
		return nil, err
	}

	log.Printf("poller: %d feeds, %d errors, %d new articles",
		result.FeedsTotal, result.FeedsErrored, result.NewArticles)
	return result, nil
}

func (p *poller) loop(ctx context.Context) {
	if _, err := p.poll(ctx); err != nil {
		log.Printf("poller: initial poll error: %v", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.poll(ctx); err != nil {
				log.Printf("poller: poll error: %v", err)
			}
		}
	}
}
