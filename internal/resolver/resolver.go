// package resolver turns a classified locator into playable candidate items.
//
// Resolution runs through an ordered list of extraction strategies. Each
// strategy gets a clean attempt with its own timeout; the first one returning
// at least one usable candidate wins. Strategy-level failures are absorbed
// here and never surfaced individually; when every strategy is exhausted the
// caller sees a single [shared.ErrSourceUnavailable].
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tunedrop/tunedrop/internal/locator"
	"github.com/tunedrop/tunedrop/internal/models"
	"github.com/tunedrop/tunedrop/internal/shared"
)

// Strategy is one configured method for resolving a locator against the
// source platform. Strategies carry no state between attempts.
type Strategy interface {
	Name() string

	// Search returns up to limit candidates in platform relevance order.
	Search(ctx context.Context, query string, limit int) ([]models.CandidateItem, error)

	// Lookup resolves a single video id to a complete candidate.
	Lookup(ctx context.Context, videoID string) (*models.CandidateItem, error)
}

// Resolver holds the strategy chain and its per-attempt timeout.
type Resolver struct {
	strategies []Strategy
	timeout    time.Duration
	maxResults int
	logger     *log.Logger
}

// New creates a Resolver. The strategy order is fixed for the lifetime of
// the resolver.
func New(strategies []Strategy, timeout time.Duration, maxResults int, logger *log.Logger) *Resolver {
	return &Resolver{
		strategies: strategies,
		timeout:    timeout,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Resolve maps a locator to an ordered sequence of candidates. A direct URL
// yields exactly one item; a search query yields up to the configured
// maximum.
func (r *Resolver) Resolve(ctx context.Context, loc locator.MediaLocator) ([]models.CandidateItem, error) {
	switch loc.Kind {
	case locator.KindDirectURL:
		item, err := r.lookup(ctx, loc.VideoID)
		if err != nil {
			return nil, err
		}
		return []models.CandidateItem{*item}, nil
	case locator.KindSearchQuery:
		return r.search(ctx, loc.Query)
	default:
		return nil, fmt.Errorf("%w: unknown locator kind", shared.ErrInvalidInput)
	}
}

func (r *Resolver) lookup(ctx context.Context, videoID string) (*models.CandidateItem, error) {
	for _, strategy := range r.strategies {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		item, err := strategy.Lookup(attemptCtx, videoID)
		cancel()

		if err != nil {
			r.logger.Debug("lookup strategy failed", "strategy", strategy.Name(), "video", videoID, "err", err)
			continue
		}
		if item == nil || !usable(*item) {
			r.logger.Debug("lookup strategy returned unusable item", "strategy", strategy.Name(), "video", videoID)
			continue
		}

		r.logger.Info("resolved video", "strategy", strategy.Name(), "video", videoID, "title", item.Title)
		return item, nil
	}

	return nil, fmt.Errorf("%w: video %s", shared.ErrSourceUnavailable, videoID)
}

func (r *Resolver) search(ctx context.Context, query string) ([]models.CandidateItem, error) {
	for _, strategy := range r.strategies {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		items, err := strategy.Search(attemptCtx, query, r.maxResults)
		cancel()

		if err != nil {
			r.logger.Debug("search strategy failed", "strategy", strategy.Name(), "query", query, "err", err)
			continue
		}

		items = filterUsable(items, r.maxResults)
		if len(items) == 0 {
			r.logger.Debug("search strategy returned no usable results", "strategy", strategy.Name(), "query", query)
			continue
		}

		r.logger.Info("search resolved", "strategy", strategy.Name(), "query", query, "results", len(items))
		return items, nil
	}

	return nil, fmt.Errorf("%w: no strategy produced results for %q", shared.ErrSourceUnavailable, query)
}

// filterUsable drops placeholder and malformed entries while preserving
// relevance order, deduplicating by video id.
func filterUsable(items []models.CandidateItem, limit int) []models.CandidateItem {
	seen := make(map[string]bool, len(items))
	usableItems := make([]models.CandidateItem, 0, len(items))

	for _, item := range items {
		if !usable(item) || seen[item.VideoID] {
			continue
		}
		seen[item.VideoID] = true

		if item.SourceURL == "" {
			item.SourceURL = locator.WatchURL(item.VideoID)
		}
		if item.ThumbnailURL == "" {
			item.ThumbnailURL = defaultThumbnail(item.VideoID)
		}

		usableItems = append(usableItems, item)
		if len(usableItems) == limit {
			break
		}
	}

	return usableItems
}

func usable(item models.CandidateItem) bool {
	if !locator.IsVideoID(item.VideoID) {
		return false
	}
	switch item.Title {
	case "", "[Deleted video]", "[Private video]", "Deleted video", "Private video":
		return false
	}
	return true
}

func defaultThumbnail(videoID string) string {
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID)
}
