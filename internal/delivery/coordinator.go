package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tunedrop/tunedrop/internal/acquire"
	"github.com/tunedrop/tunedrop/internal/locator"
	"github.com/tunedrop/tunedrop/internal/models"
	"github.com/tunedrop/tunedrop/internal/session"
	"github.com/tunedrop/tunedrop/internal/shared"
	"golang.org/x/time/rate"
)

// Resolver turns a locator into candidate items. Implemented by
// [resolver.Resolver].
type Resolver interface {
	Resolve(ctx context.Context, loc locator.MediaLocator) ([]models.CandidateItem, error)
}

// Acquirer runs the fetch-and-transcode pipeline. Implemented by
// [acquire.Worker].
type Acquirer interface {
	Acquire(ctx context.Context, item models.CandidateItem, progress func(percent int)) (*acquire.Artifact, error)
}

// History records terminal delivery outcomes. May be nil to disable.
type History interface {
	Record(ctx context.Context, d *models.Delivery) error
}

// ResultsView is one page of search results ready for presentation.
type ResultsView struct {
	Generation uint64
	Page       int
	Pages      int
	// PageBase is the absolute index of the first item on the page;
	// selection payloads carry absolute indexes.
	PageBase int
	Items    []models.CandidateItem
}

// Messenger is the transport surface the coordinator speaks to. The Telegram
// adapter implements it; tests substitute a double.
type Messenger interface {
	SendStatus(ownerID int64, text string) (messageID int, err error)
	EditStatus(ownerID int64, messageID int, text string) error
	DeleteStatus(ownerID int64, messageID int) error
	SendResults(ownerID int64, view ResultsView) error
	SendAudio(ownerID int64, artifact *acquire.Artifact) error
}

// Options tunes coordinator behavior.
type Options struct {
	PageSize         int
	ProgressInterval time.Duration
	ProgressMinDelta int
	// PerUserInterval is the minimum spacing between requests from one
	// owner. Zero disables throttling.
	PerUserInterval time.Duration
}

// Coordinator owns the request lifecycle. Each incoming request is handled
// on its own goroutine by the transport; the coordinator itself is safe for
// unbounded concurrent use and imposes no global queue.
type Coordinator struct {
	resolver  Resolver
	sessions  *session.Store
	worker    Acquirer
	messenger Messenger
	history   History
	opts      Options
	logger    *log.Logger

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

// NewCoordinator wires a coordinator. history may be nil.
func NewCoordinator(r Resolver, s *session.Store, w Acquirer, m Messenger, h History, opts Options, logger *log.Logger) *Coordinator {
	if opts.PageSize <= 0 {
		opts.PageSize = 8
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 2 * time.Second
	}
	if opts.ProgressMinDelta <= 0 {
		opts.ProgressMinDelta = 5
	}

	return &Coordinator{
		resolver:  r,
		sessions:  s,
		worker:    w,
		messenger: m,
		history:   h,
		opts:      opts,
		logger:    logger,
		limiters:  make(map[int64]*rate.Limiter),
	}
}

// HandleText processes a plain message from an owner: a direct link starts a
// delivery immediately, a search phrase produces a results page.
func (c *Coordinator) HandleText(ctx context.Context, ownerID int64, text string) {
	if !c.allow(ownerID) {
		c.sendStatus(ownerID, UserMessage(shared.ErrRateLimited))
		return
	}

	loc, err := locator.Classify(text)
	if err != nil {
		c.sendStatus(ownerID, UserMessage(err))
		return
	}

	switch loc.Kind {
	case locator.KindDirectURL:
		c.deliverURL(ctx, ownerID, loc)
	case locator.KindSearchQuery:
		c.search(ctx, ownerID, loc)
	}
}

// SelectResult starts a delivery for the item an owner picked from a results
// page. The returned error is suitable for a short transport acknowledgement;
// all longer-form messaging happens through the Messenger.
func (c *Coordinator) SelectResult(ctx context.Context, ownerID int64, generation uint64, index int) error {
	item, err := c.sessions.Select(ownerID, generation, index)
	if err != nil {
		return err
	}

	if c.deliver(ctx, ownerID, item) == nil {
		c.sessions.Drop(ownerID)
	}
	return nil
}

// TurnPage returns the requested page of an owner's live session.
func (c *Coordinator) TurnPage(ownerID int64, generation uint64, page int) (ResultsView, error) {
	items, err := c.sessions.Page(ownerID, generation, page)
	if err != nil {
		return ResultsView{}, err
	}

	_, pages, err := c.sessions.Count(ownerID, generation)
	if err != nil {
		return ResultsView{}, err
	}

	return ResultsView{
		Generation: generation,
		Page:       page,
		Pages:      pages,
		PageBase:   page * c.opts.PageSize,
		Items:      items,
	}, nil
}

func (c *Coordinator) deliverURL(ctx context.Context, ownerID int64, loc locator.MediaLocator) {
	statusID, _ := c.messenger.SendStatus(ownerID, "Looking up the track…")

	items, err := c.resolver.Resolve(ctx, loc)
	if err != nil || len(items) == 0 {
		if err == nil {
			err = shared.ErrNoResults
		}
		c.editOrSend(ownerID, statusID, UserMessage(err))
		return
	}

	c.deleteStatus(ownerID, statusID)
	c.deliver(ctx, ownerID, items[0])
}

func (c *Coordinator) search(ctx context.Context, ownerID int64, loc locator.MediaLocator) {
	statusID, _ := c.messenger.SendStatus(ownerID, fmt.Sprintf("Searching for %q…", loc.Query))

	items, err := c.resolver.Resolve(ctx, loc)
	if err != nil || len(items) == 0 {
		if err == nil {
			err = shared.ErrNoResults
		}
		c.editOrSend(ownerID, statusID, UserMessage(err))
		return
	}

	generation := c.sessions.Put(ownerID, items)

	view, err := c.TurnPage(ownerID, generation, 0)
	if err != nil {
		c.editOrSend(ownerID, statusID, UserMessage(err))
		return
	}

	if err := c.messenger.SendResults(ownerID, view); err != nil {
		c.logger.Error("sending results failed", "owner", ownerID, "err", err)
		return
	}

	c.deleteStatus(ownerID, statusID)
}

// deliver runs one acquisition end to end and returns its terminal error,
// nil on a completed upload. The artifact workspace is discarded on every
// path once the upload has either happened or failed.
func (c *Coordinator) deliver(ctx context.Context, ownerID int64, item models.CandidateItem) error {
	logger := c.logger.With("owner", ownerID, "video", item.VideoID)

	statusID, _ := c.messenger.SendStatus(ownerID, progressText(item, 0))

	reporter := NewReporter(func(percent int) {
		if err := c.messenger.EditStatus(ownerID, statusID, progressText(item, percent)); err != nil {
			logger.Debug("progress edit failed", "err", err)
		}
	}, c.opts.ProgressInterval, c.opts.ProgressMinDelta)

	artifact, err := c.worker.Acquire(ctx, item, reporter.Report)
	reporter.Close()

	if err != nil {
		logger.Warn("acquisition failed", "err", err)
		c.editOrSend(ownerID, statusID, UserMessage(err))
		c.record(ctx, ownerID, item, nil, err)
		return err
	}
	defer artifact.Discard()

	c.editOrSend(ownerID, statusID, "Sending the audio…")

	if err := c.messenger.SendAudio(ownerID, artifact); err != nil {
		logger.Error("audio upload failed", "err", err)
		c.editOrSend(ownerID, statusID, UserMessage(err))
		c.record(ctx, ownerID, item, artifact, err)
		return err
	}

	c.deleteStatus(ownerID, statusID)
	c.record(ctx, ownerID, item, artifact, nil)

	logger.Info("delivered", "title", artifact.Title, "bytes", artifact.SizeBytes)
	return nil
}

func (c *Coordinator) record(ctx context.Context, ownerID int64, item models.CandidateItem, artifact *acquire.Artifact, cause error) {
	if c.history == nil {
		return
	}

	d := models.NewDelivery(shared.GenerateID(), ownerID, item)
	if artifact != nil {
		d.Title = artifact.Title
		d.DurationSec = artifact.DurationSec
		d.SizeBytes = artifact.SizeBytes
	}
	if cause == nil {
		d.Outcome = models.OutcomeSucceeded
	} else {
		d.Outcome = models.OutcomeFailed
		d.ErrorKind = errorKind(cause)
	}

	if err := c.history.Record(ctx, d); err != nil {
		c.logger.Warn("history record failed", "owner", ownerID, "err", err)
	}
}

// allow consults the owner's rate limiter. A zero interval admits everything.
func (c *Coordinator) allow(ownerID int64) bool {
	if c.opts.PerUserInterval <= 0 {
		return true
	}

	c.mu.Lock()
	limiter, ok := c.limiters[ownerID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(c.opts.PerUserInterval), 1)
		c.limiters[ownerID] = limiter
	}
	c.mu.Unlock()

	return limiter.Allow()
}

func (c *Coordinator) sendStatus(ownerID int64, text string) {
	if _, err := c.messenger.SendStatus(ownerID, text); err != nil {
		c.logger.Debug("status send failed", "owner", ownerID, "err", err)
	}
}

func (c *Coordinator) editOrSend(ownerID int64, messageID int, text string) {
	if messageID == 0 {
		c.sendStatus(ownerID, text)
		return
	}
	if err := c.messenger.EditStatus(ownerID, messageID, text); err != nil {
		c.sendStatus(ownerID, text)
	}
}

func (c *Coordinator) deleteStatus(ownerID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := c.messenger.DeleteStatus(ownerID, messageID); err != nil {
		c.logger.Debug("status delete failed", "owner", ownerID, "err", err)
	}
}

func progressText(item models.CandidateItem, percent int) string {
	title := item.Title
	if title == "" {
		title = item.VideoID
	}
	return fmt.Sprintf("Downloading %s… %d%%", title, percent)
}

// UserMessage maps an internal error to the fixed text shown to the owner.
// Internal detail never leaks through this boundary.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrEmptyQuery), errors.Is(err, shared.ErrInvalidInput):
		return "Send me a YouTube link or the name of a song."
	case errors.Is(err, shared.ErrNoResults):
		return "No results found. Try a different search."
	case errors.Is(err, shared.ErrSessionExpired):
		return "These results have expired. Send your search again."
	case errors.Is(err, shared.ErrTransferTimeout):
		return "The download took too long and was cancelled. Please try again."
	case errors.Is(err, shared.ErrTranscodeTimeout), errors.Is(err, shared.ErrTranscode):
		return "Converting this track failed. Try another one."
	case errors.Is(err, shared.ErrOversizeArtifact):
		return "This track is too large to send over Telegram."
	case errors.Is(err, shared.ErrRateLimited):
		return "Too many requests. Give it a moment and try again."
	case errors.Is(err, shared.ErrSourceUnavailable):
		return "Couldn't fetch this track right now. Try again later."
	default:
		return "Something went wrong. Please try again."
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, shared.ErrTransferTimeout):
		return "transfer_timeout"
	case errors.Is(err, shared.ErrTranscodeTimeout):
		return "transcode_timeout"
	case errors.Is(err, shared.ErrTranscode):
		return "transcode"
	case errors.Is(err, shared.ErrOversizeArtifact):
		return "oversize"
	case errors.Is(err, shared.ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, shared.ErrNoResults):
		return "no_results"
	case errors.Is(err, shared.ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, shared.ErrFilesystem):
		return "filesystem"
	default:
		return "other"
	}
}
