package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/jcastillo/inmoalert/internal/clients/fetch"
	"github.com/jcastillo/inmoalert/internal/entities"
	"github.com/jcastillo/inmoalert/internal/events"
	"github.com/jcastillo/inmoalert/internal/logger"
	"github.com/jcastillo/inmoalert/internal/metrics"
	"github.com/jcastillo/inmoalert/internal/notifications"
	"github.com/jcastillo/inmoalert/internal/sources"
)

type alertRepository interface {
	ListActive(ctx context.Context) ([]entities.Alert, error)
	ListActiveByID(ctx context.Context, alertID int) ([]entities.Alert, error)
	UpdateLastRun(ctx context.Context, alertID int, at time.Time) error
}

type notificationSink interface {
	SendDigest(ctx context.Context, digest notifications.Digest) error
	SendNoResults(ctx context.Context, recipient string, sourcesSearched []entities.Source) error
}

type auditSink interface {
	LogRun(ctx context.Context, alertID int, recipient string, listingIDs []uint,
		isNew map[uint]bool, emitted map[uint]bool) error
}

type RunnerConfig struct {
	Sources              []entities.Source
	MaxPages             int
	MaxListingsPerSource int
	MinSourceDelay       time.Duration
	MaxSourceDelay       time.Duration
	RequestDelay         time.Duration
}

// AlertRunner drives one alert's full pipeline: scrape enabled sources
// sequentially, normalize and filter, deduplicate, notify, record
// deliveries. Failures are contained at the narrowest scope: a bad card
// drops a candidate, a dead portal drops a source, a broken alert drops that
// alert and nothing else.
type AlertRunner struct {
	bus         EventBus.Bus
	adapters    map[entities.Source]sources.Adapter
	fetcher     *fetch.Client
	deduper     *Deduper
	notifier    notificationSink
	audit       auditSink
	alerts      alertRepository
	cfg         RunnerConfig
	runContexts sync.Map
	sleep       func(time.Duration)
}

func NewAlertRunner(bus EventBus.Bus, adapters map[entities.Source]sources.Adapter, fetcher *fetch.Client,
	deduper *Deduper, notifier notificationSink, audit auditSink, alerts alertRepository,
	cfg RunnerConfig) (*AlertRunner, error) {

	r := &AlertRunner{
		bus:      bus,
		adapters: adapters,
		fetcher:  fetcher,
		deduper:  deduper,
		notifier: notifier,
		audit:    audit,
		alerts:   alerts,
		cfg:      cfg,
		sleep:    time.Sleep,
	}
	err := bus.Subscribe(events.AlertDeletedTopic, r.onAlertDeletedEvent)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// RunAll processes every active alert. One alert's failure never prevents
// subsequent alerts from running; errors are aggregated into the summary
// instead of propagating.
func (r *AlertRunner) RunAll(ctx context.Context, notify bool) entities.RunSummary {

	alerts, err := r.alerts.ListActive(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to list alerts: %v", err)
		return entities.RunSummary{Errors: []string{fmt.Sprintf("list alerts: %v", err)}}
	}
	return r.run(ctx, alerts, notify)
}

// RunOne is the single-alert on-demand mode.
func (r *AlertRunner) RunOne(ctx context.Context, alertID int, notify bool) entities.RunSummary {

	alerts, err := r.alerts.ListActiveByID(ctx, alertID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to list alerts: %v", err)
		return entities.RunSummary{Errors: []string{fmt.Sprintf("list alerts: %v", err)}}
	}
	return r.run(ctx, alerts, notify)
}

func (r *AlertRunner) run(ctx context.Context, alerts []entities.Alert, notify bool) entities.RunSummary {

	summary := entities.RunSummary{Errors: []string{}}
	start := time.Now()

	for _, alert := range alerts {
		if err := r.runAlert(ctx, alert, notify); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("alert %v: %v", alert.ID, err))
		}
		summary.AlertsProcessed++
	}

	metrics.RunDuration.Observe(time.Since(start).Seconds())
	log.Infof("handled %v alerts, %v failed", summary.AlertsProcessed, len(summary.Errors))
	return summary
}

func (r *AlertRunner) runAlert(parent context.Context, alert entities.Alert, notify bool) (err error) {

	// the failure boundary per alert: nothing below may take down the job
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("run for alert %v panicked: %v", alert.ID, rec)
			err = errors.Errorf("panic: %v", rec)
		}
	}()

	if err := alert.Validate(); err != nil {
		log.Warnf("skipping alert %v, invalid criteria: %v", alert.ID, err)
		return errors.Wrap(err, "invalid criteria")
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	r.runContexts.Store(alert.ID, cancel)
	defer r.runContexts.Delete(alert.ID)

	// last-run is recorded whatever happens after this point
	defer func() {
		if dbErr := r.alerts.UpdateLastRun(context.Background(), alert.ID, time.Now()); dbErr != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to update last run for alert %v: %v", alert.ID, dbErr)
		}
	}()

	session := r.fetcher.NewSession()
	outcomes := r.scrapeSources(ctx, session, &alert)

	searched := lo.FilterMap(outcomes, func(o entities.SourceOutcome, _ int) (entities.Source, bool) {
		return o.Source, o.OK
	})
	scraped := lo.FlatMap(outcomes, func(o entities.SourceOutcome, _ int) []entities.Listing {
		return o.Listings
	})

	accepted := lo.Filter(scraped, func(l entities.Listing, _ int) bool {
		return alert.Accepts(l)
	})

	batch := r.deduper.FilterBatch(accepted)

	type resolvedListing struct {
		listing entities.Listing
		saved   *entities.SavedListing
		isNew   bool
	}

	var resolved []resolvedListing
	for _, listing := range batch {
		saved, err := r.deduper.Resolve(ctx, listing)
		if err != nil {
			return errors.Wrap(err, "resolve listing")
		}
		isNew, err := r.deduper.IsNewForAlert(ctx, alert.ID, saved.ID)
		if err != nil {
			return errors.Wrap(err, "check delivery ledger")
		}
		resolved = append(resolved, resolvedListing{listing: listing, saved: saved, isNew: isNew})
	}

	fresh := lo.Filter(resolved, func(item resolvedListing, _ int) bool { return item.isNew })
	metrics.SuppressedListingsCounter.Add(float64(len(resolved) - len(fresh)))

	emitted := false
	if notify {
		if len(fresh) > 0 {
			digest := notifications.Digest{
				Recipient: alert.Email,
				NewListings: lo.Map(fresh, func(item resolvedListing, _ int) entities.Listing {
					return item.listing
				}),
				TotalScraped:    len(scraped),
				SourcesSearched: searched,
			}
			if sendErr := r.notifier.SendDigest(ctx, digest); sendErr != nil {
				// logged, never blocks ledger recording
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeSmtp).
					Errorf("failed to send digest for alert %v: %v", alert.ID, sendErr)
			} else {
				emitted = true
			}
		} else if alert.NotifyWhenEmpty {
			if sendErr := r.notifier.SendNoResults(ctx, alert.Email, searched); sendErr != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeSmtp).
					Errorf("failed to send no-results mail for alert %v: %v", alert.ID, sendErr)
			}
		}
	}

	// Deliveries are recorded for dry runs too, so suppressed notifications
	// do not resurface the same listings later.
	for _, item := range fresh {
		if err := r.deduper.RecordDelivery(ctx, alert.ID, item.saved.ID); err != nil {
			return errors.Wrap(err, "record delivery")
		}
		r.bus.Publish(events.ListingFoundTopic, events.ListingFound{
			Alert:  alert,
			Title:  item.listing.Title,
			Url:    item.listing.CanonicalURL,
			Source: item.listing.Source,
		})
		metrics.NotifiedListingsCounter.Inc()
	}

	listingIDs := make([]uint, 0, len(resolved))
	isNewSet := make(map[uint]bool, len(resolved))
	emittedSet := make(map[uint]bool, len(resolved))
	for _, item := range resolved {
		listingIDs = append(listingIDs, item.saved.ID)
		isNewSet[item.saved.ID] = item.isNew
		emittedSet[item.saved.ID] = item.isNew && emitted
	}
	if auditErr := r.audit.LogRun(ctx, alert.ID, alert.Email, listingIDs, isNewSet, emittedSet); auditErr != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to write audit log for alert %v: %v", alert.ID, auditErr)
	}

	log.Infof("alert %v: %v scraped, %v new, %v sources searched", alert.ID, len(scraped), len(fresh), len(searched))
	return nil
}

// scrapeSources walks the enabled sources sequentially with a randomized
// delay in between. Concurrency here would be rude: portals ban origins
// that hammer them, and a ban hurts every alert.
func (r *AlertRunner) scrapeSources(ctx context.Context, session *fetch.Session, alert *entities.Alert) []entities.SourceOutcome {

	var outcomes []entities.SourceOutcome
	for i, source := range r.cfg.Sources {
		adapter, ok := r.adapters[source]
		if !ok {
			log.Warnf("no adapter registered for source %v", source)
			continue
		}

		if i > 0 {
			r.sleep(randomDelay(r.cfg.MinSourceDelay, r.cfg.MaxSourceDelay))
		}

		outcome := r.scrapeSource(ctx, session, adapter, alert)
		metrics.SourceScrapeDuration.WithLabelValues(string(outcome.Source)).Observe(outcome.Elapsed.Seconds())
		metrics.ScrapedListingsCounter.WithLabelValues(string(outcome.Source)).Add(float64(len(outcome.Listings)))
		outcomes = append(outcomes, outcome)

		if ctx.Err() != nil {
			log.Infof("run canceled for alert %v", alert.ID)
			break
		}
	}
	return outcomes
}

func (r *AlertRunner) scrapeSource(ctx context.Context, session *fetch.Session, adapter sources.Adapter,
	alert *entities.Alert) entities.SourceOutcome {

	start := time.Now()
	outcome := entities.SourceOutcome{Source: adapter.Source()}
	var sourceErr error

	for page := 1; page <= r.cfg.MaxPages; page++ {

		if ctx.Err() != nil {
			break
		}

		pageURL, err := adapter.BuildSearchURL(alert, page)
		if err != nil {
			sourceErr = err
			break
		}

		if page > 1 {
			r.sleep(r.cfg.RequestDelay)
		}

		html, err := session.Fetch(ctx, pageURL)
		if err != nil {
			// retries are already exhausted inside the client; the source is
			// abandoned for this run
			sourceErr = err
			break
		}

		result, err := adapter.ParseSearchPage(html, alert)
		if err != nil {
			sourceErr = err
			break
		}

		pageListings := result.Listings
		if len(result.DetailURLs) > 0 {
			budget := r.cfg.MaxListingsPerSource - len(outcome.Listings)
			pageListings = append(pageListings, r.fetchDetails(ctx, session, adapter, alert, result.DetailURLs, budget)...)
		}

		// an empty page means "no more results", not an error
		if len(pageListings) == 0 {
			break
		}

		outcome.Listings = append(outcome.Listings, pageListings...)
		if len(outcome.Listings) >= r.cfg.MaxListingsPerSource {
			outcome.Listings = outcome.Listings[:r.cfg.MaxListingsPerSource]
			break
		}
	}

	outcome.Elapsed = time.Since(start)
	outcome.OK = len(outcome.Listings) > 0
	if sourceErr != nil {
		outcome.Err = sourceErr.Error()
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeFetch).
			Errorf("source %v failed for alert %v: %v", adapter.Source(), alert.ID, sourceErr)
	}
	return outcome
}

func (r *AlertRunner) fetchDetails(ctx context.Context, session *fetch.Session, adapter sources.Adapter,
	alert *entities.Alert, detailURLs []string, budget int) []entities.Listing {

	var listings []entities.Listing
	for _, detailURL := range detailURLs {

		if ctx.Err() != nil || len(listings) >= budget {
			break
		}

		r.sleep(r.cfg.RequestDelay)

		html, err := session.Fetch(ctx, detailURL)
		if err != nil {
			log.Warnf("failed to fetch detail page %v: %v", detailURL, err)
			continue
		}

		listing, err := adapter.ParseDetailPage(html, detailURL, alert)
		if err != nil || listing == nil {
			// a garbled detail page drops one candidate, not the source
			continue
		}
		listings = append(listings, *listing)
	}
	return listings
}

func (r *AlertRunner) onAlertDeletedEvent(event events.AlertDeleted) {
	if cancel, ok := r.runContexts.Load(event.AlertID); ok {
		cancel.(context.CancelFunc)()
		r.runContexts.Delete(event.AlertID)
	}
}

func randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
