package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/jcastillo/inmoalert/internal/clients/fetch"
	"github.com/jcastillo/inmoalert/internal/entities"
	"github.com/jcastillo/inmoalert/internal/events"
	"github.com/jcastillo/inmoalert/internal/notifications"
	"github.com/jcastillo/inmoalert/internal/sources"
)

type stubTransport struct{}

func (stubTransport) Name() string { return "http" }

func (stubTransport) Get(context.Context, string, map[string]string) (int, []byte, error) {
	body := "<html><body>" + strings.Repeat("<div>departamento</div>", 100) + "</body></html>"
	return 200, []byte(body), nil
}

// scriptedAdapter serves one pre-built result page per ParseSearchPage call,
// simulating consecutive runs against a changing portal.
type scriptedAdapter struct {
	source entities.Source
	pages  [][]entities.Listing
	calls  int
}

func (a *scriptedAdapter) Source() entities.Source { return a.source }

func (a *scriptedAdapter) BuildSearchURL(_ *entities.Alert, page int) (string, error) {
	return fmt.Sprintf("https://%v.example/buscar?page=%d", a.source, page), nil
}

func (a *scriptedAdapter) ParseSearchPage(string, *entities.Alert) (sources.SearchResult, error) {
	if a.calls >= len(a.pages) {
		return sources.SearchResult{}, nil
	}
	page := a.pages[a.calls]
	a.calls++
	return sources.SearchResult{Listings: page}, nil
}

func (a *scriptedAdapter) ParseDetailPage(string, string, *entities.Alert) (*entities.Listing, error) {
	return nil, nil
}

type brokenAdapter struct {
	source entities.Source
}

func (a *brokenAdapter) Source() entities.Source { return a.source }

func (a *brokenAdapter) BuildSearchURL(*entities.Alert, int) (string, error) {
	return fmt.Sprintf("https://%v.example/buscar", a.source), nil
}

func (a *brokenAdapter) ParseSearchPage(string, *entities.Alert) (sources.SearchResult, error) {
	return sources.SearchResult{}, errors.New("markup changed")
}

func (a *brokenAdapter) ParseDetailPage(string, string, *entities.Alert) (*entities.Listing, error) {
	return nil, nil
}

type fakeAlerts struct {
	alerts      []entities.Alert
	lastRunSets int
}

func (f *fakeAlerts) ListActive(context.Context) ([]entities.Alert, error) {
	return f.alerts, nil
}

func (f *fakeAlerts) ListActiveByID(_ context.Context, alertID int) ([]entities.Alert, error) {
	for _, alert := range f.alerts {
		if alert.ID == alertID {
			return []entities.Alert{alert}, nil
		}
	}
	return nil, nil
}

func (f *fakeAlerts) UpdateLastRun(context.Context, int, time.Time) error {
	f.lastRunSets++
	return nil
}

type fakeNotifier struct {
	digests   []notifications.Digest
	noResults []string
	failSend  bool
}

func (f *fakeNotifier) SendDigest(_ context.Context, digest notifications.Digest) error {
	if f.failSend {
		return errors.New("smtp unreachable")
	}
	f.digests = append(f.digests, digest)
	return nil
}

func (f *fakeNotifier) SendNoResults(_ context.Context, recipient string, _ []entities.Source) error {
	f.noResults = append(f.noResults, recipient)
	return nil
}

type auditEntry struct {
	alertID    int
	listingIDs []uint
	isNew      map[uint]bool
	emitted    map[uint]bool
}

type fakeAudit struct {
	entries []auditEntry
}

func (f *fakeAudit) LogRun(_ context.Context, alertID int, _ string, listingIDs []uint,
	isNew map[uint]bool, emitted map[uint]bool) error {
	f.entries = append(f.entries, auditEntry{alertID: alertID, listingIDs: listingIDs, isNew: isNew, emitted: emitted})
	return nil
}

type runnerFixture struct {
	runner     *AlertRunner
	bus        EventBus.Bus
	alerts     *fakeAlerts
	notifier   *fakeNotifier
	audit      *fakeAudit
	deliveries *fakeDeliveries
}

func newRunnerFixture(t *testing.T, adapters map[entities.Source]sources.Adapter,
	enabled []entities.Source, alerts ...entities.Alert) *runnerFixture {

	fetcher := fetch.NewClient(fetch.Options{Timeout: time.Second, MaxRetries: 0, BaseDelay: time.Millisecond})
	fetcher.SetTransports(stubTransport{})

	deliveries := newFakeDeliveries()
	fixture := &runnerFixture{
		bus:        EventBus.New(),
		alerts:     &fakeAlerts{alerts: alerts},
		notifier:   &fakeNotifier{},
		audit:      &fakeAudit{},
		deliveries: deliveries,
	}

	runner, err := NewAlertRunner(fixture.bus, adapters, fetcher,
		NewDeduper(newFakeListings(), deliveries), fixture.notifier, fixture.audit, fixture.alerts,
		RunnerConfig{
			Sources:              enabled,
			MaxPages:             1,
			MaxListingsPerSource: 50,
		})
	assert.NoError(t, err)

	runner.sleep = func(time.Duration) {}
	fixture.runner = runner
	return fixture
}

func validAlert() entities.Alert {
	return entities.Alert{
		ID:              1,
		Email:           "ana@example.com",
		TransactionType: entities.TransactionRent,
		City:            "lima",
		Active:          true,
	}
}

func Test_AlertRunner_ConsecutiveRuns_ShouldOnlyNotifyUnseenListings(t *testing.T) {

	day1 := []entities.Listing{
		listingWith("https://urbania.pe/u1", "f1"),
		listingWith("https://urbania.pe/u2", "f2"),
		listingWith("https://urbania.pe/u3", "f3"),
	}
	day2 := []entities.Listing{
		listingWith("https://urbania.pe/u1", "f1"),
		listingWith("https://urbania.pe/u2", "f2"),
		listingWith("https://urbania.pe/u4", "f4"),
	}

	adapter := &scriptedAdapter{source: entities.SourceUrbania, pages: [][]entities.Listing{day1, day2}}
	fixture := newRunnerFixture(t, map[entities.Source]sources.Adapter{entities.SourceUrbania: adapter},
		[]entities.Source{entities.SourceUrbania}, validAlert())

	first := fixture.runner.RunAll(context.Background(), true)
	assert.Empty(t, first.Errors)
	assert.Equal(t, 1, first.AlertsProcessed)

	second := fixture.runner.RunAll(context.Background(), true)
	assert.Empty(t, second.Errors)

	assert.Len(t, fixture.notifier.digests, 2)
	assert.Len(t, fixture.notifier.digests[0].NewListings, 3)
	assert.Len(t, fixture.notifier.digests[1].NewListings, 1)
	assert.Equal(t, "https://urbania.pe/u4", fixture.notifier.digests[1].NewListings[0].CanonicalURL)
	assert.Equal(t, 2, fixture.alerts.lastRunSets)
}

func Test_AlertRunner_RepostedAdUnderNewURL_ShouldStaySuppressed(t *testing.T) {

	adapter := &scriptedAdapter{source: entities.SourceUrbania, pages: [][]entities.Listing{
		{listingWith("https://urbania.pe/u1", "f1")},
		{listingWith("https://urbania.pe/u1-reposted", "f1")},
	}}
	fixture := newRunnerFixture(t, map[entities.Source]sources.Adapter{entities.SourceUrbania: adapter},
		[]entities.Source{entities.SourceUrbania}, validAlert())

	fixture.runner.RunAll(context.Background(), true)
	fixture.runner.RunAll(context.Background(), true)

	assert.Len(t, fixture.notifier.digests, 1, "the re-posted ad resolves to the already delivered record")
}

func Test_AlertRunner_DryRun_ShouldRecordDeliveriesWithoutNotifying(t *testing.T) {

	listings := []entities.Listing{
		listingWith("https://urbania.pe/u1", "f1"),
		listingWith("https://urbania.pe/u2", "f2"),
	}
	adapter := &scriptedAdapter{source: entities.SourceUrbania, pages: [][]entities.Listing{listings, listings}}
	fixture := newRunnerFixture(t, map[entities.Source]sources.Adapter{entities.SourceUrbania: adapter},
		[]entities.Source{entities.SourceUrbania}, validAlert())

	dry := fixture.runner.RunAll(context.Background(), false)
	assert.Empty(t, dry.Errors)
	assert.Empty(t, fixture.notifier.digests)
	assert.Len(t, fixture.deliveries.pairs, 2, "dry runs still consume novelty")

	followup := fixture.runner.RunAll(context.Background(), true)
	assert.Empty(t, followup.Errors)
	assert.Empty(t, fixture.notifier.digests, "listings seen during the dry run must not resurface")
}

func Test_AlertRunner_OneBrokenSource_ShouldNotAffectTheOthers(t *testing.T) {

	working := &scriptedAdapter{source: entities.SourceProperati, pages: [][]entities.Listing{
		{listingWith("https://properati.pe/p1", "f1")},
	}}
	adapters := map[entities.Source]sources.Adapter{
		entities.SourceUrbania:   &brokenAdapter{source: entities.SourceUrbania},
		entities.SourceProperati: working,
	}
	fixture := newRunnerFixture(t, adapters,
		[]entities.Source{entities.SourceUrbania, entities.SourceProperati}, validAlert())

	summary := fixture.runner.RunAll(context.Background(), true)

	assert.Empty(t, summary.Errors, "a dead portal is a degraded run, not a failed alert")
	assert.Len(t, fixture.notifier.digests, 1)
	assert.Equal(t, []entities.Source{entities.SourceProperati}, fixture.notifier.digests[0].SourcesSearched,
		"a failed source must not count as searched")
}

func Test_AlertRunner_NotifierFailure_ShouldStillRecordDeliveries(t *testing.T) {

	adapter := &scriptedAdapter{source: entities.SourceUrbania, pages: [][]entities.Listing{
		{listingWith("https://urbania.pe/u1", "f1")},
	}}
	fixture := newRunnerFixture(t, map[entities.Source]sources.Adapter{entities.SourceUrbania: adapter},
		[]entities.Source{entities.SourceUrbania}, validAlert())
	fixture.notifier.failSend = true

	summary := fixture.runner.RunAll(context.Background(), true)

	assert.Empty(t, summary.Errors, "a notification failure never fails the run")
	assert.Len(t, fixture.deliveries.pairs, 1)

	assert.Len(t, fixture.audit.entries, 1)
	for _, emitted := range fixture.audit.entries[0].emitted {
		assert.False(t, emitted)
	}
}

func Test_AlertRunner_NoNewListings_WithNotifyWhenEmpty_ShouldSendNoResultsMail(t *testing.T) {

	adapter := &scriptedAdapter{source: entities.SourceUrbania}
	alert := validAlert()
	alert.NotifyWhenEmpty = true

	fixture := newRunnerFixture(t, map[entities.Source]sources.Adapter{entities.SourceUrbania: adapter},
		[]entities.Source{entities.SourceUrbania}, alert)

	summary := fixture.runner.RunAll(context.Background(), true)

	assert.Empty(t, summary.Errors)
	assert.Empty(t, fixture.notifier.digests)
	assert.Equal(t, []string{"ana@example.com"}, fixture.notifier.noResults)
}

func Test_AlertRunner_FilteredListings_ShouldNotBeNotified(t *testing.T) {

	expensive := listingWith("https://urbania.pe/u1", "f1")
	expensive.Price = 9000
	cheap := listingWith("https://urbania.pe/u2", "f2")
	cheap.Price = 1500

	adapter := &scriptedAdapter{source: entities.SourceUrbania, pages: [][]entities.Listing{{expensive, cheap}}}
	alert := validAlert()
	alert.MaxPrice = 2000

	fixture := newRunnerFixture(t, map[entities.Source]sources.Adapter{entities.SourceUrbania: adapter},
		[]entities.Source{entities.SourceUrbania}, alert)

	fixture.runner.RunAll(context.Background(), true)

	assert.Len(t, fixture.notifier.digests, 1)
	assert.Len(t, fixture.notifier.digests[0].NewListings, 1)
	assert.Equal(t, "https://urbania.pe/u2", fixture.notifier.digests[0].NewListings[0].CanonicalURL)
}

func Test_AlertRunner_InvalidAlert_ShouldBeSkippedAndReported(t *testing.T) {

	adapter := &scriptedAdapter{source: entities.SourceUrbania}
	invalid := validAlert()
	invalid.Email = "not-an-email"

	fixture := newRunnerFixture(t, map[entities.Source]sources.Adapter{entities.SourceUrbania: adapter},
		[]entities.Source{entities.SourceUrbania}, invalid)

	summary := fixture.runner.RunAll(context.Background(), true)

	assert.Len(t, summary.Errors, 1)
	assert.Equal(t, 1, summary.AlertsProcessed)
	assert.Empty(t, fixture.notifier.digests)
	assert.Zero(t, fixture.alerts.lastRunSets, "last-run is only stamped for alerts that pass validation")
}

func Test_AlertRunner_RunOne_ShouldOnlyProcessTheRequestedAlert(t *testing.T) {

	adapter := &scriptedAdapter{source: entities.SourceUrbania, pages: [][]entities.Listing{
		{listingWith("https://urbania.pe/u1", "f1")},
	}}
	other := validAlert()
	other.ID = 2
	other.Email = "otro@example.com"

	fixture := newRunnerFixture(t, map[entities.Source]sources.Adapter{entities.SourceUrbania: adapter},
		[]entities.Source{entities.SourceUrbania}, validAlert(), other)

	summary := fixture.runner.RunOne(context.Background(), 1, true)

	assert.Equal(t, 1, summary.AlertsProcessed)
	assert.Len(t, fixture.notifier.digests, 1)
	assert.Equal(t, "ana@example.com", fixture.notifier.digests[0].Recipient)
}

func Test_AlertRunner_FreshListings_ShouldPublishFoundEvents(t *testing.T) {

	adapter := &scriptedAdapter{source: entities.SourceUrbania, pages: [][]entities.Listing{
		{listingWith("https://urbania.pe/u1", "f1"), listingWith("https://urbania.pe/u2", "f2")},
	}}
	fixture := newRunnerFixture(t, map[entities.Source]sources.Adapter{entities.SourceUrbania: adapter},
		[]entities.Source{entities.SourceUrbania}, validAlert())

	var found []events.ListingFound
	err := fixture.bus.Subscribe(events.ListingFoundTopic, func(event events.ListingFound) {
		found = append(found, event)
	})
	assert.NoError(t, err)

	fixture.runner.RunAll(context.Background(), true)

	assert.Len(t, found, 2)
	assert.Equal(t, entities.SourceUrbania, found[0].Source)
}
