package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"CouncilScraper/internal/config"
	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/infrastructure/parser"
	"CouncilScraper/internal/infrastructure/storage"
	"CouncilScraper/internal/parsing"
)

const (
	assemblyURL = "http://www.london.gov.uk/assembly/"

	membersPage = `
	<table class="members">
	  <tr><th>Member</th><th>Constituency</th><th>Party</th></tr>
	  <tr><td><a href="members/colemanb.jsp">Brian Coleman AM</a></td><td>Barnet &amp; Camden</td><td>Conservative</td></tr>
	  <tr><td><a href="members/tuffreym.jsp">Mike Tuffrey AM</a></td><td></td><td>Liberal Democrat</td></tr>
	</table>`

	committeesPage = `<div id="content"><ul><li><a href="audit_panel_mtgs/index.jsp">Audit Panel</a></li></ul></div>`

	auditPanelPage = `<div id="content"><h1>Audit Panel</h1><p>Reviews the Authority's audit arrangements.</p></div>`

	colemanPage = `<div id="content"><a href="mailto:brian.coleman@london.gov.uk">email</a> Telephone: 020 7983 4396</div>`
)

type pageFetcher struct {
	mu    sync.Mutex
	pages map[string]string
}

func (f *pageFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.pages[url]
	if !ok {
		return nil, domain.NewRequestError(url, 404, nil)
	}
	return []byte(body), nil
}

type recordingNotifier struct {
	digests []string
	err     error
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return n.err
}

func setupStore(t *testing.T) *storage.SQLStore {
	t.Helper()

	store, err := storage.Open(context.Background(), config.DatabaseConfig{Driver: storage.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func seedAssembly(t *testing.T, store *storage.SQLStore, extra ...domain.ScraperConfig) domain.Council {
	t.Helper()

	plan := SeedPlan{
		Council: domain.Council{Name: "London Assembly", URL: assemblyURL},
		Scrapers: append([]domain.ScraperConfig{
			{URL: "lams_facts_cont.jsp", ResultModel: domain.KindMember, Parser: domain.ParserConfig{Kind: parser.KindGLAMembers}},
			{Kind: domain.KindInfo, ResultModel: domain.KindMember, Parser: domain.ParserConfig{Kind: parser.KindGLAMember}},
		}, extra...),
	}

	seeder := NewSeeder(store, store, func(err error) bool { return errors.Is(err, storage.ErrNotFound) }, nil)
	if _, err := seeder.Seed(context.Background(), []SeedPlan{plan}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	council, err := store.CouncilByName(context.Background(), "London Assembly")
	if err != nil {
		t.Fatalf("CouncilByName: %v", err)
	}
	return council
}

func newTestRunner(store *storage.SQLStore, notifier *recordingNotifier) *Runner {
	registry := parsing.NewRegistry()
	parser.Register(registry)

	deps := RunnerDeps{
		Councils: store,
		Scrapers: store,
		Store:    store,
		Fetcher: &pageFetcher{pages: map[string]string{
			assemblyURL + "lams_facts_cont.jsp":        membersPage,
			assemblyURL + "members/colemanb.jsp":       colemanPage,
			assemblyURL + "committees.jsp":             committeesPage,
			assemblyURL + "audit_panel_mtgs/index.jsp": auditPanelPage,
		}},
		Parsers:     registry,
		Concurrency: 2,
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	return NewRunner(deps)
}

func TestRunCouncilScrapesAndEnriches(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	council := seedAssembly(t, store)
	notifier := &recordingNotifier{}

	reports, err := newTestRunner(store, notifier).RunCouncil(context.Background(), council.ID, true)
	if err != nil {
		t.Fatalf("RunCouncil: %v", err)
	}

	if len(reports) != 2 {
		t.Fatalf("expected two reports, got %+v", reports)
	}
	if reports[0].Title != "Member scraper for London Assembly council" || reports[0].Results != 2 || reports[0].Failed() {
		t.Fatalf("unexpected page report: %+v", reports[0])
	}
	if reports[1].Target != "Members from Member pages" {
		t.Fatalf("unexpected info target: %q", reports[1].Target)
	}
	if reports[1].Results != 1 || len(reports[1].Errors) != 1 || !strings.Contains(reports[1].Errors[0], "tuffreym") {
		t.Fatalf("info scraper must enrich coleman and report tuffreym's missing page: %+v", reports[1])
	}

	members, err := store.RelatedObjects(context.Background(), council.ID, domain.KindMember)
	if err != nil {
		t.Fatalf("RelatedObjects: %v", err)
	}
	want := []domain.Entity{
		&domain.Member{CouncilID: council.ID, UID: "colemanb", URL: "members/colemanb.jsp", FullName: "Brian Coleman",
			Party: "Conservative", Constituency: "Barnet & Camden", Email: "brian.coleman@london.gov.uk", Telephone: "020 7983 4396"},
		&domain.Member{CouncilID: council.ID, UID: "tuffreym", URL: "members/tuffreym.jsp", FullName: "Mike Tuffrey", Party: "Liberal Democrat"},
	}
	opts := cmp.Options{
		cmpopts.IgnoreUnexported(domain.Validation{}),
		cmpopts.IgnoreFields(domain.Member{}, "ID"),
	}
	if diff := cmp.Diff(want, members, opts); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}

	if len(notifier.digests) != 1 || !strings.Contains(notifier.digests[0], "- Member scraper for London Assembly council\nScraping: Members from lams_facts_cont.jsp\nResults: 2 (invalid 0)") {
		t.Fatalf("unexpected digests: %q", notifier.digests)
	}
}

func TestRunCouncilScrapesCommittees(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	council := seedAssembly(t, store,
		domain.ScraperConfig{URL: "committees.jsp", ResultModel: domain.KindCommittee, Parser: domain.ParserConfig{Kind: parser.KindGLACommittees}},
		domain.ScraperConfig{Kind: domain.KindInfo, ResultModel: domain.KindCommittee, Parser: domain.ParserConfig{Kind: parser.KindGLACommittee}},
	)

	reports, err := newTestRunner(store, nil).RunCouncil(context.Background(), council.ID, true)
	if err != nil {
		t.Fatalf("RunCouncil: %v", err)
	}
	if len(reports) != 4 || reports[2].Results != 1 || reports[3].Results != 1 || reports[3].Failed() {
		t.Fatalf("unexpected committee reports: %+v", reports)
	}

	committees, err := store.RelatedObjects(context.Background(), council.ID, domain.KindCommittee)
	if err != nil {
		t.Fatalf("RelatedObjects: %v", err)
	}
	want := []domain.Entity{&domain.Committee{CouncilID: council.ID, UID: "audit_panel_mtgs", URL: "audit_panel_mtgs/index.jsp",
		Title: "Audit Panel", Description: "Reviews the Authority's audit arrangements."}}
	opts := cmp.Options{
		cmpopts.IgnoreUnexported(domain.Validation{}),
		cmpopts.IgnoreFields(domain.Committee{}, "ID"),
	}
	if diff := cmp.Diff(want, committees, opts); diff != "" {
		t.Fatalf("committees mismatch (-want +got):\n%s", diff)
	}
}

func TestRunAllDryRunPersistsNothing(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	council := seedAssembly(t, store)

	reports, err := newTestRunner(store, nil).RunAll(context.Background(), false)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(reports) != 2 || reports[0].Results != 2 || reports[0].Saved {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	if reports[1].Results != 0 || reports[1].Failed() {
		t.Fatalf("info scraper has nothing to enrich on a dry run: %+v", reports[1])
	}

	members, _ := store.RelatedObjects(context.Background(), council.ID, domain.KindMember)
	if len(members) != 0 {
		t.Fatalf("dry run must not save, got %d members", len(members))
	}
}

func TestRunnerReportsBrokenScraperConfig(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	council := seedAssembly(t, store, domain.ScraperConfig{
		URL: "committees.jsp", ResultModel: domain.KindCommittee, Parser: domain.ParserConfig{Kind: "nonesuch"},
	})
	notifier := &recordingNotifier{err: errors.New("chat unavailable")}

	reports, err := newTestRunner(store, notifier).RunCouncil(context.Background(), council.ID, true)
	if err == nil || !strings.Contains(err.Error(), "publish digest") {
		t.Fatalf("expected notifier failure, got %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("a broken scraper must not stop the others: %+v", reports)
	}
	if !reports[2].Failed() || !strings.Contains(reports[2].Errors[0], "nonesuch") {
		t.Fatalf("expected unknown parser error, got %+v", reports[2])
	}
	if !strings.Contains(notifier.digests[0], "Error: ") {
		t.Fatalf("digest must list errors: %q", notifier.digests[0])
	}
}

func TestRunCouncilUnknownID(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	if _, err := newTestRunner(store, nil).RunCouncil(context.Background(), 42, false); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildDigest(t *testing.T) {
	t.Parallel()

	got := BuildDigest([]Report{
		{Title: "Member scraper for Anytown council", Target: "Members from members.html", Results: 3, Invalid: 1},
		{Title: "Committee scraper for Anytown council", Errors: []string{"problem getting data from URL: status 500"}},
	})
	want := "- Member scraper for Anytown council\nScraping: Members from members.html\nResults: 3 (invalid 1)\n\n" +
		"- Committee scraper for Anytown council\nResults: 0 (invalid 0)\nError: problem getting data from URL: status 500\n\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("digest mismatch (-want +got):\n%s", diff)
	}
}
