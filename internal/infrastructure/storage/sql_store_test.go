package storage

import (
	"context"
	"errors"
	"strconv"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"CouncilScraper/internal/config"
	"CouncilScraper/internal/domain"
)

// setupTestStore creates a migrated in-memory SQLite store.
func setupTestStore(t *testing.T) *SQLStore {
	t.Helper()

	store, err := Open(context.Background(), config.DatabaseConfig{Driver: DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func mustCouncil(t *testing.T, store *SQLStore, name string) domain.Council {
	t.Helper()
	c := &domain.Council{Name: name, URL: "http://www.anytown.gov.uk/"}
	if err := store.SaveCouncil(context.Background(), c); err != nil {
		t.Fatalf("SaveCouncil(%s): %v", name, err)
	}
	return *c
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestSaveCouncilValidatesNameUniqueness(t *testing.T) {
	t.Parallel()

	store := setupTestStore(t)
	ctx := context.Background()
	anytown := mustCouncil(t, store, "Anytown")

	dup := &domain.Council{Name: "Anytown"}
	err := store.SaveCouncil(ctx, dup)
	var verrs domain.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs.On("name")) == 0 {
		t.Fatalf("expected name validation error, got %v", err)
	}

	blank := &domain.Council{}
	if err := store.SaveCouncil(ctx, blank); err == nil {
		t.Fatal("expected blank name to be rejected")
	}

	anytown.WikipediaURL = "http://en.wikipedia.org/wiki/Anytown"
	if err := store.SaveCouncil(ctx, &anytown); err != nil {
		t.Fatalf("updating a council must not clash with itself: %v", err)
	}

	got, err := store.CouncilByName(ctx, "Anytown")
	if err != nil {
		t.Fatalf("CouncilByName: %v", err)
	}
	if diff := cmp.Diff(anytown, got, cmpopts.IgnoreUnexported(domain.Council{})); diff != "" {
		t.Fatalf("council mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.Council(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScrapersRoundTripParserConfig(t *testing.T) {
	t.Parallel()

	store := setupTestStore(t)
	ctx := context.Background()
	council := mustCouncil(t, store, "Anytown")

	cfg := &domain.ScraperConfig{
		CouncilID:   council.ID,
		URL:         "members.html",
		ResultModel: domain.KindMember,
		Parser: domain.ParserConfig{
			Kind:         "selector",
			ItemSelector: "li.member",
			Fields: []domain.FieldRule{
				{Name: "full_name", Selector: "a"},
				{Name: "url", Selector: "a", Attr: "href"},
			},
		},
	}
	if err := store.SaveScraper(ctx, cfg); err != nil {
		t.Fatalf("SaveScraper: %v", err)
	}
	info := &domain.ScraperConfig{CouncilID: council.ID, Kind: domain.KindInfo, ResultModel: domain.KindMember,
		Parser: domain.ParserConfig{Kind: "gla_member"}}
	if err := store.SaveScraper(ctx, info); err != nil {
		t.Fatalf("SaveScraper(info): %v", err)
	}

	bad := &domain.ScraperConfig{CouncilID: council.ID, URL: "x", ResultModel: "User"}
	if err := store.SaveScraper(ctx, bad); !errors.Is(err, domain.ErrUnknownResultModel) {
		t.Fatalf("expected allow-list rejection, got %v", err)
	}

	got, err := store.ScrapersForCouncil(ctx, council.ID)
	if err != nil {
		t.Fatalf("ScrapersForCouncil: %v", err)
	}
	cfg.Kind = domain.KindPage
	want := []domain.ScraperConfig{*cfg, *info}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("scrapers mismatch (-want +got):\n%s", diff)
	}
}

func TestFindOrBuildAndSave(t *testing.T) {
	t.Parallel()

	store := setupTestStore(t)
	ctx := context.Background()
	council := mustCouncil(t, store, "Anytown")
	other := mustCouncil(t, store, "Othertown")

	entity, err := store.FindOrBuild(ctx, council.ID, domain.KindMember, "fred")
	if err != nil {
		t.Fatalf("FindOrBuild: %v", err)
	}
	if entity.Persisted() || entity.Key() != "fred" || entity.CouncilRef() != council.ID {
		t.Fatalf("expected new member for fred, got %+v", entity)
	}

	entity.Assign("full_name", "Fred Flintstone")
	if err := store.Save(ctx, entity); err != nil {
		t.Fatalf("Save: %v", err)
	}
	id := entity.EntityID()

	found, err := store.FindOrBuild(ctx, council.ID, domain.KindMember, "fred")
	if err != nil {
		t.Fatalf("FindOrBuild: %v", err)
	}
	if found.EntityID() != id {
		t.Fatalf("expected stored member %d, got %d", id, found.EntityID())
	}

	found.Assign("party", "Green")
	if err := store.Save(ctx, found); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	elsewhere, _ := store.FindOrBuild(ctx, other.ID, domain.KindMember, "fred")
	if elsewhere.Persisted() {
		t.Fatal("uniqueness key must be scoped to the council")
	}

	related, err := store.RelatedObjects(ctx, council.ID, domain.KindMember)
	if err != nil {
		t.Fatalf("RelatedObjects: %v", err)
	}
	want := []domain.Entity{&domain.Member{ID: id, CouncilID: council.ID, UID: "fred", FullName: "Fred Flintstone", Party: "Green"}}
	if diff := cmp.Diff(want, related, cmpopts.IgnoreUnexported(domain.Validation{})); diff != "" {
		t.Fatalf("related mismatch (-want +got):\n%s", diff)
	}

	committee, _ := store.FindOrBuild(ctx, council.ID, domain.KindCommittee, "audit_panel")
	committee.Assign("title", "Audit Panel")
	committee.Assign("member_id", strconv.FormatInt(id, 10))
	if err := store.Save(ctx, committee); err != nil {
		t.Fatalf("Save committee: %v", err)
	}
	committees, _ := store.RelatedObjects(ctx, council.ID, domain.KindCommittee)
	if len(committees) != 1 || committees[0].Key() != "audit_panel" {
		t.Fatalf("unexpected committees: %v", committees)
	}
	if got := committees[0].(*domain.Committee).MemberID; got != id {
		t.Fatalf("expected committee linked to member %d, got %d", id, got)
	}

	if _, err := store.RelatedObjects(ctx, council.ID, "User"); err == nil {
		t.Fatal("expected unknown kind error")
	}
}

func TestPlaceholderFormatFollowsDriver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver string
		want   string
	}{
		{driver: DriverPostgres, want: "SELECT id FROM members WHERE uid = $1"},
		{driver: DriverSQLite, want: "SELECT id FROM members WHERE uid = ?"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			t.Parallel()

			query, args, err := New(nil, tt.driver).sb.Select("id").From("members").Where(sq.Eq{"uid": "fred"}).ToSql()
			if err != nil {
				t.Fatalf("ToSql: %v", err)
			}
			if query != tt.want || len(args) != 1 {
				t.Fatalf("got %q %v, want %q", query, args, tt.want)
			}
		})
	}
}

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		":memory:":                      ":memory:?_pragma=foreign_keys(1)",
		"councils.db?_txlock=immediate": "councils.db?_txlock=immediate&_pragma=foreign_keys(1)",
		"x.db?_pragma=foreign_keys(0)":  "x.db?_pragma=foreign_keys(0)",
	}
	for in, want := range tests {
		if got := sqliteDSN(in); got != want {
			t.Fatalf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}

	store := setupTestStore(t)
	orphan := &domain.ScraperConfig{CouncilID: 999, URL: "members.html", ResultModel: domain.KindMember}
	if err := store.SaveScraper(context.Background(), orphan); err == nil {
		t.Fatal("expected foreign key violation for unknown council")
	}
}
