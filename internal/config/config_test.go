package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
database:
  driver: postgres
  dsn: postgres://scraper@localhost/councils
logging:
  level: debug
fetcher:
  timeout: 5s
scraping:
  concurrency: 8
councils:
  - name: Anytown
    url: http://www.anytown.gov.uk/
    scrapers:
      - url: members.html
        resultModel: Member
        parser:
          kind: selector
          itemSelector: li.member
          fields:
            - name: full_name
              selector: a
            - name: url
              selector: a
              attr: href
`

func TestLoadMergesFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://override@db/councils")

	cfg := Load()

	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://override@db/councils" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Logging.Level)
	}
	if cfg.Fetcher.Timeout != 5*time.Second || cfg.Fetcher.UserAgent != "CouncilScraper/1.0" {
		t.Fatalf("unexpected fetcher config: %+v", cfg.Fetcher)
	}
	if cfg.Scraping.Concurrency != 8 {
		t.Fatalf("unexpected concurrency: %d", cfg.Scraping.Concurrency)
	}
	if cfg.Scheduler.Interval != 24*time.Hour {
		t.Fatalf("expected default interval, got %s", cfg.Scheduler.Interval)
	}

	if len(cfg.Councils) != 1 || len(cfg.Councils[0].Scrapers) != 1 {
		t.Fatalf("unexpected councils: %+v", cfg.Councils)
	}
	parser := cfg.Councils[0].Scrapers[0].Parser
	if parser.Kind != "selector" || len(parser.Fields) != 2 || parser.Fields[1].Attr != "href" {
		t.Fatalf("unexpected parser config: %+v", parser)
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()

	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite default, got %s", cfg.Database.Driver)
	}
	if len(cfg.Councils) == 0 {
		t.Fatal("expected default councils")
	}

	kinds := map[string]string{}
	for _, sc := range cfg.Councils[0].Scrapers {
		kinds[sc.Parser.Kind] = sc.ResultModel
	}
	if kinds["gla_committees"] != "Committee" || kinds["gla_committee"] != "Committee" {
		t.Fatalf("expected default committee scrapers, got %v", kinds)
	}
}
