package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ScraperKind selects the orchestration variant of a scraper.
type ScraperKind string

const (
	// KindPage scrapes a single page and finds-or-creates one entity per record.
	KindPage ScraperKind = "scraper"
	// KindItem repeats the page flow once per related object.
	KindItem ScraperKind = "item"
	// KindInfo enriches existing entities from their own detail pages.
	KindInfo ScraperKind = "info"
)

// ScraperConfig is the persisted configuration of one scraper.
type ScraperConfig struct {
	ID           int64
	CouncilID    int64
	Kind         ScraperKind
	URL          string
	ResultModel  EntityKind
	RelatedModel EntityKind
	Parser       ParserConfig
}

// ParserConfig is the parsing recipe owned by a single ScraperConfig.
type ParserConfig struct {
	Kind         string            `yaml:"kind"`
	ItemSelector string            `yaml:"itemSelector,omitempty"`
	Fields       []FieldRule       `yaml:"fields,omitempty"`
	Options      map[string]string `yaml:"options,omitempty"`
}

// FieldRule extracts one record field from a parsed item.
type FieldRule struct {
	Name       string `yaml:"name"`
	Selector   string `yaml:"selector,omitempty"`
	Attr       string `yaml:"attr,omitempty"`
	Pattern    string `yaml:"pattern,omitempty"`
	TrimPrefix string `yaml:"trimPrefix,omitempty"`
}

// EffectiveKind defaults an unset kind to KindPage.
func (s ScraperConfig) EffectiveKind() ScraperKind {
	if s.Kind == "" {
		return KindPage
	}
	return s.Kind
}

// EffectiveRelatedModel is the related model used at run time; info scrapers default it to the result model.
func (s ScraperConfig) EffectiveRelatedModel() EntityKind {
	if s.RelatedModel == "" && s.EffectiveKind() == KindInfo {
		return s.ResultModel
	}
	return s.RelatedModel
}

// Validate returns every configuration problem joined together, or nil.
func (s ScraperConfig) Validate() error {
	var errs []error
	if s.CouncilID == 0 {
		errs = append(errs, ErrMissingCouncil)
	}

	switch {
	case s.ResultModel == "":
		errs = append(errs, ErrMissingResultModel)
	case !s.ResultModel.Allowed():
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownResultModel, s.ResultModel))
	}

	if s.RelatedModel != "" && !s.RelatedModel.Allowed() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownRelatedModel, s.RelatedModel))
	}

	switch s.EffectiveKind() {
	case KindPage:
		if strings.TrimSpace(s.URL) == "" {
			errs = append(errs, ErrMissingURL)
		}
	case KindItem:
		if s.RelatedModel == "" && strings.TrimSpace(s.URL) == "" {
			errs = append(errs, ErrMissingURL)
		}
	case KindInfo:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownScraperKind, s.Kind))
	}

	return errors.Join(errs...)
}

// Title names the scraper for reports, e.g. "Member scraper for Anytown council".
func (s ScraperConfig) Title(council Council) string {
	return fmt.Sprintf("%s scraper for %s council", s.ResultModel, council.Name)
}

// ScrapingFor describes the scraper target, e.g. "Members from http://...".
// Scrapers without a url read each related object's own page.
func (s ScraperConfig) ScrapingFor() string {
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Sprintf("%ss from %s pages", s.ResultModel, s.EffectiveRelatedModel())
	}
	return fmt.Sprintf("%ss from %s", s.ResultModel, s.URL)
}
