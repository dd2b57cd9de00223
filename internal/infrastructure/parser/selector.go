package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/ports"
)

// KindSelector is the registry name of SelectorParser.
const KindSelector = "selector"

// SelectorParser extracts one record per item matched by a CSS selector, using field rules.
type SelectorParser struct {
	itemSelector string
	rules        []selectorRule
}

type selectorRule struct {
	domain.FieldRule
	pattern *regexp.Regexp
}

var _ ports.Parser = (*SelectorParser)(nil)

// NewSelectorParser compiles the recipe; it needs an item selector and at least one named field.
func NewSelectorParser(cfg domain.ParserConfig) (*SelectorParser, error) {
	if strings.TrimSpace(cfg.ItemSelector) == "" {
		return nil, errors.New("item selector is required")
	}
	if len(cfg.Fields) == 0 {
		return nil, errors.New("at least one field rule is required")
	}

	rules := make([]selectorRule, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		if f.Name == "" {
			return nil, errors.New("field rule without name")
		}
		rule := selectorRule{FieldRule: f}
		if f.Pattern != "" {
			re, err := regexp.Compile(f.Pattern)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			rule.pattern = re
		}
		rules = append(rules, rule)
	}

	return &SelectorParser{itemSelector: cfg.ItemSelector, rules: rules}, nil
}

// Parse returns one record per matched item, skipping items where no field matched.
func (p *SelectorParser) Parse(raw []byte) ([]domain.Record, error) {
	doc, err := document(raw)
	if err != nil {
		return nil, err
	}

	var records []domain.Record
	doc.Find(p.itemSelector).Each(func(_ int, item *goquery.Selection) {
		var rec domain.Record
		for _, rule := range p.rules {
			setIfPresent(&rec, rule.Name, rule.extract(item))
		}
		if rec.Len() > 0 {
			records = append(records, rec)
		}
	})
	return records, nil
}

func (r selectorRule) extract(item *goquery.Selection) string {
	sel := item
	if r.Selector != "" {
		sel = item.Find(r.Selector).First()
	}
	if sel.Length() == 0 {
		return ""
	}

	var value string
	if r.Attr != "" {
		value, _ = sel.Attr(r.Attr)
	} else {
		value = normalizeText(sel.Text())
	}

	value = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), r.TrimPrefix))
	if r.pattern != nil {
		m := r.pattern.FindStringSubmatch(value)
		switch {
		case m == nil:
			return ""
		case len(m) > 1:
			value = m[1]
		default:
			value = m[0]
		}
	}
	return strings.TrimSpace(value)
}
