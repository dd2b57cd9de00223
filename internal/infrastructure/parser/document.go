package parser

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/parsing"
	"CouncilScraper/internal/ports"
)

// Register adds every built-in parser kind to reg.
func Register(reg *parsing.Registry) {
	reg.Register(KindSelector, func(cfg domain.ParserConfig) (ports.Parser, error) {
		return NewSelectorParser(cfg)
	})
	reg.Register(KindTable, func(cfg domain.ParserConfig) (ports.Parser, error) {
		return NewTableParser(cfg), nil
	})
	reg.Register(KindGLAMembers, func(domain.ParserConfig) (ports.Parser, error) {
		return GLAMembersParser{}, nil
	})
	reg.Register(KindGLAMember, func(domain.ParserConfig) (ports.Parser, error) {
		return GLAMemberParser{}, nil
	})
	reg.Register(KindGLACommittees, func(domain.ParserConfig) (ports.Parser, error) {
		return GLACommitteesParser{}, nil
	})
	reg.Register(KindGLACommittee, func(domain.ParserConfig) (ports.Parser, error) {
		return GLACommitteeParser{}, nil
	})
}

func document(raw []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, domain.NewParsingError("problem parsing page", err)
	}
	return doc, nil
}

// normalizeText joins non-blank lines of input with single spaces.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// setIfPresent adds a field only when value is not blank, so absent values never overwrite.
func setIfPresent(r *domain.Record, name, value string) {
	if value = strings.TrimSpace(value); value != "" {
		r.Set(name, value)
	}
}
