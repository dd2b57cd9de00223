package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/ports"
)

// Registry names of the London Assembly parsers.
const (
	KindGLAMembers    = "gla_members"
	KindGLAMember     = "gla_member"
	KindGLACommittees = "gla_committees"
	KindGLACommittee  = "gla_committee"
)

var (
	telephoneExpr = regexp.MustCompile(`(?i)tel(?:ephone)?\s*:?\s*(\+?[0-9][0-9 ]{8,}[0-9])`)
	amSuffixExpr  = regexp.MustCompile(`\s+AM$`)
)

// GLAMembersParser reads the assembly members list: one table row per member with the name
// link, constituency (blank for londonwide members) and party.
type GLAMembersParser struct{}

var _ ports.Parser = GLAMembersParser{}

func (GLAMembersParser) Parse(raw []byte) ([]domain.Record, error) {
	doc, err := document(raw)
	if err != nil {
		return nil, err
	}

	var records []domain.Record
	doc.Find("table.members tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		link := cells.Eq(0).Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		var rec domain.Record
		setIfPresent(&rec, "full_name", amSuffixExpr.ReplaceAllString(normalizeText(link.Text()), ""))
		setIfPresent(&rec, "constituency", normalizeText(cells.Eq(1).Text()))
		setIfPresent(&rec, "party", normalizeText(cells.Eq(2).Text()))
		setIfPresent(&rec, "url", href)
		records = append(records, rec)
	})
	return records, nil
}

// GLAMemberParser reads a member's detail page for contact details.
type GLAMemberParser struct{}

var _ ports.Parser = GLAMemberParser{}

func (GLAMemberParser) Parse(raw []byte) ([]domain.Record, error) {
	doc, err := document(raw)
	if err != nil {
		return nil, err
	}

	contact := doc.Find("#content")
	if contact.Length() == 0 {
		contact = doc.Selection
	}

	var rec domain.Record
	if href, ok := contact.Find(`a[href^="mailto:"]`).First().Attr("href"); ok {
		setIfPresent(&rec, "email", strings.TrimPrefix(href, "mailto:"))
	}
	if m := telephoneExpr.FindStringSubmatch(normalizeText(contact.Text())); m != nil {
		setIfPresent(&rec, "telephone", m[1])
	}

	if rec.Len() == 0 {
		return nil, nil
	}
	return []domain.Record{rec}, nil
}

// GLACommitteesParser reads the committees index: every link into a committee's meetings
// directory ("audit_panel_mtgs/index.jsp") is one committee. Repeated links are read once.
type GLACommitteesParser struct{}

var _ ports.Parser = GLACommitteesParser{}

func (GLACommitteesParser) Parse(raw []byte) ([]domain.Record, error) {
	doc, err := document(raw)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var records []domain.Record
	doc.Find(`a[href*="_mtgs/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		title := normalizeText(a.Text())
		if title == "" || seen[href] {
			return
		}
		seen[href] = true

		var rec domain.Record
		setIfPresent(&rec, "title", title)
		setIfPresent(&rec, "url", href)
		records = append(records, rec)
	})
	return records, nil
}

// GLACommitteeParser reads a committee's meetings page for its title and the introductory
// paragraph used as description.
type GLACommitteeParser struct{}

var _ ports.Parser = GLACommitteeParser{}

func (GLACommitteeParser) Parse(raw []byte) ([]domain.Record, error) {
	doc, err := document(raw)
	if err != nil {
		return nil, err
	}

	content := doc.Find("#content")
	if content.Length() == 0 {
		content = doc.Selection
	}

	var rec domain.Record
	setIfPresent(&rec, "title", normalizeText(content.Find("h1").First().Text()))
	content.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := normalizeText(p.Text())
		if text == "" {
			return true
		}
		setIfPresent(&rec, "description", text)
		return false
	})

	if rec.Len() == 0 {
		return nil, nil
	}
	return []domain.Record{rec}, nil
}
