package domain

import (
	"net/url"
	"path"
	"sort"
	"strings"
)

// EntityKind names a result-entity type.
type EntityKind string

const (
	KindMember    EntityKind = "Member"
	KindCommittee EntityKind = "Committee"
)

// AllowedKinds is the allow-list of result-entity types.
var AllowedKinds = []EntityKind{KindMember, KindCommittee}

// Allowed reports whether k is in AllowedKinds.
func (k EntityKind) Allowed() bool {
	for _, allowed := range AllowedKinds {
		if k == allowed {
			return true
		}
	}
	return false
}

// ForeignKey is the record field used to tag a record with an object of this kind, e.g. "member_id".
func (k EntityKind) ForeignKey() string {
	return strings.ToLower(string(k)) + "_id"
}

// Entity is a persisted domain object a scraper can create or update.
type Entity interface {
	Kind() EntityKind
	EntityID() int64
	CouncilRef() int64
	Key() string
	SetKey(key string)
	// Assign sets a field by its record name and reports whether the entity knows the field.
	Assign(field, value string) bool
	// Field exposes a field by its record name, used for URL templates.
	Field(name string) (string, bool)
	Validate() bool
	Errors() ValidationErrors
	Persisted() bool
}

// NewEntity builds an empty, unsaved entity of kind for council.
func NewEntity(kind EntityKind, councilID int64) (Entity, bool) {
	switch kind {
	case KindMember:
		return &Member{CouncilID: councilID}, true
	case KindCommittee:
		return &Committee{CouncilID: councilID}, true
	default:
		return nil, false
	}
}

// KeyFromRecord returns the uniqueness key of a record: an explicit uid, else one derived from url.
func KeyFromRecord(r Record) string {
	if uid, ok := r.Get("uid"); ok && strings.TrimSpace(uid) != "" {
		return strings.TrimSpace(uid)
	}
	if raw, ok := r.Get("url"); ok {
		return KeyFromURL(raw)
	}
	return ""
}

// KeyFromURL derives a stable uid from the last path segment of raw, without its extension.
// "members/colemanb.jsp" becomes "colemanb". Query values are appended in key order so
// "mgUserInfo.aspx?UID=101" becomes "mgUserInfo_101".
func KeyFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	p := raw
	var query url.Values
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
		query = u.Query()
	}
	p = strings.TrimSuffix(p, "/")
	base := path.Base(p)
	if base == "." || base == "/" {
		base = ""
	}
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "index" {
		// directory style urls ("audit_panel_mtgs/index.jsp") are named by their parent
		if parent := path.Base(path.Dir(p)); parent != "." && parent != "/" {
			base = parent
		}
	}
	return joinKey(base, queryValues(query))
}

func queryValues(query url.Values) []string {
	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)

	var values []string
	for _, name := range names {
		for _, v := range query[name] {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

func joinKey(base string, values []string) string {
	parts := make([]string, 0, len(values)+1)
	if base != "" {
		parts = append(parts, base)
	}
	parts = append(parts, values...)
	return strings.Join(parts, "_")
}
