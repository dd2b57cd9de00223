package domain

import (
	"strconv"
	"strings"
)

// Committee is a standing body of a council.
type Committee struct {
	Validation

	ID          int64
	CouncilID   int64
	UID         string
	URL         string
	Title       string
	Description string
	// MemberID is the member whose page listed this committee; 0 when unset.
	MemberID int64
}

var _ Entity = (*Committee)(nil)

func (c *Committee) Kind() EntityKind  { return KindCommittee }
func (c *Committee) EntityID() int64   { return c.ID }
func (c *Committee) CouncilRef() int64 { return c.CouncilID }
func (c *Committee) Key() string       { return c.UID }
func (c *Committee) SetKey(key string) { c.UID = key }
func (c *Committee) Persisted() bool   { return c.ID != 0 }

func (c *Committee) Assign(field, value string) bool {
	switch field {
	case "uid":
		c.UID = strings.TrimSpace(value)
	case "url":
		c.URL = value
	case "title":
		c.Title = value
	case "description":
		c.Description = value
	case "council_id":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return false
		}
		c.CouncilID = id
	case "member_id":
		id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return false
		}
		c.MemberID = id
	default:
		return false
	}
	return true
}

func (c *Committee) Field(name string) (string, bool) {
	switch name {
	case "id":
		return strconv.FormatInt(c.ID, 10), true
	case "council_id":
		return strconv.FormatInt(c.CouncilID, 10), true
	case "member_id":
		return strconv.FormatInt(c.MemberID, 10), true
	case "uid":
		return c.UID, true
	case "url":
		return c.URL, true
	case "title":
		return c.Title, true
	case "description":
		return c.Description, true
	}
	return "", false
}

// Validate requires an owning council, a uid and a title.
func (c *Committee) Validate() bool {
	errs := c.reset()
	if c.CouncilID == 0 {
		errs.Add("council_id", "can't be blank")
	}
	requirePresent(errs, "uid", c.UID)
	requirePresent(errs, "title", c.Title)
	return errs.Empty()
}
