package domain

import (
	"strconv"
	"strings"
)

// Member is a person sitting on a council.
type Member struct {
	Validation

	ID           int64
	CouncilID    int64
	UID          string
	URL          string
	FullName     string
	Party        string
	Constituency string
	Email        string
	Telephone    string
	// CommitteeID is the committee whose page listed this member; 0 when unset.
	CommitteeID int64
}

var _ Entity = (*Member)(nil)

func (m *Member) Kind() EntityKind  { return KindMember }
func (m *Member) EntityID() int64   { return m.ID }
func (m *Member) CouncilRef() int64 { return m.CouncilID }
func (m *Member) Key() string       { return m.UID }
func (m *Member) SetKey(key string) { m.UID = key }
func (m *Member) Persisted() bool   { return m.ID != 0 }

// Assign sets a field by its record name.
func (m *Member) Assign(field, value string) bool {
	switch field {
	case "uid":
		m.UID = strings.TrimSpace(value)
	case "url":
		m.URL = value
	case "full_name":
		m.FullName = value
	case "party":
		m.Party = value
	case "constituency":
		m.Constituency = value
	case "email":
		m.Email = value
	case "telephone":
		m.Telephone = value
	case "council_id":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return false
		}
		m.CouncilID = id
	case "committee_id":
		id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return false
		}
		m.CommitteeID = id
	default:
		return false
	}
	return true
}

// Field returns a field by its record name.
func (m *Member) Field(name string) (string, bool) {
	switch name {
	case "id":
		return strconv.FormatInt(m.ID, 10), true
	case "council_id":
		return strconv.FormatInt(m.CouncilID, 10), true
	case "committee_id":
		return strconv.FormatInt(m.CommitteeID, 10), true
	case "uid":
		return m.UID, true
	case "url":
		return m.URL, true
	case "full_name":
		return m.FullName, true
	case "party":
		return m.Party, true
	case "constituency":
		return m.Constituency, true
	case "email":
		return m.Email, true
	case "telephone":
		return m.Telephone, true
	}
	return "", false
}

// Validate requires an owning council, a uid and a name.
func (m *Member) Validate() bool {
	errs := m.reset()
	if m.CouncilID == 0 {
		errs.Add("council_id", "can't be blank")
	}
	requirePresent(errs, "uid", m.UID)
	requirePresent(errs, "full_name", m.FullName)
	return errs.Empty()
}
