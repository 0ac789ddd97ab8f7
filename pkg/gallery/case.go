// Package gallery defines the domain model for before/after gallery
// cases as returned by the upstream gallery API.
package gallery

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// CaseRecord is a single gallery case (one before/after photo set).
// Records are immutable once cached; a new sync overwrites rather than
// mutates.
type CaseRecord struct {
	// CaseID is the stable upstream identifier.
	CaseID int64 `json:"case_id"`

	// ProcedureIDs lists the procedures this case is filed under.
	ProcedureIDs []int64 `json:"procedure_ids"`

	// MemberID is the practitioner the case belongs to (0 if unset).
	MemberID int64 `json:"member_id"`

	// Images are the photo URLs in display order.
	Images []string `json:"images"`

	// Nudity marks cases that require a consent interstitial.
	Nudity bool `json:"nudity"`

	// Raw preserves the upstream payload verbatim for fields the
	// typed model does not carry.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// CaseList is one page of a filtered case listing.
type CaseList struct {
	Cases      []CaseRecord `json:"cases"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
}

// Find returns the record with the given ID, or nil.
func (l *CaseList) Find(caseID int64) *CaseRecord {
	if l == nil {
		return nil
	}
	for i := range l.Cases {
		if l.Cases[i].CaseID == caseID {
			return &l.Cases[i]
		}
	}
	return nil
}

// Query describes the selection parameters of a case listing. The zero
// value is the unfiltered "all cases" context.
type Query struct {
	ProcedureIDs []int64
	MemberID     int64
	Page         int
	PropertyID   int64
}

// IsUnfiltered reports whether the query selects the full case set.
func (q Query) IsUnfiltered() bool {
	return len(q.ProcedureIDs) == 0 && q.MemberID == 0 && q.Page == 0 && q.PropertyID == 0
}

// Params returns the canonical scalar parameter map consumed by the
// cache key builder. Zero/empty values are omitted so that equivalent
// queries always produce the same map.
func (q Query) Params() map[string]string {
	params := make(map[string]string, 4)
	if len(q.ProcedureIDs) > 0 {
		ids := make([]int64, len(q.ProcedureIDs))
		copy(ids, q.ProcedureIDs)
		slices.Sort(ids)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.FormatInt(id, 10)
		}
		params["procedure_ids"] = strings.Join(parts, ",")
	}
	if q.MemberID > 0 {
		params["member_id"] = strconv.FormatInt(q.MemberID, 10)
	}
	if q.Page > 0 {
		params["page"] = strconv.Itoa(q.Page)
	}
	if q.PropertyID > 0 {
		params["property_id"] = strconv.FormatInt(q.PropertyID, 10)
	}
	return params
}
