package gallery

import (
	"testing"
)

func TestQuery_Params_OmitsZeroValues(t *testing.T) {
	params := Query{}.Params()
	if len(params) != 0 {
		t.Errorf("empty query should produce no params, got %v", params)
	}
}

func TestQuery_Params_SortsProcedureIDs(t *testing.T) {
	p1 := Query{ProcedureIDs: []int64{3405, 12, 99}}.Params()
	p2 := Query{ProcedureIDs: []int64{99, 3405, 12}}.Params()

	if p1["procedure_ids"] != p2["procedure_ids"] {
		t.Errorf("procedure id order should not matter: %q vs %q",
			p1["procedure_ids"], p2["procedure_ids"])
	}
	if p1["procedure_ids"] != "12,99,3405" {
		t.Errorf("procedure_ids = %q, want sorted %q", p1["procedure_ids"], "12,99,3405")
	}
}

func TestQuery_Params_AllFields(t *testing.T) {
	q := Query{
		ProcedureIDs: []int64{3405},
		MemberID:     7,
		Page:         2,
		PropertyID:   11,
	}
	params := q.Params()

	want := map[string]string{
		"procedure_ids": "3405",
		"member_id":     "7",
		"page":          "2",
		"property_id":   "11",
	}
	for name, value := range want {
		if params[name] != value {
			t.Errorf("params[%q] = %q, want %q", name, params[name], value)
		}
	}
	if len(params) != len(want) {
		t.Errorf("params has %d entries, want %d", len(params), len(want))
	}
}

func TestQuery_IsUnfiltered(t *testing.T) {
	if !(Query{}).IsUnfiltered() {
		t.Error("zero query should be unfiltered")
	}
	if (Query{MemberID: 1}).IsUnfiltered() {
		t.Error("member filter should not be unfiltered")
	}
	if (Query{Page: 2}).IsUnfiltered() {
		t.Error("paged query should not be unfiltered")
	}
}

func TestCaseList_Find(t *testing.T) {
	list := &CaseList{Cases: []CaseRecord{
		{CaseID: 101},
		{CaseID: 102},
	}}

	if record := list.Find(102); record == nil || record.CaseID != 102 {
		t.Errorf("Find(102) = %v, want case 102", record)
	}
	if record := list.Find(999); record != nil {
		t.Errorf("Find(999) = %v, want nil", record)
	}

	var nilList *CaseList
	if record := nilList.Find(1); record != nil {
		t.Errorf("nil list Find = %v, want nil", record)
	}
}
