package floor

import (
	"reflect"
	"testing"

	"github.com/venuecraft/table-booking/internal/model"
)

func TestToggleClosed(t *testing.T) {
	t.Parallel()

	t.Run("close adds once", func(t *testing.T) {
		out, changed := ToggleClosed([]string{"1"}, "2", true)
		if !changed || !reflect.DeepEqual(out, []string{"1", "2"}) {
			t.Errorf("got (%v, %v), want ([1 2], true)", out, changed)
		}
	})
	t.Run("closing a closed table is a no-op", func(t *testing.T) {
		out, changed := ToggleClosed([]string{"1", "2"}, "2", true)
		if changed || !reflect.DeepEqual(out, []string{"1", "2"}) {
			t.Errorf("got (%v, %v), want ([1 2], false)", out, changed)
		}
	})
	t.Run("reopen removes", func(t *testing.T) {
		out, changed := ToggleClosed([]string{"1", "2", "3"}, "2", false)
		if !changed || !reflect.DeepEqual(out, []string{"1", "3"}) {
			t.Errorf("got (%v, %v), want ([1 3], true)", out, changed)
		}
	})
	t.Run("reopening an open table is a no-op", func(t *testing.T) {
		out, changed := ToggleClosed([]string{"1"}, "9", false)
		if changed || !reflect.DeepEqual(out, []string{"1"}) {
			t.Errorf("got (%v, %v), want ([1], false)", out, changed)
		}
	})
	t.Run("input slice is not mutated", func(t *testing.T) {
		closed := []string{"1", "2"}
		ToggleClosed(closed, "3", true)
		if !reflect.DeepEqual(closed, []string{"1", "2"}) {
			t.Errorf("input mutated: %v", closed)
		}
	})
}

func TestAddLink(t *testing.T) {
	t.Parallel()

	pair := model.LinkedPair{SectionID: 1, Table: "2", TargetSectionID: 1, TargetTable: "3"}

	out, added := AddLink(nil, pair)
	if !added || len(out) != 1 {
		t.Fatalf("first add: got (%v, %v)", out, added)
	}
	if _, again := AddLink(out, pair); again {
		t.Error("adding the same pair twice reported added")
	}
	// Same pair with endpoints swapped is still the same link.
	reversed := model.LinkedPair{SectionID: 1, Table: "3", TargetSectionID: 1, TargetTable: "2"}
	if _, again := AddLink(out, reversed); again {
		t.Error("adding the reversed pair reported added")
	}
	// Same table names in a different section form a distinct pair.
	other := model.LinkedPair{SectionID: 2, Table: "2", TargetSectionID: 2, TargetTable: "3"}
	if out2, added := AddLink(out, other); !added || len(out2) != 2 {
		t.Errorf("distinct pair: got (%v, %v)", out2, added)
	}
}

func TestRemoveLinks(t *testing.T) {
	t.Parallel()

	pairs := []model.LinkedPair{
		{SectionID: 1, Table: "2", TargetSectionID: 1, TargetTable: "3"},
		{SectionID: 1, Table: "2", TargetSectionID: 2, TargetTable: "1"},
		{SectionID: 2, Table: "4", TargetSectionID: 1, TargetTable: "2"},
		{SectionID: 2, Table: "5", TargetSectionID: 2, TargetTable: "6"},
	}

	out, removed := RemoveLinks(pairs, 1, "2")
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if len(out) != 1 || out[0].Table != "5" {
		t.Errorf("remaining = %v, want only the (2,5)-(2,6) pair", out)
	}

	if _, removed := RemoveLinks(out, 1, "2"); removed != 0 {
		t.Errorf("second removal removed %d pairs", removed)
	}
}

func TestInvolvesTable(t *testing.T) {
	t.Parallel()

	pairs := []model.LinkedPair{{SectionID: 1, Table: "2", TargetSectionID: 2, TargetTable: "7"}}
	if !InvolvesTable(pairs, 1, "2") {
		t.Error("source endpoint not detected")
	}
	if !InvolvesTable(pairs, 2, "7") {
		t.Error("target endpoint not detected")
	}
	if InvolvesTable(pairs, 1, "7") {
		t.Error("table name matched across the wrong section")
	}
}

func TestSetServers(t *testing.T) {
	t.Parallel()

	list := []model.ServerAssignment{
		{Table: "1", UserIDs: []uint64{10}},
		{Table: "2", UserIDs: []uint64{11}},
	}

	t.Run("replace", func(t *testing.T) {
		out := SetServers(list, "2", []uint64{12, 13})
		if len(out) != 2 || !reflect.DeepEqual(out[1].UserIDs, []uint64{12, 13}) {
			t.Errorf("got %v", out)
		}
	})
	t.Run("add new table", func(t *testing.T) {
		out := SetServers(list, "3", []uint64{14})
		if len(out) != 3 || out[2].Table != "3" {
			t.Errorf("got %v", out)
		}
	})
	t.Run("empty ids removes entry", func(t *testing.T) {
		out := SetServers(list, "1", nil)
		if len(out) != 1 || out[0].Table != "2" {
			t.Errorf("got %v", out)
		}
	})
	t.Run("clearing an absent table is a no-op", func(t *testing.T) {
		out := SetServers(list, "9", nil)
		if !reflect.DeepEqual(out, list) {
			t.Errorf("got %v, want %v", out, list)
		}
	})
}
