package floor

import (
	"reflect"
	"testing"

	"github.com/venuecraft/table-booking/internal/model"
)

func TestTableNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		count  int
		custom []string
		want   []string
	}{
		{"numbered", 3, nil, []string{"1", "2", "3"}},
		{"custom", 2, []string{"Patio A", "Patio B"}, []string{"Patio A", "Patio B"}},
		{"short custom list padded", 3, []string{"VIP"}, []string{"VIP", "2", "3"}},
		{"blank entry padded", 3, []string{"VIP", "", "Booth"}, []string{"VIP", "2", "Booth"}},
		{"zero tables", 0, []string{"X"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TableNames(tt.count, tt.custom)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TableNames(%d, %v) = %v, want %v", tt.count, tt.custom, got, tt.want)
			}
		})
	}
}

func TestResolvePrecedence(t *testing.T) {
	t.Parallel()

	const sectionID = 7
	names := []string{"1", "2", "3", "4"}

	t.Run("closed beats booked", func(t *testing.T) {
		states := Resolve(sectionID, names,
			[]string{"2"},
			nil,
			[]Assignment{{BookingID: 10, Table: "2"}},
		)
		if states["2"] != StateClosed {
			t.Errorf("table 2 = %s, want CLOSED", states["2"])
		}
	})

	t.Run("linked beats booked", func(t *testing.T) {
		pairs := []model.LinkedPair{{SectionID: sectionID, Table: "3", TargetSectionID: sectionID, TargetTable: "4"}}
		states := Resolve(sectionID, names, nil, pairs, []Assignment{{BookingID: 11, Table: "3"}})
		if states["3"] != StateLinked {
			t.Errorf("table 3 = %s, want LINKED", states["3"])
		}
		if states["4"] != StateLinked {
			t.Errorf("table 4 = %s, want LINKED", states["4"])
		}
	})

	t.Run("booked otherwise", func(t *testing.T) {
		states := Resolve(sectionID, names, nil, nil, []Assignment{{BookingID: 12, Table: "1"}})
		if states["1"] != StateBooked {
			t.Errorf("table 1 = %s, want BOOKED", states["1"])
		}
		if states["2"] != StateAvailable {
			t.Errorf("table 2 = %s, want AVAILABLE", states["2"])
		}
	})

	t.Run("every table gets exactly one state", func(t *testing.T) {
		states := Resolve(sectionID, names,
			[]string{"1"},
			[]model.LinkedPair{{SectionID: sectionID, Table: "2", TargetSectionID: sectionID, TargetTable: "3"}},
			[]Assignment{{BookingID: 13, Table: "4"}},
		)
		if len(states) != len(names) {
			t.Fatalf("got %d states, want %d", len(states), len(names))
		}
		want := map[string]TableState{
			"1": StateClosed, "2": StateLinked, "3": StateLinked, "4": StateBooked,
		}
		for table, state := range want {
			if states[table] != state {
				t.Errorf("table %s = %s, want %s", table, states[table], state)
			}
		}
	})
}

func TestResolveCrossSectionLinks(t *testing.T) {
	t.Parallel()

	// A pair stored on section 1 excludes its endpoint in section 2 too.
	pairs := []model.LinkedPair{{SectionID: 1, Table: "5", TargetSectionID: 2, TargetTable: "1"}}

	states1 := Resolve(1, []string{"4", "5"}, nil, pairs, nil)
	if states1["5"] != StateLinked {
		t.Errorf("section 1 table 5 = %s, want LINKED", states1["5"])
	}
	if states1["4"] != StateAvailable {
		t.Errorf("section 1 table 4 = %s, want AVAILABLE", states1["4"])
	}

	states2 := Resolve(2, []string{"1", "2"}, nil, pairs, nil)
	if states2["1"] != StateLinked {
		t.Errorf("section 2 table 1 = %s, want LINKED", states2["1"])
	}
	// Same table name in an uninvolved section stays free.
	states3 := Resolve(3, []string{"1", "5"}, nil, pairs, nil)
	if states3["1"] != StateAvailable || states3["5"] != StateAvailable {
		t.Errorf("section 3 states = %v, want all AVAILABLE", states3)
	}
}

func TestHolder(t *testing.T) {
	t.Parallel()

	active := []Assignment{{BookingID: 21, Table: "2"}, {BookingID: 22, Table: "3"}}
	if id, ok := Holder(active, "3"); !ok || id != 22 {
		t.Errorf("Holder(3) = (%d, %v), want (22, true)", id, ok)
	}
	if _, ok := Holder(active, "1"); ok {
		t.Error("Holder(1) reported a holder for a free table")
	}
}

func TestCountAvailable(t *testing.T) {
	t.Parallel()

	states := Resolve(1, []string{"1", "2", "3", "4", "5"},
		[]string{"1"},
		[]model.LinkedPair{{SectionID: 1, Table: "2", TargetSectionID: 1, TargetTable: "3"}},
		[]Assignment{{BookingID: 30, Table: "4"}},
	)
	if got := CountAvailable(states); got != 1 {
		t.Errorf("CountAvailable = %d, want 1", got)
	}
}
