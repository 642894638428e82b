// Package floor computes the live state of every table in a section.  It is
// pure: callers load the inventory row, the closed/linked lists and the
// active bookings, and the resolver derives a per-table verdict with no side
// effects.  Handlers run it inside the same transaction that mutates
// bookings, which is what makes the result trustworthy for conflict checks;
// the cached available_tables counter is only an approximation of
// CountAvailable.
package floor

import (
	"strconv"

	"github.com/venuecraft/table-booking/internal/model"
)

// TableState is the resolver's verdict for a single table.  Exactly one
// state applies to any table at any time.
type TableState string

const (
	StateAvailable TableState = "AVAILABLE"
	StateBooked    TableState = "BOOKED"
	StateClosed    TableState = "CLOSED"
	StateLinked    TableState = "LINKED"
)

// Assignment is the slice of a booking the resolver cares about: which
// booking holds which table.  Callers must pass only non-cancelled,
// non-completed bookings with a non-nil table.
type Assignment struct {
	BookingID uint64
	Table     string
}

// TableNames returns the full name list for a section: the custom names
// when configured, otherwise "1".."N".  Custom name lists shorter than the
// table count are padded with numbers so a misconfigured section never
// hides tables.
func TableNames(tableCount int, custom []string) []string {
	if tableCount <= 0 {
		return nil
	}
	names := make([]string, 0, tableCount)
	for i := 0; i < tableCount; i++ {
		if i < len(custom) && custom[i] != "" {
			names = append(names, custom[i])
		} else {
			names = append(names, strconv.Itoa(i+1))
		}
	}
	return names
}

// Resolve derives the state of every table in one section.  Precedence:
// closed beats linked beats booked; anything else is available.  Linked
// pairs apply event-wide, so the caller passes the union of pairs across
// all sections of the event and Resolve matches on (sectionID, table).
func Resolve(sectionID uint64, names []string, closed []string, pairs []model.LinkedPair, active []Assignment) map[string]TableState {
	closedSet := make(map[string]struct{}, len(closed))
	for _, t := range closed {
		closedSet[t] = struct{}{}
	}
	linkedSet := make(map[string]struct{})
	for _, p := range pairs {
		if p.SectionID == sectionID {
			linkedSet[p.Table] = struct{}{}
		}
		if p.TargetSectionID == sectionID {
			linkedSet[p.TargetTable] = struct{}{}
		}
	}
	bookedSet := make(map[string]struct{}, len(active))
	for _, a := range active {
		bookedSet[a.Table] = struct{}{}
	}

	states := make(map[string]TableState, len(names))
	for _, name := range names {
		switch {
		case contains(closedSet, name):
			states[name] = StateClosed
		case contains(linkedSet, name):
			states[name] = StateLinked
		case contains(bookedSet, name):
			states[name] = StateBooked
		default:
			states[name] = StateAvailable
		}
	}
	return states
}

// Holder returns the booking occupying the given table, if any.  Used for
// the conflict check when assigning: a table booked by the same booking is
// not a conflict.
func Holder(active []Assignment, table string) (uint64, bool) {
	for _, a := range active {
		if a.Table == table {
			return a.BookingID, true
		}
	}
	return 0, false
}

// CountAvailable counts tables in StateAvailable.  The inventory counter is
// reconciled against this figure.
func CountAvailable(states map[string]TableState) int {
	n := 0
	for _, s := range states {
		if s == StateAvailable {
			n++
		}
	}
	return n
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
