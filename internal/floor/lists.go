package floor

import "github.com/venuecraft/table-booking/internal/model"

// List operations for the wholesale JSON columns on an inventory row.  All
// of them are pure and idempotent so that handler retries and client
// double-submissions converge on the same state; the changed/added return
// values let callers report "already applied" instead of pretending a
// no-op did new work.

// ToggleClosed adds or removes a table from the closed list.  Closing an
// already-closed table or reopening an open one is a no-op; changed is
// false in that case.
func ToggleClosed(closed []string, table string, close bool) (out []string, changed bool) {
	idx := -1
	for i, t := range closed {
		if t == table {
			idx = i
			break
		}
	}
	if close {
		if idx >= 0 {
			return closed, false
		}
		return append(append([]string{}, closed...), table), true
	}
	if idx < 0 {
		return closed, false
	}
	out = append(out, closed[:idx]...)
	out = append(out, closed[idx+1:]...)
	return out, true
}

// samePair reports whether two pairs join the same two tables, ignoring
// order.
func samePair(a, b model.LinkedPair) bool {
	if a.SectionID == b.SectionID && a.Table == b.Table &&
		a.TargetSectionID == b.TargetSectionID && a.TargetTable == b.TargetTable {
		return true
	}
	return a.SectionID == b.TargetSectionID && a.Table == b.TargetTable &&
		a.TargetSectionID == b.SectionID && a.TargetTable == b.Table
}

// AddLink appends a pair unless the same unordered pair already exists.
// added is false when the link was already present; the desired end state
// holds either way.
func AddLink(pairs []model.LinkedPair, p model.LinkedPair) (out []model.LinkedPair, added bool) {
	for _, existing := range pairs {
		if samePair(existing, p) {
			return pairs, false
		}
	}
	return append(append([]model.LinkedPair{}, pairs...), p), true
}

// RemoveLinks strips every pair in which the given table participates.  A
// table should only ever be in one pair, but stale data may hold several;
// all of them are cleaned up.
func RemoveLinks(pairs []model.LinkedPair, sectionID uint64, table string) (out []model.LinkedPair, removed int) {
	out = make([]model.LinkedPair, 0, len(pairs))
	for _, p := range pairs {
		if (p.SectionID == sectionID && p.Table == table) ||
			(p.TargetSectionID == sectionID && p.TargetTable == table) {
			removed++
			continue
		}
		out = append(out, p)
	}
	return out, removed
}

// InvolvesTable reports whether the table participates in any pair of the
// event-wide list.
func InvolvesTable(pairs []model.LinkedPair, sectionID uint64, table string) bool {
	for _, p := range pairs {
		if (p.SectionID == sectionID && p.Table == table) ||
			(p.TargetSectionID == sectionID && p.TargetTable == table) {
			return true
		}
	}
	return false
}

// SetServers replaces the staff assignment for one table.  Passing an empty
// id list removes the entry.  Entries for other tables are preserved in
// order.
func SetServers(list []model.ServerAssignment, table string, userIDs []uint64) []model.ServerAssignment {
	out := make([]model.ServerAssignment, 0, len(list)+1)
	replaced := false
	for _, a := range list {
		if a.Table == table {
			if len(userIDs) > 0 && !replaced {
				out = append(out, model.ServerAssignment{Table: table, UserIDs: userIDs})
				replaced = true
			}
			continue
		}
		out = append(out, a)
	}
	if !replaced && len(userIDs) > 0 {
		out = append(out, model.ServerAssignment{Table: table, UserIDs: userIDs})
	}
	return out
}
