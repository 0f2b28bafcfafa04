package commit

import (
	"fmt"
	"sort"

	"dashgrid/internal/model"
	"dashgrid/internal/selection"
)

// ListCommitter relocates one item of an ordered list.
type ListCommitter struct{}

// Commit returns a new list with the item at m.From moved to m.To and every
// Order renumbered 0..n-1. The input slice is not modified. The change set
// holds the IDs whose Order changed.
func (ListCommitter) Commit(items []model.OrderedItem, m selection.ListMove) ([]model.OrderedItem, ChangeSet, error) {
	cur := SortByOrder(items)
	if m.From < 0 || m.From >= len(cur) {
		return nil, ChangeSet{}, OutOfRangeError{What: "from", Value: m.From, Len: len(cur)}
	}
	to := m.To
	if to < 0 {
		to = 0
	}
	if to > len(cur)-1 {
		to = len(cur) - 1
	}

	moved := cur[m.From]
	rest := make([]model.OrderedItem, 0, len(cur)-1)
	rest = append(rest, cur[:m.From]...)
	rest = append(rest, cur[m.From+1:]...)

	final := make([]model.OrderedItem, 0, len(cur))
	final = append(final, rest[:to]...)
	final = append(final, moved)
	final = append(final, rest[to:]...)

	before := map[string]int{}
	for _, it := range items {
		before[it.ID] = it.Order
	}
	changed := map[string]bool{}
	for i := range final {
		if before[final[i].ID] != i {
			changed[final[i].ID] = true
		}
		final[i].Order = i
	}
	return final, newChangeSet(changed, ""), nil
}

// SortByOrder returns a copy of items sorted by Order, then ID.
func SortByOrder(items []model.OrderedItem) []model.OrderedItem {
	out := append([]model.OrderedItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Renumber returns items in their current relative order with dense Order
// values. It repairs lists loaded from older or hand-edited snapshots.
func Renumber(items []model.OrderedItem) []model.OrderedItem {
	out := SortByOrder(items)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// CheckDense verifies that Order values are exactly 0..n-1 with unique IDs.
func CheckDense(items []model.OrderedItem) error {
	seenOrder := make([]bool, len(items))
	seenID := map[string]bool{}
	for _, it := range items {
		if it.Order < 0 || it.Order >= len(items) {
			return fmt.Errorf("order %d of %s out of range [0,%d)", it.Order, it.ID, len(items))
		}
		if seenOrder[it.Order] {
			return fmt.Errorf("duplicate order %d", it.Order)
		}
		if seenID[it.ID] {
			return fmt.Errorf("duplicate id %s", it.ID)
		}
		seenOrder[it.Order] = true
		seenID[it.ID] = true
	}
	return nil
}

// OrderedFromIDs builds a dense list from IDs in display order.
func OrderedFromIDs(ids []string) []model.OrderedItem {
	out := make([]model.OrderedItem, 0, len(ids))
	for i, id := range ids {
		out = append(out, model.OrderedItem{ID: id, Order: i})
	}
	return out
}

// IDs returns the IDs of items in Order.
func IDs(items []model.OrderedItem) []string {
	sorted := SortByOrder(items)
	out := make([]string, 0, len(sorted))
	for _, it := range sorted {
		out = append(out, it.ID)
	}
	return out
}
