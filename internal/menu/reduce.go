package menu

import "sort"

// ViewState is the render-ready projection of a collection snapshot plus
// the active category filter. It is recomputed from scratch on every
// snapshot or filter change; nothing in it aliases the raw input slice.
type ViewState struct {
	// Available holds every product with Available == true, in snapshot order.
	Available []Product

	// Categories is the sorted set of distinct category names among the
	// available products, with CategoryAll always prepended.
	Categories []string

	// ActiveCategory is the filter the view was reduced under.
	ActiveCategory string

	// Grouped maps category name to the products shown under it, restricted
	// to ActiveCategory and preserving snapshot order within each group.
	Grouped map[string][]Product

	// GroupOrder lists Grouped's keys in lexicographic order, so rendering
	// is deterministic without re-sorting at the call site.
	GroupOrder []string
}

// Empty reports whether the view qualifies for the empty display state:
// no available products at all, regardless of how many unavailable
// products the snapshot carried.
func (v ViewState) Empty() bool {
	return len(v.Available) == 0
}

// Reduce converts a raw snapshot product list and the active category filter
// into a ViewState. It is a pure function: identical inputs yield
// structurally equal output, and raw is never mutated.
func Reduce(raw []Product, activeCategory string) ViewState {
	if activeCategory == "" {
		activeCategory = CategoryAll
	}

	available := make([]Product, 0, len(raw))
	for _, p := range raw {
		if p.Available {
			available = append(available, p)
		}
	}

	// Distinct non-empty categories, sorted, with "All" forced to the front.
	seen := make(map[string]struct{})
	categories := []string{CategoryAll}
	for _, p := range available {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories[1:])

	grouped := make(map[string][]Product)
	var order []string
	for _, p := range available {
		cat := p.DisplayCategory()
		if activeCategory != CategoryAll && cat != activeCategory {
			continue
		}
		if _, ok := grouped[cat]; !ok {
			order = append(order, cat)
		}
		grouped[cat] = append(grouped[cat], p)
	}
	sort.Strings(order)

	return ViewState{
		Available:      available,
		Categories:     categories,
		ActiveCategory: activeCategory,
		Grouped:        grouped,
		GroupOrder:     order,
	}
}
