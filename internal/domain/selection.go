package domain

// Selection holds the assets picked in a form, keyed by category name.
type Selection map[Category][]Asset

// Categories returns the categories with at least one selected asset, in
// canonical order.
func (s Selection) Categories() []Category {
	cats := make([]Category, 0, len(s))
	for c, items := range s {
		if len(items) > 0 {
			cats = append(cats, c)
		}
	}
	SortCategories(cats)
	return cats
}

// Total counts selected assets across categories.
func (s Selection) Total() int {
	n := 0
	for _, items := range s {
		n += len(items)
	}
	return n
}

// Only returns a selection restricted to the given categories.
func (s Selection) Only(cats ...Category) Selection {
	out := make(Selection, len(cats))
	for _, c := range cats {
		if items, ok := s[c]; ok {
			out[c] = items
		}
	}
	return out
}

// IDs returns the ids of the assets selected for c.
func (s Selection) IDs(c Category) []ID {
	items := s[c]
	ids := make([]ID, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ID)
	}
	return ids
}

// GroupByCategory builds a selection from a flat asset list.
func GroupByCategory(assets []Asset) Selection {
	out := Selection{}
	for _, a := range assets {
		out[a.Category] = append(out[a.Category], a)
	}
	return out
}
