package core

// Known category keys.
const (
	CategoryFood          = "food"
	CategoryTransport     = "transport"
	CategoryStudy         = "study"
	CategoryEntertainment = "entertainment"
	CategoryHealth        = "health"
	CategoryOther         = "other"
)

// Category carries the display metadata of a category key.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	// Known is false when the key is not in the active set and the
	// metadata was borrowed from the fallback category.
	Known bool `json:"known"`
}

// Registry is the ordered set of active categories.
type Registry struct {
	items    []Category
	index    map[string]int
	fallback string
}

// DefaultRegistry returns the built-in student categories.
func DefaultRegistry() *Registry {
	return NewRegistry(CategoryOther, []Category{
		{ID: CategoryFood, Label: "Food", Icon: "🍽️", Color: "red"},
		{ID: CategoryTransport, Label: "Transport", Icon: "🚌", Color: "blue"},
		{ID: CategoryStudy, Label: "Study", Icon: "📚", Color: "green"},
		{ID: CategoryEntertainment, Label: "Entertainment", Icon: "🎬", Color: "purple"},
		{ID: CategoryHealth, Label: "Health", Icon: "💊", Color: "pink"},
		{ID: CategoryOther, Label: "Other", Icon: "📦", Color: "gray"},
	})
}

// NewRegistry builds a registry. Duplicate IDs keep their first entry.
// fallback names the category whose metadata is shown for unknown keys.
func NewRegistry(fallback string, cats []Category) *Registry {
	r := &Registry{index: make(map[string]int, len(cats)), fallback: fallback}
	for _, c := range cats {
		if c.ID == "" {
			continue
		}
		if _, ok := r.index[c.ID]; ok {
			continue
		}
		c.Known = true
		r.index[c.ID] = len(r.items)
		r.items = append(r.items, c)
	}
	return r
}

// List returns the active categories in registry order.
func (r *Registry) List() []Category {
	out := make([]Category, len(r.items))
	copy(out, r.items)
	return out
}

// Has reports whether id is an active category.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Lookup returns the metadata for id. Unknown keys borrow the fallback's
// icon and color, and use their own ID as label with Known=false.
func (r *Registry) Lookup(id string) Category {
	if i, ok := r.index[id]; ok {
		return r.items[i]
	}
	c := Category{ID: id, Label: id, Icon: "📦", Color: "gray"}
	if i, ok := r.index[r.fallback]; ok {
		fb := r.items[i]
		c.Icon, c.Color = fb.Icon, fb.Color
	}
	return c
}
