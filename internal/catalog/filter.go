package catalog

import (
	"strings"
	"sync"
)

// Filter describes the inputs to visibility composition. AIResults nil
// means no AI search is active; an empty non-nil slice is an active AI
// search that matched nothing.
type Filter struct {
	ActiveCategory string
	SearchText     string
	AIResults      []Product
}

// VisibleProducts composes the rendered product list. It is pure: no
// side effects, same inputs always yield the same result.
//
// Precedence is strict: a non-nil AIResults is returned verbatim and no
// category or text filtering applies on top. Otherwise the category
// filter narrows first, then the free-text title filter.
func VisibleProducts(all []Product, filter Filter) []Product {
	if filter.AIResults != nil {
		out := make([]Product, len(filter.AIResults))
		copy(out, filter.AIResults)
		return out
	}

	out := make([]Product, 0, len(all))
	category := strings.TrimSpace(filter.ActiveCategory)
	search := strings.ToLower(strings.TrimSpace(filter.SearchText))

	for _, product := range all {
		if category != "" && !product.Category.Matches(category) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(product.Title), search) {
			continue
		}
		out = append(out, product)
	}
	return out
}

// FilterState is the mutable container behind the filter bar. Selecting a
// category clears any active AI results and vice versa, so the two
// narrowing modes never stack silently.
type FilterState struct {
	mu     sync.Mutex
	filter Filter
}

func NewFilterState() *FilterState {
	return &FilterState{}
}

func (f *FilterState) SetCategory(category string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.ActiveCategory = category
	f.filter.AIResults = nil
}

func (f *FilterState) SetSearchText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.SearchText = text
}

// SetAIResults installs an AI result set and clears the category so the
// override is visible in the filter bar, not just in the list.
func (f *FilterState) SetAIResults(results []Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if results == nil {
		results = []Product{}
	}
	f.filter.AIResults = results
	f.filter.ActiveCategory = ""
}

// ClearAIResults returns the list to local filtering.
func (f *FilterState) ClearAIResults() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.AIResults = nil
}

func (f *FilterState) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = Filter{}
}

// Current returns a copy of the active filter.
func (f *FilterState) Current() Filter {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := Filter{
		ActiveCategory: f.filter.ActiveCategory,
		SearchText:     f.filter.SearchText,
	}
	if f.filter.AIResults != nil {
		current.AIResults = make([]Product, len(f.filter.AIResults))
		copy(current.AIResults, f.filter.AIResults)
	}
	return current
}
