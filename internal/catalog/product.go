package catalog

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Categories tolerates both wire shapes: a legacy single string and the
// current string array. It always normalizes to an array in memory.
type Categories []string

func (c *Categories) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if strings.TrimSpace(single) == "" {
			*c = nil
			return nil
		}
		*c = Categories{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*c = Categories(many)
	return nil
}

// Matches reports whether the normalized category set contains target.
// Comparison is on lower-cased trimmed values.
func (c Categories) Matches(target string) bool {
	want := normalizeCategory(target)
	if want == "" {
		return false
	}
	for _, category := range c {
		if normalizeCategory(category) == want {
			return true
		}
	}
	return false
}

func normalizeCategory(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Product is an immutable catalog entry.
type Product struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Category Categories      `json:"category"`
	Stock    int             `json:"stock"`
	Tags     []string        `json:"tags"`
}
