package tool

// DefaultListLimit caps list payloads returned to the model.
const DefaultListLimit = 5

// Page is a capped list payload. Truncated is set when items were dropped.
type Page[T any] struct {
	Items     []T  `json:"items"`
	Truncated bool `json:"truncated"`
	Total     int  `json:"total"`
	Returned  int  `json:"returned"`
}

// Truncate keeps the first limit items. A non-positive limit keeps everything.
func Truncate[T any](items []T, limit int) Page[T] {
	total := len(items)
	if items == nil {
		items = []T{}
	}
	if limit <= 0 || total <= limit {
		return Page[T]{Items: items, Total: total, Returned: total}
	}
	return Page[T]{
		Items:     items[:limit],
		Truncated: true,
		Total:     total,
		Returned:  limit,
	}
}
