package receivable

// Page is one contiguous slice of a fully filtered-and-sorted sequence
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// Paginate slices items for a 1-based page number. Page size below 1 is
// coerced to 1; page numbers out of range clamp to the nearest valid page,
// so a stale page index after a filter change still returns data. Total
// pages is never below 1.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}

	totalPages := (len(items) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return Page[T]{
		Items:      items[start:end],
		Total:      len(items),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
