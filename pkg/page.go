package pkg

// Paginate returns the zero-based page of items.
func Paginate[T any](items []T, page int, pageSize int) []T {
	if page < 0 || pageSize <= 0 {
		return []T{}
	}
	start := page * pageSize
	end := (page + 1) * pageSize

	if start >= len(items) {
		return []T{}
	}

	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}
