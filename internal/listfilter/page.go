package listfilter

// Page returns up to limit items following the item whose ID equals cursor.
// An empty cursor starts at the beginning; a cursor that is no longer in the
// list yields an empty page. The returned cursor is the ID of the last item
// when more items follow.
func Page[T any](items []T, id func(T) string, limit int, cursor string) (page []T, next string, hasMore bool) {
	start := 0
	if cursor != "" {
		start = -1
		for i, item := range items {
			if id(item) == cursor {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return []T{}, "", false
		}
	}
	rest := items[start:]
	if limit <= 0 || len(rest) <= limit {
		return rest, "", false
	}
	page = rest[:limit]
	return page, id(page[len(page)-1]), true
}
