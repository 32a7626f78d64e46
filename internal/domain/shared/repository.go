package shared

// ListQuery selects one page of a listing. Match is a case-insensitive
// substring for customers and an exact category for expenses. Sort names a
// column the store whitelists; anything else falls back to the store's
// default order.
type ListQuery struct {
	Page      int
	Size      int
	Sort      string
	Ascending bool
	Match     string
}

// FirstPage returns a query for the first page of size rows, newest first.
// A size of zero lists everything.
func FirstPage(size int) ListQuery {
	return ListQuery{Page: 1, Size: size}
}

// Offset is the number of rows before the page.
func (q ListQuery) Offset() int {
	if q.Page < 1 || q.Size <= 0 {
		return 0
	}
	return (q.Page - 1) * q.Size
}

// Next returns the query for the following page.
func (q ListQuery) Next() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	q.Page++
	return q
}

// Last reports whether a page of n rows was the final one.
func (q ListQuery) Last(n int) bool {
	return q.Size <= 0 || n < q.Size
}
