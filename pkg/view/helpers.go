// Package view holds the JSON shapes handlers answer with, built from
// module types.
package view

// PageCount is the number of pages needed for total rows, at least 1.
func PageCount(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
