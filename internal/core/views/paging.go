package views

// AdminUsersPageSize is the page size of the admin member list.
const AdminUsersPageSize = 5

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Paginate returns page (1-based) of items. Out-of-range pages clamp to the
// nearest valid page; an empty list yields page 1 with no items.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = AdminUsersPageSize
	}
	total := len(items)
	totalPages := (total + size - 1) / size

	switch {
	case totalPages == 0:
		page = 1
	case page < 1:
		page = 1
	case page > totalPages:
		page = totalPages
	}

	start := (page - 1) * size
	end := min(start+size, total)
	out := []T{}
	if start < end {
		out = items[start:end]
	}
	return Page[T]{Items: out, Page: page, Size: size, Total: total, TotalPages: totalPages}
}
