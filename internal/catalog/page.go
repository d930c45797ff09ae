package catalog

import "invoice-desk/internal/models"

// Paginate returns page (1-based) of items. Out-of-range pages are empty.
func Paginate(items []models.Product, pageSize, page int) []models.Product {
	if pageSize <= 0 || page < 1 {
		return []models.Product{}
	}

	if page-1 >= PageCount(len(items), pageSize) {
		return []models.Product{}
	}

	start := (page - 1) * pageSize
	end := start + min(pageSize, len(items)-start)
	return items[start:end]
}

// PageCount is the number of pages needed for n items
func PageCount(n, pageSize int) int {
	if pageSize <= 0 || n <= 0 {
		return 0
	}
	return (n-1)/pageSize + 1
}
