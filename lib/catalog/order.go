package catalog

import "strings"

// Order is a resolved sort key for release listings.
type Order struct {
	Column    string
	Direction string
}

// BrowseOrderings lists the sort keys usable on browse and search pages.
func BrowseOrderings() []string {
	return []string{
		"name_asc",
		"name_desc",
		"cat_asc",
		"cat_desc",
		"posted_asc",
		"posted_desc",
		"size_asc",
		"size_desc",
		"files_asc",
		"files_desc",
		"stats_asc",
		"stats_desc",
	}
}

// ParseBrowseOrder maps an "<key>_<dir>" ordering string to a sort column and
// direction. Unknown keys and directions fall back to posting date
// descending.
func ParseBrowseOrder(orderBy string) Order {
	if orderBy == "" {
		orderBy = "posted_desc"
	}
	parts := strings.SplitN(orderBy, "_", 2)

	var column string
	switch parts[0] {
	case "cat":
		column = "r.categories_id"
	case "name":
		column = "r.searchname"
	case "size":
		column = "r.size"
	case "files":
		column = "r.totalpart"
	case "stats":
		column = "r.grabs"
	default:
		column = "r.postdate"
	}

	direction := "DESC"
	if len(parts) == 2 && strings.EqualFold(parts[1], "asc") {
		direction = "ASC"
	}
	return Order{Column: column, Direction: direction}
}
