package catalog

import "strings"

// SearchSimilar finds releases resembling the given one: a short keyword
// phrase derived from the name, constrained to the triggering release's
// parent category. The triggering release itself and any stray result from a
// different parent category are filtered out of the final set.
func (c *Catalog) SearchSimilar(id int64, name string, limit int, excludedCats []int) ([]Release, error) {
	catID, err := c.store.CategoryOfRelease(id)
	if err != nil {
		return nil, err
	}
	if catID == 0 {
		return nil, nil
	}
	cat, ok, err := c.categories.ByID(catID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	parent := cat.ParentID

	results, _, err := c.Search(SearchOptions{
		Name:               SimilarName(name),
		DaysNew:            -1,
		DaysOld:            -1,
		Page:               Page{Start: 0, Size: limit},
		MaxAgeDays:         -1,
		ExcludedCategories: excludedCats,
		Categories:         []int{parent},
	})
	if err != nil {
		return nil, err
	}

	similar := make([]Release, 0, len(results))
	for _, r := range results {
		if r.ID == id || r.CategoryParentID != parent {
			continue
		}
		similar = append(similar, r)
	}
	return similar, nil
}

// SimilarName derives the keyword phrase for a similarity search: separators
// normalized to spaces, then the first two distinct word tokens.
func SimilarName(name string) string {
	normalized := strings.NewReplacer(".", " ", "_", " ").Replace(name)

	words := make([]string, 0, 2)
	seen := make(map[string]bool)
	for _, token := range strings.Fields(normalized) {
		key := strings.ToLower(token)
		if seen[key] {
			continue
		}
		seen[key] = true
		words = append(words, token)
		if len(words) == 2 {
			break
		}
	}
	return strings.Join(words, " ")
}
