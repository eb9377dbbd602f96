// Package category exposes the two-level category tree to the catalog engine
// as a predicate source. The engine owns no category semantics; it splices
// whatever this package hands it.
package category

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"owo.codes/whats-this/release-catalog/lib/cache"
	"owo.codes/whats-this/release-catalog/lib/predicate"
)

// Category is one node of the two-level category tree. Parent categories have
// ParentID 0 and an id that is a multiple of 1000; every release references a
// leaf (child) category.
type Category struct {
	ID       int    `json:"id"`
	ParentID int    `json:"parentid"`
	Title    string `json:"title"`
}

// Provider is the category collaborator boundary consumed by the catalog
// engine.
type Provider interface {
	// SearchCond returns the filter condition for a set of category ids.
	// Parent ids select their whole child range. A nil/empty set or the
	// -1 sentinel means no filter.
	SearchCond(cats []int) predicate.Cond

	// FlattenedIDs returns the "parentid,id" projection fragment spliced
	// into release listings as the category_ids column.
	FlattenedIDs() string

	// ByID returns the category with the given id, and whether it exists.
	ByID(id int) (Category, bool, error)
}

// SearchCond builds the category filter condition. Exported as a function so
// the predicate logic stays usable without a database-backed Provider.
func SearchCond(cats []int) predicate.Cond {
	if len(cats) == 0 || cats[0] == -1 {
		return predicate.None
	}
	conds := make([]predicate.Cond, 0, len(cats))
	for _, cat := range cats {
		if cat <= 0 {
			continue
		}
		if cat%1000 == 0 {
			// Parent category: select the entire child range.
			conds = append(conds, predicate.Raw("r.categories_id BETWEEN ? AND ?", cat, cat+999))
			continue
		}
		conds = append(conds, predicate.Eq("r.categories_id", cat))
	}
	return predicate.Or(conds...)
}

// flattenedIDsFragment concatenates the joined parent and child category ids
// for result projections. The join aliases are fixed across every release
// listing query.
const flattenedIDsFragment = "CONCAT(cp.id, ',', c.id)"

// treeCacheKey is the logical cache name for the id => category mapping.
const treeCacheKey = "category-tree"

// PG is a Provider over the relational category table. The full tree is
// small, so ByID loads it once per long-expiry window and serves lookups from
// the cached mapping.
type PG struct {
	db    *sql.DB
	cache cache.Cache
	ttl   time.Duration
}

var _ Provider = &PG{}

// NewPG returns a Provider reading from db, caching the tree for ttl.
func NewPG(db *sql.DB, c cache.Cache, ttl time.Duration) *PG {
	return &PG{db: db, cache: c, ttl: ttl}
}

// SearchCond implements Provider.
func (p *PG) SearchCond(cats []int) predicate.Cond {
	return SearchCond(cats)
}

// FlattenedIDs implements Provider.
func (p *PG) FlattenedIDs() string {
	return flattenedIDsFragment
}

// ByID implements Provider.
func (p *PG) ByID(id int) (Category, bool, error) {
	tree, err := p.tree()
	if err != nil {
		return Category{}, false, err
	}
	cat, ok := tree[strconv.Itoa(id)]
	return cat, ok, nil
}

// tree returns the cached id => category mapping, loading it from the store
// on a cache miss. Cache failures degrade to a direct load.
func (p *PG) tree() (map[string]Category, error) {
	if data, ok, err := p.cache.Get(treeCacheKey); err != nil {
		log.Warn().Err(err).Msg("category tree cache get failed, loading directly")
	} else if ok {
		var tree map[string]Category
		if err := json.Unmarshal(data, &tree); err == nil {
			return tree, nil
		}
		log.Warn().Err(err).Msg("discarding malformed cached category tree")
	}

	rows, err := p.db.Query(`SELECT id, COALESCE(parentid, 0), title FROM categories`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load category tree")
	}
	defer rows.Close()

	tree := make(map[string]Category)
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.ParentID, &cat.Title); err != nil {
			return nil, errors.Wrap(err, "failed to scan category row")
		}
		tree[strconv.Itoa(cat.ID)] = cat
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate category rows")
	}

	if data, err := json.Marshal(tree); err == nil {
		if err := p.cache.Put(treeCacheKey, data, p.ttl); err != nil {
			log.Warn().Err(err).Msg("category tree cache put failed")
		}
	}
	return tree, nil
}
