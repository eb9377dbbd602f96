// Package search defines the full-text index collaborator used by the
// catalog engine and its Elasticsearch implementation. The engine decides
// which fields participate in a query; the index decides what matches and
// hands back release identifiers to combine with the relational filters.
package search

// Field identifies a searchable release attribute in the full-text index.
type Field string

// Searchable fields. Values match the document property names in the index
// mapping.
const (
	FieldName     Field = "searchname" // cleaned release name
	FieldSubject  Field = "name"       // original usenet subject
	FieldPoster   Field = "fromname"
	FieldFilename Field = "filename"
)

// Index is the full-text collaborator boundary.
type Index interface {
	// MatchIDs returns the ids of releases matching every given term in
	// its field, at most limit of them. No matches is an empty slice, not
	// an error.
	MatchIDs(terms map[Field]string, limit int) ([]int64, error)

	// DeleteRelease removes the document for the given release GUID. A
	// missing document is not an error.
	DeleteRelease(guid string) error
}
