package domain

// BooksCollection is the logical name of the catalog collection in the vector store.
const BooksCollection = "books"

// CollectionKeys derives the storage key layout for a collection under a prefix.
type CollectionKeys struct {
	prefix string
	name   string
}

// NewCollectionKeys creates a key layout. prefix may be empty.
func NewCollectionKeys(prefix, name string) CollectionKeys {
	return CollectionKeys{prefix: prefix, name: name}
}

// Index returns the FT index name, e.g. "librarian:books:idx".
func (k CollectionKeys) Index() string { return k.prefix + k.name + ":idx" }

// DocPrefix returns the key prefix covered by the index, e.g. "librarian:books:".
func (k CollectionKeys) DocPrefix() string { return k.prefix + k.name + ":" }

// Doc returns the storage key of a single entry.
func (k CollectionKeys) Doc(id string) string { return k.DocPrefix() + id }
