package library

import (
	"fmt"
	"io"

	"github.com/xy-planning-network/switchyard"
	"gopkg.in/yaml.v3"
)

// A Catalog is a set of books read from YAML:
//
//	books:
//	  - title: Kindred
//	    year: 1979
//	  - title: Dawn
//	    year: 1987
//	    author_id: 4
type Catalog struct {
	Books []CatalogBook `yaml:"books"`
}

type CatalogBook struct {
	Title    string `yaml:"title"`
	Year     *int64 `yaml:"year,omitempty"`
	AuthorID *int64 `yaml:"author_id,omitempty"`
}

// ParseCatalog reads a Catalog from r.
// Every book needs a title.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	c := new(Catalog)
	if err := yaml.NewDecoder(r).Decode(c); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %s", switchyard.ErrNotValid, err)
	}

	for i, b := range c.Books {
		if b.Title == "" {
			return nil, fmt.Errorf("%w: book %d has no title", switchyard.ErrMissingData, i)
		}
	}

	return c, nil
}

// Records converts the Catalog's books into the records Books.Import inserts.
func (c *Catalog) Records() []switchyard.Values {
	records := make([]switchyard.Values, 0, len(c.Books))
	for _, b := range c.Books {
		v := switchyard.Values{"title": b.Title}
		if b.Year != nil {
			v["year"] = *b.Year
		}
		if b.AuthorID != nil {
			v["author_id"] = *b.AuthorID
		}

		records = append(records, v)
	}

	return records
}
