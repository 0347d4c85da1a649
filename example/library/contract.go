package library

import (
	"fmt"

	"github.com/xy-planning-network/switchyard"
)

// Authority is the namespace the library's tables are routed within.
const Authority = "world.switchyard.library"

// Tables.
const (
	AuthorsTable = "authors"
	BooksTable   = "books"
)

const (
	dirMIME  = "vnd.switchyard.cursor.dir/vnd.library.%s"
	itemMIME = "vnd.switchyard.cursor.item/vnd.library.%s"
)

// DirType is the MIME type of a URI addressing every record in table.
func DirType(table string) string { return fmt.Sprintf(dirMIME, table) }

// ItemType is the MIME type of a URI addressing one record in table.
func ItemType(table string) string { return fmt.Sprintf(itemMIME, table) }

// AuthorsURI addresses every author.
func AuthorsURI() switchyard.URI { return switchyard.NewURI(Authority, AuthorsTable) }

// BooksURI addresses every book.
func BooksURI() switchyard.URI { return switchyard.NewURI(Authority, BooksTable) }
