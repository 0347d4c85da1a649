package library

import (
	"fmt"

	"github.com/xy-planning-network/switchyard/store"
	"gorm.io/gorm"
)

// Migrations creates the library's tables and seeds them.
func Migrations() []store.Migration {
	return []store.Migration{
		{Key: "0001_create_authors", Executor: createAuthors},
		{Key: "0002_create_books", Executor: createBooks},
		{Key: "0003_seed", Executor: seed},
	}
}

func serial(db *gorm.DB) string {
	if db.Dialector.Name() == store.SQLite.String() {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	return "SERIAL PRIMARY KEY"
}

func createAuthors(db *gorm.DB) error {
	return db.Exec(fmt.Sprintf(`
		CREATE TABLE authors (
			id %s,
			name text NOT NULL,
			CONSTRAINT authors_name UNIQUE (name)
		)
	`, serial(db))).Error
}

func createBooks(db *gorm.DB) error {
	return db.Exec(fmt.Sprintf(`
		CREATE TABLE books (
			id %s,
			title text NOT NULL,
			year integer,
			author_id integer REFERENCES authors (id) ON DELETE SET NULL
		)
	`, serial(db))).Error
}

// seeded mirrors what seed writes.
var seeded = []struct {
	author string
	title  string
	year   int
}{
	{"Frank Herbert", "Dune", 1965},
	{"Ursula K. Le Guin", "The Left Hand of Darkness", 1969},
	{"William Gibson", "Neuromancer", 1984},
}

func seed(db *gorm.DB) error {
	for _, s := range seeded {
		if err := db.Exec(`INSERT INTO authors (name) VALUES (?)`, s.author).Error; err != nil {
			return err
		}

		err := db.Exec(
			`INSERT INTO books (title, year, author_id) SELECT ?, ?, id FROM authors WHERE name = ?`,
			s.title, s.year, s.author,
		).Error
		if err != nil {
			return err
		}
	}

	return nil
}
