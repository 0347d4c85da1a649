package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildCxnStr(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cfg      *CxnConfig
		expected string
	}{
		{"url", &CxnConfig{URL: "postgres://u:p@db:5432/lib", Host: "ignored"}, "postgres://u:p@db:5432/lib"},
		{
			"default-sslmode",
			&CxnConfig{Host: "db", Port: "5432", Name: "lib", User: "u", Password: "p"},
			"host=db port=5432 dbname=lib user=u password=p sslmode=prefer",
		},
		{
			"sslmode",
			&CxnConfig{Host: "db", Port: "5432", Name: "lib", User: "u", Password: "p", SSLMode: "disable"},
			"host=db port=5432 dbname=lib user=u password=p sslmode=disable",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, buildCxnStr(tc.cfg))
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cfg      *CxnConfig
		expected string
	}{
		{"memory", &CxnConfig{}, "file::memory:?cache=shared&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"},
		{"name", &CxnConfig{Name: "lib.db"}, "lib.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"},
		{"url-wins", &CxnConfig{URL: "file:lib.db?mode=rwc", Name: "other.db"}, "file:lib.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, sqliteDSN(tc.cfg))
		})
	}
}
