/*
Package store manages the database connection handed to table handlers.
As part of the connection process, all migrations are run on the database.
When the database is simply a target for some testing, the public schema is dropped first.

PostgreSQL is the default dialect. SQLite serves local development and tests.

A *DB wraps a *gorm.DB with a small query builder and finisher methods
that speak in switchyard.Values and switchyard.Selection.
Rows, returned by (*DB).Rows, is a router.Cursor.
*/
package store
