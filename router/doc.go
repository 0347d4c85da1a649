/*
Package router dispatches CRUD operations on tables to the Handler registered for each table.

# Routing

A [Router] keeps one [Handler] per table name.
An operation on a [switchyard.URI] goes to the Handler whose Table equals the URI's first segment, byte for byte.
A URI without segments, or whose first segment names no registered table,
fails with a [*switchyard.NoHandlerError].

	r := router.New[*store.DB](authority, resolver)
	if err := r.Register(books); err != nil {
		return err
	}

	uri := switchyard.NewURI(authority, "books", "42")
	mime, err := r.Type(uri)

# Capabilities

A Handler only has to name its table and report MIME types.
It opts into each operation by implementing [Inserter], [Querier], [Updater] or [Deleter].
The Router answers the rest with a [*switchyard.UnsupportedError].

# Notification

After a successful insert, update or delete the Router broadcasts a change to the URI it was called with
through its [Notifier], unless the Handler's [NotifyPolicy] declines.
A query never broadcasts; instead, the [Cursor] it returns is bound to the URI
so consumers holding it learn of later changes.

Errors from a Handler pass through the Router unchanged.
*/
package router
