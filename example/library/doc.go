/*
Package library is a small catalog of books and their authors routed through a router.Router.

Books supports every operation and can silence broadcasts during bulk imports.
Authors can only be listed and added.

	content://world.switchyard.library/books      vnd.switchyard.cursor.dir/vnd.library.books
	content://world.switchyard.library/books/3    vnd.switchyard.cursor.item/vnd.library.books
*/
package library
