/*
Package req parses the query parameters and bodies of requests a Host serves.

Query parameters decode into a struct with [github.com/gorilla/schema]
and are checked against its "validate" struct tags with [github.com/go-playground/validator/v10].
Rules that fail come back as [ValidationErrors], which wrap switchyard.ErrNotValid.
*/
package req
