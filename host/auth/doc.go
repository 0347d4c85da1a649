/*
Package auth authenticates requests a Host serves.

# JWT

A client presents a JWT signed with HS256 as Bearer credentials.
Its [Claims] list the operations it may perform and, optionally, the tables it may perform them on.
[*Service.Sign] issues such tokens.

# Google

A [Service] configured with a [GoogleConfig] also accepts Google OAuth access tokens.
The user a token was issued to is fetched from Google,
and their verified email must be one the [GoogleConfig] admits.
*/
package auth
