// Package repository is the data access layer. Each repo owns the SQL
// for one table and maps driver-level failures to sentinel errors that
// handlers and the journal engine can branch on. Row absence is always
// reported as sql.ErrNoRows, matching database/sql convention.
package repository

import "errors"

// ErrEmailExists is returned when registering with an email address that
// is already taken (MySQL duplicate-key 1062 on users.email). Handlers
// translate it into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")
