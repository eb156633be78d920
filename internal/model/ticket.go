package model

import "time"

// Ticket represents a travel booking record as stored in the `tickets`
// table. A ticket belongs to exactly one user and may be flagged public,
// which shares its metadata (origin, destination, times) with anonymous
// visitors. Journal pages attached to a ticket are never shared through
// the public flag.
//
// Fields:
//  ID            – primary key identifier.
//  Origin        – departure location ("from").
//  Destination   – arrival location ("to").
//  DepartureTime – scheduled departure timestamp (UTC).
//  Passengers    – number of travellers on the booking.
//  IsPublic      – whether ticket metadata is visible to anonymous users.
//  OwnerID       – user who owns the ticket; zero only transiently
//                  before assignment during creation.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Ticket struct {
	ID            uint64    // tickets.id
	Origin        string    // tickets.origin
	Destination   string    // tickets.destination
	DepartureTime time.Time // tickets.departure_time
	Passengers    uint32    // tickets.passengers
	IsPublic      bool      // tickets.is_public
	OwnerID       uint64    // tickets.owner_id
	CreatedAt     time.Time // tickets.created_at
	UpdatedAt     time.Time // tickets.updated_at
}
