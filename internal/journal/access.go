package journal

// Mode distinguishes the two kinds of journal access a request can ask for.
type Mode int

const (
	// ModeRead covers viewing a page, including the lazy first-access
	// creation that a non read-only view triggers.
	ModeRead Mode = iota
	// ModeWrite covers committing edits to a page.
	ModeWrite
)

// CanAccess decides whether requesterID may access the journal of ticket t
// in the given mode. It is a pure function of ownership, the requested
// mode and the read-only flag; it performs no lookups and has no side
// effects. A requesterID of zero means anonymous.
//
// Journal content is private: the ticket's public flag shares ticket
// metadata only, so even for reads the requester must be the owner.
// Writes additionally require that the request is not in read-only mode.
//
// Callers translate a read denial into a not-found outcome (so that
// foreign tickets are indistinguishable from absent ones) and a write
// denial into a forbidden outcome.
func CanAccess(requesterID uint64, ownerID uint64, mode Mode, readOnly bool) bool {
	if requesterID == 0 || requesterID != ownerID {
		return false
	}
	if mode == ModeWrite && readOnly {
		return false
	}
	return true
}

// CanViewTicket decides whether requesterID may view the metadata of a
// ticket. Unlike journal pages, ticket metadata is shareable: the owner
// always may, and anyone may when the ticket is public.
func CanViewTicket(requesterID uint64, ownerID uint64, isPublic bool) bool {
	if isPublic {
		return true
	}
	return requesterID != 0 && requesterID == ownerID
}
