package journal

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/travel-journal/internal/model"
)

// Outcome tags the result of a page resolution so callers can tell an
// existing page from one that was just materialized.
type Outcome int

const (
	// PageExisting means the page was already persisted before this call.
	PageExisting Outcome = iota
	// PageCreated means this call created and persisted the page.
	PageCreated
)

// Resolution is the tagged result of Resolver.Resolve.
type Resolution struct {
	Page    model.JournalPage
	Outcome Outcome
}

// PageStore is the persistence contract the resolver and engine depend on.
// Implementations signal an absent row with sql.ErrNoRows and a violated
// (ticket_id, page_number) uniqueness constraint with ErrDuplicatePage.
// It is implemented by repository.JournalPageRepo.
type PageStore interface {
	// GetByTicketAndNumber returns the page for (ticketID, pageNumber).
	GetByTicketAndNumber(ctx context.Context, ticketID uint64, pageNumber uint32) (model.JournalPage, error)
	// GetByID returns a page by its primary key.
	GetByID(ctx context.Context, id uint64) (model.JournalPage, error)
	// Create persists a new page and fills in its generated ID and
	// creation timestamp. Returns ErrDuplicatePage when a page for the
	// same (ticket, number) pair already exists.
	Create(ctx context.Context, p *model.JournalPage) error
	// Update applies new content and, when imagePath is non-nil, a new
	// attachment reference in a single statement. A nil imagePath leaves
	// the stored reference untouched.
	Update(ctx context.Context, id uint64, content string, imagePath *string) error
	// HasPage reports whether a page exists for (ticketID, pageNumber).
	HasPage(ctx context.Context, ticketID uint64, pageNumber uint32) (bool, error)
}

// Resolver maps a (ticket, page number) pair to a page record, creating
// the record on first access when permitted. Page numbers are sparse:
// resolving page N never materializes pages 1..N-1 and no upper bound is
// enforced here.
type Resolver struct {
	Pages PageStore
}

// Resolve returns the page for (ticketID, pageNumber). When the page does
// not exist and allowCreate is true, an empty page is created and
// persisted immediately. When allowCreate is false (read-only viewing),
// absence is reported as ErrNotFound and nothing is written.
//
// Two concurrent first accesses race to create; the store's uniqueness
// constraint picks the winner. A loser sees ErrDuplicatePage and resolves
// it with a single re-read rather than surfacing the conflict.
func (r *Resolver) Resolve(ctx context.Context, ticketID uint64, pageNumber uint32, allowCreate bool) (Resolution, error) {
	if pageNumber == 0 {
		return Resolution{}, ErrNotFound
	}

	page, err := r.Pages.GetByTicketAndNumber(ctx, ticketID, pageNumber)
	if err == nil {
		return Resolution{Page: page, Outcome: PageExisting}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Resolution{}, err
	}
	if !allowCreate {
		return Resolution{}, ErrNotFound
	}

	page = model.JournalPage{
		TicketID:   ticketID,
		PageNumber: pageNumber,
		Content:    "",
	}
	err = r.Pages.Create(ctx, &page)
	if err == nil {
		return Resolution{Page: page, Outcome: PageCreated}, nil
	}
	if errors.Is(err, ErrDuplicatePage) {
		// Lost the first-access race; the winner's row is authoritative.
		page, err = r.Pages.GetByTicketAndNumber(ctx, ticketID, pageNumber)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Page: page, Outcome: PageExisting}, nil
	}
	return Resolution{}, err
}
