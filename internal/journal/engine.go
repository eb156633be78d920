// Package journal implements the journal page access and lazy-paging
// rules: how a page number maps to a page row, when a page is created on
// first access, how ownership and read-only mode gate reads and writes,
// and how image attachments are attached to a page. HTTP concerns live in
// internal/handler; persistence lives in internal/repository.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/iliyamo/travel-journal/internal/model"
)

var (
	// ErrNotFound is returned when the ticket or page does not exist, or
	// exists but the requester has no read access. The two cases are
	// deliberately indistinguishable so that callers cannot probe for the
	// existence of other users' tickets.
	ErrNotFound = errors.New("journal: not found")
	// ErrForbidden is returned when the resource exists and is resolvable
	// but the specific write is disallowed: read-only mode, or a
	// non-owner attempting a save.
	ErrForbidden = errors.New("journal: forbidden")
	// ErrDuplicatePage is returned by PageStore implementations when an
	// insert violates the (ticket_id, page_number) uniqueness constraint.
	// The resolver absorbs it; it never reaches engine callers.
	ErrDuplicatePage = errors.New("journal: duplicate page")
)

// TicketStore is the read-only view of ticket persistence the engine
// needs. Absence is signalled with sql.ErrNoRows. The engine never
// mutates tickets.
type TicketStore interface {
	GetByID(ctx context.Context, id uint64) (model.Ticket, error)
}

// AttachmentStore persists an uploaded binary under a freshly generated
// opaque name and returns a stable relative reference path. An empty
// payload yields an empty reference and no error; write failures are
// returned as-is and abort the enclosing save. Implemented by
// storage.Local.
type AttachmentStore interface {
	Store(ctx context.Context, r io.Reader, originalName string) (string, error)
}

// Upload carries one uploaded file into a save operation. A nil *Upload
// or a Size of zero means "no attachment submitted" and leaves any
// previously stored attachment reference untouched.
type Upload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Engine composes the access guard, the page resolver and the attachment
// store behind the two journal operations: opening a page for viewing or
// editing, and committing page edits.
type Engine struct {
	Tickets     TicketStore
	Attachments AttachmentStore
	resolver    Resolver
}

// NewEngine builds an Engine over the given stores.
func NewEngine(tickets TicketStore, pages PageStore, attachments AttachmentStore) *Engine {
	if tickets == nil || pages == nil || attachments == nil {
		panic("nil store passed to NewEngine")
	}
	return &Engine{
		Tickets:     tickets,
		Attachments: attachments,
		resolver:    Resolver{Pages: pages},
	}
}

// OpenResult is returned by OpenPage. ReadOnly echoes the effective mode
// for rendering; Created reports whether this call materialized the page.
type OpenResult struct {
	Page     model.JournalPage
	ReadOnly bool
	Created  bool
}

// OpenPage resolves a journal page for viewing or editing.
//
// The ticket is resolved first; an absent ticket and a read denial are
// both reported as ErrNotFound with no side effects. On approval the
// resolver returns the page, creating it when the request is not
// read-only. The transient has-next-page flag is computed before
// returning.
func (e *Engine) OpenPage(ctx context.Context, requesterID, ticketID uint64, pageNumber uint32, readOnly bool) (OpenResult, error) {
	ticket, err := e.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OpenResult{}, ErrNotFound
		}
		return OpenResult{}, err
	}
	if !CanAccess(requesterID, ticket.OwnerID, ModeRead, readOnly) {
		return OpenResult{}, ErrNotFound
	}

	res, err := e.resolver.Resolve(ctx, ticketID, pageNumber, !readOnly)
	if err != nil {
		return OpenResult{}, err
	}

	page := res.Page
	next, err := e.resolver.Pages.HasPage(ctx, ticketID, pageNumber+1)
	if err != nil {
		return OpenResult{}, err
	}
	page.HasNextPage = next

	return OpenResult{
		Page:     page,
		ReadOnly: readOnly,
		Created:  res.Outcome == PageCreated,
	}, nil
}

// SaveResult reports where a successful save landed so the caller can
// redirect back to the canonical page view.
type SaveResult struct {
	PageID     uint64
	TicketID   uint64
	PageNumber uint32
	ImagePath  string
}

// SavePage commits edits to an existing page.
//
// Read-only requests are rejected up front with ErrForbidden, before any
// lookup. The page is fetched by id and write access is re-derived from
// the stored page's ticket and its owner, never from client-submitted
// data. Content is applied unconditionally (clearing to empty is
// allowed). A non-empty image upload is stored first and replaces the
// page's attachment reference; no upload leaves the existing reference
// untouched. The attachment write fully completes before the page row is
// updated to point at it, and content plus reference are persisted in one
// statement, so an aborted save never leaves a half-applied page.
func (e *Engine) SavePage(ctx context.Context, requesterID, pageID uint64, content string, image *Upload, readOnly bool) (SaveResult, error) {
	if readOnly {
		return SaveResult{}, ErrForbidden
	}

	page, err := e.resolver.Pages.GetByID(ctx, pageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SaveResult{}, ErrNotFound
		}
		return SaveResult{}, err
	}

	ticket, err := e.Tickets.GetByID(ctx, page.TicketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Ticket deleted concurrently; its cascade owns the page.
			return SaveResult{}, ErrNotFound
		}
		return SaveResult{}, err
	}
	if !CanAccess(requesterID, ticket.OwnerID, ModeWrite, readOnly) {
		return SaveResult{}, ErrForbidden
	}

	imagePath := page.ImagePath
	var newRef *string
	if image != nil && image.Size > 0 {
		ref, err := e.Attachments.Store(ctx, image.Reader, image.Name)
		if err != nil {
			return SaveResult{}, err
		}
		if ref != "" {
			newRef = &ref
			imagePath = ref
		}
	}

	if err := e.resolver.Pages.Update(ctx, page.ID, content, newRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SaveResult{}, ErrNotFound
		}
		return SaveResult{}, err
	}

	return SaveResult{
		PageID:     page.ID,
		TicketID:   page.TicketID,
		PageNumber: page.PageNumber,
		ImagePath:  imagePath,
	}, nil
}
