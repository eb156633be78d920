package model

import "time"

// JournalPage is one numbered diary entry belonging to a ticket. Pages are
// created lazily: page N exists only after someone opened it outside
// read-only mode. The `journal_pages` table enforces a uniqueness
// constraint on (ticket_id, page_number), which is what arbitrates the
// first-access creation race.
//
// Fields:
//  ID         – primary key identifier.
//  TicketID   – owning ticket; access rules are inherited from it.
//  PageNumber – 1-based page number; numbers need not be contiguous.
//  Content    – free-form text, may be the empty string.
//  ImagePath  – relative reference to the page's attachment, empty when
//               no image has been attached yet.
//  CreatedAt  – creation timestamp.
//  HasNextPage – transient flag computed at read time; true when a page
//                with PageNumber+1 exists for the same ticket. Never
//                persisted.
type JournalPage struct {
	ID          uint64    // journal_pages.id
	TicketID    uint64    // journal_pages.ticket_id
	PageNumber  uint32    // journal_pages.page_number
	Content     string    // journal_pages.content
	ImagePath   string    // journal_pages.image_path (empty = none)
	CreatedAt   time.Time // journal_pages.created_at
	HasNextPage bool      // not mapped; filled in by the engine on reads
}
