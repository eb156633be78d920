package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/travel-journal/internal/journal"
	"github.com/iliyamo/travel-journal/internal/model"
)

// JournalPageRepo persists journal pages. The journal_pages table carries
// a UNIQUE KEY on (ticket_id, page_number); that constraint is the sole
// arbiter of the lazy first-access creation race, which the repo surfaces
// as journal.ErrDuplicatePage. Implements journal.PageStore.
type JournalPageRepo struct{ DB *sql.DB }

// NewJournalPageRepo returns a JournalPageRepo bound to the given database.
func NewJournalPageRepo(db *sql.DB) *JournalPageRepo { return &JournalPageRepo{DB: db} }

// GetByTicketAndNumber fetches the page for (ticketID, pageNumber).
// Absence is reported as sql.ErrNoRows.
func (r *JournalPageRepo) GetByTicketAndNumber(ctx context.Context, ticketID uint64, pageNumber uint32) (model.JournalPage, error) {
	var p model.JournalPage
	var imagePath sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, ticket_id, page_number, content, image_path, created_at FROM journal_pages WHERE ticket_id=? AND page_number=? LIMIT 1",
		ticketID, pageNumber).
		Scan(&p.ID, &p.TicketID, &p.PageNumber, &p.Content, &imagePath, &p.CreatedAt)
	if err != nil {
		return model.JournalPage{}, err
	}
	if imagePath.Valid {
		p.ImagePath = imagePath.String
	}
	return p, nil
}

// GetByID fetches a page by its primary key.
func (r *JournalPageRepo) GetByID(ctx context.Context, id uint64) (model.JournalPage, error) {
	var p model.JournalPage
	var imagePath sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, ticket_id, page_number, content, image_path, created_at FROM journal_pages WHERE id=? LIMIT 1",
		id).
		Scan(&p.ID, &p.TicketID, &p.PageNumber, &p.Content, &imagePath, &p.CreatedAt)
	if err != nil {
		return model.JournalPage{}, err
	}
	if imagePath.Valid {
		p.ImagePath = imagePath.String
	}
	return p, nil
}

// Create inserts a new page row and fills in the generated ID and
// creation timestamp on the provided record. A violation of the
// (ticket_id, page_number) unique key (MySQL error 1062) is mapped to
// journal.ErrDuplicatePage so the resolver can retry the lookup.
func (r *JournalPageRepo) Create(ctx context.Context, p *model.JournalPage) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO journal_pages (ticket_id, page_number, content, image_path) VALUES (?,?,?,NULLIF(?,''))",
		p.TicketID, p.PageNumber, p.Content, p.ImagePath)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return journal.ErrDuplicatePage
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM journal_pages WHERE id=?", p.ID).Scan(&p.CreatedAt)
}

// Update applies new content and, when imagePath is non-nil, a new
// attachment reference in a single statement so content and reference
// change together or not at all. A nil imagePath leaves the stored
// reference untouched (saving text never clears an attached image).
func (r *JournalPageRepo) Update(ctx context.Context, id uint64, content string, imagePath *string) error {
	if imagePath != nil {
		_, err := r.DB.ExecContext(ctx,
			"UPDATE journal_pages SET content=?, image_path=? WHERE id=?",
			content, *imagePath, id)
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE journal_pages SET content=? WHERE id=?", content, id)
	return err
}

// HasPage reports whether a page exists for (ticketID, pageNumber). Used
// to compute the transient has-next-page flag on reads.
func (r *JournalPageRepo) HasPage(ctx context.Context, ticketID uint64, pageNumber uint32) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM journal_pages WHERE ticket_id=? AND page_number=? LIMIT 1",
		ticketID, pageNumber).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteByTicketTx removes all pages of a ticket inside an existing
// transaction. Called by the ticket repository's cascading delete.
func (r *JournalPageRepo) DeleteByTicketTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM journal_pages WHERE ticket_id=?", ticketID)
	return err
}
