package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/travel-journal/internal/model"
)

// TicketRepo provides CRUD operations for tickets. The owner column is
// set once at creation from the authenticated identity and is never
// updated afterwards; Update deliberately omits it. Implements
// journal.TicketStore.
type TicketRepo struct {
	DB    *sql.DB
	Pages *JournalPageRepo
}

// NewTicketRepo returns a TicketRepo bound to the given database. The
// page repo is needed for the cascading delete.
func NewTicketRepo(db *sql.DB, pages *JournalPageRepo) *TicketRepo {
	return &TicketRepo{DB: db, Pages: pages}
}

const ticketColumns = "id, origin, destination, departure_time, passengers, is_public, owner_id, created_at, updated_at"

func scanTicket(row *sql.Row) (model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(&t.ID, &t.Origin, &t.Destination, &t.DepartureTime, &t.Passengers,
		&t.IsPublic, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Create inserts a ticket and fills in its generated ID and timestamps.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tickets (origin, destination, departure_time, passengers, is_public, owner_id) VALUES (?,?,?,?,?,?)",
		t.Origin, t.Destination, t.DepartureTime, t.Passengers, t.IsPublic, t.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM tickets WHERE id=?", t.ID).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID fetches a ticket by id; absence is reported as sql.ErrNoRows.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (model.Ticket, error) {
	return scanTicket(r.DB.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE id=? LIMIT 1", id))
}

// ListByOwner returns all tickets owned by the given user, newest first.
func (r *TicketRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE owner_id=? ORDER BY departure_time DESC", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

// ListPublic returns all tickets flagged public, newest first. Served to
// anonymous visitors; journal pages are never included.
func (r *TicketRepo) ListPublic(ctx context.Context) ([]model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE is_public=1 ORDER BY departure_time DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func collectTickets(rows *sql.Rows) ([]model.Ticket, error) {
	out := []model.Ticket{}
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.Origin, &t.Destination, &t.DepartureTime, &t.Passengers,
			&t.IsPublic, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update rewrites the mutable ticket fields. The owner column is left
// alone: ownership is immutable after creation.
func (r *TicketRepo) Update(ctx context.Context, t model.Ticket) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tickets SET origin=?, destination=?, departure_time=?, passengers=?, is_public=? WHERE id=?",
		t.Origin, t.Destination, t.DepartureTime, t.Passengers, t.IsPublic, t.ID)
	return err
}

// Delete removes a ticket and all of its journal pages in one
// transaction, so a ticket can never outlive its pages or vice versa.
func (r *TicketRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.Pages.DeleteByTicketTx(ctx, tx, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tickets WHERE id=?", id); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
