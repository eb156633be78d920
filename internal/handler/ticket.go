package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-journal/internal/journal"
	"github.com/iliyamo/travel-journal/internal/model"
	"github.com/iliyamo/travel-journal/internal/repository"
)

// TicketHandler implements the ticket CRUD surface. Tickets the caller
// does not own are reported as 404 (not 403) unless public, so the API
// never confirms the existence of foreign tickets.
type TicketHandler struct {
	Tickets *repository.TicketRepo
}

func NewTicketHandler(tickets *repository.TicketRepo) *TicketHandler {
	if tickets == nil {
		panic("nil repository passed to NewTicketHandler")
	}
	return &TicketHandler{Tickets: tickets}
}

type ticketReq struct {
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	Passengers    uint32    `json:"passengers"`
	IsPublic      bool      `json:"is_public"`
}

type ticketResp struct {
	ID            uint64    `json:"id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	Passengers    uint32    `json:"passengers"`
	IsPublic      bool      `json:"is_public"`
	OwnerID       uint64    `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toTicketResp(t model.Ticket) ticketResp {
	return ticketResp{
		ID:            t.ID,
		Origin:        t.Origin,
		Destination:   t.Destination,
		DepartureTime: t.DepartureTime,
		Passengers:    t.Passengers,
		IsPublic:      t.IsPublic,
		OwnerID:       t.OwnerID,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func (r *ticketReq) validate() string {
	r.Origin = strings.TrimSpace(r.Origin)
	r.Destination = strings.TrimSpace(r.Destination)
	switch {
	case r.Origin == "":
		return "origin required"
	case r.Destination == "":
		return "destination required"
	case r.DepartureTime.IsZero():
		return "departure_time required"
	case r.Passengers < 1 || r.Passengers > 100:
		return "passengers must be between 1 and 100"
	}
	return ""
}

// List returns the caller's own tickets.
func (h *TicketHandler) List(c echo.Context) error {
	uid := requesterID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]ticketResp, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResp(t))
	}
	return c.JSON(http.StatusOK, out)
}

// Create stores a new ticket. The owner is always the authenticated
// identity; any owner field in the payload is ignored.
func (h *TicketHandler) Create(c echo.Context) error {
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	uid := requesterID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := model.Ticket{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureTime: req.DepartureTime.UTC(),
		Passengers:    req.Passengers,
		IsPublic:      req.IsPublic,
		OwnerID:       uid,
	}
	if err := h.Tickets.Create(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create ticket failed"})
	}
	return c.JSON(http.StatusCreated, toTicketResp(t))
}

// Get returns one ticket: the owner always may, anyone may when public.
func (h *TicketHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !journal.CanViewTicket(requesterID(c), t.OwnerID, t.IsPublic) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusOK, toTicketResp(t))
}

// Update rewrites a ticket's mutable fields. Ownership is re-checked
// against the stored row, never against the payload, and never changes.
func (h *TicketHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	existing, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if existing.OwnerID != requesterID(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	existing.Origin = req.Origin
	existing.Destination = req.Destination
	existing.DepartureTime = req.DepartureTime.UTC()
	existing.Passengers = req.Passengers
	existing.IsPublic = req.IsPublic
	if err := h.Tickets.Update(ctx, existing); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update ticket failed"})
	}
	return c.JSON(http.StatusOK, toTicketResp(existing))
}

// Delete removes an owned ticket together with its journal pages.
func (h *TicketHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if t.OwnerID != requesterID(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	if err := h.Tickets.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete ticket failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPublic returns all public tickets. Anonymous; sits behind the
// response cache.
func (h *TicketHandler) ListPublic(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ListPublic(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]ticketResp, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResp(t))
	}
	return c.JSON(http.StatusOK, out)
}
