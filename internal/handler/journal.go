package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-journal/internal/journal"
	"github.com/iliyamo/travel-journal/internal/model"
	"github.com/iliyamo/travel-journal/internal/queue"
	queue_publisher "github.com/iliyamo/travel-journal/internal/service"
)

// JournalHandler exposes the journal page engine over HTTP: viewing and
// lazily creating pages, committing edits, and storing inline editor
// images. All routes require authentication; the engine decides per
// request whether the caller may see or touch anything.
type JournalHandler struct {
	Engine *journal.Engine
	Images journal.AttachmentStore // inline editor uploads, separate lifecycle from page attachments
}

func NewJournalHandler(engine *journal.Engine, images journal.AttachmentStore) *JournalHandler {
	if engine == nil || images == nil {
		panic("nil dependency passed to NewJournalHandler")
	}
	return &JournalHandler{Engine: engine, Images: images}
}

type pageResp struct {
	ID          uint64    `json:"id"`
	TicketID    uint64    `json:"ticket_id"`
	PageNumber  uint32    `json:"page_number"`
	Content     string    `json:"content"`
	ImagePath   string    `json:"image_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	HasNextPage bool      `json:"has_next_page"`
	ReadOnly    bool      `json:"read_only"`
	Created     bool      `json:"created"`
}

func toPageResp(p model.JournalPage, readOnly, created bool) pageResp {
	return pageResp{
		ID:          p.ID,
		TicketID:    p.TicketID,
		PageNumber:  p.PageNumber,
		Content:     p.Content,
		ImagePath:   p.ImagePath,
		CreatedAt:   p.CreatedAt,
		HasNextPage: p.HasNextPage,
		ReadOnly:    readOnly,
		Created:     created,
	}
}

// GetPage renders one journal page, creating it on first access unless
// the read_only flag is set. Foreign and absent tickets both produce
// 404.
//
// GET /v1/tickets/:id/journal/:page?read_only=true|false
func (h *JournalHandler) GetPage(c echo.Context) error {
	ticketID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	pageNum, err := strconv.ParseUint(c.Param("page"), 10, 32)
	if err != nil || pageNum == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page number"})
	}
	readOnly := boolQuery(c, "read_only")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.OpenPage(ctx, requesterID(c), ticketID, uint32(pageNum), readOnly)
	if err != nil {
		if err == journal.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open page failed"})
	}
	return c.JSON(http.StatusOK, toPageResp(res.Page, res.ReadOnly, res.Created))
}

// SavePage commits edits to a page from a multipart form ("content"
// field plus optional "image" file) and redirects to the canonical page
// view. The read_only query flag rejects the save outright, mirroring
// the editor's view mode.
//
// POST /v1/journal/pages/:id?read_only=true|false
func (h *JournalHandler) SavePage(c echo.Context) error {
	pageID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page id"})
	}
	content := c.FormValue("content")

	var upload *journal.Upload
	if fh, err := c.FormFile("image"); err == nil && fh != nil && fh.Size > 0 {
		src, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable image"})
		}
		defer src.Close()
		upload = &journal.Upload{Name: fh.Filename, Size: fh.Size, Reader: src}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Engine.SavePage(ctx, requesterID(c), pageID, content, upload, boolQuery(c, "read_only"))
	if err != nil {
		switch err {
		case journal.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case journal.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save page failed"})
		}
	}

	// Best effort event; a broker outage must not fail the save.
	ev := queue.PageSavedEvent{
		PageID:     res.PageID,
		TicketID:   res.TicketID,
		PageNumber: res.PageNumber,
		UserID:     requesterID(c),
		HasImage:   res.ImagePath != "",
		SavedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishPageSaved(ctx, ev)
	}()

	return c.Redirect(http.StatusSeeOther,
		fmt.Sprintf("/v1/tickets/%d/journal/%d", res.TicketID, res.PageNumber))
}

// UploadImage stores a single in-editor image immediately and returns
// its reference path for embedding, independent of any page save. An
// empty or missing file yields an empty location, which the editor
// treats as "no image".
//
// POST /v1/journal/images
func (h *JournalHandler) UploadImage(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil || fh == nil || fh.Size == 0 {
		return c.JSON(http.StatusOK, echo.Map{"location": ""})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable image"})
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	ref, err := h.Images.Store(ctx, src, fh.Filename)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store image failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"location": ref})
}
