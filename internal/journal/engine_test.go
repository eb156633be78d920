package journal

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-journal/internal/model"
)

// ----- in-memory fakes -----

type fakeTicketStore struct {
	mu      sync.Mutex
	tickets map[uint64]model.Ticket
}

func newFakeTicketStore(tickets ...model.Ticket) *fakeTicketStore {
	s := &fakeTicketStore{tickets: map[uint64]model.Ticket{}}
	for _, t := range tickets {
		s.tickets[t.ID] = t
	}
	return s
}

func (s *fakeTicketStore) GetByID(ctx context.Context, id uint64) (model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return model.Ticket{}, sql.ErrNoRows
	}
	return t, nil
}

func (s *fakeTicketStore) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tickets, id)
}

type pageKey struct {
	ticketID   uint64
	pageNumber uint32
}

// fakePageStore enforces the (ticket, page number) uniqueness constraint
// the way the real table does. onCreate, when set, runs inside Create
// before the uniqueness check so tests can inject a race winner.
type fakePageStore struct {
	mu       sync.Mutex
	nextID   uint64
	pages    map[uint64]model.JournalPage
	byKey    map[pageKey]uint64
	onCreate func()
}

func newFakePageStore() *fakePageStore {
	return &fakePageStore{pages: map[uint64]model.JournalPage{}, byKey: map[pageKey]uint64{}}
}

func (s *fakePageStore) GetByTicketAndNumber(ctx context.Context, ticketID uint64, pageNumber uint32) (model.JournalPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byKey[pageKey{ticketID, pageNumber}]
	if !ok {
		return model.JournalPage{}, sql.ErrNoRows
	}
	return s.pages[id], nil
}

func (s *fakePageStore) GetByID(ctx context.Context, id uint64) (model.JournalPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[id]
	if !ok {
		return model.JournalPage{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *fakePageStore) Create(ctx context.Context, p *model.JournalPage) error {
	if s.onCreate != nil {
		s.onCreate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pageKey{p.TicketID, p.PageNumber}
	if _, exists := s.byKey[key]; exists {
		return ErrDuplicatePage
	}
	s.nextID++
	p.ID = s.nextID
	s.pages[p.ID] = *p
	s.byKey[key] = p.ID
	return nil
}

func (s *fakePageStore) Update(ctx context.Context, id uint64, content string, imagePath *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Content = content
	if imagePath != nil {
		p.ImagePath = *imagePath
	}
	s.pages[id] = p
	return nil
}

func (s *fakePageStore) HasPage(ctx context.Context, ticketID uint64, pageNumber uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byKey[pageKey{ticketID, pageNumber}]
	return ok, nil
}

// insert places a row directly, bypassing the resolver (used to seed
// state or to play the race winner).
func (s *fakePageStore) insert(p model.JournalPage) model.JournalPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.pages[p.ID] = p
	s.byKey[pageKey{p.TicketID, p.PageNumber}] = p.ID
	return p
}

func (s *fakePageStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

type fakeAttachments struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *fakeAttachments) Store(ctx context.Context, r io.Reader, originalName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	s.calls++
	return fmt.Sprintf("/uploads/fake-%d.jpg", s.calls), nil
}

func upload(content string) *Upload {
	return &Upload{Name: "photo.jpg", Size: int64(len(content)), Reader: strings.NewReader(content)}
}

const (
	ownerID    = uint64(7)
	strangerID = uint64(8)
	ticketID   = uint64(5)
)

func newTestEngine(t *testing.T) (*Engine, *fakeTicketStore, *fakePageStore, *fakeAttachments) {
	t.Helper()
	tickets := newFakeTicketStore(model.Ticket{ID: ticketID, OwnerID: ownerID, IsPublic: true})
	pages := newFakePageStore()
	attachments := &fakeAttachments{}
	return NewEngine(tickets, pages, attachments), tickets, pages, attachments
}

// ----- OpenPage -----

func TestOpenPageCreatesOnFirstAccess(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.OpenPage(ctx, ownerID, ticketID, 3, false)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "", res.Page.Content)
	assert.Equal(t, uint32(3), res.Page.PageNumber)
	assert.Equal(t, 1, pages.count(), "first access must persist exactly one page")

	again, err := e.OpenPage(ctx, ownerID, ticketID, 3, false)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, res.Page.ID, again.Page.ID)
	assert.Equal(t, 1, pages.count())
}

func TestOpenPageReadOnlyAbsentIsNotFound(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)

	_, err := e.OpenPage(context.Background(), ownerID, ticketID, 1, true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, pages.count(), "read-only viewing must not materialize pages")
}

func TestOpenPageReadOnlyExistingPage(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)
	pages.insert(model.JournalPage{TicketID: ticketID, PageNumber: 1, Content: "day one"})

	res, err := e.OpenPage(context.Background(), ownerID, ticketID, 1, true)
	require.NoError(t, err)
	assert.True(t, res.ReadOnly)
	assert.False(t, res.Created)
	assert.Equal(t, "day one", res.Page.Content)
}

func TestOpenPageJournalIsPrivateEvenOnPublicTickets(t *testing.T) {
	e, _, pages, _ := newTestEngine(t) // ticket 5 is public

	_, err := e.OpenPage(context.Background(), strangerID, ticketID, 1, false)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.OpenPage(context.Background(), 0, ticketID, 1, false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, pages.count(), "denied requests must have no side effects")

	// The owner still gets the lazily created page.
	res, err := e.OpenPage(context.Background(), ownerID, ticketID, 1, false)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "", res.Page.Content)
}

func TestOpenPageMissingTicket(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	_, err := e.OpenPage(context.Background(), ownerID, 999, 1, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenPageInvalidPageNumber(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)

	_, err := e.OpenPage(context.Background(), ownerID, ticketID, 0, false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, pages.count())
}

func TestOpenPageHasNextPage(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)
	pages.insert(model.JournalPage{TicketID: ticketID, PageNumber: 1})
	pages.insert(model.JournalPage{TicketID: ticketID, PageNumber: 2})

	res, err := e.OpenPage(context.Background(), ownerID, ticketID, 1, false)
	require.NoError(t, err)
	assert.True(t, res.Page.HasNextPage)

	res, err = e.OpenPage(context.Background(), ownerID, ticketID, 2, false)
	require.NoError(t, err)
	assert.False(t, res.Page.HasNextPage)
}

func TestOpenPageSparseNumbering(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)

	res, err := e.OpenPage(context.Background(), ownerID, ticketID, 9999, false)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, uint32(9999), res.Page.PageNumber)
	assert.Equal(t, 1, pages.count(), "no gap filling: only the requested page exists")
}

func TestOpenPageConcurrentFirstAccessCreatesOnePage(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]uint64, 10)
	errs := make([]error, len(ids))
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.OpenPage(ctx, ownerID, ticketID, 4, false)
			errs[i] = err
			ids[i] = res.Page.ID
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err, "losing the creation race is not an error")
	}
	assert.Equal(t, 1, pages.count(), "the uniqueness constraint must keep the pair unique")
	for _, id := range ids {
		assert.Equal(t, ids[0], id, "every racer must resolve to the same page")
	}
}

// ----- SavePage -----

func TestSavePageReadOnlyIsForbidden(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)
	p := pages.insert(model.JournalPage{TicketID: ticketID, PageNumber: 1, Content: "original"})

	_, err := e.SavePage(context.Background(), ownerID, p.ID, "overwritten", upload("img"), true)
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err := pages.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Content, "read-only saves must not mutate anything")
	assert.Empty(t, stored.ImagePath)
}

func TestSavePageRoundTrip(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	opened, err := e.OpenPage(ctx, ownerID, ticketID, 3, false)
	require.NoError(t, err)

	saved, err := e.SavePage(ctx, ownerID, opened.Page.ID, "hello", nil, false)
	require.NoError(t, err)
	assert.Equal(t, ticketID, saved.TicketID)
	assert.Equal(t, uint32(3), saved.PageNumber)

	res, err := e.OpenPage(ctx, ownerID, ticketID, 3, false)
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Page.Content)
}

func TestSavePageUnknownID(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	_, err := e.SavePage(context.Background(), ownerID, 42, "content", nil, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavePageNonOwnerIsForbidden(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)
	p := pages.insert(model.JournalPage{TicketID: ticketID, PageNumber: 1, Content: "mine"})

	_, err := e.SavePage(context.Background(), strangerID, p.ID, "theirs", nil, false)
	assert.ErrorIs(t, err, ErrForbidden)

	stored, _ := pages.GetByID(context.Background(), p.ID)
	assert.Equal(t, "mine", stored.Content)
}

func TestSavePageAfterTicketDeleted(t *testing.T) {
	e, tickets, pages, _ := newTestEngine(t)
	p := pages.insert(model.JournalPage{TicketID: ticketID, PageNumber: 1})
	tickets.remove(ticketID)

	_, err := e.SavePage(context.Background(), ownerID, p.ID, "content", nil, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavePageAttachmentReplaceAndRetain(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)
	ctx := context.Background()
	p := pages.insert(model.JournalPage{TicketID: ticketID, PageNumber: 1})

	saved, err := e.SavePage(ctx, ownerID, p.ID, "Day 1: arrived.", upload("jpeg"), false)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ImagePath)
	firstRef := saved.ImagePath

	// Text-only save keeps the existing attachment reference.
	saved, err = e.SavePage(ctx, ownerID, p.ID, "Day 1: arrived, updated.", nil, false)
	require.NoError(t, err)
	assert.Equal(t, firstRef, saved.ImagePath)
	stored, _ := pages.GetByID(ctx, p.ID)
	assert.Equal(t, "Day 1: arrived, updated.", stored.Content)
	assert.Equal(t, firstRef, stored.ImagePath)

	// A new upload replaces the reference.
	saved, err = e.SavePage(ctx, ownerID, p.ID, "Day 2.", upload("jpeg2"), false)
	require.NoError(t, err)
	assert.NotEqual(t, firstRef, saved.ImagePath)
	stored, _ = pages.GetByID(ctx, p.ID)
	assert.Equal(t, saved.ImagePath, stored.ImagePath)
}

func TestSavePageEmptyUploadLeavesAttachmentUntouched(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)
	ctx := context.Background()
	p := pages.insert(model.JournalPage{TicketID: ticketID, PageNumber: 1, ImagePath: "/uploads/old.jpg"})

	// Size zero means "no attachment submitted".
	saved, err := e.SavePage(ctx, ownerID, p.ID, "text", &Upload{Name: "x.jpg", Size: 0}, false)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/old.jpg", saved.ImagePath)

	stored, _ := pages.GetByID(ctx, p.ID)
	assert.Equal(t, "/uploads/old.jpg", stored.ImagePath)
}

func TestSavePageClearContentAllowed(t *testing.T) {
	e, _, pages, _ := newTestEngine(t)
	p := pages.insert(model.JournalPage{TicketID: ticketID, PageNumber: 1, Content: "something"})

	_, err := e.SavePage(context.Background(), ownerID, p.ID, "", nil, false)
	require.NoError(t, err)

	stored, _ := pages.GetByID(context.Background(), p.ID)
	assert.Equal(t, "", stored.Content)
}

func TestSavePageAttachmentFailureAbortsSave(t *testing.T) {
	e, _, pages, attachments := newTestEngine(t)
	p := pages.insert(model.JournalPage{TicketID: ticketID, PageNumber: 1, Content: "before"})
	attachments.err = fmt.Errorf("disk full")

	_, err := e.SavePage(context.Background(), ownerID, p.ID, "after", upload("jpeg"), false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)

	stored, _ := pages.GetByID(context.Background(), p.ID)
	assert.Equal(t, "before", stored.Content, "a failed attachment write must leave the page unchanged")
}
