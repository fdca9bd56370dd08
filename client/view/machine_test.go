package view

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcode-github/imovel_listing_system/client/remote"
	"github.com/dcode-github/imovel_listing_system/models"
)

type stubRepo struct {
	mu     sync.Mutex
	items  []models.Imovel
	nextID int
	errs   map[string]error
	calls  map[string]int
	// gate, when set, blocks Add and Edit until it is closed
	gate    chan struct{}
	entered chan struct{}
}

func newStubRepo(items ...models.Imovel) *stubRepo {
	return &stubRepo{items: items, nextID: len(items), errs: map[string]error{}, calls: map[string]int{}}
}

func (r *stubRepo) enter(op string) error {
	r.mu.Lock()
	r.calls[op]++
	err := r.errs[op]
	gate, entered := r.gate, r.entered
	r.mu.Unlock()

	if gate != nil && (op == "add" || op == "edit") {
		entered <- struct{}{}
		<-gate
	}
	return err
}

func (r *stubRepo) Refresh(context.Context) error { return r.enter("refresh") }

func (r *stubRepo) List() []models.Imovel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

func (r *stubRepo) Get(_ context.Context, id string) (models.Imovel, error) {
	if err := r.enter("get"); err != nil {
		return models.Imovel{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, im := range r.items {
		if im.ID == id {
			return im, nil
		}
	}
	return models.Imovel{}, &remote.TransportError{Op: "get", Status: http.StatusNotFound, Err: &remote.NotFoundError{ID: id}}
}

func (r *stubRepo) Add(_ context.Context, d models.Draft) (models.Imovel, error) {
	if err := r.enter("add"); err != nil {
		return models.Imovel{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	im := models.Imovel{ID: strconv.Itoa(r.nextID), CreatedAt: time.Now()}
	d.Patch().Apply(&im)
	r.items = append(r.items, im)
	return im, nil
}

func (r *stubRepo) Edit(_ context.Context, id string, d models.Draft) (models.Imovel, error) {
	if err := r.enter("edit"); err != nil {
		return models.Imovel{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			d.Patch().Apply(&r.items[i])
			return r.items[i], nil
		}
	}
	return models.Imovel{}, &remote.TransportError{Op: "update", Status: http.StatusNotFound, Err: &remote.NotFoundError{ID: id}}
}

func (r *stubRepo) Remove(_ context.Context, id string) error {
	if err := r.enter("remove"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = slices.DeleteFunc(r.items, func(im models.Imovel) bool { return im.ID == id })
	return nil
}

type note struct {
	severity string
	msg      string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *recordingNotifier) Success(msg string) string { return n.add("success", msg) }
func (n *recordingNotifier) Error(msg string) string   { return n.add("error", msg) }

func (n *recordingNotifier) add(sev, msg string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{sev, msg})
	return strconv.Itoa(len(n.notes))
}

func (n *recordingNotifier) all() []note {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.notes)
}

func house(id string, price float64) models.Imovel {
	return models.Imovel{
		ID: id, Title: "Casa " + id, Description: "Ampla", Address: "Rua " + id,
		Purpose: models.PurposeSale, Price: price, Bedrooms: 3, Bathrooms: 2, Agent: "Bruno",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func studioForm() Form {
	return Form{
		Title: "Studio", Description: "Perto do metrô", Address: "Rua A, 10",
		Purpose: "locacao", Price: "2200", Bedrooms: "1", Bathrooms: "1", Agent: "Ana",
	}
}

func TestMachine_LoadSuccess(t *testing.T) {
	repo := newStubRepo(house("1", 2200), house("2", 450000))
	m := NewMachine(repo, &recordingNotifier{}, nil)

	require.NoError(t, m.Load(context.Background()))
	st := m.State()
	assert.False(t, st.Loading)
	assert.False(t, st.LoadFailed)
	assert.Len(t, m.Visible(), 2)
}

func TestMachine_LoadingHidesResults(t *testing.T) {
	repo := newStubRepo(house("1", 2200))
	m := NewMachine(repo, &recordingNotifier{}, nil)

	m.mu.Lock()
	m.st.Loading = true
	m.mu.Unlock()
	assert.Nil(t, m.Visible())
}

func TestMachine_LoadFailureOffersRetry(t *testing.T) {
	repo := newStubRepo(house("1", 2200))
	repo.errs["refresh"] = &remote.TransportError{Op: "list", Status: http.StatusInternalServerError}
	notes := &recordingNotifier{}
	m := NewMachine(repo, notes, nil)

	require.Error(t, m.Load(context.Background()))
	st := m.State()
	assert.False(t, st.Loading, "loading is cleared on failure")
	assert.True(t, st.LoadFailed)
	assert.Contains(t, st.Err, MsgLoadFailed)
	assert.Nil(t, m.Visible())
	require.Len(t, notes.all(), 1)
	assert.Equal(t, "error", notes.all()[0].severity)

	delete(repo.errs, "refresh")
	require.NoError(t, m.Retry(context.Background()))
	assert.False(t, m.State().LoadFailed)
	assert.Len(t, m.Visible(), 1)
}

func TestMachine_CreateFlow(t *testing.T) {
	repo := newStubRepo()
	notes := &recordingNotifier{}
	m := NewMachine(repo, notes, nil)

	m.NewListing()
	assert.Equal(t, ModeCreate, m.State().Mode)
	assert.Nil(t, m.State().Selected)

	require.NoError(t, m.Submit(context.Background(), studioForm()))
	st := m.State()
	assert.Equal(t, ModeList, st.Mode)
	assert.False(t, st.Busy)
	assert.Equal(t, []note{{"success", MsgCreated}}, notes.all())

	items := repo.List()
	require.Len(t, items, 1)
	assert.Equal(t, models.PurposeRent, items[0].Purpose)
	assert.Equal(t, 2200.0, items[0].Price)
}

func TestMachine_EditFlow(t *testing.T) {
	repo := newStubRepo(house("1", 2200))
	notes := &recordingNotifier{}
	m := NewMachine(repo, notes, nil)
	ctx := context.Background()

	require.NoError(t, m.EditListing(ctx, "1"))
	st := m.State()
	assert.Equal(t, ModeEdit, st.Mode)
	require.NotNil(t, st.Selected)
	assert.Equal(t, "Casa 1", st.Selected.Title)

	f := FormFrom(*st.Selected)
	f.Price = "2500,50"
	require.NoError(t, m.Submit(ctx, f))

	assert.Equal(t, ModeList, m.State().Mode)
	assert.Nil(t, m.State().Selected)
	assert.Equal(t, 2500.5, repo.List()[0].Price)
	assert.Equal(t, []note{{"success", MsgEdited}}, notes.all())
}

func TestMachine_EditUnknownListing(t *testing.T) {
	notes := &recordingNotifier{}
	m := NewMachine(newStubRepo(), notes, nil)

	err := m.EditListing(context.Background(), "9")
	assert.True(t, remote.IsNotFound(err))
	assert.Equal(t, ModeList, m.State().Mode)
	assert.Equal(t, []note{{"error", MsgNotFound}}, notes.all())
}

func TestMachine_SubmitFailureStaysOnForm(t *testing.T) {
	repo := newStubRepo()
	repo.errs["add"] = &remote.TransportError{Op: "create", Status: http.StatusInternalServerError, Message: "banco indisponível"}
	notes := &recordingNotifier{}
	m := NewMachine(repo, notes, nil)

	m.NewListing()
	require.Error(t, m.Submit(context.Background(), studioForm()))

	st := m.State()
	assert.Equal(t, ModeCreate, st.Mode)
	assert.False(t, st.Busy)
	require.Len(t, notes.all(), 1)
	assert.Equal(t, "error", notes.all()[0].severity)
	assert.Equal(t, MsgSaveFailed+" (banco indisponível)", notes.all()[0].msg)
	assert.Equal(t, notes.all()[0].msg, st.Err)
}

func TestMachine_InvalidFormNeverReachesRepository(t *testing.T) {
	repo := newStubRepo()
	notes := &recordingNotifier{}
	m := NewMachine(repo, notes, nil)

	m.NewListing()
	f := studioForm()
	f.Title = "  "
	f.Price = "0"
	err := m.Submit(context.Background(), f)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, repo.calls["add"])
	assert.Equal(t, ModeCreate, m.State().Mode)
	assert.Equal(t, map[string]string{"titulo": msgRequired, "valor": msgPositive}, m.State().FormErrors)
	assert.Equal(t, []note{{"error", msgFormRejected}}, notes.all())
}

func TestMachine_SubmitOutsideForm(t *testing.T) {
	m := NewMachine(newStubRepo(), &recordingNotifier{}, nil)
	assert.ErrorIs(t, m.Submit(context.Background(), studioForm()), ErrNotEditing)
}

func TestMachine_CancelClearsSelection(t *testing.T) {
	m := NewMachine(newStubRepo(house("1", 10)), &recordingNotifier{}, nil)
	require.NoError(t, m.EditListing(context.Background(), "1"))

	m.Cancel()
	st := m.State()
	assert.Equal(t, ModeList, st.Mode)
	assert.Nil(t, st.Selected)
}

func TestMachine_StaleSubmitDoesNotMoveView(t *testing.T) {
	repo := newStubRepo()
	repo.gate = make(chan struct{})
	repo.entered = make(chan struct{}, 1)
	notes := &recordingNotifier{}
	m := NewMachine(repo, notes, nil)
	ctx := context.Background()

	m.NewListing()
	done := make(chan error, 1)
	go func() { done <- m.Submit(ctx, studioForm()) }()

	<-repo.entered
	assert.True(t, m.State().Busy)

	// the user leaves the first form and opens a new one meanwhile
	m.Cancel()
	m.NewListing()

	close(repo.gate)
	require.NoError(t, <-done)

	st := m.State()
	assert.Equal(t, ModeCreate, st.Mode, "the new form stays open")
	assert.False(t, st.Busy)
	assert.Len(t, repo.List(), 1, "the repository still got the listing")
	assert.Equal(t, []note{{"success", MsgCreated}}, notes.all())
}

func TestMachine_DeleteFlow(t *testing.T) {
	repo := newStubRepo(house("1", 10), house("2", 20))
	notes := &recordingNotifier{}
	m := NewMachine(repo, notes, nil)
	ctx := context.Background()

	require.NoError(t, m.ShowDetails(ctx, "1"))
	m.RequestDelete("1")
	st := m.State()
	assert.True(t, st.ConfirmOpen)
	assert.Equal(t, "1", st.PendingDelete)

	require.NoError(t, m.ConfirmDelete(ctx))
	st = m.State()
	assert.False(t, st.ConfirmOpen)
	assert.Empty(t, st.PendingDelete)
	assert.Nil(t, st.Detail, "the detail view of a deleted listing closes")
	assert.False(t, st.Busy)
	assert.Len(t, repo.List(), 1)
	assert.Equal(t, []note{{"success", MsgDeleted}}, notes.all())
}

func TestMachine_DeleteFailureKeepsListing(t *testing.T) {
	repo := newStubRepo(house("1", 10))
	repo.errs["remove"] = &remote.TransportError{Op: "delete", Status: http.StatusInternalServerError}
	notes := &recordingNotifier{}
	m := NewMachine(repo, notes, nil)
	require.NoError(t, m.Load(context.Background()))

	m.RequestDelete("1")
	require.Error(t, m.ConfirmDelete(context.Background()))

	st := m.State()
	assert.False(t, st.ConfirmOpen)
	assert.Empty(t, st.PendingDelete)
	assert.False(t, st.Busy)
	assert.Len(t, m.Visible(), 1)
	require.Len(t, notes.all(), 1)
	assert.Equal(t, note{"error", MsgDeleteFailed + " (Internal Server Error)"}, notes.all()[0])
}

func TestMachine_CancelDelete(t *testing.T) {
	repo := newStubRepo(house("1", 10))
	m := NewMachine(repo, &recordingNotifier{}, nil)

	m.RequestDelete("1")
	m.CancelDelete()
	assert.False(t, m.State().ConfirmOpen)
	assert.Empty(t, m.State().PendingDelete)
	assert.Zero(t, repo.calls["remove"])

	assert.ErrorIs(t, m.ConfirmDelete(context.Background()), ErrNoPendingDelete)
}

func TestMachine_DeletingEditedListingLeavesForm(t *testing.T) {
	repo := newStubRepo(house("1", 10))
	m := NewMachine(repo, &recordingNotifier{}, nil)
	ctx := context.Background()

	require.NoError(t, m.EditListing(ctx, "1"))
	m.RequestDelete("1")
	require.NoError(t, m.ConfirmDelete(ctx))
	assert.Equal(t, ModeList, m.State().Mode)
}

func TestMachine_Filters(t *testing.T) {
	repo := newStubRepo(house("1", 2200), house("2", 450000))
	m := NewMachine(repo, &recordingNotifier{}, nil)
	require.NoError(t, m.Load(context.Background()))

	m.SetMinPrice("3000")
	got := m.Visible()
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	m.SetMaxPrice("abc")
	assert.Len(t, m.Visible(), 1)

	m.SetTerm("casa 1")
	assert.Empty(t, m.Visible())

	m.ClearFilters()
	m.SetPurpose("locacao")
	assert.Empty(t, m.Visible())
	m.SetPurpose("todas")
	assert.Len(t, m.Visible(), 2)
}

func TestMachine_StateIsCopy(t *testing.T) {
	m := NewMachine(newStubRepo(house("1", 10)), &recordingNotifier{}, nil)
	require.NoError(t, m.EditListing(context.Background(), "1"))

	st := m.State()
	st.Selected.Title = "changed"
	assert.Equal(t, "Casa 1", m.State().Selected.Title)
}

func TestFailureMessageForPlainErrors(t *testing.T) {
	assert.Equal(t, MsgSaveFailed+" (boom)", failure(MsgSaveFailed, errors.New("boom")))
}
