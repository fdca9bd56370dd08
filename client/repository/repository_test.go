package repository

import (
	"context"
	"errors"
	"fmt"
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

// fakeRemote mimics the REST backend in memory. Each method can be failed
// with failOn, and Update can be held on a channel to interleave completions.
type fakeRemote struct {
	mu      sync.Mutex
	items   []models.Imovel
	nextID  int
	calls   map[string]int
	failOn  map[string]error
	hold    map[string]chan struct{}
	skewNow time.Time
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		calls:   make(map[string]int),
		failOn:  make(map[string]error),
		hold:    make(map[string]chan struct{}),
		skewNow: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRemote) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.failOn[op]
}

func (f *fakeRemote) List(_ context.Context) ([]models.Imovel, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Imovel(nil), f.items...), nil
}

func (f *fakeRemote) Get(_ context.Context, id string) (models.Imovel, error) {
	if err := f.record("get"); err != nil {
		return models.Imovel{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, im := range f.items {
		if im.ID == id {
			return im, nil
		}
	}
	return models.Imovel{}, &remote.TransportError{Op: "get", Status: http.StatusNotFound, Err: &remote.NotFoundError{ID: id}}
}

func (f *fakeRemote) Create(_ context.Context, d models.Draft) (models.Imovel, error) {
	if err := f.record("create"); err != nil {
		return models.Imovel{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	im := models.Imovel{ID: strconv.Itoa(f.nextID), CreatedAt: f.skewNow, UpdatedAt: f.skewNow}
	d.Patch().Apply(&im)
	f.items = append(f.items, im)
	return im, nil
}

func (f *fakeRemote) Update(_ context.Context, id string, p models.PatchImovel) (models.Imovel, error) {
	if err := f.record("update"); err != nil {
		return models.Imovel{}, err
	}

	f.mu.Lock()
	i := slices.IndexFunc(f.items, func(im models.Imovel) bool { return im.ID == id })
	if i < 0 {
		f.mu.Unlock()
		return models.Imovel{}, &remote.TransportError{Op: "update", Status: http.StatusNotFound, Err: &remote.NotFoundError{ID: id}}
	}
	p.Apply(&f.items[i])
	out := f.items[i]
	wait := f.hold[*p.Title]
	f.mu.Unlock()

	if wait != nil {
		<-wait
	}
	// a misbehaving server echoing a different id and timestamp
	out.ID = "bogus"
	out.CreatedAt = f.skewNow.Add(time.Hour)
	return out, nil
}

func (f *fakeRemote) Delete(_ context.Context, id string) error {
	if err := f.record("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return &remote.TransportError{Op: "delete", Status: http.StatusNotFound, Err: &remote.NotFoundError{ID: id}}
}

func studio() models.Draft {
	return models.Draft{
		Title:       "Studio",
		Description: "Perto do metrô",
		Address:     "Rua A, 10",
		Purpose:     models.PurposeRent,
		Price:       2200,
		Bedrooms:    1,
		Bathrooms:   1,
		Garage:      false,
		Agent:       "Ana",
	}
}

func TestRepository_StartsEmpty(t *testing.T) {
	r := New(newFakeRemote(), nil)
	assert.Empty(t, r.List())
	assert.Equal(t, 0, r.Len())
}

func TestRepository_AddThenGet(t *testing.T) {
	fr := newFakeRemote()
	r := New(fr, nil)
	ctx := context.Background()

	created, err := r.Add(ctx, studio())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	require.Equal(t, 1, r.Len())
	assert.Equal(t, studio(), r.List()[0].Draft())

	got, err := r.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Zero(t, fr.calls["get"], "cached entries are served without a remote call")
}

func TestRepository_AddFailureLeavesCache(t *testing.T) {
	fr := newFakeRemote()
	r := New(fr, nil)
	boom := &remote.TransportError{Op: "create", Status: http.StatusUnprocessableEntity, Message: "invalid"}
	fr.failOn["create"] = boom

	_, err := r.Add(context.Background(), studio())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.Len())
}

func TestRepository_DoubleAddIsNotDeduplicated(t *testing.T) {
	fr := newFakeRemote()
	r := New(fr, nil)
	ctx := context.Background()

	a, err := r.Add(ctx, studio())
	require.NoError(t, err)
	b, err := r.Add(ctx, studio())
	require.NoError(t, err)

	assert.Equal(t, 2, fr.calls["create"])
	assert.Equal(t, 2, r.Len())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRepository_EditPreservesIdentity(t *testing.T) {
	fr := newFakeRemote()
	r := New(fr, nil)
	ctx := context.Background()

	created, err := r.Add(ctx, studio())
	require.NoError(t, err)

	d := studio()
	d.Title = "Studio reformado"
	d.Price = 2500
	edited, err := r.Edit(ctx, created.ID, d)
	require.NoError(t, err)

	assert.Equal(t, created.ID, edited.ID)
	assert.Equal(t, created.CreatedAt, edited.CreatedAt)

	cached := r.List()
	require.Len(t, cached, 1)
	assert.Equal(t, created.ID, cached[0].ID)
	assert.Equal(t, created.CreatedAt, cached[0].CreatedAt)
	assert.Equal(t, "Studio reformado", cached[0].Title)
	assert.Equal(t, 2500.0, cached[0].Price)
}

func TestRepository_EditFailureLeavesCache(t *testing.T) {
	fr := newFakeRemote()
	r := New(fr, nil)
	ctx := context.Background()

	created, err := r.Add(ctx, studio())
	require.NoError(t, err)

	fr.failOn["update"] = errors.New("connection reset")
	d := studio()
	d.Title = "Outro"
	_, err = r.Edit(ctx, created.ID, d)
	require.Error(t, err)

	assert.Equal(t, "Studio", r.List()[0].Title)
}

func TestRepository_RemoveFailureKeepsEntry(t *testing.T) {
	fr := newFakeRemote()
	r := New(fr, nil)
	ctx := context.Background()

	created, err := r.Add(ctx, studio())
	require.NoError(t, err)

	fr.failOn["delete"] = &remote.TransportError{Op: "delete", Status: http.StatusInternalServerError}
	err = r.Remove(ctx, created.ID)
	require.Error(t, err)

	var te *remote.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.Status)
	assert.Equal(t, 1, r.Len())

	delete(fr.failOn, "delete")
	require.NoError(t, r.Remove(ctx, created.ID))
	assert.Equal(t, 0, r.Len())
}

func TestRepository_RefreshReplacesCache(t *testing.T) {
	fr := newFakeRemote()
	r := New(fr, nil)
	ctx := context.Background()

	for i := range 3 {
		d := studio()
		d.Title = fmt.Sprintf("Studio %d", i)
		_, err := fr.Create(ctx, d)
		require.NoError(t, err)
	}

	require.NoError(t, r.Refresh(ctx))
	require.Equal(t, 3, r.Len())
	assert.Equal(t, "Studio 0", r.List()[0].Title)

	fr.failOn["list"] = errors.New("offline")
	require.Error(t, r.Refresh(ctx))
	assert.Equal(t, 3, r.Len(), "a failed refresh keeps the previous listings")
}

func TestRepository_GetFallsBackToRemote(t *testing.T) {
	fr := newFakeRemote()
	r := New(fr, nil)
	ctx := context.Background()

	im, err := fr.Create(ctx, studio())
	require.NoError(t, err)

	got, err := r.Get(ctx, im.ID)
	require.NoError(t, err)
	assert.Equal(t, im, got)
	assert.Equal(t, 1, fr.calls["get"])
	assert.Equal(t, 0, r.Len(), "remote lookups are not cached")

	_, err = r.Get(ctx, "404")
	assert.True(t, remote.IsNotFound(err))
}

func TestRepository_ListIsSnapshot(t *testing.T) {
	r := New(newFakeRemote(), nil)
	_, err := r.Add(context.Background(), studio())
	require.NoError(t, err)

	snap := r.List()
	snap[0].Title = "mutated"
	assert.Equal(t, "Studio", r.List()[0].Title)
}

func TestRepository_StaleEditIsDiscarded(t *testing.T) {
	fr := newFakeRemote()
	r := New(fr, nil)
	ctx := context.Background()

	created, err := r.Add(ctx, studio())
	require.NoError(t, err)

	slow := make(chan struct{})
	fr.hold["first"] = slow

	first := studio()
	first.Title = "first"
	second := studio()
	second.Title = "second"

	done := make(chan error, 1)
	go func() {
		_, err := r.Edit(ctx, created.ID, first)
		done <- err
	}()

	// the first edit has taken its generation once its update call is recorded
	require.Eventually(t, func() bool {
		fr.mu.Lock()
		defer fr.mu.Unlock()
		return fr.calls["update"] == 1
	}, time.Second, time.Millisecond)

	_, err = r.Edit(ctx, created.ID, second)
	require.NoError(t, err)
	assert.Equal(t, "second", r.List()[0].Title)

	close(slow)
	require.NoError(t, <-done)
	assert.Equal(t, "second", r.List()[0].Title)
}

func TestRepository_EditAfterRemoveDoesNotResurrect(t *testing.T) {
	fr := newFakeRemote()
	r := New(fr, nil)
	ctx := context.Background()

	created, err := r.Add(ctx, studio())
	require.NoError(t, err)

	slow := make(chan struct{})
	fr.hold["late"] = slow

	late := studio()
	late.Title = "late"
	done := make(chan error, 1)
	go func() {
		_, err := r.Edit(ctx, created.ID, late)
		done <- err
	}()

	require.Eventually(t, func() bool {
		fr.mu.Lock()
		defer fr.mu.Unlock()
		return fr.calls["update"] == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, r.Remove(ctx, created.ID))
	close(slow)
	require.NoError(t, <-done)

	assert.Equal(t, 0, r.Len())
}
