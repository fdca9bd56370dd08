// Package view coordinates what the user sees: the list/create/edit mode,
// the detail and delete-confirmation overlays, the loading flags and the
// filter criteria. It is the only place where repository errors end up, and
// each of them becomes a notification.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/dcode-github/imovel_listing_system/client/filter"
	"github.com/dcode-github/imovel_listing_system/client/remote"
	"github.com/dcode-github/imovel_listing_system/logging"
	"github.com/dcode-github/imovel_listing_system/models"
)

type Mode string

const (
	ModeList   Mode = "list"
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

const (
	MsgCreated      = "Imóvel cadastrado com sucesso!"
	MsgEdited       = "Imóvel editado com sucesso!"
	MsgDeleted      = "Imóvel excluído com sucesso!"
	MsgSaveFailed   = "Erro ao salvar imóvel. Tente novamente."
	MsgDeleteFailed = "Erro ao excluir imóvel. Tente novamente."
	MsgLoadFailed   = "Erro ao carregar imóveis."
	MsgNotFound     = "Imóvel não encontrado."
)

var (
	ErrNotEditing      = errors.New("view: no create or edit form is open")
	ErrNoPendingDelete = errors.New("view: no delete is awaiting confirmation")
)

// Repository is what the view needs from repository.Repository.
type Repository interface {
	Refresh(ctx context.Context) error
	List() []models.Imovel
	Get(ctx context.Context, id string) (models.Imovel, error)
	Add(ctx context.Context, d models.Draft) (models.Imovel, error)
	Edit(ctx context.Context, id string, d models.Draft) (models.Imovel, error)
	Remove(ctx context.Context, id string) error
}

type Notifier interface {
	Success(msg string) string
	Error(msg string) string
}

type State struct {
	Mode Mode
	// Selected is the listing being edited.
	Selected *models.Imovel
	// Detail is the listing shown in the detail overlay.
	Detail        *models.Imovel
	PendingDelete string
	ConfirmOpen   bool
	Loading       bool
	Busy          bool
	// LoadFailed keeps the retry affordance up until a load succeeds.
	LoadFailed bool
	Err        string
	FormErrors map[string]string
	Criteria   filter.Criteria
}

type Machine struct {
	repo  Repository
	notes Notifier
	log   *slog.Logger

	mu sync.Mutex
	st State
	// gen changes on every mode transition so a submit finishing after the
	// user left its form does not move the view.
	gen  uint64
	busy int
}

func NewMachine(repo Repository, notes Notifier, log *slog.Logger) *Machine {
	if log == nil {
		log = logging.Discard()
	}
	return &Machine{
		repo:  repo,
		notes: notes,
		log:   log,
		st:    State{Mode: ModeList},
	}
}

// State returns a copy of the current view state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.st
	st.Busy = m.busy > 0
	if st.Selected != nil {
		sel := *st.Selected
		st.Selected = &sel
	}
	if st.Detail != nil {
		d := *st.Detail
		st.Detail = &d
	}
	st.FormErrors = maps.Clone(st.FormErrors)
	return st
}

// Load fills the repository. On failure the list area switches to an error
// state with a retry action.
func (m *Machine) Load(ctx context.Context) error {
	m.mu.Lock()
	m.st.Loading = true
	m.mu.Unlock()

	err := m.repo.Refresh(ctx)

	m.mu.Lock()
	m.st.Loading = false
	if err == nil {
		m.st.LoadFailed = false
		m.st.Err = ""
		m.mu.Unlock()
		return nil
	}
	msg := failure(MsgLoadFailed, err)
	m.st.LoadFailed = true
	m.st.Err = msg
	m.mu.Unlock()

	m.notes.Error(msg)
	m.log.Warn("Loading listings failed", "error", err)
	return err
}

func (m *Machine) Retry(ctx context.Context) error {
	return m.Load(ctx)
}

func (m *Machine) NewListing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionLocked(ModeCreate, nil)
}

// EditListing opens the edit form with the listing's current cached data.
func (m *Machine) EditListing(ctx context.Context, id string) error {
	im, err := m.lookup(ctx, id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionLocked(ModeEdit, &im)
	return nil
}

// Cancel leaves the create or edit form without saving.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionLocked(ModeList, nil)
}

func (m *Machine) transitionLocked(mode Mode, selected *models.Imovel) {
	m.gen++
	m.st.Mode = mode
	m.st.Selected = selected
	m.st.FormErrors = nil
	m.st.Err = ""
}

// Submit validates the form and saves it through the repository. The view
// stays on the form when validation or the save fails.
func (m *Machine) Submit(ctx context.Context, f Form) error {
	m.mu.Lock()
	mode, gen := m.st.Mode, m.gen
	var id string
	if m.st.Selected != nil {
		id = m.st.Selected.ID
	}
	m.mu.Unlock()

	if mode == ModeList {
		return ErrNotEditing
	}

	draft, err := f.Validate()
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			m.mu.Lock()
			if m.gen == gen {
				m.st.FormErrors = maps.Clone(verr.Fields)
			}
			m.mu.Unlock()
		}
		m.notes.Error(msgFormRejected)
		return err
	}

	m.beginBusy()
	defer m.endBusy()

	success := MsgCreated
	if mode == ModeEdit {
		success = MsgEdited
		_, err = m.repo.Edit(ctx, id, draft)
	} else {
		_, err = m.repo.Add(ctx, draft)
	}

	if err != nil {
		msg := failure(MsgSaveFailed, err)
		m.mu.Lock()
		if m.gen == gen {
			m.st.Err = msg
		}
		m.mu.Unlock()

		m.notes.Error(msg)
		m.log.Warn("Saving listing failed", "mode", mode, "id", id, "error", err)
		return err
	}

	m.mu.Lock()
	stale := m.gen != gen
	if !stale {
		m.transitionLocked(ModeList, nil)
	}
	m.mu.Unlock()

	m.notes.Success(success)
	if stale {
		m.log.Debug("Submit finished after the form was left", "mode", mode, "id", id)
	}
	return nil
}

func (m *Machine) ShowDetails(ctx context.Context, id string) error {
	im, err := m.lookup(ctx, id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.Detail = &im
	return nil
}

func (m *Machine) CloseDetails() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.Detail = nil
}

// lookup reads a listing for the edit form or the detail view and reports
// a failure to the user.
func (m *Machine) lookup(ctx context.Context, id string) (models.Imovel, error) {
	im, err := m.repo.Get(ctx, id)
	if err == nil {
		return im, nil
	}
	if remote.IsNotFound(err) {
		m.notes.Error(MsgNotFound)
	} else {
		m.notes.Error(failure(MsgLoadFailed, err))
	}
	return models.Imovel{}, err
}

// RequestDelete opens the confirmation prompt for id.
func (m *Machine) RequestDelete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.PendingDelete = id
	m.st.ConfirmOpen = true
}

func (m *Machine) CancelDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.PendingDelete = ""
	m.st.ConfirmOpen = false
}

// ConfirmDelete removes the pending listing. The prompt closes whatever the
// outcome; on failure the listing stays in the repository.
func (m *Machine) ConfirmDelete(ctx context.Context) error {
	m.mu.Lock()
	if !m.st.ConfirmOpen || m.st.PendingDelete == "" {
		m.mu.Unlock()
		return ErrNoPendingDelete
	}
	id := m.st.PendingDelete
	m.mu.Unlock()

	m.beginBusy()
	defer m.endBusy()

	err := m.repo.Remove(ctx, id)

	m.mu.Lock()
	if m.st.PendingDelete == id {
		m.st.PendingDelete = ""
		m.st.ConfirmOpen = false
	}
	if err != nil {
		msg := failure(MsgDeleteFailed, err)
		m.st.Err = msg
		m.mu.Unlock()

		m.notes.Error(msg)
		m.log.Warn("Deleting listing failed", "id", id, "error", err)
		return err
	}
	if m.st.Detail != nil && m.st.Detail.ID == id {
		m.st.Detail = nil
	}
	if m.st.Mode == ModeEdit && m.st.Selected != nil && m.st.Selected.ID == id {
		m.transitionLocked(ModeList, nil)
	}
	m.mu.Unlock()

	m.notes.Success(MsgDeleted)
	return nil
}

func (m *Machine) SetTerm(term string) {
	m.setCriteria(func(c *filter.Criteria) { c.Term = term })
}

func (m *Machine) SetPurpose(purpose string) {
	m.setCriteria(func(c *filter.Criteria) { c.Purpose = purpose })
}

func (m *Machine) SetMinPrice(v string) {
	m.setCriteria(func(c *filter.Criteria) { c.MinPrice = v })
}

func (m *Machine) SetMaxPrice(v string) {
	m.setCriteria(func(c *filter.Criteria) { c.MaxPrice = v })
}

func (m *Machine) ClearFilters() {
	m.setCriteria(func(c *filter.Criteria) { *c = filter.Criteria{} })
}

func (m *Machine) setCriteria(f func(*filter.Criteria)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(&m.st.Criteria)
}

// Visible returns the filtered listings, or nil while the list is loading
// or after a failed load.
func (m *Machine) Visible() []models.Imovel {
	m.mu.Lock()
	loading, failed, c := m.st.Loading, m.st.LoadFailed, m.st.Criteria
	m.mu.Unlock()

	if loading || failed {
		return nil
	}
	return filter.Apply(m.repo.List(), c)
}

func (m *Machine) beginBusy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy++
}

func (m *Machine) endBusy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy--
}

func failure(msg string, err error) string {
	return fmt.Sprintf("%s (%s)", msg, remote.Cause(err))
}
