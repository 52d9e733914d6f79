package dialog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/roster/internal/api/validation"
	"github.com/daap14/roster/internal/dialog"
	"github.com/daap14/roster/internal/kv"
	"github.com/daap14/roster/internal/record"
)

// --- Mock Mutator ---

type mockMutator struct {
	createFn func(ctx context.Context, f record.Fields) (record.Record, error)
	updateFn func(ctx context.Context, id int64, f record.Fields) (record.Record, error)
	deleteFn func(ctx context.Context, id int64) error

	calls []string
}

func (m *mockMutator) Create(ctx context.Context, f record.Fields) (record.Record, error) {
	m.calls = append(m.calls, "create")
	if m.createFn != nil {
		return m.createFn(ctx, f)
	}
	return record.Record{ID: 1, Name: f.Name, Email: f.Email, Role: f.Role}, nil
}

func (m *mockMutator) Update(ctx context.Context, id int64, f record.Fields) (record.Record, error) {
	m.calls = append(m.calls, "update")
	if m.updateFn != nil {
		return m.updateFn(ctx, id, f)
	}
	return record.Record{ID: id, Name: f.Name, Email: f.Email, Role: f.Role}, nil
}

func (m *mockMutator) Delete(ctx context.Context, id int64) error {
	m.calls = append(m.calls, "delete")
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Helpers ---

func existing() record.Record {
	return record.Record{ID: 1700000000000, Name: "Ada Lovelace", Email: "ada@example.com", Role: "admin"}
}

func validForm() validation.RecordForm {
	return validation.RecordForm{Name: "Grace Hopper", Email: "grace@navy.mil", Role: "editor"}
}

// ===== Create flow =====

func TestOpenCreate_EditingNew(t *testing.T) {
	m := dialog.New(&mockMutator{})

	require.NoError(t, m.OpenCreate())

	s := m.State()
	assert.Equal(t, dialog.Editing, s.Kind)
	assert.True(t, s.IsNew())
	assert.Nil(t, s.Target)
	assert.Equal(t, validation.RecordForm{}, s.Form)
}

func TestSubmit_ValidNewCreatesAndCloses(t *testing.T) {
	store := &mockMutator{}
	m := dialog.New(store)
	require.NoError(t, m.OpenCreate())

	saved, err := m.Submit(context.Background(), validForm())

	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", saved.Name)
	assert.Equal(t, []string{"create"}, store.calls)
	assert.Equal(t, dialog.State{Kind: dialog.Closed}, m.State())
}

func TestSubmit_InvalidStaysEditing(t *testing.T) {
	store := &mockMutator{}
	m := dialog.New(store)
	require.NoError(t, m.OpenCreate())
	form := validation.RecordForm{Name: "Grace", Email: "not-an-email", Role: ""}

	_, err := m.Submit(context.Background(), form)

	assert.ErrorIs(t, err, dialog.ErrInvalidForm)
	assert.Empty(t, store.calls)

	s := m.State()
	assert.Equal(t, dialog.Editing, s.Kind)
	assert.Equal(t, form, s.Form)
	assert.Equal(t, map[string]string{
		"email": "Email is invalid",
		"role":  "Role is required",
	}, s.Errors.Map())
}

func TestSubmit_InvalidThenValid(t *testing.T) {
	store := &mockMutator{}
	m := dialog.New(store)
	require.NoError(t, m.OpenCreate())

	_, err := m.Submit(context.Background(), validation.RecordForm{})
	require.ErrorIs(t, err, dialog.ErrInvalidForm)

	_, err = m.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, dialog.Closed, m.State().Kind)
	assert.Empty(t, m.State().Errors)
}

// ===== Edit flow =====

func TestOpenEdit_Prefills(t *testing.T) {
	m := dialog.New(&mockMutator{})
	r := existing()

	require.NoError(t, m.OpenEdit(r))

	s := m.State()
	assert.Equal(t, dialog.Editing, s.Kind)
	assert.False(t, s.IsNew())
	require.NotNil(t, s.Target)
	assert.Equal(t, r.ID, s.Target.ID)
	assert.Equal(t, validation.RecordForm{Name: r.Name, Email: r.Email, Role: r.Role}, s.Form)
}

func TestSubmit_ValidEditUpdatesTarget(t *testing.T) {
	var gotID int64
	store := &mockMutator{
		updateFn: func(_ context.Context, id int64, f record.Fields) (record.Record, error) {
			gotID = id
			return record.Record{ID: id, Name: f.Name, Email: f.Email, Role: f.Role}, nil
		},
	}
	m := dialog.New(store)
	require.NoError(t, m.OpenEdit(existing()))

	saved, err := m.Submit(context.Background(), validForm())

	require.NoError(t, err)
	assert.Equal(t, existing().ID, gotID)
	assert.Equal(t, existing().ID, saved.ID)
	assert.Equal(t, []string{"update"}, store.calls)
	assert.Equal(t, dialog.Closed, m.State().Kind)
}

func TestSubmit_StoreErrorKeepsState(t *testing.T) {
	store := &mockMutator{
		updateFn: func(_ context.Context, _ int64, _ record.Fields) (record.Record, error) {
			return record.Record{}, record.ErrNotFound
		},
	}
	m := dialog.New(store)
	require.NoError(t, m.OpenEdit(existing()))
	before := m.State()

	_, err := m.Submit(context.Background(), validForm())

	assert.ErrorIs(t, err, record.ErrNotFound)
	assert.Equal(t, before, m.State())
}

func TestCancel_ClosesWithoutSaving(t *testing.T) {
	store := &mockMutator{}
	m := dialog.New(store)
	require.NoError(t, m.OpenEdit(existing()))

	require.NoError(t, m.Cancel())

	assert.Equal(t, dialog.State{Kind: dialog.Closed}, m.State())
	assert.Empty(t, store.calls)
}

// ===== Delete flow =====

func TestDeleteFlow_Confirm(t *testing.T) {
	var gotID int64
	store := &mockMutator{
		deleteFn: func(_ context.Context, id int64) error {
			gotID = id
			return nil
		},
	}
	m := dialog.New(store)

	require.NoError(t, m.RequestDelete(existing()))
	assert.Equal(t, dialog.ConfirmingDelete, m.State().Kind)
	assert.Equal(t, existing().ID, m.State().Target.ID)

	require.NoError(t, m.ConfirmDelete(context.Background()))
	assert.Equal(t, existing().ID, gotID)
	assert.Equal(t, dialog.Closed, m.State().Kind)
}

func TestDeleteFlow_Cancel(t *testing.T) {
	store := &mockMutator{}
	m := dialog.New(store)
	require.NoError(t, m.RequestDelete(existing()))

	require.NoError(t, m.CancelDelete())

	assert.Equal(t, dialog.Closed, m.State().Kind)
	assert.Empty(t, store.calls)
}

func TestConfirmDelete_StoreErrorKeepsState(t *testing.T) {
	boom := errors.New("boom")
	m := dialog.New(&mockMutator{deleteFn: func(_ context.Context, _ int64) error { return boom }})
	require.NoError(t, m.RequestDelete(existing()))

	err := m.ConfirmDelete(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, dialog.ConfirmingDelete, m.State().Kind)
}

// ===== Invalid transitions =====

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		setup func(m *dialog.Machine) error
		event func(m *dialog.Machine) error
	}{
		{name: "submit while closed", event: func(m *dialog.Machine) error {
			_, err := m.Submit(ctx, validForm())
			return err
		}},
		{name: "cancel while closed", event: (*dialog.Machine).Cancel},
		{name: "confirm delete while closed", event: func(m *dialog.Machine) error { return m.ConfirmDelete(ctx) }},
		{name: "cancel delete while closed", event: (*dialog.Machine).CancelDelete},
		{name: "open create while editing", setup: (*dialog.Machine).OpenCreate, event: (*dialog.Machine).OpenCreate},
		{name: "open edit while editing", setup: (*dialog.Machine).OpenCreate, event: func(m *dialog.Machine) error { return m.OpenEdit(existing()) }},
		{name: "request delete while editing", setup: (*dialog.Machine).OpenCreate, event: func(m *dialog.Machine) error { return m.RequestDelete(existing()) }},
		{name: "confirm delete while editing", setup: (*dialog.Machine).OpenCreate, event: func(m *dialog.Machine) error { return m.ConfirmDelete(ctx) }},
		{
			name:  "submit while confirming delete",
			setup: func(m *dialog.Machine) error { return m.RequestDelete(existing()) },
			event: func(m *dialog.Machine) error {
				_, err := m.Submit(ctx, validForm())
				return err
			},
		},
		{
			name:  "cancel edit while confirming delete",
			setup: func(m *dialog.Machine) error { return m.RequestDelete(existing()) },
			event: (*dialog.Machine).Cancel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockMutator{}
			m := dialog.New(store)
			if tt.setup != nil {
				require.NoError(t, tt.setup(m))
			}
			before := m.State()

			err := tt.event(m)

			assert.ErrorIs(t, err, dialog.ErrInvalidTransition)
			assert.Equal(t, before, m.State())
			assert.Empty(t, store.calls)
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "closed", dialog.Closed.String())
	assert.Equal(t, "editing", dialog.Editing.String())
	assert.Equal(t, "confirming-delete", dialog.ConfirmingDelete.String())
}

// ===== Against the real store =====

func TestMachine_WithRecordStore(t *testing.T) {
	ctx := context.Background()
	store := record.NewStore(kv.NewMemoryStorage(), "crudItems")
	require.NoError(t, store.Load(ctx))
	m := dialog.New(store)

	require.NoError(t, m.OpenCreate())
	created, err := m.Submit(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, m.OpenEdit(created))
	updated, err := m.Submit(ctx, validation.RecordForm{Name: "Rear Admiral Hopper", Email: created.Email, Role: created.Role})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	require.NoError(t, m.RequestDelete(updated))
	require.NoError(t, m.ConfirmDelete(ctx))
	assert.Equal(t, 0, store.Len())
}
