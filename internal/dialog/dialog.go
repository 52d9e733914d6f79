// Package dialog implements the create/edit dialog and the delete
// confirmation dialog that sit on top of the record table.
//
//	Closed --OpenCreate--------> Editing(new)
//	Closed --OpenEdit(r)-------> Editing(r)
//	Editing --Submit(valid)----> Closed        (store create or update)
//	Editing --Submit(invalid)--> Editing       (field errors set)
//	Editing --Cancel-----------> Closed
//	Closed --RequestDelete(r)--> ConfirmingDelete(r)
//	ConfirmingDelete --ConfirmDelete--> Closed (store delete)
//	ConfirmingDelete --CancelDelete---> Closed
package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/daap14/roster/internal/api/validation"
	"github.com/daap14/roster/internal/record"
)

// ErrInvalidTransition is returned when an event does not apply to the
// current state. The state is left unchanged.
var ErrInvalidTransition = errors.New("invalid dialog transition")

// ErrInvalidForm is returned by Submit when the form fails validation.
var ErrInvalidForm = errors.New("form has validation errors")

// Kind identifies a dialog state.
type Kind int

const (
	Closed Kind = iota
	Editing
	ConfirmingDelete
)

func (k Kind) String() string {
	switch k {
	case Closed:
		return "closed"
	case Editing:
		return "editing"
	case ConfirmingDelete:
		return "confirming-delete"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// State is a snapshot of the dialogs.
type State struct {
	Kind Kind
	// Target is the record being edited or deleted. It is nil while
	// editing a new record and while closed.
	Target *record.Record
	Form   validation.RecordForm
	Errors validation.FieldErrors
}

// IsNew reports whether the edit dialog is creating a record.
func (s State) IsNew() bool {
	return s.Kind == Editing && s.Target == nil
}

// Mutator is the part of the record store the dialogs change.
type Mutator interface {
	Create(ctx context.Context, f record.Fields) (record.Record, error)
	Update(ctx context.Context, id int64, f record.Fields) (record.Record, error)
	Delete(ctx context.Context, id int64) error
}

// Machine drives dialog transitions and applies the resulting mutations.
type Machine struct {
	state State
	store Mutator
}

// New returns a Machine in the Closed state.
func New(store Mutator) *Machine {
	return &Machine{store: store}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// OpenCreate opens an empty edit dialog.
func (m *Machine) OpenCreate() error {
	if err := m.expect(Closed, "open-create"); err != nil {
		return err
	}
	m.state = State{Kind: Editing}
	return nil
}

// OpenEdit opens the edit dialog prefilled with r.
func (m *Machine) OpenEdit(r record.Record) error {
	if err := m.expect(Closed, "open-edit"); err != nil {
		return err
	}
	m.state = State{
		Kind:   Editing,
		Target: &r,
		Form:   validation.RecordForm{Name: r.Name, Email: r.Email, Role: r.Role},
	}
	return nil
}

// Submit validates form. A valid form creates or updates a record and closes
// the dialog. An invalid form keeps the dialog open with field errors and
// returns ErrInvalidForm. A store error leaves the state unchanged.
func (m *Machine) Submit(ctx context.Context, form validation.RecordForm) (record.Record, error) {
	if err := m.expect(Editing, "submit"); err != nil {
		return record.Record{}, err
	}

	if errs := validation.ValidateRecordForm(form); len(errs) > 0 {
		m.state.Form = form
		m.state.Errors = errs
		return record.Record{}, ErrInvalidForm
	}

	fields := record.Fields{Name: form.Name, Email: form.Email, Role: form.Role}

	var (
		saved record.Record
		err   error
	)
	if m.state.Target == nil {
		saved, err = m.store.Create(ctx, fields)
	} else {
		saved, err = m.store.Update(ctx, m.state.Target.ID, fields)
	}
	if err != nil {
		return record.Record{}, err
	}

	m.state = State{Kind: Closed}
	return saved, nil
}

// Cancel closes the edit dialog without saving.
func (m *Machine) Cancel() error {
	if err := m.expect(Editing, "cancel"); err != nil {
		return err
	}
	m.state = State{Kind: Closed}
	return nil
}

// RequestDelete opens the delete confirmation for r.
func (m *Machine) RequestDelete(r record.Record) error {
	if err := m.expect(Closed, "request-delete"); err != nil {
		return err
	}
	m.state = State{Kind: ConfirmingDelete, Target: &r}
	return nil
}

// ConfirmDelete deletes the pending record and closes the dialog. A store
// error leaves the state unchanged.
func (m *Machine) ConfirmDelete(ctx context.Context) error {
	if err := m.expect(ConfirmingDelete, "confirm-delete"); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, m.state.Target.ID); err != nil {
		return err
	}
	m.state = State{Kind: Closed}
	return nil
}

// CancelDelete closes the delete confirmation.
func (m *Machine) CancelDelete() error {
	if err := m.expect(ConfirmingDelete, "cancel-delete"); err != nil {
		return err
	}
	m.state = State{Kind: Closed}
	return nil
}

func (m *Machine) expect(k Kind, event string) error {
	if m.state.Kind != k {
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, event, m.state.Kind)
	}
	if k == ConfirmingDelete && m.state.Target == nil {
		return fmt.Errorf("%w: %s without a target record", ErrInvalidTransition, event)
	}
	return nil
}
