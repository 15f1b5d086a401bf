// Package workflow implements the generic lifecycle transition engine shared
// by the requisition and asset domains. A Machine is instantiated once per
// entity class with that class's transition table, per-action guards and
// side-effect appliers. Applying a transition mutates the entity in memory and
// yields exactly one history entry; committing both atomically is the caller's
// responsibility.
package workflow

import (
	"fmt"
	"time"

	"github.com/hrops-platform/hrops-api/internal/models"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
)

// Actor identifies who is performing a transition.
type Actor struct {
	ID          string
	Role        models.UserRole
	Permissions models.Permissions
}

// Change carries the per-invocation inputs of a transition.
type Change struct {
	Actor    Actor
	Target   string // optional reference parameter (assignee, filled-by, ...)
	At       time.Time
	Comments string
}

// Entry is the immutable audit record produced by a successful transition.
type Entry[S ~string, A ~string] struct {
	Action      A
	PerformedBy string
	PerformedAt time.Time
	FromStatus  S
	ToStatus    S
	Comments    string
}

// Transition declares one legal lifecycle move.
type Transition[S ~string, A ~string] struct {
	From   S
	Action A
	To     S
}

// Guard decides whether the actor may perform an action.
type Guard func(actor Actor) bool

// Effect applies action-specific side fields to the entity.
type Effect[E any] func(entity *E, change Change)

// Config assembles a Machine for one entity class.
type Config[E any, S ~string, A ~string] struct {
	// Describe reports the human-readable identifier of an entity, used in
	// error messages.
	Describe func(*E) string
	// State and SetState read and write the entity's status field.
	State    func(*E) S
	SetState func(*E, S)

	Transitions []Transition[S, A]
	Guards      map[A]Guard
	Effects     map[A]Effect[E]
}

// Machine validates and applies lifecycle transitions for one entity class.
type Machine[E any, S ~string, A ~string] struct {
	describe func(*E) string
	state    func(*E) S
	setState func(*E, S)
	table    map[S]map[A]S
	guards   map[A]Guard
	effects  map[A]Effect[E]
}

// New builds a Machine from the given configuration.
func New[E any, S ~string, A ~string](cfg Config[E, S, A]) *Machine[E, S, A] {
	table := make(map[S]map[A]S)
	for _, t := range cfg.Transitions {
		if table[t.From] == nil {
			table[t.From] = make(map[A]S)
		}
		table[t.From][t.Action] = t.To
	}
	return &Machine[E, S, A]{
		describe: cfg.Describe,
		state:    cfg.State,
		setState: cfg.SetState,
		table:    table,
		guards:   cfg.Guards,
		effects:  cfg.Effects,
	}
}

// CanApply reports whether the action is legal from the given state,
// ignoring guards.
func (m *Machine[E, S, A]) CanApply(from S, action A) bool {
	_, ok := m.table[from][action]
	return ok
}

// Apply validates the transition for the entity's current status, checks the
// action guard against the actor, mutates the status plus action-specific side
// fields, and returns the single history entry to be committed together with
// the entity. On failure the entity is left untouched.
func (m *Machine[E, S, A]) Apply(entity *E, action A, change Change) (Entry[S, A], error) {
	from := m.state(entity)

	to, ok := m.table[from][action]
	if !ok {
		return Entry[S, A]{}, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("%s: action %q is not valid while status is %q", m.describe(entity), string(action), string(from)))
	}

	if guard, ok := m.guards[action]; ok && !guard(change.Actor) {
		return Entry[S, A]{}, appErrors.Clone(appErrors.ErrForbidden,
			fmt.Sprintf("%s: actor is not allowed to perform %q while status is %q", m.describe(entity), string(action), string(from)))
	}

	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}

	m.setState(entity, to)
	if effect, ok := m.effects[action]; ok {
		effect(entity, change)
	}

	return Entry[S, A]{
		Action:      action,
		PerformedBy: change.Actor.ID,
		PerformedAt: change.At,
		FromStatus:  from,
		ToStatus:    to,
		Comments:    change.Comments,
	}, nil
}
