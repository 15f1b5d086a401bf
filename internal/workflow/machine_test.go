package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops-platform/hrops-api/internal/models"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
)

type doc struct {
	Name   string
	Status string
	Closed bool
}

func newDocMachine() *Machine[doc, string, string] {
	return New(Config[doc, string, string]{
		Describe: func(d *doc) string { return d.Name },
		State:    func(d *doc) string { return d.Status },
		SetState: func(d *doc, s string) { d.Status = s },
		Transitions: []Transition[string, string]{
			{From: "open", Action: "close", To: "closed"},
			{From: "closed", Action: "reopen", To: "open"},
		},
		Guards: map[string]Guard{
			"reopen": func(a Actor) bool { return a.Permissions.CanManageUsers },
		},
		Effects: map[string]Effect[doc]{
			"close": func(d *doc, c Change) { d.Closed = true },
		},
	})
}

func TestMachineApplyRunsEffectAndReturnsEntry(t *testing.T) {
	m := newDocMachine()
	d := &doc{Name: "doc-1", Status: "open"}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entry, err := m.Apply(d, "close", Change{Actor: Actor{ID: "u1"}, At: at, Comments: "done"})
	require.NoError(t, err)

	assert.Equal(t, "closed", d.Status)
	assert.True(t, d.Closed)
	assert.Equal(t, "close", entry.Action)
	assert.Equal(t, "u1", entry.PerformedBy)
	assert.Equal(t, at, entry.PerformedAt)
	assert.Equal(t, "open", entry.FromStatus)
	assert.Equal(t, "closed", entry.ToStatus)
	assert.Equal(t, "done", entry.Comments)
}

func TestMachineApplyRejectsUnknownAction(t *testing.T) {
	m := newDocMachine()
	d := &doc{Name: "doc-1", Status: "open"}

	_, err := m.Apply(d, "reopen", Change{Actor: Actor{ID: "u1"}})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
	assert.Equal(t, "open", d.Status, "entity must be untouched on failure")
}

func TestMachineApplyEnforcesGuard(t *testing.T) {
	m := newDocMachine()
	d := &doc{Name: "doc-1", Status: "closed"}

	_, err := m.Apply(d, "reopen", Change{Actor: Actor{ID: "u1"}})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
	assert.Equal(t, "closed", d.Status)

	_, err = m.Apply(d, "reopen", Change{Actor: Actor{ID: "u1", Permissions: models.Permissions{CanManageUsers: true}}})
	require.NoError(t, err)
	assert.Equal(t, "open", d.Status)
}

func TestMachineCanApply(t *testing.T) {
	m := newDocMachine()
	assert.True(t, m.CanApply("open", "close"))
	assert.False(t, m.CanApply("open", "reopen"))
	assert.False(t, m.CanApply("missing", "close"))
}
