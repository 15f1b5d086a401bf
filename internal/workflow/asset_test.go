package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops-platform/hrops-api/internal/models"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
)

func assetTeamActor() Actor {
	return Actor{ID: "at-1", Role: models.RoleAssetTeam, Permissions: models.PermissionsForRole(models.RoleAssetTeam)}
}

func TestAssetAssignSetsAssignmentFields(t *testing.T) {
	m := NewAssetMachine()
	asset := &models.Asset{AssetID: "ASSET-2026-000001", Status: models.AssetStatusAvailable}
	at := time.Date(2026, 4, 10, 11, 0, 0, 0, time.UTC)

	entry, err := m.Apply(asset, models.AssetActionAssign, Change{Actor: assetTeamActor(), Target: "emp-42", At: at})
	require.NoError(t, err)

	assert.Equal(t, models.AssetStatusAllocated, asset.Status)
	require.NotNil(t, asset.AssignedTo)
	assert.Equal(t, "emp-42", *asset.AssignedTo)
	require.NotNil(t, asset.AssignedBy)
	assert.Equal(t, "at-1", *asset.AssignedBy)
	require.NotNil(t, asset.AssignedDate)
	assert.Equal(t, at, *asset.AssignedDate)
	assert.Equal(t, models.AssetStatusAvailable, entry.FromStatus)
	assert.Equal(t, models.AssetStatusAllocated, entry.ToStatus)
}

func TestAssetReturnClearsAssignmentFields(t *testing.T) {
	m := NewAssetMachine()
	assignee, assigner := "emp-42", "at-1"
	now := time.Now().UTC()
	asset := &models.Asset{
		AssetID:      "ASSET-2026-000002",
		Status:       models.AssetStatusAllocated,
		AssignedTo:   &assignee,
		AssignedBy:   &assigner,
		AssignedDate: &now,
	}

	_, err := m.Apply(asset, models.AssetActionReturn, Change{Actor: assetTeamActor()})
	require.NoError(t, err)

	assert.Equal(t, models.AssetStatusAvailable, asset.Status)
	assert.Nil(t, asset.AssignedTo)
	assert.Nil(t, asset.AssignedBy)
	assert.Nil(t, asset.AssignedDate)
}

func TestAssetDisposeClearsAssignmentAndStampsDisposal(t *testing.T) {
	m := NewAssetMachine()
	assignee := "emp-42"
	asset := &models.Asset{AssetID: "ASSET-2026-000003", Status: models.AssetStatusAllocated, AssignedTo: &assignee}
	at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	_, err := m.Apply(asset, models.AssetActionDispose, Change{Actor: assetTeamActor(), At: at})
	require.NoError(t, err)

	assert.Equal(t, models.AssetStatusDisposed, asset.Status)
	assert.Nil(t, asset.AssignedTo)
	require.NotNil(t, asset.DisposalDate)
	assert.Equal(t, at, *asset.DisposalDate)
	require.NotNil(t, asset.DisposedBy)
	assert.Equal(t, "at-1", *asset.DisposedBy)
}

func TestAssetDisposedIsTerminal(t *testing.T) {
	m := NewAssetMachine()
	for _, action := range []models.AssetAction{
		models.AssetActionAssign,
		models.AssetActionReturn,
		models.AssetActionSendToMaintenance,
		models.AssetActionMarkDamaged,
		models.AssetActionMarkLost,
		models.AssetActionDispose,
	} {
		asset := &models.Asset{AssetID: "ASSET-2026-000004", Status: models.AssetStatusDisposed}
		_, err := m.Apply(asset, action, Change{Actor: assetTeamActor()})
		require.Error(t, err, "action %s", action)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
		assert.Equal(t, models.AssetStatusDisposed, asset.Status)
	}
}

func TestAssetMarkDamagedBlockedDuringMaintenance(t *testing.T) {
	m := NewAssetMachine()
	asset := &models.Asset{AssetID: "ASSET-2026-000005", Status: models.AssetStatusUnderMaintenance}

	_, err := m.Apply(asset, models.AssetActionMarkDamaged, Change{Actor: assetTeamActor()})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
	assert.Equal(t, models.AssetStatusUnderMaintenance, asset.Status)
}

func TestAssetMarkDamagedSetsCondition(t *testing.T) {
	m := NewAssetMachine()
	asset := &models.Asset{AssetID: "ASSET-2026-000006", Status: models.AssetStatusAvailable, Condition: models.ConditionGood}

	_, err := m.Apply(asset, models.AssetActionMarkDamaged, Change{Actor: assetTeamActor(), Comments: "screen cracked"})
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusDamaged, asset.Status)
	assert.Equal(t, models.ConditionDamaged, asset.Condition)
}

func TestAssetSelfTransitionsAreRejected(t *testing.T) {
	m := NewAssetMachine()

	damaged := &models.Asset{AssetID: "ASSET-2026-000008", Status: models.AssetStatusDamaged}
	_, err := m.Apply(damaged, models.AssetActionMarkDamaged, Change{Actor: assetTeamActor()})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))

	lost := &models.Asset{AssetID: "ASSET-2026-000009", Status: models.AssetStatusLost}
	_, err = m.Apply(lost, models.AssetActionMarkLost, Change{Actor: assetTeamActor()})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
}

func TestAssetGuardsRequireManageAssets(t *testing.T) {
	m := NewAssetMachine()
	asset := &models.Asset{AssetID: "ASSET-2026-000007", Status: models.AssetStatusAvailable}
	viewer := Actor{ID: "ops-1", Role: models.RoleBranchOps, Permissions: models.PermissionsForRole(models.RoleBranchOps)}

	_, err := m.Apply(asset, models.AssetActionAssign, Change{Actor: viewer, Target: "emp-7"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
	assert.Equal(t, models.AssetStatusAvailable, asset.Status)
}
