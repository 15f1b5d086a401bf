package workflow

import "github.com/hrops-platform/hrops-api/internal/models"

// AssetMachine is the workflow engine instantiated for hardware assets.
type AssetMachine = Machine[models.Asset, models.AssetStatus, models.AssetAction]

// NewAssetMachine builds the asset transition table. disposed is terminal.
// markDamaged is deliberately absent from under_maintenance: damage marking
// must not override maintenance in progress.
func NewAssetMachine() *AssetMachine {
	all := []models.AssetStatus{
		models.AssetStatusAvailable,
		models.AssetStatusAllocated,
		models.AssetStatusUnderMaintenance,
		models.AssetStatusDamaged,
		models.AssetStatusLost,
		models.AssetStatusInTransit,
	}

	transitions := []Transition[models.AssetStatus, models.AssetAction]{
		{From: models.AssetStatusAvailable, Action: models.AssetActionAssign, To: models.AssetStatusAllocated},
		{From: models.AssetStatusAllocated, Action: models.AssetActionReturn, To: models.AssetStatusAvailable},
	}
	for _, from := range all {
		if from != models.AssetStatusUnderMaintenance {
			transitions = append(transitions, Transition[models.AssetStatus, models.AssetAction]{
				From: from, Action: models.AssetActionSendToMaintenance, To: models.AssetStatusUnderMaintenance,
			})
		}
		if from != models.AssetStatusUnderMaintenance && from != models.AssetStatusDamaged {
			transitions = append(transitions, Transition[models.AssetStatus, models.AssetAction]{
				From: from, Action: models.AssetActionMarkDamaged, To: models.AssetStatusDamaged,
			})
		}
		if from != models.AssetStatusLost {
			transitions = append(transitions, Transition[models.AssetStatus, models.AssetAction]{
				From: from, Action: models.AssetActionMarkLost, To: models.AssetStatusLost,
			})
		}
		transitions = append(transitions, Transition[models.AssetStatus, models.AssetAction]{
			From: from, Action: models.AssetActionDispose, To: models.AssetStatusDisposed,
		})
	}

	manageAssets := func(a Actor) bool { return a.Permissions.CanManageAssets }
	guards := map[models.AssetAction]Guard{
		models.AssetActionAssign:            manageAssets,
		models.AssetActionReturn:            manageAssets,
		models.AssetActionSendToMaintenance: manageAssets,
		models.AssetActionMarkDamaged:       manageAssets,
		models.AssetActionDispose:           manageAssets,
		models.AssetActionMarkLost:          manageAssets,
	}

	effects := map[models.AssetAction]Effect[models.Asset]{
		models.AssetActionAssign: func(a *models.Asset, c Change) {
			at := c.At
			assignee := c.Target
			assigner := c.Actor.ID
			a.AssignedTo = &assignee
			a.AssignedBy = &assigner
			a.AssignedDate = &at
		},
		models.AssetActionReturn: func(a *models.Asset, c Change) {
			a.AssignedTo = nil
			a.AssignedBy = nil
			a.AssignedDate = nil
		},
		models.AssetActionMarkDamaged: func(a *models.Asset, c Change) {
			a.Condition = models.ConditionDamaged
		},
		models.AssetActionDispose: func(a *models.Asset, c Change) {
			at := c.At
			actor := c.Actor.ID
			a.DisposalDate = &at
			a.DisposedBy = &actor
			a.AssignedTo = nil
			a.AssignedBy = nil
			a.AssignedDate = nil
		},
	}

	return New(Config[models.Asset, models.AssetStatus, models.AssetAction]{
		Describe: func(a *models.Asset) string { return a.AssetID },
		State:    func(a *models.Asset) models.AssetStatus { return a.Status },
		SetState: func(a *models.Asset, s models.AssetStatus) { a.Status = s },
		Transitions: transitions,
		Guards:      guards,
		Effects:     effects,
	})
}
