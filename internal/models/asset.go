package models

import "time"

// AssetStatus enumerates the hardware lifecycle states.
type AssetStatus string

const (
	AssetStatusAvailable        AssetStatus = "available"
	AssetStatusAllocated        AssetStatus = "allocated"
	AssetStatusUnderMaintenance AssetStatus = "under_maintenance"
	AssetStatusDamaged          AssetStatus = "damaged"
	AssetStatusDisposed         AssetStatus = "disposed"
	AssetStatusLost             AssetStatus = "lost"
	AssetStatusInTransit        AssetStatus = "in_transit"
)

// AssetAction enumerates workflow actions on an asset.
type AssetAction string

const (
	AssetActionAssign            AssetAction = "assign"
	AssetActionReturn            AssetAction = "return"
	AssetActionSendToMaintenance AssetAction = "sendToMaintenance"
	AssetActionMarkDamaged       AssetAction = "markDamaged"
	AssetActionDispose           AssetAction = "dispose"
	AssetActionMarkLost          AssetAction = "markLost"
)

// AssetType enumerates the supported hardware categories.
type AssetType string

const (
	AssetTypeLaptop    AssetType = "laptop"
	AssetTypeDesktop   AssetType = "desktop"
	AssetTypeMonitor   AssetType = "monitor"
	AssetTypeKeyboard  AssetType = "keyboard"
	AssetTypeMouse     AssetType = "mouse"
	AssetTypeHeadset   AssetType = "headset"
	AssetTypeMobile    AssetType = "mobile"
	AssetTypeTablet    AssetType = "tablet"
	AssetTypePrinter   AssetType = "printer"
	AssetTypeScanner   AssetType = "scanner"
	AssetTypeProjector AssetType = "projector"
	AssetTypeOther     AssetType = "other"
)

// ConditionRating grades the physical condition of an asset.
type ConditionRating string

const (
	ConditionExcellent ConditionRating = "excellent"
	ConditionGood      ConditionRating = "good"
	ConditionFair      ConditionRating = "fair"
	ConditionPoor      ConditionRating = "poor"
	ConditionDamaged   ConditionRating = "damaged"
)

// MaintenanceType enumerates maintenance record categories.
type MaintenanceType string

const (
	MaintenanceRoutine    MaintenanceType = "routine"
	MaintenanceRepair     MaintenanceType = "repair"
	MaintenanceUpgrade    MaintenanceType = "upgrade"
	MaintenanceCleaning   MaintenanceType = "cleaning"
	MaintenanceInspection MaintenanceType = "inspection"
)

// DisposalMethod enumerates how a disposed asset left the inventory.
type DisposalMethod string

const (
	DisposalSold           DisposalMethod = "sold"
	DisposalDonated        DisposalMethod = "donated"
	DisposalRecycled       DisposalMethod = "recycled"
	DisposalDestroyed      DisposalMethod = "destroyed"
	DisposalReturnedVendor DisposalMethod = "returned_vendor"
)

// Asset represents a hardware record stored in the assets table.
// AssetID is immutable once assigned by the identifier allocator.
type Asset struct {
	ID             string          `db:"id" json:"id"`
	AssetID        string          `db:"asset_id" json:"assetId"`
	AssetType      AssetType       `db:"asset_type" json:"assetType"`
	Brand          string          `db:"brand" json:"brand,omitempty"`
	Model          string          `db:"model" json:"model,omitempty"`
	SerialNumber   *string         `db:"serial_number" json:"serialNumber,omitempty"`
	Specifications string          `db:"specifications" json:"specifications,omitempty"`
	Vendor         string          `db:"vendor" json:"vendor,omitempty"`
	Status         AssetStatus     `db:"status" json:"status"`
	Condition      ConditionRating `db:"condition_rating" json:"conditionRating"`

	CurrentLocation string     `db:"current_location" json:"currentLocation,omitempty"`
	AssignedTo      *string    `db:"assigned_to" json:"assignedTo,omitempty"`
	AssignedBy      *string    `db:"assigned_by" json:"assignedBy,omitempty"`
	AssignedDate    *time.Time `db:"assigned_date" json:"assignedDate,omitempty"`

	PurchaseDate     *time.Time `db:"purchase_date" json:"purchaseDate,omitempty"`
	PurchaseCost     *float64   `db:"purchase_cost" json:"purchaseCost,omitempty"`
	Currency         string     `db:"currency" json:"currency"`
	WarrantyExpiry   *time.Time `db:"warranty_expiry" json:"warrantyExpiry,omitempty"`
	DepreciationRate *float64   `db:"depreciation_rate" json:"depreciationRate,omitempty"`
	CurrentValue     *float64   `db:"current_value" json:"currentValue,omitempty"`

	DisposalDate   *time.Time      `db:"disposal_date" json:"disposalDate,omitempty"`
	DisposalMethod *DisposalMethod `db:"disposal_method" json:"disposalMethod,omitempty"`
	DisposalValue  *float64        `db:"disposal_value" json:"disposalValue,omitempty"`
	DisposalNotes  string          `db:"disposal_notes" json:"disposalNotes,omitempty"`
	DisposedBy     *string         `db:"disposed_by" json:"disposedBy,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy"`
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	StatusHistory      []AssetStatusEntry `db:"-" json:"statusHistory,omitempty"`
	MaintenanceHistory []MaintenanceEntry `db:"-" json:"maintenanceHistory,omitempty"`
}

// AssetStatusEntry is an immutable audit entry appended on every status change.
type AssetStatusEntry struct {
	ID             string      `db:"id" json:"id"`
	AssetRecordID  string      `db:"asset_record_id" json:"-"`
	Status         AssetStatus `db:"status" json:"status"`
	ChangedBy      string      `db:"changed_by" json:"changedBy"`
	ChangedAt      time.Time   `db:"changed_at" json:"changedAt"`
	Reason         string      `db:"reason" json:"reason,omitempty"`
	PreviousStatus AssetStatus `db:"previous_status" json:"previousStatus"`
}

// MaintenanceEntry records a single service event. Entries are kept ordered
// most-recent-first.
type MaintenanceEntry struct {
	ID              string          `db:"id" json:"id"`
	AssetRecordID   string          `db:"asset_record_id" json:"-"`
	Date            time.Time       `db:"date" json:"date"`
	Type            MaintenanceType `db:"type" json:"type"`
	Description     string          `db:"description" json:"description"`
	Cost            *float64        `db:"cost" json:"cost,omitempty"`
	PerformedBy     string          `db:"performed_by" json:"performedBy,omitempty"`
	ServiceProvider string          `db:"service_provider" json:"serviceProvider,omitempty"`
	NextDueDate     *time.Time      `db:"next_due_date" json:"nextMaintenanceDate,omitempty"`
	Notes           string          `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

// WarrantyStatus derives the warranty state at the given time.
func (a *Asset) WarrantyStatus(now time.Time) string {
	if a.WarrantyExpiry == nil {
		return "unknown"
	}
	if a.WarrantyExpiry.After(now) {
		if a.WarrantyExpiry.Sub(now) <= 30*24*time.Hour {
			return "expiring_soon"
		}
		return "active"
	}
	return "expired"
}

// AssetFilter captures listing criteria for assets.
type AssetFilter struct {
	AssetType  *AssetType
	Status     *AssetStatus
	Location   string
	AssignedTo string
	FromDate   *time.Time
	ToDate     *time.Time
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
