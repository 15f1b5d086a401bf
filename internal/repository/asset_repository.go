package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hrops-platform/hrops-api/internal/models"
)

const assetColumns = `id, asset_id, asset_type, brand, model, serial_number, specifications, vendor, status, condition_rating, current_location, assigned_to, assigned_by, assigned_date, purchase_date, purchase_cost, currency, warranty_expiry, depreciation_rate, current_value, disposal_date, disposal_method, disposal_value, disposal_notes, disposed_by, created_by, version, created_at, updated_at`

// AssetRepository provides database access for hardware assets.
type AssetRepository struct {
	db *sqlx.DB
}

// NewAssetRepository creates a new instance of AssetRepository.
func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// Create inserts an asset together with its initial history entry in one
// transaction. The assetId must already be allocated.
func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset, entry *models.AssetStatusEntry) error {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	asset.UpdatedAt = now
	asset.Version = 1

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create asset: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertAsset = `INSERT INTO assets (` + assetColumns + `)
		VALUES (:id, :asset_id, :asset_type, :brand, :model, :serial_number, :specifications, :vendor, :status, :condition_rating, :current_location, :assigned_to, :assigned_by, :assigned_date, :purchase_date, :purchase_cost, :currency, :warranty_expiry, :depreciation_rate, :current_value, :disposal_date, :disposal_method, :disposal_value, :disposal_notes, :disposed_by, :created_by, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertAsset, asset); err != nil {
		return fmt.Errorf("create asset: %w", err)
	}

	if entry != nil {
		if err := insertAssetStatusEntry(ctx, tx, asset.ID, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create asset: %w", err)
	}
	return nil
}

// FindByID returns an asset with its ordered histories.
func (r *AssetRepository) FindByID(ctx context.Context, id string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1 LIMIT 1`
	var asset models.Asset
	if err := r.db.GetContext(ctx, &asset, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find asset by id: %w", err)
	}
	if err := r.loadHistories(ctx, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// FindByAssetID returns an asset by its human-readable identifier.
func (r *AssetRepository) FindByAssetID(ctx context.Context, assetID string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE asset_id = $1 LIMIT 1`
	var asset models.Asset
	if err := r.db.GetContext(ctx, &asset, query, assetID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find asset by asset id: %w", err)
	}
	if err := r.loadHistories(ctx, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *AssetRepository) loadHistories(ctx context.Context, asset *models.Asset) error {
	const statusQuery = `SELECT id, asset_record_id, status, changed_by, changed_at, reason, previous_status FROM asset_status_history WHERE asset_record_id = $1 ORDER BY changed_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &asset.StatusHistory, statusQuery, asset.ID); err != nil {
		return fmt.Errorf("load status history: %w", err)
	}
	const maintenanceQuery = `SELECT id, asset_record_id, date, type, description, cost, performed_by, service_provider, next_due_date, notes, created_at FROM asset_maintenance_history WHERE asset_record_id = $1 ORDER BY date DESC, id ASC`
	if err := r.db.SelectContext(ctx, &asset.MaintenanceHistory, maintenanceQuery, asset.ID); err != nil {
		return fmt.Errorf("load maintenance history: %w", err)
	}
	return nil
}

// List returns assets based on filters with total count.
func (r *AssetRepository) List(ctx context.Context, filter models.AssetFilter) ([]models.Asset, int, error) {
	baseQuery := `FROM assets WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.AssetType != nil {
		conditions = append(conditions, fmt.Sprintf("asset_type = $%d", len(args)+1))
		args = append(args, *filter.AssetType)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(current_location) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Location)+"%")
	}
	if filter.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("purchase_date >= $%d", len(args)+1))
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("purchase_date <= $%d", len(args)+1))
		args = append(args, *filter.ToDate)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(asset_id) LIKE $%d OR LOWER(brand) LIKE $%d OR LOWER(model) LIKE $%d OR LOWER(serial_number) LIKE $%d)", idx, idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"asset_id":      true,
		"asset_type":    true,
		"purchase_date": true,
		"created_at":    true,
		"updated_at":    true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", assetColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var assets []models.Asset
	if err := r.db.SelectContext(ctx, &assets, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}

	return assets, total, nil
}

// ApplyTransition persists a status mutation and its history entry in one
// transaction, guarded by the optimistic version check.
func (r *AssetRepository) ApplyTransition(ctx context.Context, asset *models.Asset, entry *models.AssetStatusEntry) error {
	expectedVersion := asset.Version
	asset.Version++
	asset.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		asset.Version = expectedVersion
		return fmt.Errorf("begin asset transition: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE assets SET status = :status, condition_rating = :condition_rating, current_location = :current_location,
			assigned_to = :assigned_to, assigned_by = :assigned_by, assigned_date = :assigned_date,
			disposal_date = :disposal_date, disposal_method = :disposal_method, disposal_value = :disposal_value, disposal_notes = :disposal_notes, disposed_by = :disposed_by,
			version = :version, updated_at = :updated_at
		WHERE id = :id AND version = :version - 1`
	res, err := tx.NamedExecContext(ctx, update, asset)
	if err != nil {
		asset.Version = expectedVersion
		return fmt.Errorf("update asset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		asset.Version = expectedVersion
		return fmt.Errorf("asset transition rows affected: %w", err)
	}
	if affected == 0 {
		asset.Version = expectedVersion
		return ErrVersionConflict
	}

	if err := insertAssetStatusEntry(ctx, tx, asset.ID, entry); err != nil {
		asset.Version = expectedVersion
		return err
	}

	if err := tx.Commit(); err != nil {
		asset.Version = expectedVersion
		return fmt.Errorf("commit asset transition: %w", err)
	}
	return nil
}

// UpdateFinancials persists purchase cost/date/rate and the recomputed
// current value under the optimistic version check.
func (r *AssetRepository) UpdateFinancials(ctx context.Context, asset *models.Asset) error {
	expectedVersion := asset.Version
	asset.Version++
	asset.UpdatedAt = time.Now().UTC()

	const query = `UPDATE assets SET purchase_cost = :purchase_cost, purchase_date = :purchase_date, currency = :currency, depreciation_rate = :depreciation_rate, current_value = :current_value, version = :version, updated_at = :updated_at WHERE id = :id AND version = :version - 1`
	res, err := r.db.NamedExecContext(ctx, query, asset)
	if err != nil {
		asset.Version = expectedVersion
		return fmt.Errorf("update asset financials: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		asset.Version = expectedVersion
		return fmt.Errorf("asset financials rows affected: %w", err)
	}
	if affected == 0 {
		asset.Version = expectedVersion
		return ErrVersionConflict
	}
	return nil
}

// UpdateCondition persists a condition rating change that does not move the
// lifecycle status.
func (r *AssetRepository) UpdateCondition(ctx context.Context, id string, condition models.ConditionRating, updatedAt time.Time) error {
	const query = `UPDATE assets SET condition_rating = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, condition, updatedAt); err != nil {
		return fmt.Errorf("update asset condition: %w", err)
	}
	return nil
}

// UpdateCurrentValue stores the revalued depreciated amount for an asset.
func (r *AssetRepository) UpdateCurrentValue(ctx context.Context, id string, value float64, updatedAt time.Time) error {
	const query = `UPDATE assets SET current_value = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, value, updatedAt); err != nil {
		return fmt.Errorf("update asset current value: %w", err)
	}
	return nil
}

// AddMaintenance appends a maintenance record. Retrieval orders records
// most-recent-first, so no in-place re-sorting is needed.
func (r *AssetRepository) AddMaintenance(ctx context.Context, assetRecordID string, entry *models.MaintenanceEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.AssetRecordID = assetRecordID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO asset_maintenance_history (id, asset_record_id, date, type, description, cost, performed_by, service_provider, next_due_date, notes, created_at) VALUES (:id, :asset_record_id, :date, :type, :description, :cost, :performed_by, :service_provider, :next_due_date, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("add maintenance record: %w", err)
	}
	return nil
}

// ListMaintenanceDue returns active assets whose next maintenance date passed.
func (r *AssetRepository) ListMaintenanceDue(ctx context.Context, now time.Time) ([]models.Asset, error) {
	query := `SELECT DISTINCT ` + prefixColumns(assetColumns, "a.") + ` FROM assets a
		JOIN asset_maintenance_history m ON m.asset_record_id = a.id
		WHERE a.status IN ($1, $2) AND m.next_due_date IS NOT NULL AND m.next_due_date <= $3
		ORDER BY a.asset_id ASC`
	var assets []models.Asset
	if err := r.db.SelectContext(ctx, &assets, query, models.AssetStatusAvailable, models.AssetStatusAllocated, now); err != nil {
		return nil, fmt.Errorf("list maintenance due: %w", err)
	}
	return assets, nil
}

// ListExpiringWarranties returns non-disposed assets whose warranty expires
// within the window.
func (r *AssetRepository) ListExpiringWarranties(ctx context.Context, now time.Time, within time.Duration) ([]models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE warranty_expiry >= $1 AND warranty_expiry <= $2 AND status <> $3 ORDER BY warranty_expiry ASC`
	var assets []models.Asset
	if err := r.db.SelectContext(ctx, &assets, query, now, now.Add(within), models.AssetStatusDisposed); err != nil {
		return nil, fmt.Errorf("list expiring warranties: %w", err)
	}
	return assets, nil
}

// ListForRevaluation pages through depreciable, non-disposed assets for the
// periodic revaluation worker.
func (r *AssetRepository) ListForRevaluation(ctx context.Context, limit, offset int) ([]models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE status <> $1 AND purchase_cost IS NOT NULL AND purchase_date IS NOT NULL AND depreciation_rate IS NOT NULL ORDER BY asset_id ASC LIMIT $2 OFFSET $3`
	var assets []models.Asset
	if err := r.db.SelectContext(ctx, &assets, query, models.AssetStatusDisposed, limit, offset); err != nil {
		return nil, fmt.Errorf("list assets for revaluation: %w", err)
	}
	return assets, nil
}

// CreateAuditLog stores an audit log entry for an asset event.
func (r *AssetRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return insertAuditLog(ctx, r.db, log)
}

func insertAssetStatusEntry(ctx context.Context, tx *sqlx.Tx, assetRecordID string, entry *models.AssetStatusEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.AssetRecordID = assetRecordID
	const query = `INSERT INTO asset_status_history (id, asset_record_id, status, changed_by, changed_at, reason, previous_status) VALUES (:id, :asset_record_id, :status, :changed_by, :changed_at, :reason, :previous_status)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

func prefixColumns(columns, prefix string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = prefix + p
	}
	return strings.Join(parts, ", ")
}
