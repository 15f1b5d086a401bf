package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hrops-platform/hrops-api/internal/models"
	"github.com/hrops-platform/hrops-api/internal/repository"
	"github.com/hrops-platform/hrops-api/internal/workflow"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
)

type assetRepository interface {
	Create(ctx context.Context, asset *models.Asset, entry *models.AssetStatusEntry) error
	FindByID(ctx context.Context, id string) (*models.Asset, error)
	FindByAssetID(ctx context.Context, assetID string) (*models.Asset, error)
	List(ctx context.Context, filter models.AssetFilter) ([]models.Asset, int, error)
	ApplyTransition(ctx context.Context, asset *models.Asset, entry *models.AssetStatusEntry) error
	UpdateFinancials(ctx context.Context, asset *models.Asset) error
	UpdateCondition(ctx context.Context, id string, condition models.ConditionRating, updatedAt time.Time) error
	AddMaintenance(ctx context.Context, assetRecordID string, entry *models.MaintenanceEntry) error
	ListMaintenanceDue(ctx context.Context, now time.Time) ([]models.Asset, error)
	ListExpiringWarranties(ctx context.Context, now time.Time, within time.Duration) ([]models.Asset, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateAssetRequest represents payload for registering an asset.
type CreateAssetRequest struct {
	AssetType        models.AssetType       `json:"asset_type" validate:"required"`
	Brand            string                 `json:"brand"`
	Model            string                 `json:"model"`
	SerialNumber     *string                `json:"serial_number"`
	Specifications   string                 `json:"specifications"`
	Vendor           string                 `json:"vendor"`
	Condition        models.ConditionRating `json:"condition_rating" validate:"omitempty,oneof=excellent good fair poor damaged"`
	CurrentLocation  string                 `json:"current_location"`
	PurchaseDate     *time.Time             `json:"purchase_date"`
	PurchaseCost     *float64               `json:"purchase_cost"`
	Currency         string                 `json:"currency"`
	WarrantyExpiry   *time.Time             `json:"warranty_expiry"`
	DepreciationRate *float64               `json:"depreciation_rate" validate:"omitempty,gte=0,lte=100"`
}

// AssetTransitionRequest carries the inputs of one asset workflow action.
type AssetTransitionRequest struct {
	Action         models.AssetAction     `json:"action" validate:"required"`
	Assignee       string                 `json:"assignee"`
	Location       string                 `json:"location"`
	Reason         string                 `json:"reason"`
	DisposalMethod *models.DisposalMethod `json:"disposal_method" validate:"omitempty,oneof=sold donated recycled destroyed returned_vendor"`
	DisposalValue  *float64               `json:"disposal_value" validate:"omitempty,gte=0"`
	DisposalNotes  string                 `json:"disposal_notes"`
}

// UpdateFinancialsRequest updates purchase and depreciation fields.
type UpdateFinancialsRequest struct {
	PurchaseCost     *float64   `json:"purchase_cost" validate:"omitempty,gte=0"`
	PurchaseDate     *time.Time `json:"purchase_date"`
	Currency         string     `json:"currency"`
	DepreciationRate *float64   `json:"depreciation_rate" validate:"omitempty,gte=0,lte=100"`
}

// MaintenanceRequest records a service event against an asset.
type MaintenanceRequest struct {
	Date            time.Time              `json:"date" validate:"required"`
	Type            models.MaintenanceType `json:"type" validate:"required,oneof=routine repair upgrade cleaning inspection"`
	Description     string                 `json:"description" validate:"required"`
	Cost            *float64               `json:"cost" validate:"omitempty,gte=0"`
	ServiceProvider string                 `json:"service_provider"`
	NextDueDate     *time.Time             `json:"next_maintenance_date"`
	Notes           string                 `json:"notes"`
}

// UpdateConditionRequest changes the condition rating of an asset.
type UpdateConditionRequest struct {
	Condition models.ConditionRating `json:"condition_rating" validate:"required,oneof=excellent good fair poor damaged"`
	Reason    string                 `json:"reason"`
}

// AssetService orchestrates asset registration, lifecycle and valuation.
type AssetService struct {
	repo      assetRepository
	sequences *SequenceService
	machine   *workflow.AssetMachine
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssetService constructs an AssetService.
func NewAssetService(repo assetRepository, sequences *SequenceService, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AssetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssetService{
		repo:      repo,
		sequences: sequences,
		machine:   workflow.NewAssetMachine(),
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create registers an asset as available. The assetId is allocated before
// anything is persisted; when allocation fails the asset is not created. The
// depreciation rate defaults to 20% per year and the current value is derived
// immediately from the purchase fields.
func (s *AssetService) Create(ctx context.Context, req CreateAssetRequest, actor workflow.Actor, meta models.LoginRequest) (*models.Asset, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid asset payload")
	}
	if !actor.Permissions.CanManageAssets {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "actor is not allowed to register assets")
	}
	if req.PurchaseCost != nil && *req.PurchaseCost < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "purchase cost must not be negative")
	}

	assetID, err := s.sequences.Allocate(ctx, models.EntityClassAsset)
	if err != nil {
		return nil, err
	}

	now := s.now()
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	condition := req.Condition
	if condition == "" {
		condition = models.ConditionExcellent
	}
	rate := req.DepreciationRate
	if rate == nil && req.PurchaseCost != nil {
		defaultRate := 20.0
		rate = &defaultRate
	}

	asset := &models.Asset{
		AssetID:          assetID,
		AssetType:        req.AssetType,
		Brand:            req.Brand,
		Model:            req.Model,
		SerialNumber:     req.SerialNumber,
		Specifications:   req.Specifications,
		Vendor:           req.Vendor,
		Status:           models.AssetStatusAvailable,
		Condition:        condition,
		CurrentLocation:  req.CurrentLocation,
		PurchaseDate:     req.PurchaseDate,
		PurchaseCost:     req.PurchaseCost,
		Currency:         currency,
		WarrantyExpiry:   req.WarrantyExpiry,
		DepreciationRate: rate,
		CreatedBy:        actor.ID,
		CreatedAt:        now,
	}
	RecomputeCurrentValue(asset, now)

	if err := s.repo.Create(ctx, asset, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create asset")
	}

	s.invalidateListCache(ctx)
	payload, _ := json.Marshal(map[string]interface{}{"asset_id": asset.AssetID, "asset_type": asset.AssetType})
	s.audit(ctx, actor.ID, models.AuditActionAssetCreate, asset.ID, nil, payload, meta)

	s.logger.Info("asset created",
		zap.String("asset_id", asset.AssetID),
		zap.String("asset_type", string(asset.AssetType)))

	return asset, nil
}

// Transition applies one workflow action with bounded optimistic retry. After
// the machine mutates the status and its standard side fields, request
// parameters that the table does not know about (location, disposal details)
// are folded in before the atomic commit.
func (s *AssetService) Transition(ctx context.Context, id string, req AssetTransitionRequest, actor workflow.Actor, meta models.LoginRequest) (*models.Asset, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	if req.Action == models.AssetActionAssign && req.Assignee == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assign requires an assignee")
	}

	var lastStatus models.AssetStatus
	for attempt := 0; attempt < transitionRetries; attempt++ {
		asset, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
		}
		lastStatus = asset.Status
		previous := asset.Status

		change := workflow.Change{Actor: actor, Target: req.Assignee, At: s.now(), Comments: req.Reason}
		_, err = s.machine.Apply(asset, req.Action, change)
		if err != nil {
			s.recordTransitionMetric(req.Action, "rejected")
			return nil, err
		}

		if req.Location != "" {
			asset.CurrentLocation = req.Location
		}
		if req.Action == models.AssetActionDispose {
			asset.DisposalMethod = req.DisposalMethod
			asset.DisposalValue = req.DisposalValue
			asset.DisposalNotes = req.DisposalNotes
		}

		entry := &models.AssetStatusEntry{
			Status:         asset.Status,
			ChangedBy:      actor.ID,
			ChangedAt:      change.At,
			Reason:         req.Reason,
			PreviousStatus: previous,
		}

		err = s.repo.ApplyTransition(ctx, asset, entry)
		if errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Debug("asset transition version conflict, retrying",
				zap.String("asset_id", asset.AssetID),
				zap.String("action", string(req.Action)),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			s.recordTransitionMetric(req.Action, "error")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply asset transition")
		}

		asset.StatusHistory = append(asset.StatusHistory, *entry)
		s.recordTransitionMetric(req.Action, "applied")
		s.invalidateListCache(ctx)
		s.invalidateDetailCache(ctx, asset.ID)

		oldPayload, _ := json.Marshal(map[string]interface{}{"status": previous})
		newPayload, _ := json.Marshal(map[string]interface{}{"status": asset.Status, "action": req.Action})
		s.audit(ctx, actor.ID, models.AuditActionAssetTransition, asset.ID, oldPayload, newPayload, meta)

		s.logger.Info("asset transitioned",
			zap.String("asset_id", asset.AssetID),
			zap.String("action", string(req.Action)),
			zap.String("from", string(previous)),
			zap.String("to", string(asset.Status)))

		return asset, nil
	}

	s.recordTransitionMetric(req.Action, "conflict_exhausted")
	return nil, appErrors.Clone(appErrors.ErrConflictRetryExhausted,
		fmt.Sprintf("asset %s: action %q lost %d version races while status was %q", id, req.Action, transitionRetries, lastStatus))
}

// UpdateFinancials changes purchase fields and recomputes the current value in
// the same versioned write.
func (s *AssetService) UpdateFinancials(ctx context.Context, id string, req UpdateFinancialsRequest, actor workflow.Actor, meta models.LoginRequest) (*models.Asset, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid financials payload")
	}
	if !actor.Permissions.CanManageAssets {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "actor is not allowed to update asset financials")
	}

	for attempt := 0; attempt < transitionRetries; attempt++ {
		asset, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
		}

		if req.PurchaseCost != nil {
			asset.PurchaseCost = req.PurchaseCost
		}
		if req.PurchaseDate != nil {
			asset.PurchaseDate = req.PurchaseDate
		}
		if req.Currency != "" {
			asset.Currency = req.Currency
		}
		if req.DepreciationRate != nil {
			asset.DepreciationRate = req.DepreciationRate
		}
		RecomputeCurrentValue(asset, s.now())

		err = s.repo.UpdateFinancials(ctx, asset)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update asset financials")
		}

		s.invalidateDetailCache(ctx, asset.ID)
		return asset, nil
	}

	return nil, appErrors.Clone(appErrors.ErrConflictRetryExhausted,
		fmt.Sprintf("asset %s: financials update lost %d version races", id, transitionRetries))
}

// AddMaintenance records a service event. The asset's lifecycle status is not
// touched; moving in and out of under_maintenance is a separate transition.
func (s *AssetService) AddMaintenance(ctx context.Context, id string, req MaintenanceRequest, actor workflow.Actor, meta models.LoginRequest) (*models.MaintenanceEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid maintenance payload")
	}
	if !actor.Permissions.CanManageAssets {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "actor is not allowed to record maintenance")
	}

	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}

	entry := &models.MaintenanceEntry{
		Date:            req.Date,
		Type:            req.Type,
		Description:     req.Description,
		Cost:            req.Cost,
		PerformedBy:     actor.ID,
		ServiceProvider: req.ServiceProvider,
		NextDueDate:     req.NextDueDate,
		Notes:           req.Notes,
	}
	if err := s.repo.AddMaintenance(ctx, asset.ID, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record maintenance")
	}

	s.invalidateDetailCache(ctx, asset.ID)
	payload, _ := json.Marshal(map[string]interface{}{"type": entry.Type, "date": entry.Date})
	s.audit(ctx, actor.ID, models.AuditActionAssetMaintenance, asset.ID, nil, payload, meta)

	return entry, nil
}

// UpdateCondition changes the condition rating. Grading an asset damaged while
// it is not already damaged or in maintenance escalates through the markDamaged
// transition so the status history stays complete.
func (s *AssetService) UpdateCondition(ctx context.Context, id string, req UpdateConditionRequest, actor workflow.Actor, meta models.LoginRequest) (*models.Asset, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid condition payload")
	}
	if !actor.Permissions.CanManageAssets {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "actor is not allowed to update asset condition")
	}

	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}

	if req.Condition == models.ConditionDamaged &&
		asset.Status != models.AssetStatusDamaged &&
		asset.Status != models.AssetStatusUnderMaintenance &&
		asset.Status != models.AssetStatusDisposed {
		return s.Transition(ctx, id, AssetTransitionRequest{
			Action: models.AssetActionMarkDamaged,
			Reason: req.Reason,
		}, actor, meta)
	}

	if err := s.repo.UpdateCondition(ctx, asset.ID, req.Condition, s.now()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update asset condition")
	}
	asset.Condition = req.Condition

	s.invalidateDetailCache(ctx, asset.ID)
	return asset, nil
}

// Get returns an asset with its histories, consulting the cache first.
func (s *AssetService) Get(ctx context.Context, id string) (*models.Asset, error) {
	cacheKey := assetDetailCacheKey(id)
	if s.cache.Enabled() {
		var cached models.Asset
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, asset, 0); err != nil {
			s.logger.Debug("failed to cache asset", zap.Error(err))
		}
	}
	return asset, nil
}

// GetByAssetID returns an asset by its human-readable identifier.
func (s *AssetService) GetByAssetID(ctx context.Context, assetID string) (*models.Asset, error) {
	asset, err := s.repo.FindByAssetID(ctx, assetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}
	return asset, nil
}

// List returns assets matching the filter with pagination metadata.
func (s *AssetService) List(ctx context.Context, filter models.AssetFilter) ([]models.Asset, *models.Pagination, error) {
	assets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assets")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return assets, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// MaintenanceDue returns active assets whose next maintenance date passed.
func (s *AssetService) MaintenanceDue(ctx context.Context) ([]models.Asset, error) {
	assets, err := s.repo.ListMaintenanceDue(ctx, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list maintenance due assets")
	}
	return assets, nil
}

// ExpiringWarranties returns non-disposed assets whose warranty expires within
// the window.
func (s *AssetService) ExpiringWarranties(ctx context.Context, within time.Duration) ([]models.Asset, error) {
	if within <= 0 {
		within = 30 * 24 * time.Hour
	}
	assets, err := s.repo.ListExpiringWarranties(ctx, s.now(), within)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expiring warranties")
	}
	return assets, nil
}

func (s *AssetService) recordTransitionMetric(action models.AssetAction, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordTransition("asset", string(action), outcome)
	}
}

func (s *AssetService) audit(ctx context.Context, actorID, action, resourceID string, oldValues, newValues []byte, meta models.LoginRequest) {
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "assets",
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record asset audit log", zap.Error(err))
	}
}

func (s *AssetService) invalidateListCache(ctx context.Context) {
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "hrops:assets:*"); err != nil {
			s.logger.Debug("failed to invalidate asset list cache", zap.Error(err))
		}
	}
}

func (s *AssetService) invalidateDetailCache(ctx context.Context, id string) {
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, assetDetailCacheKey(id)); err != nil {
			s.logger.Debug("failed to invalidate asset detail cache", zap.Error(err))
		}
	}
}

func assetDetailCacheKey(id string) string {
	return "hrops:assets:detail:" + id
}
