package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hrops-platform/hrops-api/internal/models"
	"github.com/hrops-platform/hrops-api/internal/service"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
	"github.com/hrops-platform/hrops-api/pkg/response"
)

// AssetHandler handles asset inventory endpoints.
type AssetHandler struct {
	service *service.AssetService
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(svc *service.AssetService) *AssetHandler {
	return &AssetHandler{service: svc}
}

// Create godoc
// @Summary Register asset
// @Description Register an asset as available with an allocated assetId
// @Tags Assets
// @Accept json
// @Produce json
// @Param payload body service.CreateAssetRequest true "Create payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /assets [post]
func (h *AssetHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	asset, err := h.service.Create(c.Request.Context(), req, actorFromClaims(claims), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, asset)
}

// Transition godoc
// @Summary Apply asset workflow action
// @Description Apply a lifecycle action (assign, return, sendToMaintenance, markDamaged, markLost, dispose)
// @Tags Assets
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param payload body service.AssetTransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assets/{id}/transition [post]
func (h *AssetHandler) Transition(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.AssetTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	asset, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, actorFromClaims(claims), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, asset, nil)
}

// UpdateFinancials godoc
// @Summary Update asset financials
// @Description Update purchase fields and recompute the depreciated value
// @Tags Assets
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param payload body service.UpdateFinancialsRequest true "Financials payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assets/{id}/financials [put]
func (h *AssetHandler) UpdateFinancials(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateFinancialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	asset, err := h.service.UpdateFinancials(c.Request.Context(), c.Param("id"), req, actorFromClaims(claims), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, asset, nil)
}

// AddMaintenance godoc
// @Summary Record maintenance
// @Description Append a maintenance record to an asset
// @Tags Assets
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param payload body service.MaintenanceRequest true "Maintenance payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assets/{id}/maintenance [post]
func (h *AssetHandler) AddMaintenance(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	entry, err := h.service.AddMaintenance(c.Request.Context(), c.Param("id"), req, actorFromClaims(claims), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, entry)
}

// UpdateCondition godoc
// @Summary Update asset condition
// @Description Change the condition rating; grading damaged escalates the status
// @Tags Assets
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param payload body service.UpdateConditionRequest true "Condition payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assets/{id}/condition [put]
func (h *AssetHandler) UpdateCondition(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	asset, err := h.service.UpdateCondition(c.Request.Context(), c.Param("id"), req, actorFromClaims(claims), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, asset, nil)
}

// List godoc
// @Summary List assets
// @Description List assets with pagination and filtering
// @Tags Assets
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param asset_type query string false "Type filter"
// @Param status query string false "Status filter"
// @Param location query string false "Location filter"
// @Param assigned_to query string false "Assignee filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /assets [get]
func (h *AssetHandler) List(c *gin.Context) {
	var filter models.AssetFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	if assetType := c.Query("asset_type"); assetType != "" {
		t := models.AssetType(assetType)
		filter.AssetType = &t
	}
	if status := c.Query("status"); status != "" {
		s := models.AssetStatus(status)
		filter.Status = &s
	}
	filter.Location = c.Query("location")
	filter.AssignedTo = c.Query("assigned_to")

	if from := c.Query("from_date"); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			filter.FromDate = &ts
		}
	}
	if to := c.Query("to_date"); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			filter.ToDate = &ts
		}
	}

	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	assets, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, assets, pagination)
}

// Get godoc
// @Summary Get asset
// @Description Get asset detail with status and maintenance histories
// @Tags Assets
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assets/{id} [get]
func (h *AssetHandler) Get(c *gin.Context) {
	asset, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, asset, nil)
}

// GetByAssetID godoc
// @Summary Get asset by assetId
// @Description Get asset by its human-readable identifier
// @Tags Assets
// @Produce json
// @Param assetId path string true "Human-readable asset ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assets/by-asset-id/{assetId} [get]
func (h *AssetHandler) GetByAssetID(c *gin.Context) {
	asset, err := h.service.GetByAssetID(c.Request.Context(), c.Param("assetId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, asset, nil)
}

// MaintenanceDue godoc
// @Summary Maintenance due assets
// @Description Active assets whose next maintenance date passed
// @Tags Assets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assets/maintenance-due [get]
func (h *AssetHandler) MaintenanceDue(c *gin.Context) {
	assets, err := h.service.MaintenanceDue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, assets, nil)
}

// ExpiringWarranties godoc
// @Summary Expiring warranties
// @Description Non-disposed assets whose warranty expires within the window
// @Tags Assets
// @Produce json
// @Param days query int false "Window in days (default 30)"
// @Success 200 {object} response.Envelope
// @Router /assets/expiring-warranties [get]
func (h *AssetHandler) ExpiringWarranties(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		days = 30
	}

	assets, err := h.service.ExpiringWarranties(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, assets, nil)
}
