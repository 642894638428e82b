package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/model"
	"github.com/venuecraft/table-booking/internal/repository"
)

// SectionHandler manages the section catalog and its per-event
// materialization.  Catalog rows are templates owned by the business;
// enabling table service for an event snapshots chosen sections into
// event_sections with event-specific pricing, after which catalog edits no
// longer reach that event.
type SectionHandler struct {
	SectionRepo      *repository.SectionRepo
	EventRepo        *repository.EventRepo
	EventSectionRepo *repository.EventSectionRepo
}

// NewSectionHandler constructs a SectionHandler.  All dependencies must be
// non-nil.
func NewSectionHandler(sectionRepo *repository.SectionRepo, eventRepo *repository.EventRepo, eventSectionRepo *repository.EventSectionRepo) *SectionHandler {
	if sectionRepo == nil || eventRepo == nil || eventSectionRepo == nil {
		panic("nil repository passed to NewSectionHandler")
	}
	return &SectionHandler{SectionRepo: sectionRepo, EventRepo: eventRepo, EventSectionRepo: eventSectionRepo}
}

type sectionRequest struct {
	Name        *string  `json:"name"`
	TableCount  *int     `json:"table_count"`
	CustomNames []string `json:"custom_names"`
	Capacity    *int     `json:"capacity"`
}

func validateTableSet(tableCount int, customNames []string) string {
	if tableCount <= 0 {
		return "table_count must be positive"
	}
	if len(customNames) > tableCount {
		return "custom_names has more entries than table_count"
	}
	seen := make(map[string]struct{}, len(customNames))
	for _, n := range customNames {
		n = strings.TrimSpace(n)
		if n == "" {
			return "custom_names must not contain blank names"
		}
		if _, dup := seen[n]; dup {
			return "custom_names must be unique"
		}
		seen[n] = struct{}{}
	}
	return ""
}

// CreateSection handles POST /v1/sections.
func (h *SectionHandler) CreateSection(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body sectionRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.TableCount == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_count is required"})
	}
	if msg := validateTableSet(*body.TableCount, body.CustomNames); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if body.Capacity != nil && *body.Capacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}

	section := &model.Section{
		BusinessID:  bizID,
		Name:        strings.TrimSpace(*body.Name),
		TableCount:  *body.TableCount,
		CustomNames: body.CustomNames,
		Capacity:    body.Capacity,
	}
	if err := h.SectionRepo.Create(c.Request().Context(), section); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create section"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"section": section})
}

// ListSections handles GET /v1/sections.
func (h *SectionHandler) ListSections(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sections, err := h.SectionRepo.ListForBusiness(c.Request().Context(), bizID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"sections": sections})
}

// GetSection handles GET /v1/sections/:id.
func (h *SectionHandler) GetSection(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sectionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}
	section, err := h.SectionRepo.GetForBusiness(c.Request().Context(), sectionID, bizID)
	if err != nil {
		return catalogLookupError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"section": section})
}

// UpdateSection handles PATCH /v1/sections/:id.  Only the provided fields
// change.  Shrinking table_count below a name list is rejected; events
// already materialized keep their snapshot either way.
func (h *SectionHandler) UpdateSection(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sectionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}
	var body sectionRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	section, err := h.SectionRepo.GetForBusiness(ctx, sectionID, bizID)
	if err != nil {
		return catalogLookupError(c, err)
	}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must not be blank"})
		}
		section.Name = name
	}
	if body.TableCount != nil {
		section.TableCount = *body.TableCount
	}
	if body.CustomNames != nil {
		section.CustomNames = body.CustomNames
	}
	if msg := validateTableSet(section.TableCount, section.CustomNames); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if body.Capacity != nil {
		if *body.Capacity <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
		}
		section.Capacity = body.Capacity
	}
	if err := h.SectionRepo.Update(ctx, section); err != nil {
		return catalogLookupError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"section": section})
}

// DeleteSection handles DELETE /v1/sections/:id.  Sections referenced by an
// event inventory row cannot be deleted.
func (h *SectionHandler) DeleteSection(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sectionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}
	err = h.SectionRepo.Delete(c.Request().Context(), sectionID, bizID)
	if errors.Is(err, repository.ErrConflict) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "section is in use by an event"})
	}
	if err != nil {
		return catalogLookupError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type enableSectionRequest struct {
	SectionID      uint64 `json:"section_id"`
	PriceCents     int64  `json:"price_cents"`
	MinSpendCents  *int64 `json:"min_spend_cents"`
	PerCustomerCap *int   `json:"per_customer_cap"`
	Enabled        *bool  `json:"enabled"`
}

type enableSectionsRequest struct {
	Sections []enableSectionRequest `json:"sections"`
}

// EnableEventSections handles POST /v1/events/:id/sections.  Each requested
// catalog section is snapshotted into an inventory row with its table
// layout frozen and the counter starting full.  All rows are created in one
// transaction, so a half-configured event never becomes visible.  A section
// already materialized for the event is a conflict.
func (h *SectionHandler) EnableEventSections(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body enableSectionsRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Sections) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sections must not be empty"})
	}
	for _, req := range body.Sections {
		if req.SectionID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "section_id is required"})
		}
		if req.PriceCents < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must not be negative"})
		}
		if req.MinSpendCents != nil && *req.MinSpendCents < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "min_spend_cents must not be negative"})
		}
	}

	ctx := c.Request().Context()
	if err := h.EventRepo.EnsureOwned(ctx, eventID, bizID); err != nil {
		return eventLookupError(c, err)
	}
	existing, err := h.EventSectionRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	materialized := make(map[uint64]struct{}, len(existing))
	for _, es := range existing {
		materialized[es.SectionID] = struct{}{}
	}

	tx, err := h.EventSectionRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	created := make([]model.EventSection, 0, len(body.Sections))
	for _, req := range body.Sections {
		if _, dup := materialized[req.SectionID]; dup {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":      "section already enabled for event",
				"section_id": req.SectionID,
			})
		}
		catalog, err := h.SectionRepo.GetForBusiness(ctx, req.SectionID, bizID)
		if err != nil {
			return catalogLookupError(c, err)
		}
		enabled := true
		if req.Enabled != nil {
			enabled = *req.Enabled
		}
		es := &model.EventSection{
			EventID:        eventID,
			SectionID:      catalog.ID,
			Name:           catalog.Name,
			PriceCents:     req.PriceCents,
			MinSpendCents:  req.MinSpendCents,
			TableCount:     catalog.TableCount,
			Capacity:       catalog.Capacity,
			PerCustomerCap: req.PerCustomerCap,
			Enabled:        enabled,
			CustomNames:    catalog.CustomNames,
		}
		if err := h.EventSectionRepo.CreateTx(ctx, tx, es); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to enable section"})
		}
		materialized[catalog.ID] = struct{}{}
		created = append(created, *es)
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"event_id": eventID, "sections": created})
}

type updateEventSectionRequest struct {
	PriceCents     *int64 `json:"price_cents"`
	MinSpendCents  *int64 `json:"min_spend_cents"`
	Capacity       *int   `json:"capacity"`
	PerCustomerCap *int   `json:"per_customer_cap"`
	Enabled        *bool  `json:"enabled"`
}

// UpdateEventSection handles PATCH /v1/event-sections/:id.  Pricing, caps
// and the enabled flag are event-local; the table layout is frozen at
// materialization and cannot be edited here.
func (h *SectionHandler) UpdateEventSection(c echo.Context) error {
	bizID, err := getBusinessID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sectionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}
	var body updateEventSectionRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PriceCents != nil && *body.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must not be negative"})
	}
	if body.MinSpendCents != nil && *body.MinSpendCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "min_spend_cents must not be negative"})
	}

	ctx := c.Request().Context()
	owned, err := h.EventSectionRepo.GetByID(ctx, sectionID)
	if err != nil {
		return sectionLookupError(c, err)
	}
	if err := h.EventRepo.EnsureOwned(ctx, owned.EventID, bizID); err != nil {
		return eventLookupError(c, err)
	}

	tx, err := h.EventSectionRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	section, err := h.EventSectionRepo.GetForUpdateTx(ctx, tx, sectionID)
	if err != nil {
		return sectionLookupError(c, err)
	}
	if body.PriceCents != nil {
		section.PriceCents = *body.PriceCents
	}
	if body.MinSpendCents != nil {
		section.MinSpendCents = body.MinSpendCents
	}
	if body.Capacity != nil {
		section.Capacity = body.Capacity
	}
	if body.PerCustomerCap != nil {
		section.PerCustomerCap = body.PerCustomerCap
	}
	if body.Enabled != nil {
		section.Enabled = *body.Enabled
	}
	if err := h.EventSectionRepo.UpdateConfigTx(ctx, tx, section); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update section"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"section": section})
}

func catalogLookupError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrSectionNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "section not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
