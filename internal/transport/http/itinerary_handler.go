package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
	"github.com/njprem/tour_catalog_BackEnd/internal/service"
	"github.com/njprem/tour_catalog_BackEnd/internal/util"
)

type itineraryService interface {
	GetItineraryByEntity(ctx context.Context, ref domain.EntityRef) ([]domain.ItineraryItem, error)
	GetItineraryItem(ctx context.Context, id uuid.UUID) (*domain.ItineraryItem, error)
	CreateItineraryItem(ctx context.Context, input service.ItineraryItemInput) (*domain.ItineraryItem, error)
	UpdateItineraryItem(ctx context.Context, id uuid.UUID, update service.ItineraryItemUpdate) (*domain.ItineraryItem, error)
	DeleteItineraryItem(ctx context.Context, id uuid.UUID) error
	CreateActivity(ctx context.Context, itemID uuid.UUID, input service.ItineraryActivityInput) (*domain.ItineraryActivity, error)
	UpdateActivity(ctx context.Context, id uuid.UUID, fields domain.ItineraryActivityFields) (*domain.ItineraryActivity, error)
	DeleteActivity(ctx context.Context, id uuid.UUID) error
	BulkCreateItinerary(ctx context.Context, ref domain.EntityRef, inputs []service.ItineraryItemInput) ([]domain.ItineraryItem, error)
	ReorderActivities(ctx context.Context, itemID uuid.UUID, ids []uuid.UUID) error
	ReorderItineraryItems(ctx context.Context, ref domain.EntityRef, ids []uuid.UUID) error
	GenerateDatesForGroupTrip(ctx context.Context, groupTripID uuid.UUID, start time.Time, durationDays int) (int, error)
}

var _ itineraryService = (*service.ItineraryService)(nil)

var errInvalidEntityID = errors.New("entity_id must be a valid UUID")

type ItineraryFeatures struct {
	Write bool
}

type ItineraryHandler struct {
	itineraries itineraryService
	logger      *zap.Logger
}

func RegisterItineraries(e *echo.Echo, svc itineraryService, jwt *util.JWTManager, features ItineraryFeatures, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := &ItineraryHandler{itineraries: svc, logger: logger.Named("itinerary")}

	g := e.Group("/api/v1/itineraries")
	g.GET("/items/:item_id", handler.getItem)
	g.GET("/:entity_type/:entity_id", handler.getItinerary)

	if !features.Write {
		return
	}
	canCreate := RequirePermission(jwt, PermissionContentCreate)
	canUpdate := RequirePermission(jwt, PermissionContentUpdate)
	canDelete := RequirePermission(jwt, PermissionContentDelete)

	g.POST("/items", handler.createItem, canCreate)
	g.PUT("/items/:item_id", handler.updateItem, canUpdate)
	g.DELETE("/items/:item_id", handler.deleteItem, canDelete)
	g.POST("/items/:item_id/activities", handler.createActivity, canCreate)
	g.PUT("/items/:item_id/activities/reorder", handler.reorderActivities, canUpdate)
	g.PUT("/activities/:activity_id", handler.updateActivity, canUpdate)
	g.DELETE("/activities/:activity_id", handler.deleteActivity, canDelete)
	g.POST("/bulk", handler.bulkCreate, canCreate)
	g.PUT("/:entity_type/:entity_id/reorder", handler.reorderItems, canUpdate)
	g.POST("/group-trips/:group_trip_id/generate-dates", handler.generateDates, canUpdate)
}

func (h *ItineraryHandler) getItinerary(c echo.Context) error {
	ref, err := parseEntityRef(c.Param("entity_type"), c.Param("entity_id"))
	if err != nil {
		return h.writeItineraryError(c, err)
	}
	items, err := h.itineraries.GetItineraryByEntity(c.Request().Context(), ref)
	if err != nil {
		return h.writeItineraryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"entity_type": ref.Type,
		"entity_id":   ref.ID,
		"items":       service.FormatItems(items),
	})
}

func (h *ItineraryHandler) getItem(c echo.Context) error {
	id, err := parsePathID(c, "item_id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	item, err := h.itineraries.GetItineraryItem(c.Request().Context(), id)
	if err != nil {
		return h.writeItineraryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("item", service.FormatItem(*item)))
}

func (h *ItineraryHandler) createItem(c echo.Context) error {
	var req createItemRequest
	if status, err := bindAndValidate(c, &req); err != nil {
		return c.JSON(status, util.Error(err.Error()))
	}
	ref, err := parseEntityRef(req.EntityType, req.EntityID)
	if err != nil {
		return h.writeItineraryError(c, err)
	}
	input, err := req.toInput(ref)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	item, err := h.itineraries.CreateItineraryItem(c.Request().Context(), input)
	if err != nil {
		return h.writeItineraryError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data("item", service.FormatItem(*item)))
}

func (h *ItineraryHandler) updateItem(c echo.Context) error {
	id, err := parsePathID(c, "item_id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	var req updateItemRequest
	if status, err := bindAndValidate(c, &req); err != nil {
		return c.JSON(status, util.Error(err.Error()))
	}
	update, err := req.toUpdate()
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	item, err := h.itineraries.UpdateItineraryItem(c.Request().Context(), id, update)
	if err != nil {
		return h.writeItineraryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("item", service.FormatItem(*item)))
}

func (h *ItineraryHandler) deleteItem(c echo.Context) error {
	id, err := parsePathID(c, "item_id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	if err := h.itineraries.DeleteItineraryItem(c.Request().Context(), id); err != nil {
		return h.writeItineraryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true})
}

func (h *ItineraryHandler) createActivity(c echo.Context) error {
	itemID, err := parsePathID(c, "item_id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	var req activityRequest
	if status, err := bindAndValidate(c, &req); err != nil {
		return c.JSON(status, util.Error(err.Error()))
	}
	input, err := req.toInput()
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	activity, err := h.itineraries.CreateActivity(c.Request().Context(), itemID, input)
	if err != nil {
		return h.writeItineraryError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data("activity", service.FormatActivity(*activity)))
}

func (h *ItineraryHandler) updateActivity(c echo.Context) error {
	id, err := parsePathID(c, "activity_id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	var req updateActivityRequest
	if status, err := bindAndValidate(c, &req); err != nil {
		return c.JSON(status, util.Error(err.Error()))
	}
	fields, err := req.toFields()
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	activity, err := h.itineraries.UpdateActivity(c.Request().Context(), id, fields)
	if err != nil {
		return h.writeItineraryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("activity", service.FormatActivity(*activity)))
}

func (h *ItineraryHandler) deleteActivity(c echo.Context) error {
	id, err := parsePathID(c, "activity_id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	if err := h.itineraries.DeleteActivity(c.Request().Context(), id); err != nil {
		return h.writeItineraryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true})
}

func (h *ItineraryHandler) bulkCreate(c echo.Context) error {
	var req bulkCreateRequest
	if status, err := bindAndValidate(c, &req); err != nil {
		return c.JSON(status, util.Error(err.Error()))
	}
	ref, err := parseEntityRef(req.EntityType, req.EntityID)
	if err != nil {
		return h.writeItineraryError(c, err)
	}
	inputs := make([]service.ItineraryItemInput, 0, len(req.Items))
	for i, payload := range req.Items {
		input, err := payload.toInput(ref)
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, util.Error(fmt.Sprintf("items[%d]: %v", i, err)))
		}
		inputs = append(inputs, input)
	}

	created, err := h.itineraries.BulkCreateItinerary(c.Request().Context(), ref, inputs)
	if err != nil {
		status, body := h.itineraryError(c, err)
		if len(created) > 0 {
			body["created"] = service.FormatItems(created)
		}
		return c.JSON(status, body)
	}
	return c.JSON(http.StatusCreated, util.Data("items", service.FormatItems(created)))
}

func (h *ItineraryHandler) reorderActivities(c echo.Context) error {
	itemID, err := parsePathID(c, "item_id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	var req reorderActivitiesRequest
	if status, err := bindAndValidate(c, &req); err != nil {
		return c.JSON(status, util.Error(err.Error()))
	}
	ids, err := parseIDList("activity_ids", req.ActivityIDs)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	if err := h.itineraries.ReorderActivities(c.Request().Context(), itemID, ids); err != nil {
		return h.writeItineraryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true})
}

func (h *ItineraryHandler) reorderItems(c echo.Context) error {
	ref, err := parseEntityRef(c.Param("entity_type"), c.Param("entity_id"))
	if err != nil {
		return h.writeItineraryError(c, err)
	}
	var req reorderItemsRequest
	if status, err := bindAndValidate(c, &req); err != nil {
		return c.JSON(status, util.Error(err.Error()))
	}
	ids, err := parseIDList("item_ids", req.ItemIDs)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	if err := h.itineraries.ReorderItineraryItems(c.Request().Context(), ref, ids); err != nil {
		return h.writeItineraryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true})
}

func (h *ItineraryHandler) generateDates(c echo.Context) error {
	tripID, err := parsePathID(c, "group_trip_id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	}
	var req generateDatesRequest
	if status, err := bindAndValidate(c, &req); err != nil {
		return c.JSON(status, util.Error(err.Error()))
	}
	start, err := time.Parse(dateLayout, strings.TrimSpace(req.StartDate))
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, util.Error("start_date must use YYYY-MM-DD format"))
	}
	count, err := h.itineraries.GenerateDatesForGroupTrip(c.Request().Context(), tripID, start, req.DurationDays)
	if err != nil {
		return h.writeItineraryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true, "items_dated": count})
}

func bindAndValidate(c echo.Context, req any) (int, error) {
	if err := c.Bind(req); err != nil {
		return http.StatusBadRequest, errors.New("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return http.StatusUnprocessableEntity, errors.New(describeValidation(err))
	}
	return 0, nil
}

func (h *ItineraryHandler) writeItineraryError(c echo.Context, err error) error {
	status, body := h.itineraryError(c, err)
	return c.JSON(status, body)
}

func (h *ItineraryHandler) itineraryError(c echo.Context, err error) (int, util.Envelope) {
	var unknown *service.UnknownReferencesError
	switch {
	case errors.Is(err, service.ErrItineraryItemNotFound):
		return http.StatusNotFound, util.Error("itinerary item not found")
	case errors.Is(err, service.ErrItineraryActivityNotFound):
		return http.StatusNotFound, util.Error("itinerary activity not found")
	case errors.Is(err, service.ErrItineraryValidation), errors.Is(err, domain.ErrInvalidEntityType), errors.Is(err, errInvalidEntityID):
		return http.StatusUnprocessableEntity, util.Error(err.Error())
	case errors.As(err, &unknown):
		body := util.Error(err.Error())
		body["unknown"] = util.Envelope{
			"hotel_ids":           idsOrEmpty(unknown.Hotels),
			"attraction_ids":      idsOrEmpty(unknown.Attractions),
			"linked_activity_ids": idsOrEmpty(unknown.Activities),
		}
		return http.StatusBadRequest, body
	case errors.Is(err, service.ErrUnknownReferences):
		return http.StatusBadRequest, util.Error("invalid data: check referenced ids")
	default:
		h.logger.Error("itinerary request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return http.StatusInternalServerError, util.Error("internal error")
	}
}

func parseEntityRef(rawType, rawID string) (domain.EntityRef, error) {
	entityType, err := domain.ParseEntityType(rawType)
	if err != nil {
		return domain.EntityRef{}, err
	}
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return domain.EntityRef{}, errInvalidEntityID
	}
	return domain.EntityRef{Type: entityType, ID: id}, nil
}

func parsePathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, errors.New("invalid " + name)
	}
	return id, nil
}

func idsOrEmpty(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
