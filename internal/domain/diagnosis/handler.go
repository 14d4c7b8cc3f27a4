package diagnosis

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/care360/care360/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the diagnosis endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(protected *echo.Group) {
	g := protected.Group("/symptom-checker/diagnosis")
	g.POST("", h.Create)
	g.GET("/history", h.History)
	g.GET("/symptoms", h.ReportedSymptoms)
	g.GET("/:id", h.Get)
}

func callerFrom(c echo.Context) Caller {
	ctx := c.Request().Context()
	return Caller{UserID: auth.UserIDFromContext(ctx), Admin: auth.IsAdmin(ctx)}
}

func httpError(err error, fallback string) error {
	var (
		ve *ValidationError
		nf *NotFoundError
		fe *ForbiddenError
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Message)
	case errors.As(err, &nf):
		return echo.NewHTTPError(http.StatusNotFound, "Diagnosis not found")
	case errors.As(err, &fe):
		return echo.NewHTTPError(http.StatusForbidden, fe.Message)
	case errors.As(err, &pe):
		return echo.NewHTTPError(http.StatusInternalServerError, "Diagnosis creation failed").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback).SetInternal(err)
	}
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	view, err := h.svc.Create(c.Request().Context(), callerFrom(c), req)
	if err != nil {
		return httpError(err, "Diagnosis creation failed")
	}
	body := map[string]interface{}{"success": true, "diagnosis": view}
	if len(view.PossibleConditions) == 0 {
		body["message"] = "No matching conditions found"
	}
	return c.JSON(http.StatusCreated, body)
}

func (h *Handler) History(c echo.Context) error {
	views, err := h.svc.History(c.Request().Context(), callerFrom(c), c.QueryParam("user_id"))
	if err != nil {
		return httpError(err, "Error fetching diagnosis history")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(views),
		"data":    views,
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Valid diagnosis ID is required")
	}
	view, err := h.svc.Get(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return httpError(err, "Internal server error")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": view})
}

func (h *Handler) ReportedSymptoms(c echo.Context) error {
	items, err := h.svc.ReportedSymptoms(c.Request().Context(), callerFrom(c), c.QueryParam("user_id"))
	if err != nil {
		return httpError(err, "Error fetching user symptoms")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(items),
		"data":    items,
	})
}
