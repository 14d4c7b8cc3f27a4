package catalog

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/care360/care360/internal/platform/auth"
	"github.com/care360/care360/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public browsing reads on public and the admin
// catalog maintenance on protected, which must already authenticate.
func (h *Handler) RegisterRoutes(public *echo.Group, protected *echo.Group) {
	public.GET("/symptom-checker/age-groups", h.ListAgeGroups)
	public.GET("/symptom-checker/symptoms/:bodyPart", h.ListSymptomsByBodyPart)
	public.GET("/symptoms", h.ListSymptoms)
	public.GET("/symptoms/:id", h.GetSymptom)

	admin := protected.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/symptoms", h.CreateSymptom)
	admin.PUT("/symptoms/:id", h.UpdateSymptom)
	admin.DELETE("/symptoms/:id", h.DeleteSymptom)
	admin.GET("/conditions", h.ListConditions)
	admin.GET("/conditions/:id", h.GetCondition)
	admin.POST("/conditions", h.CreateCondition)
	admin.PUT("/conditions/:id", h.UpdateCondition)
	admin.DELETE("/conditions/:id", h.DeleteCondition)
	admin.POST("/age-groups", h.CreateAgeGroup)
}

// httpError maps service errors onto status codes. notFound is the message
// used for ErrNotFound.
func httpError(err error, notFound string) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Message)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case errors.Is(err, ErrDuplicateName):
		return echo.NewHTTPError(http.StatusConflict, "a record with this name already exists")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func bindJSON(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

// -- Public --

func (h *Handler) ListAgeGroups(c echo.Context) error {
	groups, err := h.svc.ListAgeGroups(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching age groups").SetInternal(err)
	}
	if groups == nil {
		groups = []*AgeGroup{}
	}
	return c.JSON(http.StatusOK, groups)
}

func (h *Handler) ListSymptomsByBodyPart(c echo.Context) error {
	symptoms, err := h.svc.ListSymptomsByBodyPart(c.Request().Context(), c.Param("bodyPart"))
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusBadRequest, ve.Message)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching symptoms").SetInternal(err)
	}
	if symptoms == nil {
		symptoms = []*Symptom{}
	}
	return c.JSON(http.StatusOK, symptoms)
}

func (h *Handler) ListSymptoms(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListSymptoms(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return httpError(err, "")
	}
	if items == nil {
		items = []*Symptom{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, len(items), total, p))
}

func (h *Handler) GetSymptom(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	detail, err := h.svc.GetSymptom(c.Request().Context(), id)
	if err != nil {
		return httpError(err, "Symptom not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": detail})
}

// -- Symptoms (admin) --

func (h *Handler) CreateSymptom(c echo.Context) error {
	var sym Symptom
	if err := bindJSON(c, &sym); err != nil {
		return err
	}
	if err := h.svc.CreateSymptom(c.Request().Context(), &sym); err != nil {
		return httpError(err, "Symptom not found")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Symptom created successfully",
		"symptom": sym,
	})
}

func (h *Handler) UpdateSymptom(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var sym Symptom
	if err := bindJSON(c, &sym); err != nil {
		return err
	}
	sym.ID = id
	if err := h.svc.UpdateSymptom(c.Request().Context(), &sym); err != nil {
		return httpError(err, "Symptom not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Symptom updated successfully",
		"symptom": sym,
	})
}

func (h *Handler) DeleteSymptom(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSymptom(c.Request().Context(), id); err != nil {
		return httpError(err, "Symptom not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Symptom deleted successfully",
	})
}

// -- Age groups (admin) --

func (h *Handler) CreateAgeGroup(c echo.Context) error {
	var g AgeGroup
	if err := bindJSON(c, &g); err != nil {
		return err
	}
	if err := h.svc.CreateAgeGroup(c.Request().Context(), &g); err != nil {
		return httpError(err, "Age group not found")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "data": g})
}

// -- Conditions (admin) --

func (h *Handler) ListConditions(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListConditions(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return httpError(err, "")
	}
	if items == nil {
		items = []*Condition{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, len(items), total, p))
}

func (h *Handler) GetCondition(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	cond, err := h.svc.GetCondition(c.Request().Context(), id)
	if err != nil {
		return httpError(err, "Condition not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": cond})
}

func (h *Handler) CreateCondition(c echo.Context) error {
	var cond Condition
	if err := bindJSON(c, &cond); err != nil {
		return err
	}
	if err := h.svc.CreateCondition(c.Request().Context(), &cond); err != nil {
		return httpError(err, "Condition not found")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "data": cond})
}

func (h *Handler) UpdateCondition(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var cond Condition
	if err := bindJSON(c, &cond); err != nil {
		return err
	}
	cond.ID = id
	if err := h.svc.UpdateCondition(c.Request().Context(), &cond); err != nil {
		return httpError(err, "Condition not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": cond})
}

func (h *Handler) DeleteCondition(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCondition(c.Request().Context(), id); err != nil {
		return httpError(err, "Condition not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Condition deleted successfully",
	})
}
