package reading

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bptracker/bptracker/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/readings", h.ListReadings)
	api.POST("/readings", h.CreateReading)
	api.GET("/readings/window", h.GetDefaultWindow)
	api.GET("/readings/table", h.GetTable)
	api.GET("/readings/export", h.ExportReadings)
	api.GET("/readings/:id", h.GetReading)
	api.PUT("/readings/:id", h.UpdateReading)
	api.DELETE("/readings/:id", h.DeleteReading)
	api.POST("/classify", h.Classify)
}

type readingResponse struct {
	*Reading
	DateTime string `json:"dateTime"`
}

func toResponse(rd *Reading) readingResponse {
	return readingResponse{Reading: rd, DateTime: rd.DateTime()}
}

func (h *Handler) ListReadings(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		From:   c.QueryParam("fromDate"),
		To:     c.QueryParam("toDate"),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	}
	items, total, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	out := make([]readingResponse, 0, len(items))
	for _, rd := range items {
		out = append(out, toResponse(rd))
	}
	pagination.SetHeaders(c, pg, total)
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateReading(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rd, created, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	status, msg := http.StatusCreated, "Reading added successfully"
	if !created {
		status, msg = http.StatusOK, "Reading already recorded"
	}
	return c.JSON(status, map[string]interface{}{
		"message": msg,
		"id":      rd.ID,
		"reading": toResponse(rd),
	})
}

func (h *Handler) GetReading(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rd, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toResponse(rd))
}

func (h *Handler) UpdateReading(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rd, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Reading updated successfully",
		"reading": toResponse(rd),
	})
}

func (h *Handler) DeleteReading(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Reading deleted successfully"})
}

func (h *Handler) GetDefaultWindow(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.DefaultWindow())
}

func (h *Handler) GetTable(c echo.Context) error {
	t, err := h.svc.Table(c.Request().Context(), Filter{
		From: c.QueryParam("fromDate"),
		To:   c.QueryParam("toDate"),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ExportReadings(c echo.Context) error {
	format, err := ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.Export(c.Request().Context(), Filter{
		From: c.QueryParam("fromDate"),
		To:   c.QueryParam("toDate"),
	}, format)
	if err != nil {
		return httpError(err)
	}
	if format != FormatHTML {
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+format.Filename()+`"`)
	}
	return c.Blob(http.StatusOK, format.ContentType(), out)
}

type classifyRequest struct {
	Systolic  int  `json:"upperPressure"`
	Diastolic int  `json:"lowerPressure"`
	Pulse     *int `json:"pulseRate"`
}

type classifyResponse struct {
	BPCategory    Category  `json:"bpCategory"`
	PulseCategory *Category `json:"pulseCategory,omitempty"`
}

// Classify buckets an ad-hoc measurement without storing it.
func (h *Handler) Classify(c echo.Context) error {
	var req classifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pulse := MinPulse
	if req.Pulse != nil {
		pulse = *req.Pulse
	}
	if err := ValidateMeasurements(req.Systolic, req.Diastolic, pulse); err != nil {
		return httpError(err)
	}
	resp := classifyResponse{BPCategory: ClassifyBP(req.Systolic, req.Diastolic)}
	if req.Pulse != nil {
		pc := ClassifyPulse(*req.Pulse)
		resp.PulseCategory = &pc
	}
	return c.JSON(http.StatusOK, resp)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Reading not found")
	case errors.Is(err, ErrDuplicateTimestamp):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNothingToPrint):
		return echo.NewHTTPError(http.StatusBadRequest, "No records to print")
	case IsInvalidInput(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
