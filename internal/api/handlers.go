package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"datadash/internal/cache"
	"datadash/internal/engine"
	"datadash/internal/geo"
	"datadash/internal/loader"
	"datadash/internal/models"
)

const previewRows = 200

// Handler wires the dataset store, resolver and preview cache to HTTP.
type Handler struct {
	store    *engine.Store
	resolver *geo.Resolver
	preview  *cache.PreviewCache
	topN     int
	log      *zap.Logger
}

func NewHandler(store *engine.Store, resolver *geo.Resolver, preview *cache.PreviewCache, topN int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topN <= 0 {
		topN = engine.DefaultTopN
	}
	return &Handler{store: store, resolver: resolver, preview: preview, topN: topN, log: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/dataset", h.UploadDataset)
	api.GET("/dataset", h.GetDataset)
	api.GET("/dataset/preview", h.GetPreview)
	api.GET("/schema", h.GetSchema)
	api.GET("/recommend", h.GetRecommendation)
	api.POST("/chart", h.BuildChart)
	api.POST("/filters", h.SetFilters)
	api.GET("/rows", h.GetRows)
	api.GET("/search", h.SearchRows)
	api.GET("/insights", h.GetInsights)
	api.POST("/geocode", h.Geocode)
	api.GET("/export", h.ExportCSV)
}

func noDataset(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "no dataset loaded"})
}

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// --- HANDLERS ---

// UploadDataset ingests a CSV/XLSX/JSON file (multipart field "file" or the
// raw body with ?name=). On parse failure the previous dataset stays active.
func (h *Handler) UploadDataset(c echo.Context) error {
	name, data, err := readUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	ds, err := loader.Load(name, data)
	if err != nil {
		msg := fmt.Sprintf("could not parse %q: %v", name, err)
		if errors.Is(err, loader.ErrEmptyDataset) {
			msg = fmt.Sprintf("%q contains no data rows", name)
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}

	schema := engine.Classify(ds.Cols, ds.Rows)
	h.store.Swap(ds, schema)

	if err := h.preview.Put(buildPreview(ds)); err != nil {
		h.log.Warn("preview cache write failed", zap.Error(err))
	}

	h.log.Info("dataset loaded",
		zap.String("name", ds.Name),
		zap.String("id", ds.ID),
		zap.Int("rows", len(ds.Rows)),
		zap.Int("columns", len(ds.Cols)))

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":      ds.ID,
		"name":    ds.Name,
		"rows":    len(ds.Rows),
		"columns": schema.Columns,
		"sheets":  ds.Sheets,
	})
}

func readUpload(c echo.Context) (string, []byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		src, err := file.Open()
		if err != nil {
			return "", nil, err
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			return "", nil, err
		}
		return file.Filename, data, nil
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, errors.New("empty upload")
	}
	name := c.QueryParam("name")
	if name == "" {
		name = "upload.csv"
	}
	return name, data, nil
}

func buildPreview(ds *models.Dataset) models.Preview {
	rows := ds.Rows
	if len(rows) > previewRows {
		rows = rows[:previewRows]
	}
	return models.Preview{Name: ds.Name, Sheet: ds.Sheet, Cols: ds.Cols, Rows: rows}
}

func (h *Handler) GetDataset(c echo.Context) error {
	ds, schema, filters, ok := h.store.Snapshot()
	if !ok {
		return noDataset(c)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":      ds.ID,
		"name":    ds.Name,
		"sheet":   ds.Sheet,
		"sheets":  ds.Sheets,
		"rows":    len(ds.Rows),
		"columns": schema.Columns,
		"filters": filters,
	})
}

// GetPreview serves the first rows of the active dataset, or the cached
// preview from the last run when nothing is loaded yet.
func (h *Handler) GetPreview(c echo.Context) error {
	ds, _, _, ok := h.store.Snapshot()
	if !ok {
		if p, found := h.preview.Get(); found {
			return c.JSON(http.StatusOK, map[string]interface{}{"cached": true, "preview": p})
		}
		return noDataset(c)
	}
	limit, _ := getPaginationParams(c, previewRows)
	rows := ds.Rows
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"preview": models.Preview{Name: ds.Name, Sheet: ds.Sheet, Cols: ds.Cols, Rows: rows},
	})
}

func (h *Handler) GetSchema(c echo.Context) error {
	_, schema, _, ok := h.store.Snapshot()
	if !ok {
		return noDataset(c)
	}
	return c.JSON(http.StatusOK, schema)
}

func (h *Handler) GetRecommendation(c echo.Context) error {
	_, schema, _, ok := h.store.Snapshot()
	if !ok {
		return noDataset(c)
	}
	spec := engine.Recommend(schema)
	spec.TopN = h.topN
	return c.JSON(http.StatusOK, spec)
}

type chartRequest struct {
	Type   models.ChartType       `json:"type"`
	Fields *models.FieldSelection `json:"fields,omitempty"`
	TopN   int                    `json:"topN,omitempty"`
}

// BuildChart resolves fields for the requested chart type and builds the
// renderable series from the filtered row view. Unsupported types come back
// as a table fallback with a capability message, never an error.
func (h *Handler) BuildChart(c echo.Context) error {
	_, schema, _, ok := h.store.Snapshot()
	if !ok {
		return noDataset(c)
	}
	var req chartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid chart request"})
	}

	spec := models.ChartSpec{Type: req.Type, TopN: req.TopN}
	if spec.TopN <= 0 {
		spec.TopN = h.topN
	}
	if req.Fields != nil {
		spec.Fields = *req.Fields
	} else {
		spec.Fields = engine.ChooseFields(schema, req.Type)
	}

	rows, _ := h.store.View()
	data := engine.BuildChart(rows, spec)
	return c.JSON(http.StatusOK, map[string]interface{}{"spec": spec, "chart": data})
}

func (h *Handler) SetFilters(c echo.Context) error {
	if _, _, _, ok := h.store.Snapshot(); !ok {
		return noDataset(c)
	}
	var predicates []models.Predicate
	if err := c.Bind(&predicates); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid filter payload"})
	}
	applied := h.store.SetFilters(predicates)
	rows, _ := h.store.View()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"filters": applied,
		"rows":    len(rows),
	})
}

func (h *Handler) GetRows(c echo.Context) error {
	rows, ok := h.store.View()
	if !ok {
		return noDataset(c)
	}
	total := len(rows)
	limit, offset := getPaginationParams(c, total)
	if offset >= total {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"data": []models.Row{}, "total": total, "limit": limit, "offset": offset,
		})
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": rows[offset:end], "total": total, "limit": limit, "offset": offset,
	})
}

func (h *Handler) SearchRows(c echo.Context) error {
	ds, schema, _, ok := h.store.Snapshot()
	if !ok {
		return noDataset(c)
	}
	matched := engine.Search(ds.Rows, schema, c.QueryParam("q"))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  matched,
		"total": len(matched),
	})
}

func (h *Handler) GetInsights(c echo.Context) error {
	_, schema, _, ok := h.store.Snapshot()
	if !ok {
		return noDataset(c)
	}
	rows, _ := h.store.View()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"insights": engine.Summarize(rows, schema),
	})
}

// Geocode runs a resolution pass over the filtered rows. A request that
// arrives while a pass is in flight supersedes it; the stale pass's results
// are discarded.
func (h *Handler) Geocode(c echo.Context) error {
	_, schema, _, ok := h.store.Snapshot()
	if !ok {
		return noDataset(c)
	}
	rows, _ := h.store.View()
	result, err := h.resolver.Resolve(c.Request().Context(), rows, schema)
	if err != nil {
		return c.JSON(http.StatusOK, geo.Result{Status: "cancelled"})
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ExportCSV(c echo.Context) error {
	ds, _, _, ok := h.store.Snapshot()
	if !ok {
		return noDataset(c)
	}
	rows, _ := h.store.View()
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="export.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return loader.ExportCSV(c.Response(), ds.Cols, rows)
}
