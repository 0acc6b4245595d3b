package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/lekbanken/gamedesk/modules/games/services"
	"github.com/lekbanken/gamedesk/pkg/httpapi"
)

type GamesAPIController struct {
	imports  *services.ImportService
	exports  *services.ExportService
	validate *validator.Validate
	log      *logrus.Logger
	maxBytes int64
	basePath string
}

func NewGamesAPIController(imports *services.ImportService, exports *services.ExportService, log *logrus.Logger, maxUploadSize int64) *GamesAPIController {
	return &GamesAPIController{
		imports:  imports,
		exports:  exports,
		validate: validator.New(),
		log:      log,
		maxBytes: maxUploadSize,
		basePath: "/api/games",
	}
}

func (c *GamesAPIController) Key() string {
	return c.basePath
}

func (c *GamesAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/import", c.Import).Methods(http.MethodPost)
	router.HandleFunc("/export", c.Export).Methods(http.MethodGet)
}

type importRequestDTO struct {
	Data      string `json:"data" validate:"required"`
	Format    string `json:"format" validate:"required,oneof=csv json"`
	DryRun    bool   `json:"dry_run"`
	Upsert    bool   `json:"upsert"`
	ProductID string `json:"product_id" validate:"omitempty,uuid"`
	TenantID  string `json:"tenant_id" validate:"omitempty,uuid"`
}

func (c *GamesAPIController) Import(w http.ResponseWriter, r *http.Request) {
	var dto importRequestDTO
	if err := httpapi.DecodeJSON(w, r, &dto, c.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			_ = httpapi.WriteError(w, http.StatusRequestEntityTooLarge, "GAMES_PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusBadRequest, "GAMES_INVALID_JSON", "invalid json body", nil)
		return
	}
	if err := c.validate.Struct(dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "GAMES_INVALID_REQUEST", err.Error(), nil)
		return
	}

	resp, err := c.imports.Import(r.Context(), services.ImportRequest{
		Data:      []byte(dto.Data),
		Format:    dto.Format,
		DryRun:    dto.DryRun,
		Upsert:    dto.Upsert,
		TenantID:  dto.TenantID,
		ProductID: dto.ProductID,
	})
	if err != nil {
		// Batch-shape problems: the payload as a whole was unusable.
		_ = httpapi.WriteError(w, http.StatusBadRequest, "GAMES_IMPORT_REJECTED", err.Error(), nil)
		return
	}

	if resp.Live != nil {
		_ = httpapi.WriteJSON(w, http.StatusOK, resp.Live)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, resp.DryRun)
}

func (c *GamesAPIController) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sections := services.ExportSections{
		Steps:       boolParam(q, "include_steps", true),
		Materials:   boolParam(q, "include_materials", true),
		Phases:      boolParam(q, "include_phases", true),
		Roles:       boolParam(q, "include_roles", true),
		BoardConfig: boolParam(q, "include_board_config", true),
	}
	query := services.ExportQuery{
		Format:        q.Get("format"),
		TenantID:      q.Get("tenant_id"),
		IncludeDrafts: q.Get("include_drafts") == "true",
		Sections:      &sections,
	}
	if ids := strings.TrimSpace(q.Get("ids")); ids != "" {
		query.IDs = strings.Split(ids, ",")
	}

	res, err := c.exports.Export(r.Context(), query)
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "no games matched") {
			status = http.StatusNotFound
		}
		_ = httpapi.WriteError(w, status, "GAMES_EXPORT_FAILED", err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	if len(res.ScopeNotes) > 0 {
		w.Header().Set("X-Export-Scope-Notes", strings.Join(res.ScopeNotes, "; "))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		c.log.WithError(err).Warn("export response write failed")
	}
}

// boolParam reads a query flag, keeping the fallback when the parameter
// is absent.
func boolParam(q url.Values, name string, fallback bool) bool {
	v := q.Get(name)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
