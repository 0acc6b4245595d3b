package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/modules/games/exporter"
	"github.com/lekbanken/gamedesk/modules/games/importer"
	"github.com/lekbanken/gamedesk/modules/games/services"
)

type stubRepo struct {
	stored []exporter.StoredGame
}

func (s *stubRepo) FindGameIDByKey(context.Context, string, string) (string, bool, error) {
	return "", false, nil
}

func (s *stubRepo) WriteGame(_ context.Context, _ game.ParsedGame, existingID string, _ *importer.WritePlan, _ services.WriteMeta) (string, bool, error) {
	if existingID != "" {
		return existingID, true, nil
	}
	return uuid.NewString(), true, nil
}

func (s *stubRepo) ListGames(context.Context, services.GameFilter) ([]exporter.StoredGame, error) {
	return s.stored, nil
}

func newTestRouter(repo *stubRepo) *mux.Router {
	log := logrus.New()
	log.SetOutput(io.Discard)

	controller := NewGamesAPIController(
		services.NewImportService(repo, log),
		services.NewExportService(repo, log),
		log,
		1<<20,
	)
	router := mux.NewRouter()
	controller.Register(router)
	return router
}

func postImport(t *testing.T, router *mux.Router, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/games/import", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const importCSV = "game_key,name,short_description,play_mode,status,step_1_title,step_1_body\n" +
	"bollkull,Bollkull,Springlek med boll,basic,draft,Start,Kasta bollen\n"

func TestImportEndpoint_DryRun(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := postImport(t, router, map[string]any{
		"data":    importCSV,
		"format":  "csv",
		"dry_run": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report services.DryRunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Valid)
	assert.Equal(t, 1, report.TotalRows)
	assert.Equal(t, 1, report.ValidCount)
	require.Len(t, report.Games, 1)
	assert.Equal(t, "bollkull", report.Games[0].GameKey)
}

func TestImportEndpoint_LiveRun(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := postImport(t, router, map[string]any{
		"data":   importCSV,
		"format": "csv",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result services.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.Stats.Created)
	assert.Zero(t, result.Stats.Failed)
}

func TestImportEndpoint_InvalidFormat(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := postImport(t, router, map[string]any{
		"data":   importCSV,
		"format": "yaml",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "GAMES_INVALID_REQUEST")
}

func TestImportEndpoint_MalformedBody(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/games/import", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "GAMES_INVALID_JSON")
}

func TestImportEndpoint_BatchShapeError(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := postImport(t, router, map[string]any{
		"data":   `{"game_key": "not-an-array"}`,
		"format": "json",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "GAMES_IMPORT_REJECTED")
}

func storedBollkull() exporter.StoredGame {
	one := 1
	return exporter.StoredGame{
		ID: uuid.NewString(),
		Game: game.ParsedGame{
			GameKey:          "bollkull",
			Name:             "Bollkull",
			ShortDescription: "Springlek med boll",
			PlayMode:         game.PlayModeBasic,
			Status:           game.StatusPublished,
			Steps: []game.Step{
				{StepOrder: 1, Title: "Start", Body: "Kasta bollen"},
			},
			Artifacts: []game.Artifact{
				{ArtifactOrder: 1, Title: "Ledtråd", ArtifactType: "card", Variants: []game.ArtifactVariant{
					{VariantOrder: 1, Visibility: game.VisibilityPublic, Title: "Ledtråd", Body: "Titta under bänken"},
				}},
			},
			Decisions: nil,
			StepCount: &one,
		},
	}
}

func TestExportEndpoint_CSV(t *testing.T) {
	router := newTestRouter(&stubRepo{stored: []exporter.StoredGame{storedBollkull()}})

	req := httptest.NewRequest(http.MethodGet, "/api/games/export?format=csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="games-export-`)
	assert.Contains(t, rec.Header().Get("X-Export-Scope-Notes"), "JSON format")
	assert.Contains(t, rec.Body.String(), "bollkull")
}

func TestExportEndpoint_JSON(t *testing.T) {
	router := newTestRouter(&stubRepo{stored: []exporter.StoredGame{storedBollkull()}})

	req := httptest.NewRequest(http.MethodGet, "/api/games/export?format=json&include_drafts=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("X-Export-Scope-Notes"))

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "bollkull", docs[0]["game_key"])
}

func TestExportEndpoint_SectionToggle(t *testing.T) {
	router := newTestRouter(&stubRepo{stored: []exporter.StoredGame{storedBollkull()}})

	req := httptest.NewRequest(http.MethodGet, "/api/games/export?format=json&include_drafts=true&include_steps=false", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	_, hasSteps := docs[0]["steps"]
	assert.False(t, hasSteps)
}

func TestExportEndpoint_EmptySelection(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/games/export?format=csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "GAMES_EXPORT_FAILED")
}
