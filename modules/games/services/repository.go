package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/modules/games/exporter"
	"github.com/lekbanken/gamedesk/modules/games/importer"
)

// WriteMeta travels with every write of one import run.
type WriteMeta struct {
	// ImportRunID is the idempotency token for the run: re-applying the
	// same run to the same game is a no-op.
	ImportRunID uuid.UUID
	TenantID    string
	ProductID   string
}

// GameFilter narrows an export read.
type GameFilter struct {
	IDs           []string
	TenantID      string
	IncludeDrafts bool
}

// GameContentRepository is the persistence surface the import and export
// services depend on.
type GameContentRepository interface {
	// FindGameIDByKey resolves an existing game by its game_key. The tenant
	// scope is honored when tenantID is non-empty. found is false when no
	// game matches.
	FindGameIDByKey(ctx context.Context, key, tenantID string) (id string, found bool, err error)

	// WriteGame creates or updates the parent game row and swaps all child
	// content for the precomputed write plan, all inside one transaction so
	// a failed child write never strands a content-less game. applied is
	// false when the same run id was already applied to the game; nothing
	// is written in that case.
	WriteGame(ctx context.Context, g game.ParsedGame, existingID string, plan *importer.WritePlan, meta WriteMeta) (id string, applied bool, err error)

	// ListGames reads games with their full content for export.
	ListGames(ctx context.Context, filter GameFilter) ([]exporter.StoredGame, error)
}
