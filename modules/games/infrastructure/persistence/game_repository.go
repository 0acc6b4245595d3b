// Package persistence implements the game content repository on PostgreSQL.
// All writes of one game go through a single transaction; the import run id
// doubles as the idempotency token.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/modules/games/exporter"
	"github.com/lekbanken/gamedesk/modules/games/importer"
	"github.com/lekbanken/gamedesk/modules/games/services"
	"github.com/lekbanken/gamedesk/pkg/composables"
	"github.com/lekbanken/gamedesk/pkg/repo"
)

type GameContentRepository struct{}

func NewGameContentRepository() services.GameContentRepository {
	return &GameContentRepository{}
}

func (r *GameContentRepository) FindGameIDByKey(ctx context.Context, key, tenantID string) (string, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return "", false, err
	}

	var id uuid.UUID
	if tenantID == "" {
		err = tx.QueryRow(ctx, `SELECT id FROM games WHERE game_key=$1`, key).Scan(&id)
	} else {
		err = tx.QueryRow(ctx, `SELECT id FROM games WHERE game_key=$1 AND tenant_id=$2`, key, tenantID).Scan(&id)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id.String(), true, nil
}

// errRunReplayed aborts the write transaction when the (game_id,
// import_run_id) pair was already applied, rolling back the parent upsert
// with it.
var errRunReplayed = errors.New("import run already applied")

// WriteGame upserts the parent row and swaps all child content in one
// transaction. A replayed run id rolls the whole write back and reports
// applied=false.
func (r *GameContentRepository) WriteGame(ctx context.Context, g game.ParsedGame, existingID string, plan *importer.WritePlan, meta services.WriteMeta) (string, bool, error) {
	var id string
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		id, err = r.upsertGame(txCtx, g, existingID, meta)
		if err != nil {
			return err
		}
		return r.replaceContent(txCtx, id, plan, meta)
	})
	if errors.Is(err, errRunReplayed) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (r *GameContentRepository) upsertGame(ctx context.Context, g game.ParsedGame, existingID string, meta services.WriteMeta) (string, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return "", err
	}

	productID := g.ProductID
	if productID == "" {
		productID = meta.ProductID
	}
	tenantID := g.OwnerTenantID
	if tenantID == "" {
		tenantID = meta.TenantID
	}
	decisions, err := marshalNullable(g.Decisions)
	if err != nil {
		return "", fmt.Errorf("decisions: %w", err)
	}
	outcomes, err := marshalNullable(g.Outcomes)
	if err != nil {
		return "", fmt.Errorf("outcomes: %w", err)
	}

	args := []any{
		g.GameKey, g.Name, g.ShortDescription, g.Description,
		string(g.PlayMode), string(g.Status), g.Locale,
		nullString(g.EnergyLevel), nullString(g.LocationType),
		g.TimeEstimateMin, g.DurationMax,
		g.MinPlayers, g.MaxPlayers, g.PlayersRecommended,
		g.AgeMin, g.AgeMax, nullString(g.Difficulty),
		g.AccessibilityNotes, g.SpaceRequirements, g.LeaderTips,
		nullString(g.MainPurposeID), nullString(productID), nullString(tenantID),
		decisions, outcomes,
	}

	var id uuid.UUID
	if existingID == "" {
		err = tx.QueryRow(ctx, `
INSERT INTO games (
	game_key, name, short_description, description,
	play_mode, status, locale,
	energy_level, location_type,
	time_estimate_min, duration_max,
	min_players, max_players, players_recommended,
	age_min, age_max, difficulty,
	accessibility_notes, space_requirements, leader_tips,
	main_purpose_id, product_id, tenant_id,
	decisions, outcomes
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
RETURNING id
`, args...).Scan(&id)
	} else {
		args = append(args, existingID)
		err = tx.QueryRow(ctx, `
UPDATE games SET
	game_key=$1, name=$2, short_description=$3, description=$4,
	play_mode=$5, status=$6, locale=$7,
	energy_level=$8, location_type=$9,
	time_estimate_min=$10, duration_max=$11,
	min_players=$12, max_players=$13, players_recommended=$14,
	age_min=$15, age_max=$16, difficulty=$17,
	accessibility_notes=$18, space_requirements=$19, leader_tips=$20,
	main_purpose_id=$21, product_id=$22, tenant_id=$23,
	decisions=$24, outcomes=$25,
	updated_at=now()
WHERE id=$26
RETURNING id
`, args...).Scan(&id)
	}
	if err != nil {
		return "", entityError("game", err)
	}
	return id.String(), nil
}

// replaceContent swaps all child rows of one game. The (game_id,
// import_run_id) pair makes a retried run a no-op: the insert conflicts and
// errRunReplayed unwinds the surrounding transaction.
func (r *GameContentRepository) replaceContent(ctx context.Context, gameID string, plan *importer.WritePlan, meta services.WriteMeta) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
INSERT INTO game_import_runs (game_id, import_run_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`, gameID, meta.ImportRunID)
	if err != nil {
		return entityError("import run", err)
	}
	if tag.RowsAffected() == 0 {
		return errRunReplayed
	}

	if err := deleteChildren(ctx, tx, gameID); err != nil {
		return err
	}
	if err := insertPhases(ctx, tx, gameID, plan.Phases); err != nil {
		return err
	}
	if err := insertSteps(ctx, tx, gameID, plan.Steps); err != nil {
		return err
	}
	if err := insertRoles(ctx, tx, gameID, plan.Roles); err != nil {
		return err
	}
	if err := insertMaterials(ctx, tx, gameID, plan.Game.Materials); err != nil {
		return err
	}
	if err := insertBoardConfig(ctx, tx, gameID, plan.Game.BoardConfig); err != nil {
		return err
	}
	if err := insertSubPurposes(ctx, tx, gameID, plan.Game.SubPurposeIDs); err != nil {
		return err
	}
	if err := insertArtifacts(ctx, tx, gameID, plan.Artifacts); err != nil {
		return err
	}
	return insertTriggers(ctx, tx, gameID, plan.Triggers)
}

func deleteChildren(ctx context.Context, tx repo.Tx, gameID string) error {
	statements := []struct {
		entity string
		sql    string
	}{
		{"artifact variant", `DELETE FROM game_artifact_variants WHERE artifact_id IN (SELECT id FROM game_artifacts WHERE game_id=$1)`},
		{"trigger", `DELETE FROM game_triggers WHERE game_id=$1`},
		{"artifact", `DELETE FROM game_artifacts WHERE game_id=$1`},
		{"step", `DELETE FROM game_steps WHERE game_id=$1`},
		{"phase", `DELETE FROM game_phases WHERE game_id=$1`},
		{"role", `DELETE FROM game_roles WHERE game_id=$1`},
		{"materials", `DELETE FROM game_materials WHERE game_id=$1`},
		{"board config", `DELETE FROM game_board_configs WHERE game_id=$1`},
		{"secondary purpose", `DELETE FROM game_sub_purposes WHERE game_id=$1`},
	}
	for _, st := range statements {
		if _, err := tx.Exec(ctx, st.sql, gameID); err != nil {
			return entityError(st.entity, err)
		}
	}
	return nil
}

func insertSteps(ctx context.Context, tx repo.Tx, gameID string, rows []importer.StepRow) error {
	for _, row := range rows {
		var phaseID any
		if row.PhaseID != nil {
			phaseID = *row.PhaseID
		}
		_, err := tx.Exec(ctx, `
INSERT INTO game_steps (
	id, game_id, step_order, title, body, duration_seconds,
	leader_script, participant_prompt, board_text, optional, phase_id
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`, row.ID, gameID, row.Step.StepOrder, row.Step.Title, row.Step.Body, row.Step.DurationSeconds,
			row.Step.LeaderScript, row.Step.ParticipantPrompt, row.Step.BoardText, row.Step.Optional, phaseID)
		if err != nil {
			return entityError("step", err)
		}
	}
	return nil
}

func insertPhases(ctx context.Context, tx repo.Tx, gameID string, rows []importer.PhaseRow) error {
	for _, row := range rows {
		_, err := tx.Exec(ctx, `
INSERT INTO game_phases (
	id, game_id, phase_order, name, phase_type, duration_seconds,
	timer_visible, timer_style, description, board_message, auto_advance
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`, row.ID, gameID, row.Phase.PhaseOrder, row.Phase.Name, string(row.Phase.PhaseType), row.Phase.DurationSeconds,
			row.Phase.TimerVisible, row.Phase.TimerStyle, row.Phase.Description, row.Phase.BoardMessage, row.Phase.AutoAdvance)
		if err != nil {
			return entityError("phase", err)
		}
	}
	return nil
}

func insertRoles(ctx context.Context, tx repo.Tx, gameID string, rows []importer.RoleRow) error {
	for _, row := range rows {
		scaling, err := marshalNullable(row.Role.ScalingRules)
		if err != nil {
			return fmt.Errorf("role scaling_rules: %w", err)
		}
		conflicts, err := marshalNullable(row.Role.ConflictsWith)
		if err != nil {
			return fmt.Errorf("role conflicts_with: %w", err)
		}
		_, err = tx.Exec(ctx, `
INSERT INTO game_roles (
	id, game_id, role_order, name, icon, color,
	public_description, private_instructions, private_hints,
	min_count, max_count, assignment_strategy, scaling_rules, conflicts_with
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`, row.ID, gameID, row.Role.RoleOrder, row.Role.Name, row.Role.Icon, row.Role.Color,
			row.Role.PublicDescription, row.Role.PrivateInstructions, row.Role.PrivateHints,
			row.Role.MinCount, row.Role.MaxCount, string(row.Role.AssignmentStrategy), scaling, conflicts)
		if err != nil {
			return entityError("role", err)
		}
	}
	return nil
}

func insertMaterials(ctx context.Context, tx repo.Tx, gameID string, m *game.Materials) error {
	if m == nil {
		return nil
	}
	items, err := marshalNullable(m.Items)
	if err != nil {
		return fmt.Errorf("materials items: %w", err)
	}
	_, err = tx.Exec(ctx, `
INSERT INTO game_materials (game_id, items, safety_notes, preparation)
VALUES ($1,$2,$3,$4)
`, gameID, items, m.SafetyNotes, m.Preparation)
	if err != nil {
		return entityError("materials", err)
	}
	return nil
}

func insertBoardConfig(ctx context.Context, tx repo.Tx, gameID string, bc *game.BoardConfig) error {
	if bc == nil {
		return nil
	}
	_, err := tx.Exec(ctx, `
INSERT INTO game_board_configs (
	game_id, show_game_name, show_current_phase, show_timer, show_participants,
	show_public_roles, show_leaderboard, show_qr_code,
	welcome_message, theme, background_color, layout_variant
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`, gameID, bc.ShowGameName, bc.ShowCurrentPhase, bc.ShowTimer, bc.ShowParticipants,
		bc.ShowPublicRoles, bc.ShowLeaderboard, bc.ShowQRCode,
		bc.WelcomeMessage, bc.Theme, bc.BackgroundColor, bc.LayoutVariant)
	if err != nil {
		return entityError("board config", err)
	}
	return nil
}

func insertSubPurposes(ctx context.Context, tx repo.Tx, gameID string, ids []string) error {
	for _, purposeID := range ids {
		_, err := tx.Exec(ctx, `
INSERT INTO game_sub_purposes (game_id, purpose_id)
VALUES ($1,$2)
ON CONFLICT DO NOTHING
`, gameID, purposeID)
		if err != nil {
			return entityError("secondary purpose", err)
		}
	}
	return nil
}

func insertArtifacts(ctx context.Context, tx repo.Tx, gameID string, rows []importer.ArtifactRow) error {
	for _, row := range rows {
		tags, err := marshalNullable(row.Artifact.Tags)
		if err != nil {
			return fmt.Errorf("artifact tags: %w", err)
		}
		metadata, err := marshalNullable(row.Artifact.Metadata)
		if err != nil {
			return fmt.Errorf("artifact metadata: %w", err)
		}
		_, err = tx.Exec(ctx, `
INSERT INTO game_artifacts (
	id, game_id, artifact_order, locale, title, description, artifact_type, tags, metadata
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, row.ID, gameID, row.Artifact.ArtifactOrder, row.Artifact.Locale, row.Artifact.Title,
			row.Artifact.Description, row.Artifact.ArtifactType, tags, metadata)
		if err != nil {
			return entityError("artifact", err)
		}

		for _, v := range row.Variants {
			metadata, err := marshalNullable(v.Variant.Metadata)
			if err != nil {
				return fmt.Errorf("variant metadata: %w", err)
			}
			var roleID any
			if v.RoleID != nil {
				roleID = *v.RoleID
			}
			_, err = tx.Exec(ctx, `
INSERT INTO game_artifact_variants (
	id, artifact_id, variant_order, visibility, visible_to_role_id,
	title, body, media_ref, metadata
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, v.ID, row.ID, v.Variant.VariantOrder, string(v.Variant.Visibility), roleID,
				v.Variant.Title, v.Variant.Body, v.Variant.MediaRef, metadata)
			if err != nil {
				return entityError("artifact variant", err)
			}
		}
	}
	return nil
}

func insertTriggers(ctx context.Context, tx repo.Tx, gameID string, rows []importer.TriggerRow) error {
	for _, row := range rows {
		condition, err := marshalNullable(row.Trigger.Condition)
		if err != nil {
			return fmt.Errorf("trigger condition: %w", err)
		}
		actions, err := marshalNullable(row.Trigger.Actions)
		if err != nil {
			return fmt.Errorf("trigger actions: %w", err)
		}
		_, err = tx.Exec(ctx, `
INSERT INTO game_triggers (
	id, game_id, name, description, enabled, condition, actions,
	execute_once, delay_seconds, sort_order
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, row.ID, gameID, row.Trigger.Name, row.Trigger.Description, row.Trigger.Enabled,
			condition, actions, row.Trigger.ExecuteOnce, row.Trigger.DelaySeconds, row.Trigger.SortOrder)
		if err != nil {
			return entityError("trigger", err)
		}
	}
	return nil
}

func (r *GameContentRepository) ListGames(ctx context.Context, filter services.GameFilter) ([]exporter.StoredGame, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `
SELECT id, game_key, name, short_description, description,
	play_mode, status, locale,
	energy_level, location_type,
	time_estimate_min, duration_max,
	min_players, max_players, players_recommended,
	age_min, age_max, difficulty,
	accessibility_notes, space_requirements, leader_tips,
	main_purpose_id, product_id, tenant_id,
	decisions, outcomes
FROM games
WHERE 1=1`
	var args []any
	if len(filter.IDs) > 0 {
		args = append(args, filter.IDs)
		query += fmt.Sprintf(" AND id = ANY($%d)", len(args))
	}
	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		query += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}
	if !filter.IncludeDrafts {
		query += " AND status = 'published'"
	}
	query += " ORDER BY game_key"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []exporter.StoredGame
	for rows.Next() {
		sg, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := r.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanGame(rows pgx.Rows) (exporter.StoredGame, error) {
	var (
		sg        exporter.StoredGame
		id        uuid.UUID
		g         game.ParsedGame
		energy    *string
		location  *string
		diff      *string
		purpose   *uuid.UUID
		product   *uuid.UUID
		tenant    *uuid.UUID
		decisions []byte
		outcomes  []byte
		playMode  string
		status    string
	)
	err := rows.Scan(
		&id, &g.GameKey, &g.Name, &g.ShortDescription, &g.Description,
		&playMode, &status, &g.Locale,
		&energy, &location,
		&g.TimeEstimateMin, &g.DurationMax,
		&g.MinPlayers, &g.MaxPlayers, &g.PlayersRecommended,
		&g.AgeMin, &g.AgeMax, &diff,
		&g.AccessibilityNotes, &g.SpaceRequirements, &g.LeaderTips,
		&purpose, &product, &tenant,
		&decisions, &outcomes,
	)
	if err != nil {
		return sg, err
	}
	g.PlayMode = game.PlayMode(playMode)
	g.Status = game.Status(status)
	if energy != nil {
		g.EnergyLevel = *energy
	}
	if location != nil {
		g.LocationType = *location
	}
	if diff != nil {
		g.Difficulty = *diff
	}
	if purpose != nil {
		g.MainPurposeID = purpose.String()
	}
	if product != nil {
		g.ProductID = product.String()
	}
	if tenant != nil {
		g.OwnerTenantID = tenant.String()
	}
	if g.Decisions, err = unmarshalOpaque(decisions); err != nil {
		return sg, fmt.Errorf("decisions: %w", err)
	}
	if g.Outcomes, err = unmarshalOpaque(outcomes); err != nil {
		return sg, fmt.Errorf("outcomes: %w", err)
	}

	sg.ID = id.String()
	sg.Game = g
	sg.IDs = importer.IDMaps{
		StepIDByOrder:     map[int]string{},
		PhaseIDByOrder:    map[int]string{},
		ArtifactIDByOrder: map[int]string{},
		RoleIDByOrder:     map[int]string{},
	}
	return sg, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if len(val) == 0 {
			return nil, nil
		}
	case []string:
		if len(val) == 0 {
			return nil, nil
		}
	case map[string]int:
		if len(val) == 0 {
			return nil, nil
		}
	case []map[string]any:
		if len(val) == 0 {
			return nil, nil
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func unmarshalStrict(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// unmarshalOpaque decodes a stored JSON payload preserving number fidelity.
func unmarshalOpaque(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// entityError keeps constraint violations readable by naming the entity
// that hit them instead of surfacing the bare SQLSTATE.
func entityError(entity string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: constraint %s violated: %s", entity, pgErr.ConstraintName, pgErr.Message)
	}
	return fmt.Errorf("%s: %w", entity, err)
}
