package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/modules/games/exporter"
	"github.com/lekbanken/gamedesk/pkg/composables"
)

// loadChildren fetches all child content of one game, ordered the way the
// export formats emit it.
func (r *GameContentRepository) loadChildren(ctx context.Context, sg *exporter.StoredGame) error {
	if err := r.loadSteps(ctx, sg); err != nil {
		return err
	}
	if err := r.loadPhases(ctx, sg); err != nil {
		return err
	}
	if err := r.loadRoles(ctx, sg); err != nil {
		return err
	}
	if err := r.loadMaterials(ctx, sg); err != nil {
		return err
	}
	if err := r.loadBoardConfig(ctx, sg); err != nil {
		return err
	}
	if err := r.loadSubPurposes(ctx, sg); err != nil {
		return err
	}
	if err := r.loadArtifacts(ctx, sg); err != nil {
		return err
	}
	return r.loadTriggers(ctx, sg)
}

func (r *GameContentRepository) loadSteps(ctx context.Context, sg *exporter.StoredGame) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `
SELECT id, step_order, title, body, duration_seconds,
	leader_script, participant_prompt, board_text, optional, phase_id
FROM game_steps
WHERE game_id=$1
ORDER BY step_order
`, sg.ID)
	if err != nil {
		return fmt.Errorf("steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      uuid.UUID
			s       game.Step
			phaseID *uuid.UUID
		)
		if err := rows.Scan(&id, &s.StepOrder, &s.Title, &s.Body, &s.DurationSeconds,
			&s.LeaderScript, &s.ParticipantPrompt, &s.BoardText, &s.Optional, &phaseID); err != nil {
			return fmt.Errorf("steps: %w", err)
		}
		if phaseID != nil {
			s.PhaseID = phaseID.String()
		}
		sg.IDs.StepIDByOrder[s.StepOrder] = id.String()
		sg.Game.Steps = append(sg.Game.Steps, s)
	}
	return rows.Err()
}

func (r *GameContentRepository) loadPhases(ctx context.Context, sg *exporter.StoredGame) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `
SELECT id, phase_order, name, phase_type, duration_seconds,
	timer_visible, timer_style, description, board_message, auto_advance
FROM game_phases
WHERE game_id=$1
ORDER BY phase_order
`, sg.ID)
	if err != nil {
		return fmt.Errorf("phases: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id        uuid.UUID
			p         game.Phase
			phaseType string
		)
		if err := rows.Scan(&id, &p.PhaseOrder, &p.Name, &phaseType, &p.DurationSeconds,
			&p.TimerVisible, &p.TimerStyle, &p.Description, &p.BoardMessage, &p.AutoAdvance); err != nil {
			return fmt.Errorf("phases: %w", err)
		}
		p.PhaseType = game.PhaseType(phaseType)
		sg.IDs.PhaseIDByOrder[p.PhaseOrder] = id.String()
		sg.Game.Phases = append(sg.Game.Phases, p)
	}
	return rows.Err()
}

func (r *GameContentRepository) loadRoles(ctx context.Context, sg *exporter.StoredGame) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `
SELECT id, role_order, name, icon, color,
	public_description, private_instructions, private_hints,
	min_count, max_count, assignment_strategy, scaling_rules, conflicts_with
FROM game_roles
WHERE game_id=$1
ORDER BY role_order
`, sg.ID)
	if err != nil {
		return fmt.Errorf("roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id        uuid.UUID
			role      game.Role
			strategy  string
			scaling   []byte
			conflicts []byte
		)
		if err := rows.Scan(&id, &role.RoleOrder, &role.Name, &role.Icon, &role.Color,
			&role.PublicDescription, &role.PrivateInstructions, &role.PrivateHints,
			&role.MinCount, &role.MaxCount, &strategy, &scaling, &conflicts); err != nil {
			return fmt.Errorf("roles: %w", err)
		}
		role.AssignmentStrategy = game.AssignmentStrategy(strategy)
		if len(scaling) > 0 {
			if err := unmarshalStrict(scaling, &role.ScalingRules); err != nil {
				return fmt.Errorf("role scaling_rules: %w", err)
			}
		}
		if len(conflicts) > 0 {
			if err := unmarshalStrict(conflicts, &role.ConflictsWith); err != nil {
				return fmt.Errorf("role conflicts_with: %w", err)
			}
		}
		sg.IDs.RoleIDByOrder[role.RoleOrder] = id.String()
		sg.Game.Roles = append(sg.Game.Roles, role)
	}
	return rows.Err()
}

func (r *GameContentRepository) loadMaterials(ctx context.Context, sg *exporter.StoredGame) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `
SELECT items, safety_notes, preparation
FROM game_materials
WHERE game_id=$1
`, sg.ID)
	if err != nil {
		return fmt.Errorf("materials: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		var (
			m     game.Materials
			items []byte
		)
		if err := rows.Scan(&items, &m.SafetyNotes, &m.Preparation); err != nil {
			return fmt.Errorf("materials: %w", err)
		}
		if len(items) > 0 {
			if err := unmarshalStrict(items, &m.Items); err != nil {
				return fmt.Errorf("materials items: %w", err)
			}
		}
		sg.Game.Materials = &m
	}
	return rows.Err()
}

func (r *GameContentRepository) loadBoardConfig(ctx context.Context, sg *exporter.StoredGame) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `
SELECT show_game_name, show_current_phase, show_timer, show_participants,
	show_public_roles, show_leaderboard, show_qr_code,
	welcome_message, theme, background_color, layout_variant
FROM game_board_configs
WHERE game_id=$1
`, sg.ID)
	if err != nil {
		return fmt.Errorf("board config: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		var bc game.BoardConfig
		if err := rows.Scan(&bc.ShowGameName, &bc.ShowCurrentPhase, &bc.ShowTimer, &bc.ShowParticipants,
			&bc.ShowPublicRoles, &bc.ShowLeaderboard, &bc.ShowQRCode,
			&bc.WelcomeMessage, &bc.Theme, &bc.BackgroundColor, &bc.LayoutVariant); err != nil {
			return fmt.Errorf("board config: %w", err)
		}
		sg.Game.BoardConfig = &bc
	}
	return rows.Err()
}

func (r *GameContentRepository) loadSubPurposes(ctx context.Context, sg *exporter.StoredGame) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `
SELECT purpose_id FROM game_sub_purposes WHERE game_id=$1 ORDER BY purpose_id
`, sg.ID)
	if err != nil {
		return fmt.Errorf("secondary purposes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var purposeID uuid.UUID
		if err := rows.Scan(&purposeID); err != nil {
			return fmt.Errorf("secondary purposes: %w", err)
		}
		sg.Game.SubPurposeIDs = append(sg.Game.SubPurposeIDs, purposeID.String())
	}
	return rows.Err()
}

func (r *GameContentRepository) loadArtifacts(ctx context.Context, sg *exporter.StoredGame) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `
SELECT id, artifact_order, locale, title, description, artifact_type, tags, metadata
FROM game_artifacts
WHERE game_id=$1
ORDER BY artifact_order
`, sg.ID)
	if err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}

	type artifactRec struct {
		id       uuid.UUID
		artifact game.Artifact
	}
	var recs []artifactRec
	for rows.Next() {
		var (
			rec      artifactRec
			tags     []byte
			metadata []byte
		)
		if err := rows.Scan(&rec.id, &rec.artifact.ArtifactOrder, &rec.artifact.Locale,
			&rec.artifact.Title, &rec.artifact.Description, &rec.artifact.ArtifactType,
			&tags, &metadata); err != nil {
			rows.Close()
			return fmt.Errorf("artifacts: %w", err)
		}
		if len(tags) > 0 {
			if err := unmarshalStrict(tags, &rec.artifact.Tags); err != nil {
				rows.Close()
				return fmt.Errorf("artifact tags: %w", err)
			}
		}
		if len(metadata) > 0 {
			meta, err := unmarshalOpaque(metadata)
			if err != nil {
				rows.Close()
				return fmt.Errorf("artifact metadata: %w", err)
			}
			if m, ok := meta.(map[string]any); ok {
				rec.artifact.Metadata = m
			}
		}
		recs = append(recs, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range recs {
		if err := r.loadVariants(ctx, &recs[i].artifact, recs[i].id); err != nil {
			return err
		}
		sg.IDs.ArtifactIDByOrder[recs[i].artifact.ArtifactOrder] = recs[i].id.String()
		sg.Game.Artifacts = append(sg.Game.Artifacts, recs[i].artifact)
	}
	return nil
}

func (r *GameContentRepository) loadVariants(ctx context.Context, a *game.Artifact, artifactID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `
SELECT variant_order, visibility, visible_to_role_id, title, body, media_ref, metadata
FROM game_artifact_variants
WHERE artifact_id=$1
ORDER BY variant_order
`, artifactID)
	if err != nil {
		return fmt.Errorf("artifact variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v          game.ArtifactVariant
			visibility string
			roleID     *uuid.UUID
			metadata   []byte
		)
		if err := rows.Scan(&v.VariantOrder, &visibility, &roleID, &v.Title, &v.Body, &v.MediaRef, &metadata); err != nil {
			return fmt.Errorf("artifact variants: %w", err)
		}
		v.Visibility = game.Visibility(visibility)
		if roleID != nil {
			v.VisibleToRoleID = roleID.String()
		}
		if len(metadata) > 0 {
			meta, err := unmarshalOpaque(metadata)
			if err != nil {
				return fmt.Errorf("variant metadata: %w", err)
			}
			if m, ok := meta.(map[string]any); ok {
				v.Metadata = m
			}
		}
		a.Variants = append(a.Variants, v)
	}
	return rows.Err()
}

func (r *GameContentRepository) loadTriggers(ctx context.Context, sg *exporter.StoredGame) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `
SELECT name, description, enabled, condition, actions, execute_once, delay_seconds, sort_order
FROM game_triggers
WHERE game_id=$1
ORDER BY sort_order NULLS LAST, name
`, sg.ID)
	if err != nil {
		return fmt.Errorf("triggers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t         game.Trigger
			condition []byte
			actions   []byte
		)
		if err := rows.Scan(&t.Name, &t.Description, &t.Enabled, &condition, &actions,
			&t.ExecuteOnce, &t.DelaySeconds, &t.SortOrder); err != nil {
			return fmt.Errorf("triggers: %w", err)
		}
		if len(condition) > 0 {
			cond, err := unmarshalOpaque(condition)
			if err != nil {
				return fmt.Errorf("trigger condition: %w", err)
			}
			if m, ok := cond.(map[string]any); ok {
				t.Condition = m
			}
		}
		if len(actions) > 0 {
			acts, err := unmarshalOpaque(actions)
			if err != nil {
				return fmt.Errorf("trigger actions: %w", err)
			}
			if list, ok := acts.([]any); ok {
				for _, item := range list {
					if m, ok := item.(map[string]any); ok {
						t.Actions = append(t.Actions, m)
					}
				}
			}
		}
		sg.Game.Triggers = append(sg.Game.Triggers, t)
	}
	return rows.Err()
}
