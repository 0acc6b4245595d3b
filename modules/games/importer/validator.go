package importer

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/pkg/csvkit"
)

const (
	maxNameLength             = 200
	maxShortDescriptionLength = 500
)

// Known artifact types. Unknown types are allowed with a warning so newer
// content kinds can flow through older importers.
var knownArtifactTypes = map[string]struct{}{
	"card": {}, "document": {}, "image": {}, "conversation_cards_collection": {},
	"keypad": {}, "riddle": {}, "multi_answer": {}, "audio": {}, "hotspot": {},
	"tile_puzzle": {}, "cipher": {}, "logic_grid": {}, "counter": {}, "qr_gate": {},
	"hint_container": {}, "prop_confirmation": {}, "location_check": {},
	"sound_level": {}, "replay_marker": {}, "signal_generator": {},
	"time_bank_step": {}, "empty_artifact": {},
}

// secretPattern flags 4-6 digit codes leaking into publicly visible text.
var secretPattern = regexp.MustCompile(`\b\d{4,6}\b`)

// ValidationResult is the outcome of validating one game.
type ValidationResult struct {
	IsValid  bool
	Errors   []game.ImportError
	Warnings []game.ImportError
}

// GamePreview summarizes one game for dry-run reporting.
type GamePreview struct {
	Row         int                `json:"row_number"`
	GameKey     string             `json:"game_key"`
	Name        string             `json:"name"`
	PlayMode    game.PlayMode      `json:"play_mode"`
	Status      game.Status        `json:"status"`
	StepsCount  int                `json:"steps_count"`
	PhasesCount int                `json:"phases_count"`
	RolesCount  int                `json:"roles_count"`
	IsValid     bool               `json:"is_valid"`
	Errors      []game.ImportError `json:"errors,omitempty"`
	Warnings    []game.ImportError `json:"warnings,omitempty"`
}

// BatchResult is the batch-level validation contract. Write phases must not
// start while AllErrors is non-empty.
type BatchResult struct {
	ValidGames   []game.ParsedGame
	InvalidGames []game.ParsedGame
	AllErrors    []game.ImportError
	AllWarnings  []game.ImportError
	Preview      []GamePreview
}

// HasBlockingErrors reports whether the batch must not be written.
func (r BatchResult) HasBlockingErrors() bool {
	return len(r.AllErrors) > 0
}

// ValidateGames validates a parsed batch. Each game is judged independently;
// the caller enforces the all-or-nothing write policy using AllErrors.
func ValidateGames(games []game.ParsedGame) BatchResult {
	var res BatchResult
	for i := range games {
		g := &games[i]
		vr := ValidateGame(g)

		res.AllErrors = append(res.AllErrors, vr.Errors...)
		res.AllWarnings = append(res.AllWarnings, vr.Warnings...)
		res.Preview = append(res.Preview, GamePreview{
			Row:         g.SourceRow,
			GameKey:     g.GameKey,
			Name:        g.Name,
			PlayMode:    g.PlayMode,
			Status:      g.Status,
			StepsCount:  len(g.Steps),
			PhasesCount: len(g.Phases),
			RolesCount:  len(g.Roles),
			IsValid:     vr.IsValid,
			Errors:      vr.Errors,
			Warnings:    vr.Warnings,
		})
		if vr.IsValid {
			res.ValidGames = append(res.ValidGames, *g)
		} else {
			res.InvalidGames = append(res.InvalidGames, *g)
		}
	}
	return res
}

// ValidateGame runs every per-game check.
func ValidateGame(g *game.ParsedGame) ValidationResult {
	var errs, warns []game.ImportError
	row := g.SourceRow

	if g.Name == "" {
		errs = append(errs, game.Errorf(row, "name", "name is required"))
	} else if len(g.Name) > maxNameLength {
		errs = append(errs, game.Errorf(row, "name", "name too long (%d characters, max %d)", len(g.Name), maxNameLength))
	}

	if g.ShortDescription == "" {
		errs = append(errs, game.Errorf(row, "short_description", "short_description is required"))
	} else if len(g.ShortDescription) > maxShortDescriptionLength {
		errs = append(errs, game.Errorf(row, "short_description",
			"short_description too long (%d characters, max %d)", len(g.ShortDescription), maxShortDescriptionLength))
	}

	if g.GameKey == "" {
		warns = append(warns, game.Warnf(row, "game_key", "game_key missing (generated automatically)"))
	}

	if !g.PlayMode.Valid() {
		errs = append(errs, game.Errorf(row, "play_mode", "invalid play_mode: %s", g.PlayMode))
	}

	// Minimum content per play mode.
	if len(g.Steps) == 0 {
		errs = append(errs, game.Errorf(row, "steps", "at least one step is required"))
	}
	switch g.PlayMode {
	case game.PlayModeFacilitated:
		if len(g.Phases) == 0 {
			errs = append(errs, game.Errorf(row, "phases", "play_mode is 'facilitated' but no phases are defined"))
		}
	case game.PlayModeParticipants:
		if len(g.Roles) == 0 {
			warns = append(warns, game.Warnf(row, "roles", "play_mode is 'participants' but no roles are defined"))
		}
		if len(g.Phases) == 0 {
			warns = append(warns, game.Warnf(row, "phases", "play_mode is 'participants' but no phases are defined"))
		}
	}

	// Reference syntax. Absence is allowed; presence must be UUID-shaped.
	if g.MainPurposeID == "" {
		warns = append(warns, game.Warnf(row, "main_purpose_id", "main_purpose_id missing, the game will not be linked to a purpose"))
	} else if !csvkit.IsValidUUID(g.MainPurposeID) {
		errs = append(errs, game.Errorf(row, "main_purpose_id", "main_purpose_id is not a valid UUID"))
	}
	for _, id := range g.SubPurposeIDs {
		if !csvkit.IsValidUUID(id) {
			errs = append(errs, game.Errorf(row, "sub_purpose_ids", "sub_purpose_ids contains an invalid UUID"))
			break
		}
	}
	if g.ProductID != "" && !csvkit.IsValidUUID(g.ProductID) {
		errs = append(errs, game.Errorf(row, "product_id", "product_id is not a valid UUID"))
	}
	if g.OwnerTenantID != "" && !csvkit.IsValidUUID(g.OwnerTenantID) {
		errs = append(errs, game.Errorf(row, "owner_tenant_id", "owner_tenant_id is not a valid UUID"))
	}

	// Inverted ranges are suspicious but never block an import.
	if g.MinPlayers != nil && g.MaxPlayers != nil && *g.MinPlayers > *g.MaxPlayers {
		warns = append(warns, game.Warnf(row, "min_players", "min_players (%d) > max_players (%d)", *g.MinPlayers, *g.MaxPlayers))
	}
	if g.AgeMin != nil && g.AgeMax != nil && *g.AgeMin > *g.AgeMax {
		warns = append(warns, game.Warnf(row, "age_min", "age_min (%d) > age_max (%d)", *g.AgeMin, *g.AgeMax))
	}

	validateSteps(g, row, &errs, &warns)
	validatePhases(g, row, &errs)
	validateRoles(g, row, &errs, &warns)
	validateArtifacts(g, row, &errs, &warns)
	validateTriggers(g, row, &errs)

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs, Warnings: warns}
}

func validateSteps(g *game.ParsedGame, row int, errs, warns *[]game.ImportError) {
	seen := map[int]struct{}{}
	for i, step := range g.Steps {
		if _, dup := seen[step.StepOrder]; dup {
			*errs = append(*errs, game.Errorf(row, "steps", "duplicate step_order %d", step.StepOrder))
		}
		seen[step.StepOrder] = struct{}{}

		if step.Title == "" {
			*warns = append(*warns, game.Warnf(row, fmt.Sprintf("step_%d_title", i+1), "step %d has no title", i+1))
		}
		if step.Body == "" {
			*warns = append(*warns, game.Warnf(row, fmt.Sprintf("step_%d_body", i+1), "step %d has no body", i+1))
		}
		if step.DurationSeconds != nil && *step.DurationSeconds < 0 {
			*errs = append(*errs, game.Errorf(row, fmt.Sprintf("step_%d_duration", i+1), "step %d has a negative duration", i+1))
		}

		// Publicly visible step text must not leak codes.
		if step.BoardText != "" && secretPattern.MatchString(step.BoardText) {
			*warns = append(*warns, game.Warnf(row, fmt.Sprintf("step_%d_board_text", i+1),
				"step %d board_text contains what looks like a code (%s); board_text is shown publicly",
				i+1, secretPattern.FindString(step.BoardText)))
		}
		if step.ParticipantPrompt != "" && secretPattern.MatchString(step.ParticipantPrompt) {
			*warns = append(*warns, game.Warnf(row, fmt.Sprintf("step_%d_participant_prompt", i+1),
				"step %d participant_prompt contains what looks like a code (%s); it is shown to all participants",
				i+1, secretPattern.FindString(step.ParticipantPrompt)))
		}
	}
}

func validatePhases(g *game.ParsedGame, row int, errs *[]game.ImportError) {
	seen := map[int]struct{}{}
	for i, phase := range g.Phases {
		if _, dup := seen[phase.PhaseOrder]; dup {
			*errs = append(*errs, game.Errorf(row, "phases", "duplicate phase_order %d", phase.PhaseOrder))
		}
		seen[phase.PhaseOrder] = struct{}{}

		if phase.Name == "" {
			*errs = append(*errs, game.Errorf(row, "phases", "phase %d has no name", i+1))
		}
	}
}

func validateRoles(g *game.ParsedGame, row int, errs, warns *[]game.ImportError) {
	seen := map[int]struct{}{}
	for i, role := range g.Roles {
		if _, dup := seen[role.RoleOrder]; dup {
			*errs = append(*errs, game.Errorf(row, "roles", "duplicate role_order %d", role.RoleOrder))
		}
		seen[role.RoleOrder] = struct{}{}

		if role.Name == "" {
			*errs = append(*errs, game.Errorf(row, "roles", "role %d has no name", i+1))
		}
		if role.PrivateInstructions == "" {
			*warns = append(*warns, game.Warnf(row, "roles", "role %d (%s) has no private instructions", i+1, role.Name))
		}
		if role.MaxCount != nil && role.MinCount > *role.MaxCount {
			*errs = append(*errs, game.Errorf(row, "roles", "role %s: min_count > max_count", role.Name))
		}
	}
}

func validateArtifacts(g *game.ParsedGame, row int, errs, warns *[]game.ImportError) {
	roleOrders := map[int]struct{}{}
	roleNames := map[string]struct{}{}
	for _, role := range g.Roles {
		roleOrders[role.RoleOrder] = struct{}{}
		roleNames[role.Name] = struct{}{}
	}

	seen := map[int]struct{}{}
	for i, artifact := range g.Artifacts {
		title := artifact.Title
		if title == "" {
			title = fmt.Sprintf("Artifact #%d", i+1)
		}

		if _, dup := seen[artifact.ArtifactOrder]; dup {
			*errs = append(*errs, game.Errorf(row, "artifacts", "duplicate artifact_order %d", artifact.ArtifactOrder))
		}
		seen[artifact.ArtifactOrder] = struct{}{}

		if artifact.ArtifactType != "" {
			if _, known := knownArtifactTypes[artifact.ArtifactType]; !known {
				*warns = append(*warns, game.Warnf(row, "artifacts",
					"artifact %q: unknown artifact_type %q", title, artifact.ArtifactType))
			}
		}

		if artifact.ArtifactType == "keypad" {
			validateKeypad(artifact, title, row, errs)
		}

		for j, variant := range artifact.Variants {
			if variant.Visibility == game.VisibilityRolePrivate {
				if variant.VisibleToRoleID == "" && variant.VisibleToRoleOrder == nil && variant.VisibleToRoleName == "" {
					*errs = append(*errs, game.Errorf(row, "artifacts",
						"artifact %q, variant #%d: visibility is 'role_private' but no role reference is set", title, j+1))
				}
			}
			if variant.VisibleToRoleOrder != nil {
				if _, ok := roleOrders[*variant.VisibleToRoleOrder]; !ok {
					*errs = append(*errs, game.Errorf(row, "artifacts",
						"artifact %q, variant #%d: visible_to_role_order %d does not match any role", title, j+1, *variant.VisibleToRoleOrder))
				}
			}
			if variant.VisibleToRoleName != "" {
				if _, ok := roleNames[variant.VisibleToRoleName]; !ok {
					*errs = append(*errs, game.Errorf(row, "artifacts",
						"artifact %q, variant #%d: visible_to_role_name %q does not match any role", title, j+1, variant.VisibleToRoleName))
				}
			}
			if variant.Visibility == game.VisibilityPublic && variant.Body != "" && secretPattern.MatchString(variant.Body) {
				*warns = append(*warns, game.Warnf(row, "artifacts",
					"artifact %q, variant #%d: public variant contains what looks like a code (%s)",
					title, j+1, secretPattern.FindString(variant.Body)))
			}
		}
	}
}

func validateKeypad(artifact game.Artifact, title string, row int, errs *[]game.ImportError) {
	if artifact.Metadata == nil {
		*errs = append(*errs, game.Errorf(row, "artifacts",
			"keypad %q has no metadata; add a metadata object with correctCode", title))
		return
	}
	code, ok := artifact.Metadata["correctCode"]
	if !ok || code == nil {
		*errs = append(*errs, game.Errorf(row, "artifacts", "keypad %q is missing correctCode in metadata", title))
		return
	}
	switch c := code.(type) {
	case string:
		// ok
	case json.Number:
		*errs = append(*errs, game.Errorf(row, "artifacts",
			"keypad %q: correctCode is a number (%s), leading zeros may have been lost; supply it as a string", title, c.String()))
	case float64, int, int64:
		*errs = append(*errs, game.Errorf(row, "artifacts",
			"keypad %q: correctCode is a number (%v), leading zeros may have been lost; supply it as a string", title, c))
	default:
		*errs = append(*errs, game.Errorf(row, "artifacts",
			"keypad %q: correctCode must be a string, got %T", title, code))
	}
}

// validateTriggers enforces the fail-fast trigger policy: every trigger must
// carry a recognized condition type, a non-empty action list and resolvable
// order references. A game with an unresolvable trigger must never be
// imported with that trigger silently dropped.
func validateTriggers(g *game.ParsedGame, row int, errs *[]game.ImportError) {
	stepOrders := map[int]struct{}{}
	for _, s := range g.Steps {
		stepOrders[s.StepOrder] = struct{}{}
	}
	phaseOrders := map[int]struct{}{}
	for _, p := range g.Phases {
		phaseOrders[p.PhaseOrder] = struct{}{}
	}
	artifactOrders := map[int]struct{}{}
	for _, a := range g.Artifacts {
		artifactOrders[a.ArtifactOrder] = struct{}{}
	}

	for i, trigger := range g.Triggers {
		name := trigger.Name
		if name == "" {
			name = fmt.Sprintf("Trigger #%d", i+1)
		}

		condType := getString(trigger.Condition, "type")
		if _, known := knownConditionTypes[condType]; !known {
			*errs = append(*errs, game.Errorf(row, "triggers",
				"trigger %q: unknown condition type %q", name, condType))
		}
		if len(trigger.Actions) == 0 {
			*errs = append(*errs, game.Errorf(row, "triggers", "trigger %q has no actions", name))
		}

		checkOrderRef(trigger.Condition, stepOrders, phaseOrders, artifactOrders, row, name, errs)
		for _, action := range trigger.Actions {
			checkOrderRef(action, stepOrders, phaseOrders, artifactOrders, row, name, errs)
		}
	}
}

// checkOrderRef verifies that an order-alias reference in a condition or
// action resolves within the same game.
func checkOrderRef(entity map[string]any, stepOrders, phaseOrders, artifactOrders map[int]struct{}, row int, trigger string, errs *[]game.ImportError) {
	ref, ok := lookupRef(entity)
	if !ok {
		return
	}
	raw, exists := entity[ref.orderField]
	if !exists {
		return
	}
	order, ok := asInt(raw)
	if !ok {
		*errs = append(*errs, game.Errorf(row, "triggers",
			"trigger %q: %s must be an integer", trigger, ref.orderField))
		return
	}

	var orders map[int]struct{}
	var entityName string
	switch ref.target {
	case refStep:
		orders, entityName = stepOrders, "step"
	case refPhase:
		orders, entityName = phaseOrders, "phase"
	case refArtifact:
		orders, entityName = artifactOrders, "artifact"
	}
	if _, found := orders[order]; !found {
		*errs = append(*errs, game.Errorf(row, "triggers",
			"trigger %q: %s %d referenced by %s does not exist", trigger, entityName, order, ref.orderField))
	}
}
