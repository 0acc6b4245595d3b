package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/pkg/csvkit"
)

// Legacy artifact type spellings still seen in older exports.
var artifactTypeAliases = map[string]string{
	"text": "card",
	"note": "card",
}

// ParseJSONGames parses a JSON array of game objects. Unlike the CSV path
// the JSON format carries full fidelity: artifacts, variants, triggers and
// passthrough payloads. A payload that is not a JSON array is a hard error;
// per-game problems become findings and never abort the batch.
func ParseJSONGames(data []byte) (ParseResult, error) {
	var res ParseResult

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return res, fmt.Errorf("invalid JSON: %w", err)
	}
	items, ok := raw.([]any)
	if !ok {
		return res, fmt.Errorf("expected a JSON array of games")
	}
	if len(items) == 0 {
		return res, fmt.Errorf("no games found in JSON payload")
	}

	for i, item := range items {
		row := i + 1
		m, ok := item.(map[string]any)
		if !ok {
			res.Errors = append(res.Errors, game.Errorf(row, "", "game %d is not a JSON object", row))
			continue
		}
		g, errs, warns := parseJSONGame(m, row)
		res.Errors = append(res.Errors, errs...)
		res.Warnings = append(res.Warnings, warns...)
		if g != nil {
			res.Games = append(res.Games, *g)
		}
	}
	return res, nil
}

func parseJSONGame(m map[string]any, row int) (*game.ParsedGame, []game.ImportError, []game.ImportError) {
	var errs, warns []game.ImportError

	name := csvkit.CleanText(getString(m, "name"))
	if name == "" {
		errs = append(errs, game.Errorf(row, "name", "name is required"))
	}
	shortDescription := csvkit.CleanText(getString(m, "short_description"))
	if shortDescription == "" {
		errs = append(errs, game.Errorf(row, "short_description", "short_description is required"))
	}

	playModeRaw := strings.ToLower(getString(m, "play_mode"))
	playMode := game.PlayMode(playModeRaw)
	if playModeRaw == "" {
		playMode = game.PlayModeBasic
	} else if !playMode.Valid() {
		warns = append(warns, game.Warnf(row, "play_mode", "invalid play_mode %q, falling back to 'basic'", playModeRaw))
		playMode = game.PlayModeBasic
	}

	statusRaw := strings.ToLower(getString(m, "status"))
	status := game.Status(statusRaw)
	if !status.Valid() {
		status = game.StatusDraft
	}

	gameKey := getString(m, "game_key")
	if gameKey == "" {
		fallback := name
		if fallback == "" {
			fallback = "unnamed"
		}
		gameKey = csvkit.GenerateKey(fallback)
		warns = append(warns, game.Warnf(row, "game_key", "game_key missing, generated: %s", gameKey))
	}

	g := &game.ParsedGame{
		SourceRow:        row,
		GameKey:          gameKey,
		Name:             name,
		ShortDescription: shortDescription,
		Description:      csvkit.CleanText(getString(m, "description")),
		PlayMode:         playMode,
		Status:           status,
		Locale:           getString(m, "locale"),

		EnergyLevel:        getString(m, "energy_level"),
		LocationType:       getString(m, "location_type"),
		TimeEstimateMin:    getIntPtr(m, "time_estimate_min"),
		DurationMax:        getIntPtr(m, "duration_max"),
		MinPlayers:         getIntPtr(m, "min_players"),
		MaxPlayers:         getIntPtr(m, "max_players"),
		PlayersRecommended: getIntPtr(m, "players_recommended"),
		AgeMin:             getIntPtr(m, "age_min"),
		AgeMax:             getIntPtr(m, "age_max"),
		Difficulty:         getString(m, "difficulty"),
		AccessibilityNotes: csvkit.CleanText(getString(m, "accessibility_notes")),
		SpaceRequirements:  csvkit.CleanText(getString(m, "space_requirements")),
		LeaderTips:         csvkit.CleanText(getString(m, "leader_tips")),

		MainPurposeID: getString(m, "main_purpose_id"),
		SubPurposeIDs: getStringSlice(m, "sub_purpose_ids"),
		ProductID:     getString(m, "product_id"),
		OwnerTenantID: getString(m, "owner_tenant_id"),

		StepCount: getIntPtr(m, "step_count"),

		Decisions: m["decisions"],
		Outcomes:  m["outcomes"],
	}

	g.Steps = parseJSONSteps(getSlice(m, "steps"), row, &errs)
	if materials := getMap(m, "materials"); materials != nil {
		g.Materials = &game.Materials{
			Items:       getStringSlice(materials, "items"),
			SafetyNotes: getString(materials, "safety_notes"),
			Preparation: getString(materials, "preparation"),
		}
	}
	g.Phases = parseJSONPhases(getSlice(m, "phases"), row, &errs)
	g.Roles = parseJSONRoles(getSlice(m, "roles"), row, &errs)
	if bc := getMap(m, "board_config"); bc != nil {
		g.BoardConfig = &game.BoardConfig{
			ShowGameName:     getBoolOr(bc, "show_game_name", true),
			ShowCurrentPhase: getBoolOr(bc, "show_current_phase", true),
			ShowTimer:        getBoolOr(bc, "show_timer", true),
			ShowParticipants: getBoolOr(bc, "show_participants", true),
			ShowPublicRoles:  getBoolOr(bc, "show_public_roles", true),
			ShowLeaderboard:  getBoolOr(bc, "show_leaderboard", false),
			ShowQRCode:       getBoolOr(bc, "show_qr_code", false),
			WelcomeMessage:   getString(bc, "welcome_message"),
			Theme:            getString(bc, "theme"),
			BackgroundColor:  getString(bc, "background_color"),
			LayoutVariant:    getString(bc, "layout_variant"),
		}
	}
	g.Artifacts = parseJSONArtifacts(getSlice(m, "artifacts"), row, &errs, &warns)

	if rawTriggers, ok := m["triggers"]; ok && rawTriggers != nil {
		items, ok := rawTriggers.([]any)
		if !ok {
			errs = append(errs, game.Errorf(row, "triggers", "triggers must be a JSON array"))
		} else {
			triggers, terrs, twarns := NormalizeGameTriggers(items, row)
			errs = append(errs, terrs...)
			warns = append(warns, twarns...)
			g.Triggers = triggers
		}
	}

	if len(errs) > 0 {
		return nil, errs, warns
	}
	return g, errs, warns
}

func parseJSONSteps(items []any, row int, errs *[]game.ImportError) []game.Step {
	var steps []game.Step
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			*errs = append(*errs, game.Errorf(row, fmt.Sprintf("steps[%d]", i), "step is not a JSON object"))
			continue
		}
		steps = append(steps, game.Step{
			StepOrder:         getIntOr(m, "step_order", i+1),
			Title:             csvkit.CleanText(getString(m, "title")),
			Body:              csvkit.CleanText(getString(m, "body")),
			DurationSeconds:   getIntPtr(m, "duration_seconds"),
			LeaderScript:      getString(m, "leader_script"),
			ParticipantPrompt: getString(m, "participant_prompt"),
			BoardText:         getString(m, "board_text"),
			Optional:          getBoolOr(m, "optional", false),
			PhaseID:           getString(m, "phase_id"),
			PhaseOrder:        getIntPtr(m, "phase_order"),
		})
	}
	return steps
}

func parseJSONPhases(items []any, row int, errs *[]game.ImportError) []game.Phase {
	var phases []game.Phase
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			*errs = append(*errs, game.Errorf(row, fmt.Sprintf("phases[%d]", i), "phase is not a JSON object"))
			continue
		}
		phaseType := game.PhaseType(getString(m, "phase_type"))
		if !phaseType.Valid() {
			phaseType = game.PhaseRound
		}
		timerStyle := getString(m, "timer_style")
		if _, ok := validTimerStyles[timerStyle]; !ok {
			timerStyle = "countdown"
		}
		phases = append(phases, game.Phase{
			PhaseOrder:      getIntOr(m, "phase_order", i+1),
			Name:            getStringOr(m, "name", fmt.Sprintf("Phase %d", i+1)),
			PhaseType:       phaseType,
			DurationSeconds: getIntPtr(m, "duration_seconds"),
			TimerVisible:    getBoolOr(m, "timer_visible", true),
			TimerStyle:      timerStyle,
			Description:     getString(m, "description"),
			BoardMessage:    getString(m, "board_message"),
			AutoAdvance:     getBoolOr(m, "auto_advance", false),
		})
	}
	return phases
}

func parseJSONRoles(items []any, row int, errs *[]game.ImportError) []game.Role {
	var roles []game.Role
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			*errs = append(*errs, game.Errorf(row, fmt.Sprintf("roles[%d]", i), "role is not a JSON object"))
			continue
		}
		strategy := game.AssignmentStrategy(getString(m, "assignment_strategy"))
		if !strategy.Valid() {
			strategy = game.AssignRandom
		}
		roles = append(roles, game.Role{
			RoleOrder:           getIntOr(m, "role_order", i+1),
			Name:                getStringOr(m, "name", fmt.Sprintf("Role %d", i+1)),
			Icon:                getString(m, "icon"),
			Color:               getString(m, "color"),
			PublicDescription:   getString(m, "public_description"),
			PrivateInstructions: getString(m, "private_instructions"),
			PrivateHints:        getString(m, "private_hints"),
			MinCount:            getIntOr(m, "min_count", 1),
			MaxCount:            getIntPtr(m, "max_count"),
			AssignmentStrategy:  strategy,
			ScalingRules:        getIntMap(m, "scaling_rules"),
			ConflictsWith:       getStringSlice(m, "conflicts_with"),
		})
	}
	return roles
}

func parseJSONArtifacts(items []any, row int, errs, warns *[]game.ImportError) []game.Artifact {
	var artifacts []game.Artifact
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			*errs = append(*errs, game.Errorf(row, fmt.Sprintf("artifacts[%d]", i), "artifact is not a JSON object"))
			continue
		}
		artifactType := strings.ToLower(getString(m, "artifact_type"))
		if canonical, ok := artifactTypeAliases[artifactType]; ok {
			artifactType = canonical
		}
		a := game.Artifact{
			ArtifactOrder: getIntOr(m, "artifact_order", i+1),
			Locale:        getString(m, "locale"),
			Title:         getString(m, "title"),
			Description:   getString(m, "description"),
			ArtifactType:  artifactType,
			Tags:          getStringSlice(m, "tags"),
			Metadata:      getMap(m, "metadata"),
		}
		for j, rawVariant := range getSlice(m, "variants") {
			vm, ok := rawVariant.(map[string]any)
			if !ok {
				*errs = append(*errs, game.Errorf(row, fmt.Sprintf("artifacts[%d].variants[%d]", i, j), "variant is not a JSON object"))
				continue
			}
			visibility := game.Visibility(getString(vm, "visibility"))
			if !visibility.Valid() {
				*warns = append(*warns, game.Warnf(row, fmt.Sprintf("artifacts[%d].variants[%d].visibility", i, j),
					"invalid visibility %q, falling back to 'public'", getString(vm, "visibility")))
				visibility = game.VisibilityPublic
			}
			a.Variants = append(a.Variants, game.ArtifactVariant{
				VariantOrder:       getIntOr(vm, "variant_order", j+1),
				Visibility:         visibility,
				VisibleToRoleID:    getString(vm, "visible_to_role_id"),
				VisibleToRoleOrder: getIntPtr(vm, "visible_to_role_order"),
				VisibleToRoleName:  getString(vm, "visible_to_role_name"),
				Title:              getString(vm, "title"),
				Body:               getString(vm, "body"),
				MediaRef:           getString(vm, "media_ref"),
				Metadata:           getMap(vm, "metadata"),
			})
		}
		artifacts = append(artifacts, a)
	}
	return artifacts
}
