package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/pkg/csvkit"
)

var (
	validEnergyLevels  = map[string]struct{}{"low": {}, "medium": {}, "high": {}}
	validLocationTypes = map[string]struct{}{"indoor": {}, "outdoor": {}, "both": {}}
	validTimerStyles   = map[string]struct{}{"countdown": {}, "elapsed": {}, "trafficlight": {}}
)

// ParseResult is the outcome of parsing one import payload. Games contains
// only rows that parsed without error-severity findings; the rest of the
// batch is still reported through Errors and Warnings.
type ParseResult struct {
	Games    []game.ParsedGame
	Errors   []game.ImportError
	Warnings []game.ImportError
}

// HasErrors reports whether any error-severity finding was produced.
func (r ParseResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ParseCSVGames parses CSV content into games. A failed row is excluded
// while the remaining rows continue to parse; structural problems (missing
// header, unreadable records) stop the scan with a row-0 finding.
func ParseCSVGames(src io.Reader) ParseResult {
	var res ParseResult

	r := csvkit.NewReader(src)
	header, err := csvkit.ReadHeader(r)
	if err != nil {
		res.Errors = append(res.Errors, game.Errorf(0, "", "invalid CSV: %v", err))
		return res
	}
	if err := csvkit.RequireHeader(header, []string{"name", "short_description"}); err != nil {
		res.Errors = append(res.Errors, game.Errorf(0, "", "invalid CSV: %v", err))
		return res
	}
	index := csvkit.HeaderIndex(header)

	rows := 0
	for i := 0; ; i++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		rowNumber := i + 2 // header is row 1
		if err != nil {
			res.Errors = append(res.Errors, game.Errorf(rowNumber, "", "unreadable CSV record: %v", err))
			return res
		}
		rows++

		g, errs, warns := parseGameRow(record, index, rowNumber)
		res.Errors = append(res.Errors, errs...)
		res.Warnings = append(res.Warnings, warns...)
		if g != nil {
			res.Games = append(res.Games, *g)
		}
	}

	if rows == 0 {
		res.Errors = append(res.Errors, game.Errorf(0, "", "no data rows found in CSV file"))
	}
	return res
}

func parseGameRow(record []string, index map[string]int, row int) (*game.ParsedGame, []game.ImportError, []game.ImportError) {
	var errs, warns []game.ImportError
	cell := func(column string) string { return csvkit.Cell(record, index, column) }

	name := csvkit.CleanText(cell("name"))
	if name == "" {
		errs = append(errs, game.Errorf(row, "name", "name is required"))
	}
	shortDescription := csvkit.CleanText(cell("short_description"))
	if shortDescription == "" {
		errs = append(errs, game.Errorf(row, "short_description", "short_description is required"))
	}

	playModeRaw := strings.ToLower(cell("play_mode"))
	playMode := game.PlayMode(playModeRaw)
	if playModeRaw == "" {
		playMode = game.PlayModeBasic
	} else if !playMode.Valid() {
		warns = append(warns, game.Warnf(row, "play_mode", "invalid play_mode %q, falling back to 'basic'", cell("play_mode")))
		playMode = game.PlayModeBasic
	}

	gameKey := cell("game_key")
	if gameKey == "" {
		fallback := name
		if fallback == "" {
			fallback = "unnamed"
		}
		gameKey = csvkit.GenerateKey(fallback)
		warns = append(warns, game.Warnf(row, "game_key", "game_key missing, generated: %s", gameKey))
	}

	steps, stepWarns := parseInlineSteps(record, index, row)
	warns = append(warns, stepWarns...)

	declaredSteps := parseIntCell(cell("step_count"), row, "step_count", &warns)
	if declaredSteps != nil && *declaredSteps > MaxInlineSteps {
		errs = append(errs, game.Errorf(row, "step_count",
			"too many steps (%d), at most %d inline steps are supported; use the JSON format for more", *declaredSteps, MaxInlineSteps))
	} else if declaredSteps != nil && *declaredSteps != len(steps) {
		warns = append(warns, game.Warnf(row, "step_count",
			"step_count declares %d steps but %d were found", *declaredSteps, len(steps)))
	}

	if len(steps) == 0 {
		errs = append(errs, game.Errorf(row, "step_1_title", "at least one step is required (step_1_title and step_1_body)"))
	}

	materials := parseMaterialsCell(cell("materials_json"), row, &errs)
	phases := parsePhasesCell(cell("phases_json"), row, playMode, &errs, &warns)
	roles := parseRolesCell(cell("roles_json"), row, playMode, &errs, &warns)
	boardConfig := parseBoardConfigCell(cell("board_config_json"), row, &errs)

	energyLevel := enumCell(cell("energy_level"), validEnergyLevels)
	locationType := enumCell(cell("location_type"), validLocationTypes)

	statusRaw := strings.ToLower(cell("status"))
	status := game.Status(statusRaw)
	if !status.Valid() {
		status = game.StatusDraft
	}

	if len(errs) > 0 {
		return nil, errs, warns
	}

	g := &game.ParsedGame{
		SourceRow:        row,
		GameKey:          gameKey,
		Name:             name,
		ShortDescription: shortDescription,
		Description:      csvkit.CleanText(cell("description")),
		PlayMode:         playMode,
		Status:           status,
		Locale:           cell("locale"),

		EnergyLevel:        energyLevel,
		LocationType:       locationType,
		TimeEstimateMin:    parseIntCell(cell("time_estimate_min"), row, "time_estimate_min", &warns),
		DurationMax:        parseIntCell(cell("duration_max"), row, "duration_max", &warns),
		MinPlayers:         parseIntCell(cell("min_players"), row, "min_players", &warns),
		MaxPlayers:         parseIntCell(cell("max_players"), row, "max_players", &warns),
		PlayersRecommended: parseIntCell(cell("players_recommended"), row, "players_recommended", &warns),
		AgeMin:             parseIntCell(cell("age_min"), row, "age_min", &warns),
		AgeMax:             parseIntCell(cell("age_max"), row, "age_max", &warns),
		Difficulty:         cell("difficulty"),
		AccessibilityNotes: csvkit.CleanText(cell("accessibility_notes")),
		SpaceRequirements:  csvkit.CleanText(cell("space_requirements")),
		LeaderTips:         csvkit.CleanText(cell("leader_tips")),

		MainPurposeID: cell("main_purpose_id"),
		SubPurposeIDs: parseSubPurposeIDs(cell("sub_purpose_ids"), cell("sub_purpose_id"), row, &warns),
		ProductID:     cell("product_id"),
		OwnerTenantID: cell("owner_tenant_id"),

		StepCount: declaredSteps,

		Steps:       steps,
		Materials:   materials,
		Phases:      phases,
		Roles:       roles,
		BoardConfig: boardConfig,
	}
	return g, errs, warns
}

func parseInlineSteps(record []string, index map[string]int, row int) ([]game.Step, []game.ImportError) {
	var steps []game.Step
	var warns []game.ImportError

	for i := 1; i <= MaxInlineSteps; i++ {
		titleKey := fmt.Sprintf("step_%d_title", i)
		bodyKey := fmt.Sprintf("step_%d_body", i)
		durationKey := fmt.Sprintf("step_%d_duration", i)

		title := csvkit.Cell(record, index, titleKey)
		body := csvkit.Cell(record, index, bodyKey)
		if title == "" && body == "" {
			continue
		}
		if title != "" && body == "" {
			warns = append(warns, game.Warnf(row, bodyKey, "step %d has a title but no body", i))
		}
		if title == "" && body != "" {
			warns = append(warns, game.Warnf(row, titleKey, "step %d has a body but no title", i))
		}

		cleanTitle := csvkit.CleanText(title)
		if cleanTitle == "" {
			cleanTitle = fmt.Sprintf("Step %d", i)
		}
		steps = append(steps, game.Step{
			StepOrder:       i,
			Title:           cleanTitle,
			Body:            csvkit.CleanText(body),
			DurationSeconds: parseIntCell(csvkit.Cell(record, index, durationKey), row, durationKey, &warns),
		})
	}
	return steps, warns
}

func parseMaterialsCell(value string, row int, errs *[]game.ImportError) *game.Materials {
	m, ok := jsonObjectCell(value, row, "materials_json", errs)
	if !ok || m == nil {
		return nil
	}
	return &game.Materials{
		Items:       getStringSlice(m, "items"),
		SafetyNotes: getString(m, "safety_notes"),
		Preparation: getString(m, "preparation"),
	}
}

func parsePhasesCell(value string, row int, mode game.PlayMode, errs, warns *[]game.ImportError) []game.Phase {
	items, ok := jsonArrayCell(value, row, "phases_json", errs)
	if !ok {
		return nil
	}
	if items == nil {
		if mode == game.PlayModeFacilitated || mode == game.PlayModeParticipants {
			*warns = append(*warns, game.Warnf(row, "phases_json", "play_mode is %q but no phases are defined", mode))
		}
		return nil
	}

	phases := make([]game.Phase, 0, len(items))
	for i, item := range items {
		m, _ := item.(map[string]any)
		if m == nil {
			*errs = append(*errs, game.Errorf(row, "phases_json", "phase %d is not a JSON object", i+1))
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

func parseRolesCell(value string, row int, mode game.PlayMode, errs, warns *[]game.ImportError) []game.Role {
	items, ok := jsonArrayCell(value, row, "roles_json", errs)
	if !ok {
		return nil
	}
	if items == nil {
		if mode == game.PlayModeParticipants {
			*warns = append(*warns, game.Warnf(row, "roles_json", "play_mode is 'participants' but no roles are defined"))
		}
		return nil
	}

	roles := make([]game.Role, 0, len(items))
	for i, item := range items {
		m, _ := item.(map[string]any)
		if m == nil {
			*errs = append(*errs, game.Errorf(row, "roles_json", "role %d is not a JSON object", i+1))
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

func parseBoardConfigCell(value string, row int, errs *[]game.ImportError) *game.BoardConfig {
	m, ok := jsonObjectCell(value, row, "board_config_json", errs)
	if !ok || m == nil {
		return nil
	}
	return &game.BoardConfig{
		ShowGameName:     getBoolOr(m, "show_game_name", true),
		ShowCurrentPhase: getBoolOr(m, "show_current_phase", true),
		ShowTimer:        getBoolOr(m, "show_timer", true),
		ShowParticipants: getBoolOr(m, "show_participants", true),
		ShowPublicRoles:  getBoolOr(m, "show_public_roles", true),
		ShowLeaderboard:  getBoolOr(m, "show_leaderboard", false),
		ShowQRCode:       getBoolOr(m, "show_qr_code", false),
		WelcomeMessage:   getString(m, "welcome_message"),
		Theme:            getString(m, "theme"),
		BackgroundColor:  getString(m, "background_color"),
		LayoutVariant:    getString(m, "layout_variant"),
	}
}

// jsonObjectCell decodes a cell expected to hold a JSON object. The bool
// result is false when the cell was present but unusable.
func jsonObjectCell(value string, row int, column string, errs *[]game.ImportError) (map[string]any, bool) {
	v, err := csvkit.ParseJSONCell(value)
	if err != nil {
		*errs = append(*errs, game.Errorf(row, column, "%v", err))
		return nil, false
	}
	if v == nil {
		return nil, true
	}
	m, ok := v.(map[string]any)
	if !ok {
		*errs = append(*errs, game.Errorf(row, column, "expected a JSON object"))
		return nil, false
	}
	return m, true
}

// jsonArrayCell decodes a cell expected to hold a JSON array.
func jsonArrayCell(value string, row int, column string, errs *[]game.ImportError) ([]any, bool) {
	v, err := csvkit.ParseJSONCell(value)
	if err != nil {
		*errs = append(*errs, game.Errorf(row, column, "%v", err))
		return nil, false
	}
	if v == nil {
		return nil, true
	}
	items, ok := v.([]any)
	if !ok {
		*errs = append(*errs, game.Errorf(row, column, "expected a JSON array"))
		return nil, false
	}
	return items, true
}

func parseIntCell(value string, row int, column string, warns *[]game.ImportError) *int {
	n, err := csvkit.ParseInteger(value)
	if err != nil {
		*warns = append(*warns, game.Warnf(row, column, "%v", err))
		return nil
	}
	return n
}

func enumCell(value string, valid map[string]struct{}) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if _, ok := valid[v]; ok {
		return v
	}
	return ""
}

// parseSubPurposeIDs accepts a JSON array cell (preferred) or the legacy
// delimiter-separated form, including the old single-column spelling.
func parseSubPurposeIDs(preferred, legacy string, row int, warns *[]game.ImportError) []string {
	value := preferred
	column := "sub_purpose_ids"
	if value == "" && legacy != "" {
		value = legacy
		column = "sub_purpose_id"
	}
	if value == "" {
		return nil
	}
	if strings.HasPrefix(strings.TrimSpace(value), "[") {
		v, err := csvkit.ParseJSONCell(value)
		if err != nil {
			*warns = append(*warns, game.Warnf(row, column, "%v", err))
			return nil
		}
		items, ok := v.([]any)
		if !ok {
			*warns = append(*warns, game.Warnf(row, column, "expected a JSON array of ids"))
			return nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := asString(item); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return csvkit.ParseStringList(value)
}
