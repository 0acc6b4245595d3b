package exporter

import (
	"fmt"
	"strconv"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/modules/games/importer"
	"github.com/lekbanken/gamedesk/pkg/csvkit"
)

// GenerateCSV renders games into the canonical CSV column set. The flat
// format cannot carry artifacts, triggers or passthrough payloads; games
// that would lose content are reported as scope notes alongside the file,
// never dropped silently.
func GenerateCSV(games []game.ParsedGame) ([]byte, []string, error) {
	header := importer.AllColumns()
	rows := make([][]string, 0, len(games))
	notes := ScopeNotes(games)

	for _, g := range games {
		row, err := renderRow(g, header)
		if err != nil {
			return nil, nil, fmt.Errorf("game %s: %w", g.GameKey, err)
		}
		rows = append(rows, row)
	}

	data, err := csvkit.Generate(header, rows)
	if err != nil {
		return nil, nil, err
	}
	return data, notes, nil
}

// ScopeNotes lists the content the flat formats cannot represent.
func ScopeNotes(games []game.ParsedGame) []string {
	var notes []string
	for _, g := range games {
		if len(g.Artifacts) > 0 || len(g.Triggers) > 0 {
			notes = append(notes, fmt.Sprintf("game %s: artifacts and triggers are not included in CSV/XLSX exports, use the JSON format", g.GameKey))
		}
		if g.Decisions != nil || g.Outcomes != nil {
			notes = append(notes, fmt.Sprintf("game %s: decisions/outcomes payloads are not included in CSV/XLSX exports, use the JSON format", g.GameKey))
		}
		outOfRange := 0
		for _, s := range g.Steps {
			if s.StepOrder < 1 || s.StepOrder > importer.MaxInlineSteps {
				outOfRange++
			}
		}
		switch {
		case len(g.Steps) > importer.MaxInlineSteps:
			notes = append(notes, fmt.Sprintf("game %s: only the first %d steps fit the inline step columns (%d total)", g.GameKey, importer.MaxInlineSteps, len(g.Steps)))
		case outOfRange > 0:
			notes = append(notes, fmt.Sprintf("game %s: %d steps fall outside the inline step columns (orders 1..%d), use the JSON format", g.GameKey, outOfRange, importer.MaxInlineSteps))
		}
	}
	return notes
}

func renderRow(g game.ParsedGame, header []string) ([]string, error) {
	cells := map[string]string{
		"game_key":          g.GameKey,
		"name":              g.Name,
		"short_description": g.ShortDescription,
		"description":       g.Description,
		"play_mode":         string(g.PlayMode),
		"status":            string(g.Status),
		"locale":            g.Locale,

		"energy_level":        g.EnergyLevel,
		"location_type":       g.LocationType,
		"time_estimate_min":   formatIntPtr(g.TimeEstimateMin),
		"duration_max":        formatIntPtr(g.DurationMax),
		"min_players":         formatIntPtr(g.MinPlayers),
		"max_players":         formatIntPtr(g.MaxPlayers),
		"players_recommended": formatIntPtr(g.PlayersRecommended),
		"age_min":             formatIntPtr(g.AgeMin),
		"age_max":             formatIntPtr(g.AgeMax),
		"difficulty":          g.Difficulty,
		"accessibility_notes": g.AccessibilityNotes,
		"space_requirements":  g.SpaceRequirements,
		"leader_tips":         g.LeaderTips,

		"main_purpose_id": g.MainPurposeID,
		"product_id":      g.ProductID,
		"owner_tenant_id": g.OwnerTenantID,
	}

	if len(g.SubPurposeIDs) > 0 {
		cell, err := csvkit.MarshalJSONCell(g.SubPurposeIDs)
		if err != nil {
			return nil, fmt.Errorf("sub_purpose_ids: %w", err)
		}
		cells["sub_purpose_ids"] = cell
	}

	if len(g.Steps) > 0 {
		cells["step_count"] = strconv.Itoa(len(g.Steps))
	}

	doc := encodeGame(g)
	if doc.Materials != nil {
		cell, err := csvkit.MarshalJSONCell(doc.Materials)
		if err != nil {
			return nil, fmt.Errorf("materials_json: %w", err)
		}
		cells["materials_json"] = cell
	}
	if len(doc.Phases) > 0 {
		cell, err := csvkit.MarshalJSONCell(doc.Phases)
		if err != nil {
			return nil, fmt.Errorf("phases_json: %w", err)
		}
		cells["phases_json"] = cell
	}
	if len(doc.Roles) > 0 {
		cell, err := csvkit.MarshalJSONCell(doc.Roles)
		if err != nil {
			return nil, fmt.Errorf("roles_json: %w", err)
		}
		cells["roles_json"] = cell
	}
	if doc.BoardConfig != nil {
		cell, err := csvkit.MarshalJSONCell(doc.BoardConfig)
		if err != nil {
			return nil, fmt.Errorf("board_config_json: %w", err)
		}
		cells["board_config_json"] = cell
	}

	for _, s := range g.Steps {
		if s.StepOrder < 1 || s.StepOrder > importer.MaxInlineSteps {
			continue
		}
		cells[fmt.Sprintf("step_%d_title", s.StepOrder)] = s.Title
		cells[fmt.Sprintf("step_%d_body", s.StepOrder)] = s.Body
		cells[fmt.Sprintf("step_%d_duration", s.StepOrder)] = formatIntPtr(s.DurationSeconds)
	}

	row := make([]string, len(header))
	for i, column := range header {
		row[i] = cells[column]
	}
	return row, nil
}

func formatIntPtr(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
