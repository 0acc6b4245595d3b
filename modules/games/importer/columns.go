package importer

import "fmt"

// MaxInlineSteps bounds how many step_N_* column groups a CSV may carry.
const MaxInlineSteps = 20

var identityColumns = []string{
	"game_key", "name", "short_description", "description", "play_mode", "status", "locale",
}

var metadataColumns = []string{
	"energy_level", "location_type", "time_estimate_min", "duration_max",
	"min_players", "max_players", "players_recommended",
	"age_min", "age_max", "difficulty",
	"accessibility_notes", "space_requirements", "leader_tips",
}

var referenceColumns = []string{
	"main_purpose_id", "sub_purpose_ids", "product_id", "owner_tenant_id",
}

var jsonColumns = []string{
	"materials_json", "phases_json", "roles_json", "board_config_json",
}

// StepColumns returns the inline step column names for steps 1..maxSteps.
func StepColumns(maxSteps int) []string {
	columns := make([]string, 0, maxSteps*3)
	for i := 1; i <= maxSteps; i++ {
		columns = append(columns,
			fmt.Sprintf("step_%d_title", i),
			fmt.Sprintf("step_%d_body", i),
			fmt.Sprintf("step_%d_duration", i),
		)
	}
	return columns
}

// AllColumns is the canonical CSV column set, in export order. It is the
// single source of truth: the parser, the export generator and
// docs/csv-format.md are all checked against it.
func AllColumns() []string {
	columns := make([]string, 0, len(identityColumns)+len(metadataColumns)+len(referenceColumns)+1+len(jsonColumns)+MaxInlineSteps*3)
	columns = append(columns, identityColumns...)
	columns = append(columns, metadataColumns...)
	columns = append(columns, referenceColumns...)
	columns = append(columns, "step_count")
	columns = append(columns, jsonColumns...)
	columns = append(columns, StepColumns(MaxInlineSteps)...)
	return columns
}
