package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/modules/games/importer"
)

const fullGameJSON = `[{
	"game_key": "kodjakt",
	"name": "Kodjakt",
	"short_description": "A code hunt",
	"description": "Crack the vault before time runs out",
	"play_mode": "facilitated",
	"status": "published",
	"locale": "sv",
	"min_players": 4,
	"max_players": 12,
	"age_min": 10,
	"step_count": 2,
	"steps": [
		{"step_order": 1, "title": "Start", "body": "Explain the rules", "phase_order": 1},
		{"step_order": 2, "title": "Hunt", "body": "Find the vault", "duration_seconds": 300}
	],
	"materials": {"items": ["pen", "paper"], "preparation": "print the clues"},
	"phases": [
		{"phase_order": 1, "name": "Intro", "phase_type": "intro", "timer_visible": false, "timer_style": "countdown"}
	],
	"roles": [
		{"role_order": 1, "name": "Guard", "min_count": 1, "assignment_strategy": "random", "private_instructions": "protect the vault"}
	],
	"board_config": {"show_game_name": true, "show_current_phase": true, "show_timer": false, "show_participants": true, "show_public_roles": true, "show_leaderboard": false, "show_qr_code": false, "theme": "dark"},
	"artifacts": [{
		"artifact_order": 1,
		"title": "Vault",
		"artifact_type": "keypad",
		"metadata": {"correctCode": "0042", "maxAttempts": 3},
		"variants": [
			{"variant_order": 1, "visibility": "role_private", "visible_to_role_order": 1, "body": "the code starts with 0"}
		]
	}],
	"triggers": [{
		"name": "open on code",
		"enabled": true,
		"condition": {"type": "keypad_correct", "artifactOrder": 1},
		"actions": [{"type": "reveal_artifact", "artifactOrder": 1}]
	}]
}]`

func parseFullGame(t *testing.T) game.ParsedGame {
	t.Helper()
	res, err := importer.ParseJSONGames([]byte(fullGameJSON))
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Games, 1)
	return res.Games[0]
}

func TestGenerateJSON_RoundTrip(t *testing.T) {
	original := parseFullGame(t)

	data, err := GenerateJSON([]game.ParsedGame{original})
	require.NoError(t, err)

	res, err := importer.ParseJSONGames(data)
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Games, 1)

	assert.Equal(t, original, res.Games[0])
}

func TestGenerateJSON_KeypadCodeStaysString(t *testing.T) {
	data, err := GenerateJSON([]game.ParsedGame{parseFullGame(t)})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"correctCode": "0042"`)
	assert.Contains(t, string(data), `"maxAttempts": 3`)
}

func TestBuildParsedGame_RewritesIDsToOrders(t *testing.T) {
	phaseID := "aaaaaaaa-0000-0000-0000-000000000001"
	roleID := "aaaaaaaa-0000-0000-0000-000000000002"
	artifactID := "aaaaaaaa-0000-0000-0000-000000000003"

	stored := StoredGame{
		ID: "aaaaaaaa-0000-0000-0000-000000000000",
		Game: game.ParsedGame{
			GameKey:          "kodjakt",
			Name:             "Kodjakt",
			ShortDescription: "A code hunt",
			PlayMode:         game.PlayModeFacilitated,
			Steps: []game.Step{
				{StepOrder: 1, Title: "Start", Body: "Explain", PhaseID: phaseID},
			},
			Phases: []game.Phase{
				{PhaseOrder: 1, Name: "Intro", PhaseType: game.PhaseIntro},
			},
			Roles: []game.Role{
				{RoleOrder: 1, Name: "Guard", MinCount: 1},
			},
			Artifacts: []game.Artifact{
				{
					ArtifactOrder: 1,
					Title:         "Vault",
					ArtifactType:  "keypad",
					Variants: []game.ArtifactVariant{
						{VariantOrder: 1, Visibility: game.VisibilityRolePrivate, VisibleToRoleID: roleID},
					},
				},
			},
			Triggers: []game.Trigger{
				{
					Enabled:   true,
					Condition: map[string]any{"type": "keypad_correct", "keypadId": artifactID},
					Actions:   []map[string]any{{"type": "reveal_artifact", "artifactId": artifactID}},
				},
			},
		},
		IDs: importer.IDMaps{
			PhaseIDByOrder:    map[int]string{1: phaseID},
			RoleIDByOrder:     map[int]string{1: roleID},
			ArtifactIDByOrder: map[int]string{1: artifactID},
		},
	}

	g := BuildParsedGame(stored)

	require.NotNil(t, g.Steps[0].PhaseOrder)
	assert.Equal(t, 1, *g.Steps[0].PhaseOrder)
	assert.Empty(t, g.Steps[0].PhaseID)

	v := g.Artifacts[0].Variants[0]
	require.NotNil(t, v.VisibleToRoleOrder)
	assert.Equal(t, 1, *v.VisibleToRoleOrder)
	assert.Empty(t, v.VisibleToRoleID)

	cond := g.Triggers[0].Condition
	assert.Equal(t, 1, cond["artifactOrder"])
	assert.NotContains(t, cond, "keypadId")
	action := g.Triggers[0].Actions[0]
	assert.Equal(t, 1, action["artifactOrder"])
	assert.NotContains(t, action, "artifactId")

	// The stored game is untouched.
	assert.Equal(t, phaseID, stored.Game.Steps[0].PhaseID)
	assert.Equal(t, artifactID, stored.Game.Triggers[0].Condition["keypadId"])
}

func TestBuildParsedGame_UnresolvableIDsPassThrough(t *testing.T) {
	stored := StoredGame{
		Game: game.ParsedGame{
			GameKey: "kodjakt",
			Steps: []game.Step{
				{StepOrder: 1, Title: "Start", Body: "Explain", PhaseID: "bbbbbbbb-0000-0000-0000-000000000009"},
			},
		},
	}

	g := BuildParsedGame(stored)
	assert.Equal(t, "bbbbbbbb-0000-0000-0000-000000000009", g.Steps[0].PhaseID)
	assert.Nil(t, g.Steps[0].PhaseOrder)
}

func TestGenerateCSV_RoundTripAndScopeNotes(t *testing.T) {
	original := parseFullGame(t)

	data, notes, err := GenerateCSV([]game.ParsedGame{original})
	require.NoError(t, err)

	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "kodjakt")
	assert.Contains(t, notes[0], "artifacts and triggers")

	require.True(t, bytes.HasPrefix(data, []byte("\uFEFF")))

	res := importer.ParseCSVGames(bytes.NewReader(data))
	require.Empty(t, res.Errors)
	require.Len(t, res.Games, 1)

	g := res.Games[0]
	assert.Equal(t, "kodjakt", g.GameKey)
	assert.Equal(t, game.PlayModeFacilitated, g.PlayMode)
	require.Len(t, g.Steps, 2)
	assert.Equal(t, "Explain the rules", g.Steps[0].Body)
	require.Len(t, g.Phases, 1)
	assert.False(t, g.Phases[0].TimerVisible)
	require.Len(t, g.Roles, 1)
	assert.Equal(t, "protect the vault", g.Roles[0].PrivateInstructions)
	require.NotNil(t, g.Materials)
	assert.Equal(t, []string{"pen", "paper"}, g.Materials.Items)
	require.NotNil(t, g.BoardConfig)
	assert.False(t, g.BoardConfig.ShowTimer)

	// The flat format drops artifacts and triggers, hence the scope note.
	assert.Empty(t, g.Artifacts)
	assert.Empty(t, g.Triggers)
}

func TestGenerateCSV_TooManyStepsNoted(t *testing.T) {
	g := game.ParsedGame{GameKey: "long", Name: "Long", ShortDescription: "x"}
	for i := 1; i <= importer.MaxInlineSteps+2; i++ {
		g.Steps = append(g.Steps, game.Step{StepOrder: i, Title: "T", Body: "B"})
	}

	_, notes, err := GenerateCSV([]game.ParsedGame{g})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "only the first 20 steps")
}

func TestGenerateCSV_OutOfRangeStepOrderNoted(t *testing.T) {
	g := game.ParsedGame{
		GameKey: "sparse", Name: "Sparse", ShortDescription: "x",
		Steps: []game.Step{
			{StepOrder: 1, Title: "T", Body: "B"},
			{StepOrder: 25, Title: "T", Body: "B"},
		},
	}

	_, notes, err := GenerateCSV([]game.ParsedGame{g})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "outside the inline step columns")
}

func TestGenerateXLSX(t *testing.T) {
	original := parseFullGame(t)

	data, notes, err := GenerateXLSX([]game.ParsedGame{original})
	require.NoError(t, err)
	require.NotEmpty(t, notes)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	rows, err := f.GetRows("Games")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header := importer.AllColumns()
	assert.Equal(t, header, rows[0][:len(header)])

	keyIdx := -1
	for i, column := range rows[0] {
		if column == "game_key" {
			keyIdx = i
		}
	}
	require.NotEqual(t, -1, keyIdx)
	assert.Equal(t, "kodjakt", rows[1][keyIdx])
}

func TestScopeNotes_CleanGameHasNone(t *testing.T) {
	g := game.ParsedGame{
		GameKey: "plain", Name: "Plain", ShortDescription: "x",
		Steps: []game.Step{{StepOrder: 1, Title: "T", Body: "B"}},
	}
	assert.Empty(t, ScopeNotes([]game.ParsedGame{g}))
	assert.True(t, strings.HasPrefix(g.GameKey, "plain"))
}
