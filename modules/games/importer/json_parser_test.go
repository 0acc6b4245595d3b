package importer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
)

func TestParseJSONGames_RejectsNonArray(t *testing.T) {
	_, err := ParseJSONGames([]byte(`{"name":"Kodjakt"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a JSON array")

	_, err = ParseJSONGames([]byte(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no games found")

	_, err = ParseJSONGames([]byte(`not json`))
	require.Error(t, err)
}

func TestParseJSONGames_MinimalGame(t *testing.T) {
	payload := `[{
		"game_key": "kodjakt",
		"name": "Kodjakt",
		"short_description": "A code hunt",
		"steps": [
			{"title": "Start", "body": "Explain the rules"},
			{"title": "Hunt", "body": "Find the vault"}
		]
	}]`

	res, err := ParseJSONGames([]byte(payload))
	require.NoError(t, err)
	require.Len(t, res.Games, 1)
	assert.Empty(t, res.Errors)

	g := res.Games[0]
	assert.Equal(t, 1, g.SourceRow)
	assert.Equal(t, "kodjakt", g.GameKey)
	assert.Equal(t, game.PlayModeBasic, g.PlayMode)
	assert.Equal(t, game.StatusDraft, g.Status)
	require.Len(t, g.Steps, 2)
	assert.Equal(t, 1, g.Steps[0].StepOrder)
	assert.Equal(t, 2, g.Steps[1].StepOrder)
}

func TestParseJSONGames_GeneratesMissingKey(t *testing.T) {
	payload := `[{"name": "Bollkull", "short_description": "Tag with a ball"}]`

	res, err := ParseJSONGames([]byte(payload))
	require.NoError(t, err)
	require.Len(t, res.Games, 1)
	assert.Contains(t, res.Games[0].GameKey, "bollkull-")
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, "game_key", res.Warnings[0].Column)
}

func TestParseJSONGames_KeypadCodePreservesLeadingZeros(t *testing.T) {
	payload := `[{
		"game_key": "vault",
		"name": "Vault",
		"short_description": "Crack the code",
		"artifacts": [{
			"title": "Vault",
			"artifact_type": "keypad",
			"metadata": {"correctCode": "0042", "maxAttempts": 3}
		}]
	}]`

	res, err := ParseJSONGames([]byte(payload))
	require.NoError(t, err)
	require.Len(t, res.Games, 1)

	meta := res.Games[0].Artifacts[0].Metadata
	assert.Equal(t, "0042", meta["correctCode"])
	// Numbers survive without float conversion.
	assert.Equal(t, json.Number("3"), meta["maxAttempts"])
}

func TestParseJSONGames_LegacyTriggerShape(t *testing.T) {
	payload := `[{
		"game_key": "vault",
		"name": "Vault",
		"short_description": "Crack the code",
		"triggers": [{
			"name": "open",
			"condition_type": "keypad_correct",
			"condition_config": {"artifactOrder": 1},
			"actions": [{"type": "reveal_artifact", "artifactOrder": 1}]
		}]
	}]`

	res, err := ParseJSONGames([]byte(payload))
	require.NoError(t, err)
	require.Len(t, res.Games, 1)

	triggers := res.Games[0].Triggers
	require.Len(t, triggers, 1)
	assert.Equal(t, "keypad_correct", triggers[0].Condition["type"])
	order, ok := asInt(triggers[0].Condition["artifactOrder"])
	require.True(t, ok)
	assert.Equal(t, 1, order)
}

func TestParseJSONGames_ArtifactTypeAliases(t *testing.T) {
	payload := `[{
		"game_key": "notes",
		"name": "Notes",
		"short_description": "Old export",
		"artifacts": [
			{"title": "A", "artifact_type": "text"},
			{"title": "B", "artifact_type": "note"},
			{"title": "C", "artifact_type": "Card"}
		]
	}]`

	res, err := ParseJSONGames([]byte(payload))
	require.NoError(t, err)
	require.Len(t, res.Games, 1)
	for _, a := range res.Games[0].Artifacts {
		assert.Equal(t, "card", a.ArtifactType)
	}
}

func TestParseJSONGames_InvalidVariantVisibilityFallsBack(t *testing.T) {
	payload := `[{
		"game_key": "vault",
		"name": "Vault",
		"short_description": "Crack the code",
		"artifacts": [{
			"title": "Vault",
			"artifact_type": "card",
			"variants": [{"visibility": "secret", "body": "hidden text"}]
		}]
	}]`

	res, err := ParseJSONGames([]byte(payload))
	require.NoError(t, err)
	require.Len(t, res.Games, 1)
	assert.Equal(t, game.VisibilityPublic, res.Games[0].Artifacts[0].Variants[0].Visibility)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0].Message, `invalid visibility "secret"`)
}

func TestParseJSONGames_BadGameDoesNotAbortBatch(t *testing.T) {
	payload := `[
		{"name": "", "short_description": ""},
		{"game_key": "ok", "name": "OK", "short_description": "fine"}
	]`

	res, err := ParseJSONGames([]byte(payload))
	require.NoError(t, err)
	require.Len(t, res.Games, 1)
	assert.Equal(t, "ok", res.Games[0].GameKey)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, 1, res.Errors[0].Row)
	assert.Equal(t, 2, res.Games[0].SourceRow)
}

func TestParseJSONGames_InvalidPlayModeWarns(t *testing.T) {
	payload := `[{
		"game_key": "x",
		"name": "X",
		"short_description": "y",
		"play_mode": "turbo"
	}]`

	res, err := ParseJSONGames([]byte(payload))
	require.NoError(t, err)
	require.Len(t, res.Games, 1)
	assert.Equal(t, game.PlayModeBasic, res.Games[0].PlayMode)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0].Message, "turbo")
}
