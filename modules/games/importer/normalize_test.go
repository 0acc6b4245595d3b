package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTrigger_CanonicalShape(t *testing.T) {
	raw := map[string]any{
		"name":      "reveal clue",
		"condition": map[string]any{"type": "step_completed", "stepOrder": 1},
		"actions":   []any{map[string]any{"type": "reveal_artifact", "artifactOrder": 1}},
	}
	trigger, errs, warns := NormalizeTrigger(raw, 1, 0)

	require.Empty(t, errs)
	require.Empty(t, warns)
	assert.Equal(t, "reveal clue", trigger.Name)
	assert.True(t, trigger.Enabled)
	assert.Equal(t, "step_completed", trigger.Condition["type"])
	require.Len(t, trigger.Actions, 1)
}

func TestNormalizeTrigger_LegacyShape(t *testing.T) {
	raw := map[string]any{
		"name":             "legacy",
		"condition_type":   "phase_started",
		"condition_config": map[string]any{"phaseOrder": 2},
		"actions":          []any{map[string]any{"type": "advance_step"}},
	}
	trigger, errs, warns := NormalizeTrigger(raw, 3, 0)

	require.Empty(t, errs)
	require.Empty(t, warns)
	assert.Equal(t, "phase_started", trigger.Condition["type"])
	assert.Equal(t, 2, mustInt(t, trigger.Condition["phaseOrder"]))
}

func TestNormalizeTrigger_ConfigCannotOverrideType(t *testing.T) {
	raw := map[string]any{
		"condition_type":   "manual",
		"condition_config": map[string]any{"type": "step_started"},
		"actions":          []any{map[string]any{"type": "advance_step"}},
	}
	trigger, errs, _ := NormalizeTrigger(raw, 1, 0)
	require.Empty(t, errs)
	assert.Equal(t, "manual", trigger.Condition["type"])
}

func TestNormalizeTrigger_MissingCondition(t *testing.T) {
	raw := map[string]any{
		"name":    "broken",
		"actions": []any{map[string]any{"type": "advance_step"}},
	}
	_, errs, _ := NormalizeTrigger(raw, 5, 2)

	require.Len(t, errs, 1)
	assert.Equal(t, 5, errs[0].Row)
	assert.Equal(t, "triggers[2].condition", errs[0].Column)
}

func TestNormalizeTrigger_UnrecognizedActionKept(t *testing.T) {
	raw := map[string]any{
		"condition": map[string]any{"type": "manual"},
		"actions": []any{
			map[string]any{"type": "launch_confetti", "amount": 9000},
		},
	}
	trigger, errs, warns := NormalizeTrigger(raw, 1, 0)

	require.Empty(t, errs)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].Message, "launch_confetti")
	require.Len(t, trigger.Actions, 1)
	assert.Equal(t, "launch_confetti", trigger.Actions[0]["type"])
}

func TestNormalizeTrigger_ActionWithoutType(t *testing.T) {
	raw := map[string]any{
		"condition": map[string]any{"type": "manual"},
		"actions":   []any{map[string]any{"message": "hello"}},
	}
	_, errs, _ := NormalizeTrigger(raw, 1, 0)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Column, "actions[0].type")
}

func TestNormalizeGameTriggers_DropsInvalidKeepsFindings(t *testing.T) {
	raw := []any{
		map[string]any{
			"condition": map[string]any{"type": "manual"},
			"actions":   []any{map[string]any{"type": "advance_step"}},
		},
		map[string]any{"name": "no condition"},
		"not an object",
	}
	triggers, errs, _ := NormalizeGameTriggers(raw, 4)

	assert.Len(t, triggers, 1)
	assert.Len(t, errs, 2)
}

func mustInt(t *testing.T, v any) int {
	t.Helper()
	n, ok := asInt(v)
	require.True(t, ok, "expected integer, got %T", v)
	return n
}
