package game_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
)

func TestImportError_UnmarshalDefaultsSeverity(t *testing.T) {
	var e game.ImportError
	require.NoError(t, json.Unmarshal([]byte(`{"row":3,"column":"name","message":"missing"}`), &e))
	assert.Equal(t, game.SeverityWarning, e.Severity)
	assert.Equal(t, 3, e.Row)

	require.NoError(t, json.Unmarshal([]byte(`{"message":"bad","severity":"error"}`), &e))
	assert.Equal(t, game.SeverityError, e.Severity)

	require.NoError(t, json.Unmarshal([]byte(`{"message":"odd","severity":"fatal"}`), &e))
	assert.Equal(t, game.SeverityWarning, e.Severity)
}

func TestImportError_Error(t *testing.T) {
	e := game.Errorf(5, "play_mode", "unknown mode %q", "x")
	assert.Equal(t, `row 5, play_mode: unknown mode "x"`, e.Error())

	w := game.Warnf(0, "", "batch is empty")
	assert.Equal(t, "batch is empty", w.Error())
}

func TestSplitBySeverity(t *testing.T) {
	errs, warns := game.SplitBySeverity([]game.ImportError{
		game.Errorf(1, "a", "x"),
		game.Warnf(2, "b", "y"),
		game.Errorf(3, "c", "z"),
	})
	assert.Len(t, errs, 2)
	assert.Len(t, warns, 1)
}
