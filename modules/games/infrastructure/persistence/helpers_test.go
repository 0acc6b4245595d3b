package persistence

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalNullable(t *testing.T) {
	data, err := marshalNullable(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = marshalNullable(map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = marshalNullable(map[string]any{"correctCode": "0042", "note": "<b>"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"correctCode":"0042","note":"<b>"}`, string(data))
	// No HTML escaping in stored payloads.
	assert.Contains(t, string(data), "<b>")

	data, err = marshalNullable([]string{})
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestUnmarshalOpaque_PreservesNumbers(t *testing.T) {
	v, err := unmarshalOpaque([]byte(`{"correctCode":"0042","maxAttempts":3}`))
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0042", m["correctCode"])

	v, err = unmarshalOpaque(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEntityError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "game_steps_order_key", Message: "duplicate key value"}
	err := entityError("step", pgErr)
	assert.Contains(t, err.Error(), "step: constraint game_steps_order_key violated")

	plain := errors.New("connection refused")
	err = entityError("trigger", plain)
	assert.ErrorIs(t, err, plain)
	assert.Contains(t, err.Error(), "trigger:")
}
