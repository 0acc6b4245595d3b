package composables_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekbanken/gamedesk/pkg/composables"
)

func TestTenantIDContextRoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := composables.WithTenantID(context.Background(), id)

	got, err := composables.UseTenantID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestUseTenantID_Missing(t *testing.T) {
	_, err := composables.UseTenantID(context.Background())
	assert.ErrorIs(t, err, composables.ErrNoTenantID)

	_, err = composables.UseTenantID(composables.WithTenantID(context.Background(), uuid.Nil))
	assert.ErrorIs(t, err, composables.ErrNoTenantID)
}
