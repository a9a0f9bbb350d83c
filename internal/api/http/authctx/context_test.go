package authctx

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityRoundtrip(t *testing.T) {
	identity := Identity{AccountID: uuid.New(), Email: "a@x.com", DisplayName: "A"}

	ctx := WithIdentity(context.Background(), identity)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, identity, got)
}

func TestFromContext_Empty(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}
