package address

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/ids"
)

func TestResolve(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedHome()))
	ctx := context.Background()

	a, err := svc.Resolve(ctx, 42, 1)
	require.NoError(t, err)
	assert.Equal(t, "123 Main", a.Street)

	_, err = svc.Resolve(ctx, ids.UserID(7), 1)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Resolve(ctx, 42, 99)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
