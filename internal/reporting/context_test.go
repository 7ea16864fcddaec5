package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReportingMeta(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()

		meta := MetaFromContext(t.Context())
		require.Empty(t, meta.tags)
		require.Empty(t, meta.extras)
		require.Empty(t, meta.userID)
		require.True(t, meta.startedAt.IsZero())

		// Safe to write to
		meta.tags["a"] = "b"
	})

	t.Run("accumulates", func(t *testing.T) {
		t.Parallel()

		startedAt := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

		ctx := AddTagsToContext(t.Context(), map[string]string{"methodPath": "GET /v1/users"})
		ctx = AddExtrasToContext(ctx, map[string]string{"startDate": "2024-03-01"})
		ctx = AddExtrasToContext(ctx, map[string]string{"endDate": "2024-03-31", "startDate": "2024-03-02"})
		ctx = SetUserIDInContext(ctx, "123")
		ctx = setStartedAtInContext(ctx, startedAt)

		meta := MetaFromContext(ctx)
		require.Equal(t, map[string]string{"methodPath": "GET /v1/users"}, meta.tags)
		require.Equal(t, map[string]string{"startDate": "2024-03-02", "endDate": "2024-03-31"}, meta.extras)
		require.Equal(t, "123", meta.userID)
		require.Equal(t, startedAt, meta.startedAt)
	})

	t.Run("parent context is unchanged", func(t *testing.T) {
		t.Parallel()

		parent := AddExtrasToContext(t.Context(), map[string]string{"a": "1"})
		child := AddExtrasToContext(parent, map[string]string{"b": "2"})

		require.Equal(t, map[string]string{"a": "1"}, MetaFromContext(parent).extras)
		require.Equal(t, map[string]string{"a": "1", "b": "2"}, MetaFromContext(child).extras)
	})
}
