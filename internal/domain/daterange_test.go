package domain_test

import (
	"testing"
	"time"

	"github.com/Amund211/ministats/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestNewDateRange(t *testing.T) {
	t.Parallel()

	date := func(year int, month time.Month, day int) *time.Time {
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return &d
	}

	t.Run("open range", func(t *testing.T) {
		t.Parallel()

		r, err := domain.NewDateRange(nil, nil)
		require.NoError(t, err)
		require.Nil(t, r.Start)
		require.Nil(t, r.End)
		require.True(t, r.Contains(time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC)))
		require.Equal(t, "-..-", r.String())
	})

	t.Run("bounds are truncated to the day", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2024, time.March, 4, 13, 37, 0, 0, time.UTC)
		end := time.Date(2024, time.March, 10, 23, 59, 0, 0, time.UTC)
		r, err := domain.NewDateRange(&start, &end)
		require.NoError(t, err)
		require.Equal(t, *date(2024, time.March, 4), *r.Start)
		require.Equal(t, *date(2024, time.March, 10), *r.End)
		require.Equal(t, "2024-03-04..2024-03-10", r.String())
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		t.Parallel()

		r, err := domain.NewDateRange(date(2024, time.March, 4), date(2024, time.March, 10))
		require.NoError(t, err)

		require.False(t, r.Contains(*date(2024, time.March, 3)))
		require.True(t, r.Contains(*date(2024, time.March, 4)))
		require.True(t, r.Contains(*date(2024, time.March, 7)))
		require.True(t, r.Contains(*date(2024, time.March, 10)))
		require.False(t, r.Contains(*date(2024, time.March, 11)))
	})

	t.Run("single day", func(t *testing.T) {
		t.Parallel()

		r, err := domain.NewDateRange(date(2024, time.March, 4), date(2024, time.March, 4))
		require.NoError(t, err)
		require.True(t, r.Contains(*date(2024, time.March, 4)))
	})

	t.Run("start after end", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewDateRange(date(2024, time.March, 5), date(2024, time.March, 4))
		require.Error(t, err)
	})
}

func TestUsername(t *testing.T) {
	t.Parallel()

	require.Equal(t, "crossword fan", domain.User{UserID: "1234", DisplayName: "crossword fan"}.Username())
	require.Equal(t, "1234", domain.User{UserID: "1234"}.Username())
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", domain.FormatDate(time.Time{}))
	require.Equal(t, "2024-02-29", domain.FormatDate(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)))
	// Converted to UTC before formatting
	require.Equal(t, "2024-03-01", domain.FormatDate(time.Date(2024, time.February, 29, 23, 0, 0, 0, time.FixedZone("UTC-2", -2*3600))))
}
