package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateWindow(t *testing.T) {
	from, to, err := parseDateWindow("2026-01-01", "2026-12-31")
	require.NoError(t, err)
	require.NotNil(t, from)
	require.NotNil(t, to)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *from)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), *to)
}

func TestParseDateWindowOpenEnds(t *testing.T) {
	from, to, err := parseDateWindow("", "")
	require.NoError(t, err)
	assert.Nil(t, from)
	assert.Nil(t, to)

	from, to, err = parseDateWindow("2026-06-01", "")
	require.NoError(t, err)
	assert.NotNil(t, from)
	assert.Nil(t, to)
}

func TestParseDateWindowRejectsBadInput(t *testing.T) {
	_, _, err := parseDateWindow("01/06/2026", "")
	assert.ErrorContains(t, err, "YYYY-MM-DD")

	_, _, err = parseDateWindow("2026-12-31", "2026-01-01")
	assert.ErrorContains(t, err, "must not be before")
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, nilIfEmpty(nil))

	empty := ""
	assert.Nil(t, nilIfEmpty(&empty))

	value := "CA"
	require.NotNil(t, nilIfEmpty(&value))
	assert.Equal(t, "CA", *nilIfEmpty(&value))
}
