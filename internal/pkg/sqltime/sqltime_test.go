package sqltime

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 3, 1, 13, 4, 5, 120000000, cet)

	s := Format(ts)
	assert.Equal(t, "2024-03-01T12:04:05.120000000Z", s)

	back, err := Parse(s)
	require.NoError(t, err)
	assert.True(t, ts.Equal(back))
}

func TestParseAcceptsOffsets(t *testing.T) {
	got, err := Parse("2024-03-01T13:04:05+01:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T12:04:05.000000000Z", Format(got))

	_, err = Parse("yesterday")
	assert.Error(t, err)
}

func TestTextOrderIsChronological(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{
		base.Add(time.Second),
		base.Add(100 * time.Millisecond),
		base,
		base.Add(time.Nanosecond),
	}
	texts := make([]string, len(times))
	for i, ts := range times {
		texts[i] = Format(ts)
	}
	sort.Strings(texts)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i := range times {
		assert.Equal(t, Format(times[i]), texts[i])
	}
}
