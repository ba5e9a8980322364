package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByRecency(t *testing.T) {
	// Fixed "now" mid-afternoon so day boundaries are unambiguous.
	now := time.Date(2024, 6, 15, 15, 30, 0, 0, time.UTC)
	day := func(offsetDays int, hour int) time.Time {
		return time.Date(2024, 6, 15+offsetDays, hour, 0, 0, 0, time.UTC)
	}

	t.Run("fixed bucket order and full partition", func(t *testing.T) {
		in := []Conversation{
			{ID: "old", UpdatedAt: day(-90, 10)},
			{ID: "today-a", UpdatedAt: day(0, 9)},
			{ID: "month", UpdatedAt: day(-20, 12)},
			{ID: "yesterday", UpdatedAt: day(-1, 23)},
			{ID: "week", UpdatedAt: day(-5, 8)},
			{ID: "today-b", UpdatedAt: day(0, 1)},
		}

		groups := GroupByRecency(now, in)

		labels := make([]BucketLabel, 0, len(groups))
		seen := 0
		for _, g := range groups {
			labels = append(labels, g.Label)
			seen += len(g.Conversations)
		}
		assert.Equal(t, []BucketLabel{BucketToday, BucketYesterday, BucketWeek, BucketMonth, BucketOlder}, labels)
		assert.Equal(t, len(in), seen, "every conversation lands in exactly one bucket")
	})

	t.Run("input order preserved inside a bucket", func(t *testing.T) {
		in := []Conversation{
			{ID: "first", UpdatedAt: day(0, 9)},
			{ID: "second", UpdatedAt: day(0, 14)},
			{ID: "third", UpdatedAt: day(0, 2)},
		}
		groups := GroupByRecency(now, in)
		require.Len(t, groups, 1)
		assert.Equal(t, "first", groups[0].Conversations[0].ID)
		assert.Equal(t, "second", groups[0].Conversations[1].ID)
		assert.Equal(t, "third", groups[0].Conversations[2].ID)
	})

	t.Run("empty buckets are omitted", func(t *testing.T) {
		in := []Conversation{
			{ID: "today", UpdatedAt: day(0, 9)},
			{ID: "ancient", UpdatedAt: day(-365, 9)},
		}
		groups := GroupByRecency(now, in)
		require.Len(t, groups, 2)
		assert.Equal(t, BucketToday, groups[0].Label)
		assert.Equal(t, BucketOlder, groups[1].Label)
	})

	t.Run("boundaries are half-open at start of day", func(t *testing.T) {
		cases := []struct {
			name string
			ts   time.Time
			want BucketLabel
		}{
			{"midnight today", day(0, 0), BucketToday},
			{"last instant yesterday", day(0, 0).Add(-time.Nanosecond), BucketYesterday},
			{"midnight yesterday", day(-1, 0), BucketYesterday},
			{"just before yesterday", day(-1, 0).Add(-time.Nanosecond), BucketWeek},
			{"seven days ago midnight", day(-7, 0), BucketWeek},
			{"just before seven days", day(-7, 0).Add(-time.Nanosecond), BucketMonth},
			{"thirty days ago midnight", day(-30, 0), BucketMonth},
			{"just before thirty days", day(-30, 0).Add(-time.Nanosecond), BucketOlder},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				groups := GroupByRecency(now, []Conversation{{ID: "x", UpdatedAt: tc.ts}})
				require.Len(t, groups, 1)
				assert.Equal(t, tc.want, groups[0].Label)
			})
		}
	})

	t.Run("no conversations yields no groups", func(t *testing.T) {
		assert.Empty(t, GroupByRecency(now, nil))
	})
}
