package chat

import "time"

type BucketLabel string

const (
	BucketToday     BucketLabel = "Today"
	BucketYesterday BucketLabel = "Yesterday"
	BucketWeek      BucketLabel = "Last 7 days"
	BucketMonth     BucketLabel = "Last month"
	BucketOlder     BucketLabel = "Older"
)

// ConversationGroup pairs a recency bucket with the conversations that
// fall in it, in the order they arrived.
type ConversationGroup struct {
	Label         BucketLabel
	Conversations []Conversation
}

var bucketOrder = []BucketLabel{
	BucketToday,
	BucketYesterday,
	BucketWeek,
	BucketMonth,
	BucketOlder,
}

// GroupByRecency partitions conversations into calendar-day buckets by
// last activity. Boundaries are computed once from now, truncated to
// the start of day, and are half-open on the lower edge. Empty buckets
// are omitted; non-empty ones appear most-recent first.
func GroupByRecency(now time.Time, conversations []Conversation) []ConversationGroup {
	startToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startYesterday := startToday.AddDate(0, 0, -1)
	startWeek := startToday.AddDate(0, 0, -7)
	startMonth := startToday.AddDate(0, 0, -30)

	byLabel := make(map[BucketLabel][]Conversation, len(bucketOrder))
	for _, c := range conversations {
		ts := c.UpdatedAt
		var label BucketLabel
		switch {
		case !ts.Before(startToday):
			label = BucketToday
		case !ts.Before(startYesterday):
			label = BucketYesterday
		case !ts.Before(startWeek):
			label = BucketWeek
		case !ts.Before(startMonth):
			label = BucketMonth
		default:
			label = BucketOlder
		}
		byLabel[label] = append(byLabel[label], c)
	}

	groups := make([]ConversationGroup, 0, len(byLabel))
	for _, label := range bucketOrder {
		if members, ok := byLabel[label]; ok {
			groups = append(groups, ConversationGroup{Label: label, Conversations: members})
		}
	}
	return groups
}
