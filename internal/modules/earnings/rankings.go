// README: Rankings over aggregated groups (top-N, leaderboards, peak hour).
package earnings

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

type Entry[K cmp.Ordered] struct {
	Key   K      `json:"key"`
	Group *Group `json:"group"`
}

// TopByCount orders groups by trip count, highest first, ties by key.
// n <= 0 returns every group.
func TopByCount[K cmp.Ordered](groups map[K]*Group, n int) []Entry[K] {
	return top(groups, n, func(a, b *Group) int { return cmp.Compare(b.Count, a.Count) })
}

// TopByTotal orders groups by total amount, highest first, ties by key.
func TopByTotal[K cmp.Ordered](groups map[K]*Group, n int) []Entry[K] {
	return top(groups, n, func(a, b *Group) int { return b.Total.Cmp(a.Total) })
}

func top[K cmp.Ordered](groups map[K]*Group, n int, by func(a, b *Group) int) []Entry[K] {
	out := make([]Entry[K], 0, len(groups))
	for k, g := range groups {
		out = append(out, Entry[K]{Key: k, Group: g})
	}
	slices.SortFunc(out, func(a, b Entry[K]) int {
		if c := by(a.Group, b.Group); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// PeakHour returns the busiest hour by trip count; the earliest wins a tie.
func PeakHour(groups map[int]*Group) (int, bool) {
	ranked := TopByCount(groups, 1)
	if len(ranked) == 0 {
		return 0, false
	}
	return ranked[0].Key, true
}

type LeaderboardEntry[K cmp.Ordered] struct {
	Rank    int             `json:"rank"`
	Key     K               `json:"key"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
	Average decimal.Decimal `json:"average"`
}

func Leaderboard[K cmp.Ordered](groups map[K]*Group, n int) []LeaderboardEntry[K] {
	ranked := TopByTotal(groups, n)
	out := make([]LeaderboardEntry[K], len(ranked))
	for i, e := range ranked {
		out[i] = LeaderboardEntry[K]{
			Rank:    i + 1,
			Key:     e.Key,
			Total:   e.Group.Total,
			Count:   e.Group.Count,
			Average: e.Group.Average,
		}
	}
	return out
}
