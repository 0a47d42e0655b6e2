// Package scoring merges participant metadata with aggregated score totals.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/internal/domain/types"
)

// Merge builds one Standing per participant, in the order participants are
// given. Participants without a total score 0. Totals for unknown
// participants are ignored; repeated totals for the same participant add up,
// saturating at the int64 bounds.
// The result is never nil.
func Merge(participants []model.Participant, totals []model.ScoreTotal) []types.Standing {
	byID := make(map[int64]int64, len(totals))
	for _, t := range totals {
		byID[t.ParticipantID] = addClamped(byID[t.ParticipantID], t.Total)
	}

	out := make([]types.Standing, 0, len(participants))
	for _, p := range participants {
		out = append(out, types.Standing{
			ID:       p.ID,
			Name:     p.Name,
			Area:     p.Party,
			District: p.DistrictNum,
			Score:    byID[p.ID],
		})
	}
	return out
}

// CoerceTotal converts a raw SUM() value from the database driver into an
// integer total. NULL, non-numeric and non-finite values become 0;
// fractional values are truncated toward zero and values beyond int64 are
// clamped to its bounds.
func CoerceTotal(raw any) int64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return truncate(v)
	case float32:
		return truncate(float64(v))
	case []byte:
		return parseTotal(string(v))
	case string:
		return parseTotal(v)
	default:
		return 0
	}
}

func parseTotal(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return truncate(f)
	}
	return 0
}

func truncate(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	if f <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(f)
}

// addClamped adds b to a, saturating at the int64 bounds.
func addClamped(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}
