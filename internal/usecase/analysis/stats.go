package analysis

import (
	"math"
	"sort"

	"chatlog-digest/internal/adapters/textutil"
	"chatlog-digest/internal/domain"
)

const mostActiveLimit = 5

// ComputeStats считает сводную статистику по сообщениям чата.
// Сообщения без времени учитываются в TotalMessages и Dropped, но не во временных полях.
func ComputeStats(messages []domain.Message) domain.ChatStats {
	stats := domain.ChatStats{TotalMessages: len(messages)}
	if len(messages) == 0 {
		return stats
	}

	counts := make(map[string]int)
	var order []string
	var hours [24]int
	runes := 0
	for _, m := range messages {
		author := m.Author()
		if _, ok := counts[author]; !ok {
			order = append(order, author)
		}
		counts[author]++
		runes += textutil.RuneLen(m.Content)

		if !m.HasTime() {
			stats.Dropped++
			continue
		}
		hours[m.Timestamp.Hour()]++
		if stats.Start.IsZero() || m.Timestamp.Before(stats.Start) {
			stats.Start = m.Timestamp
		}
		if stats.End.IsZero() || m.Timestamp.After(stats.End) {
			stats.End = m.Timestamp
		}
	}

	stats.TotalParticipants = len(counts)
	stats.AverageLength = math.Round(float64(runes)/float64(len(messages))*100) / 100

	active := make([]domain.SenderCount, 0, len(order))
	for _, author := range order {
		active = append(active, domain.SenderCount{Sender: author, Count: counts[author]})
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Count > active[j].Count })
	if len(active) > mostActiveLimit {
		active = active[:mostActiveLimit]
	}
	stats.MostActive = active

	for hour, n := range hours {
		if n > hours[stats.PeakHour] {
			stats.PeakHour = hour
		}
	}
	if !stats.Start.IsZero() {
		stats.DurationMinutes = int(stats.End.Sub(stats.Start).Minutes())
	}
	return stats
}
