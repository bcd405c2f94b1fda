package stats

import (
	"sort"
	"time"

	"github.com/Dosada05/tournament-predictor/models"
)

const dateLayout = "2006-01-02"

// Trends группирует прогнозы окна [now-days, now] по календарным дням в loc.
// Дни без прогнозов не выводятся. Результат по возрастанию даты.
func Trends(now time.Time, days int, loc *time.Location, predictions []models.Prediction) []models.TrendPoint {
	if days < 0 {
		days = 0
	}
	if loc == nil {
		loc = time.UTC
	}
	from := now.Add(-time.Duration(days) * 24 * time.Hour)

	buckets := make(map[string]*tally)
	for i := range predictions {
		p := &predictions[i]
		if p.PredictionTime == nil || !inWindow(*p.PredictionTime, from, now) {
			continue
		}
		day := p.PredictionTime.In(loc).Format(dateLayout)
		t, ok := buckets[day]
		if !ok {
			t = &tally{}
			buckets[day] = t
		}
		t.add(p)
	}

	points := make([]models.TrendPoint, 0, len(buckets))
	for day, t := range buckets {
		points = append(points, models.TrendPoint{
			Date:     day,
			Total:    t.total,
			Correct:  t.correct,
			Wrong:    t.wrong,
			Accuracy: t.accuracy(),
		})
	}
	// формат 2006-01-02 сортируется лексикографически в хронологическом порядке
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}
