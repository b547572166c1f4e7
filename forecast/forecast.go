// Package forecast projects daily ticket volume with a day-of-week
// seasonal model.
//
// The model anchors at the most recent created-date in the history,
// builds a 91-day daily timeline, derives a seasonality index per
// weekday, trends a linearly-weighted 14-day baseline, and emits the
// last 30 days of actuals followed by a 14-day projection with widening
// 95% confidence bands.
package forecast

import (
	"math"
	"time"

	"github.com/hazyhaar/grcdesk/ticket"
)

const (
	lookbackDays = 90
	baselineDays = 14
	residualDays = 30
	historyDays  = 30
	horizonDays  = 14
)

// Point is one day on the combined history/forecast chart. Actual is set
// on history points; Predicted and the confidence bounds on projections.
type Point struct {
	Date            string   `json:"date"`
	Actual          *int     `json:"actual,omitempty"`
	Predicted       *int     `json:"predicted,omitempty"`
	ConfidenceLower *int     `json:"confidenceLower,omitempty"`
	ConfidenceUpper *int     `json:"confidenceUpper,omitempty"`
}

type sample struct {
	date      time.Time
	val       float64
	dayOfWeek int
}

// Generate builds the volume forecast from ticket history. An empty
// history yields nil.
func Generate(history []*ticket.Ticket) []Point {
	if len(history) == 0 {
		return nil
	}

	counts := make(map[string]int)
	var anchor time.Time
	for _, t := range history {
		if t.CreatedDate.IsZero() {
			continue
		}
		counts[t.CreatedDate.UTC().Format("2006-01-02")]++
		if t.CreatedDate.After(anchor) {
			anchor = t.CreatedDate
		}
	}
	if anchor.IsZero() {
		anchor = time.Now()
	}
	anchor = anchor.UTC().Truncate(24 * time.Hour)

	timeline := make([]sample, 0, lookbackDays+1)
	for i := lookbackDays; i >= 0; i-- {
		d := anchor.AddDate(0, 0, -i)
		timeline = append(timeline, sample{
			date:      d,
			val:       float64(counts[d.Format("2006-01-02")]),
			dayOfWeek: int(d.Weekday()),
		})
	}

	seasonality := seasonalityIndices(timeline)
	baseline := weightedBaseline(timeline)
	stddev := residualStddev(timeline, baseline, seasonality)

	result := make([]Point, 0, historyDays+horizonDays)

	start := len(timeline) - historyDays
	if start < 0 {
		start = 0
	}
	for _, s := range timeline[start:] {
		actual := int(s.val)
		result = append(result, Point{
			Date:   s.date.Format("Jan 2"),
			Actual: &actual,
		})
	}

	for i := 1; i <= horizonDays; i++ {
		d := anchor.AddDate(0, 0, i)
		idx := seasonality[int(d.Weekday())]

		pred := baseline * idx
		// Dampen extreme weekday spikes.
		if idx > 2.0 {
			pred *= 0.9
		}

		// 95% band, widening 5% per projected day.
		margin := 1.96 * stddev * (1 + float64(i)*0.05)

		predicted := clampRound(pred)
		lower := clampRound(pred - margin)
		upper := round(pred + margin)
		result = append(result, Point{
			Date:            d.Format("Jan 2"),
			Predicted:       &predicted,
			ConfidenceLower: &lower,
			ConfidenceUpper: &upper,
		})
	}

	return result
}

// seasonalityIndices maps each weekday to its volume relative to the
// overall daily average.
func seasonalityIndices(timeline []sample) [7]float64 {
	var sums, counts [7]float64
	for _, s := range timeline {
		sums[s.dayOfWeek] += s.val
		counts[s.dayOfWeek]++
	}

	var avgs [7]float64
	var global float64
	for i := range avgs {
		if counts[i] > 0 {
			avgs[i] = sums[i] / counts[i]
		}
		global += avgs[i]
	}
	global /= 7
	if global == 0 {
		global = 1
	}

	var indices [7]float64
	for i := range indices {
		indices[i] = avgs[i] / global
	}
	return indices
}

// weightedBaseline averages the last 14 days with linearly increasing
// weights so recent volume shifts dominate.
func weightedBaseline(timeline []sample) float64 {
	recent := timeline
	if len(recent) > baselineDays {
		recent = recent[len(recent)-baselineDays:]
	}
	var weightedSum, weightTotal float64
	for i, s := range recent {
		w := float64(i + 1)
		weightedSum += s.val * w
		weightTotal += w
	}
	if weightTotal == 0 {
		return 0
	}
	return weightedSum / weightTotal
}

func residualStddev(timeline []sample, baseline float64, seasonality [7]float64) float64 {
	recent := timeline
	if len(recent) > residualDays {
		recent = recent[len(recent)-residualDays:]
	}
	var variance float64
	for _, s := range recent {
		r := s.val - baseline*seasonality[s.dayOfWeek]
		variance += r * r
	}
	variance /= float64(len(recent))

	stddev := math.Sqrt(variance)
	if stddev == 0 {
		stddev = 1.0
	}
	return stddev
}

func round(v float64) int {
	return int(math.Round(v))
}

func clampRound(v float64) int {
	if r := round(v); r > 0 {
		return r
	}
	return 0
}
