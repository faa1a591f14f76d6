package performance

import (
	"math"
	"time"
)

const (
	ExamWeight      = 0.3
	KPIWeight       = 0.5
	DailyLogWeight  = 0.2
	DefaultKPIScore = 80.0
)

const cycleLayout = "2006-01"

// ParseCycle turns "YYYY-MM" into the half-open UTC month [start, end).
func ParseCycle(cycle string) (start, end time.Time, err error) {
	start, err = time.ParseInLocation(cycleLayout, cycle, time.UTC)
	if err != nil || start.Format(cycleLayout) != cycle {
		return time.Time{}, time.Time{}, ErrInvalidCycle
	}
	return start, start.AddDate(0, 1, 0), nil
}

func daysIn(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// DailyLogScore is the share of days in the month with at least one report,
// scaled to 0..100.
func DailyLogScore(reportDays, daysInMonth int) float64 {
	if daysInMonth <= 0 || reportDays <= 0 {
		return 0
	}
	ratio := math.Min(float64(reportDays)/float64(daysInMonth), 1)
	return round2(ratio * 100)
}

func FinalScore(exam, kpi, dailyLog float64) float64 {
	return round2(exam*ExamWeight + kpi*KPIWeight + dailyLog*DailyLogWeight)
}

type Scores struct {
	ExamScore     float64 `json:"exam_score"`
	KPIScore      float64 `json:"kpi_score"`
	DailyLogScore float64 `json:"daily_log_score"`
	FinalScore    float64 `json:"final_score"`
}

func computeScores(examAverage float64, reportDays, daysInMonth int) Scores {
	s := Scores{
		ExamScore:     round2(examAverage),
		KPIScore:      DefaultKPIScore,
		DailyLogScore: DailyLogScore(reportDays, daysInMonth),
	}
	s.FinalScore = FinalScore(s.ExamScore, s.KPIScore, s.DailyLogScore)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
