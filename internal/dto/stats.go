package dto

// DayBuckets holds per-pathway creation counts and performed count for one day.
type DayBuckets struct {
	Purple    int `json:"PURPLE"`
	Red       int `json:"RED"`
	Amber     int `json:"AMBER"`
	Green     int `json:"GREEN"`
	Rejected  int `json:"REJECTED"`
	Performed int `json:"PERFORMED"`
}

// DailyStatsResponse maps ISO dates to their buckets. Every day in the window
// is present even when all counts are zero.
type DailyStatsResponse map[string]DayBuckets

// DailyCountResponse maps ISO dates to a single count per day.
type DailyCountResponse map[string]int

// OverdueCountResponse carries the current overdue total.
type OverdueCountResponse struct {
	OverdueCount int `json:"overdue_count"`
}

// TodayStatsResponse summarises the current day for the dashboard header.
// Pathway buckets count all still-pending timed requests, not just today's.
type TodayStatsResponse struct {
	Purple    int `json:"PURPLE"`
	Red       int `json:"RED"`
	Amber     int `json:"AMBER"`
	Green     int `json:"GREEN"`
	Performed int `json:"PERFORMED"`
	Overdue   int `json:"OVERDUE"`
}

// AverageCompletionResponse reports mean completion hours per timed pathway,
// rounded to whole hours.
type AverageCompletionResponse struct {
	Purple float64 `json:"PURPLE"`
	Red    float64 `json:"RED"`
	Amber  float64 `json:"AMBER"`
}
