//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// FilterSet controls which scored candidates reach the leaderboard
type FilterSet struct {
	MinScore    int  `json:"min_score" validate:"gte=0,lte=100"`
	RequireCert bool `json:"require_cert"`
	// TopN truncates the leaderboard; zero or less keeps every entry
	TopN int `json:"top_n" validate:"gte=0"`
}

// DefaultFilters returns the filters applied when a request names none
func DefaultFilters() FilterSet {
	return FilterSet{MinScore: 50, RequireCert: false, TopN: 10}
}

// Verdict is the parsed holistic judgement of a candidate
type Verdict struct {
	Score int      `json:"score"`
	Gap   string   `json:"gap"`
	Gaps  []string `json:"gaps,omitempty"`
}

// LeaderboardEntry is one ranked candidate
type LeaderboardEntry struct {
	Name           string   `json:"name"`
	Score          int      `json:"score"`
	Gap            string   `json:"gap"`
	Skills         []string `json:"skills"`
	Experience     string   `json:"experience"`
	Certifications []string `json:"certifications"`
}

// ScoreStatistics summarizes the historical score distribution of a job description
type ScoreStatistics struct {
	Mean              float64 `json:"mean"`
	Median            float64 `json:"median"`
	Std               float64 `json:"std"`
	SuggestedMinScore float64 `json:"suggested_min_score"`
}

// HistoricalScoreRecord is one persisted candidate score
type HistoricalScoreRecord struct {
	ID             int64     `json:"id"`
	JDID           string    `json:"jd_id"`
	CandidateName  string    `json:"candidate_name"`
	Score          int       `json:"score"`
	Gap            string    `json:"gap"`
	Skills         string    `json:"skills"`
	Experience     string    `json:"experience"`
	Certifications string    `json:"certifications"`
	Timestamp      time.Time `json:"timestamp"`
}

// ShortlistResult is the outcome of one shortlisting run
type ShortlistResult struct {
	JDID            string             `json:"jd_id"`
	DynamicMinScore float64            `json:"dynamic_min_score"`
	Statistics      ScoreStatistics    `json:"statistics"`
	Evaluated       int                `json:"evaluated"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
}
