package dto

// ProgressResponse summarises a learner's evaluation history.
type ProgressResponse struct {
	TotalEvaluations int64                `json:"total_evaluations"`
	AverageScore     float64              `json:"average_score"`
	Band             string               `json:"band"`
	Modes            []ModeProgress       `json:"modes"`
	Recent           []EvaluationResponse `json:"recent_evaluations"`
}

// ModeProgress captures aggregated scores for one evaluation mode.
type ModeProgress struct {
	Mode         string  `json:"mode"`
	Evaluations  int64   `json:"evaluations"`
	AverageScore float64 `json:"average_score"`
	BestScore    float64 `json:"best_score"`
	Band         string  `json:"band"`
}
