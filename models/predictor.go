package models

import "time"

// Predictor - участник или группа, делающая прогнозы.
// ParentPredictorID образует дерево, у корневых он пустой.
type Predictor struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	ParentPredictorID string     `json:"parentPredictorId"`
	CreatedDate       time.Time  `json:"createdDate"`
	Version           int        `json:"version"`
	DeletedAt         *time.Time `json:"-"`
}

type PredictorSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (p *Predictor) Summary() *PredictorSummary {
	return &PredictorSummary{ID: p.ID, Name: p.Name}
}

type PredictorWithStats struct {
	Predictor
	PredictorStats
}

type PredictorStatsView struct {
	Predictor         *Predictor     `json:"predictor"`
	Stats             PredictorStats `json:"stats"`
	RecentPredictions []Prediction   `json:"recentPredictions"`
	TotalPredictions  int            `json:"totalPredictions"`
}

type PredictorPerformance struct {
	Predictor   *Predictor   `json:"predictor"`
	Performance []TrendPoint `json:"performance"`
	Count       int          `json:"count"`
}
