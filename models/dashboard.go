package models

import "time"

// PredictorStats - агрегаты по прогнозам одного участника.
type PredictorStats struct {
	Total         int     `json:"total"`
	Correct       int     `json:"correct"`
	Wrong         int     `json:"wrong"`
	NotPredicted  int     `json:"notPredicted"`
	Pending       int     `json:"pending"`
	Accuracy      float64 `json:"accuracy"`
	CurrentStreak int     `json:"currentStreak"`
	MaxStreak     int     `json:"maxStreak"`
}

// LeaderboardEntry - строка рейтинга, поля участника разворачиваются в JSON на верхний уровень.
type LeaderboardEntry struct {
	Predictor
	Total        int     `json:"total"`
	Correct      int     `json:"correct"`
	Wrong        int     `json:"wrong"`
	NotPredicted int     `json:"notPredicted"`
	Accuracy     float64 `json:"accuracy"`
	Rank         int     `json:"rank"`
}

type TournamentStats struct {
	TotalMatches     int     `json:"totalMatches"`
	CompletedMatches int     `json:"completedMatches"`
	UpcomingMatches  int     `json:"upcomingMatches"`
	TotalPredictions int     `json:"totalPredictions"`
	Correct          int     `json:"correctPredictions"`
	Wrong            int     `json:"wrongPredictions"`
	NotPredicted     int     `json:"notPredicted"`
	AverageAccuracy  float64 `json:"averageAccuracy"`
}

// RecentPrediction - прогноз для ленты на главной панели.
type RecentPrediction struct {
	Prediction
	PredictorName string `json:"predictorName"`
	MatchDetails  string `json:"matchDetails"`
}

// DashboardCounts - глобальные счетчики, те же правила подсчета, что и у участника.
type DashboardCounts struct {
	TotalPredictors    int     `json:"totalPredictors"`
	TotalTournaments   int     `json:"totalTournaments"`
	TotalMatches       int     `json:"totalMatches"`
	CompletedMatches   int     `json:"completedMatches"`
	UpcomingMatches    int     `json:"upcomingMatches"`
	TotalPredictions   int     `json:"totalPredictions"`
	CorrectPredictions int     `json:"correctPredictions"`
	WrongPredictions   int     `json:"wrongPredictions"`
	PendingPredictions int     `json:"pendingPredictions"`
	NotPredicted       int     `json:"notPredicted"`
	OverallAccuracy    float64 `json:"overallAccuracy"`
}

type DashboardStats struct {
	Stats             DashboardCounts    `json:"stats"`
	RecentMatches     []Match            `json:"recentMatches"`
	RecentPredictions []RecentPrediction `json:"recentPredictions"`
	UpcomingMatches   []Match            `json:"upcomingMatches"`
}

// TrendPoint - агрегаты за один календарный день, Date в формате 2006-01-02.
type TrendPoint struct {
	Date     string  `json:"date"`
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Wrong    int     `json:"wrong"`
	Accuracy float64 `json:"accuracy"`
}

type PredictionStats struct {
	Total             int          `json:"total"`
	Correct           int          `json:"correct"`
	Wrong             int          `json:"wrong"`
	NotPredicted      int          `json:"notPredicted"`
	Pending           int          `json:"pending"`
	Accuracy          float64      `json:"accuracy"`
	RecentPredictions []Prediction `json:"recentPredictions"`
}

// DailyReport - снимок счетчиков, который пишется в лог раз в сутки.
type DailyReport struct {
	Date        string          `json:"date"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Counts      DashboardCounts `json:"counts"`
}
