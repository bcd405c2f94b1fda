package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Outcome - итог оценки прогноза.
type Outcome int

const (
	OutcomeUnresolved Outcome = iota
	OutcomeCorrect
	OutcomeIncorrect
	OutcomeNotPredicted
)

// Строковые значения совпадают с теми, что уже хранятся в данных и экспортах.
const (
	outcomeUnresolvedText   = ""
	outcomeCorrectText      = "true"
	outcomeIncorrectText    = "false"
	outcomeNotPredictedText = "Not Predicted"
)

// Resolved - true только для Correct/Incorrect, только они входят в точность.
func (o Outcome) Resolved() bool {
	return o == OutcomeCorrect || o == OutcomeIncorrect
}

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return outcomeCorrectText
	case OutcomeIncorrect:
		return outcomeIncorrectText
	case OutcomeNotPredicted:
		return outcomeNotPredictedText
	default:
		return outcomeUnresolvedText
	}
}

func OutcomeFor(pick, winner string) Outcome {
	if pick == winner {
		return OutcomeCorrect
	}
	return OutcomeIncorrect
}

func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case outcomeUnresolvedText:
		return OutcomeUnresolved, nil
	case outcomeCorrectText:
		return OutcomeCorrect, nil
	case outcomeIncorrectText:
		return OutcomeIncorrect, nil
	case outcomeNotPredictedText:
		return OutcomeNotPredicted, nil
	}
	return OutcomeUnresolved, fmt.Errorf("unknown outcome %q", s)
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOutcome(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func (o Outcome) Value() (driver.Value, error) {
	return o.String(), nil
}

func (o *Outcome) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		s = ""
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Outcome", src)
	}
	parsed, err := ParseOutcome(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

type ResultStatus string

const (
	ResultPending            ResultStatus = "⏳ Pending"
	ResultCorrect            ResultStatus = "✅ Correct"
	ResultWrong              ResultStatus = "❌ Wrong"
	ResultAwaitingPrediction ResultStatus = "⏳ Not Predicted"
	ResultMissedPrediction   ResultStatus = "❌ Not Predicted"
)

// Prediction - прогноз участника на матч.
// Пустой PredictedWinner означает заготовку без выбора.
type Prediction struct {
	ID              string       `json:"id"`
	MatchID         string       `json:"matchId"`
	PredictorID     string       `json:"predictorId"`
	PredictedWinner string       `json:"predictedWinner"`
	PredictionTime  *time.Time   `json:"predictionTime"`
	IsCorrect       Outcome      `json:"isCorrect"`
	ResultStatus    ResultStatus `json:"resultStatus"`
	CreatedDate     time.Time    `json:"createdDate"`
	Version         int          `json:"version"`
	DeletedAt       *time.Time   `json:"-"`
}

func (p *Prediction) Picked() bool {
	return p.PredictedWinner != ""
}

// Score применяет объявленного победителя к прогнозу.
func (p *Prediction) Score(winner string) {
	if !p.Picked() {
		p.ResultStatus = ResultAwaitingPrediction
		return
	}
	p.IsCorrect = OutcomeFor(p.PredictedWinner, winner)
	if p.IsCorrect == OutcomeCorrect {
		p.ResultStatus = ResultCorrect
	} else {
		p.ResultStatus = ResultWrong
	}
}

type PredictionView struct {
	Prediction
	Match         *MatchSummary     `json:"match"`
	Predictor     *PredictorSummary `json:"predictor"`
	PredictorName string            `json:"predictorName,omitempty"`
}

type PredictionDetails struct {
	Prediction
	Match     *Match     `json:"match"`
	Predictor *Predictor `json:"predictor"`
}
