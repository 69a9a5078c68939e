package kafka

import (
	"encoding/json"
	"fmt"
	"strings"

	service "github.com/okian/scoreline/internal/app"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/types"
)

// Message types.
const (
	TypeResult     = "result"
	TypePrediction = "prediction"
)

// Message is the feed payload. It mirrors the bodies of POST /results and
// POST /predictions with a type discriminator.
type Message struct {
	Type         string                     `json:"type"`
	SubmissionID string                     `json:"submission_id,omitempty"`
	GameID       string                     `json:"game_id,omitempty"`
	Home         *int                       `json:"home,omitempty"`
	Away         *int                       `json:"away,omitempty"`
	UserID       string                     `json:"user_id,omitempty"`
	Predictions  map[string]types.ScoreLine `json:"predictions,omitempty"`
	Replace      bool                       `json:"replace,omitempty"`
}

// Decode parses a feed payload and checks that the fields its type needs
// are present. Value checks are left to the service.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	m.Type = strings.ToLower(strings.TrimSpace(m.Type))

	switch m.Type {
	case TypeResult:
		if m.GameID == "" || m.Home == nil || m.Away == nil {
			return Message{}, fmt.Errorf("%w: result needs game_id, home and away", ErrInvalidMessage)
		}
	case TypePrediction:
		if m.UserID == "" || len(m.Predictions) == 0 {
			return Message{}, fmt.Errorf("%w: prediction needs user_id and predictions", ErrInvalidMessage)
		}
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	return m, nil
}

// Result converts a result message into a service submission.
func (m Message) Result(fallbackID string) service.ResultSubmission {
	return service.ResultSubmission{
		SubmissionID: idOr(m.SubmissionID, fallbackID),
		GameID:       m.GameID,
		Home:         *m.Home,
		Away:         *m.Away,
		Reason:       model.TriggerFeed,
	}
}

// Prediction converts a prediction message into a service submission.
func (m Message) Prediction(fallbackID string) service.PredictionSubmission {
	return service.PredictionSubmission{
		SubmissionID: idOr(m.SubmissionID, fallbackID),
		UserID:       m.UserID,
		Predictions:  m.Predictions,
		Replace:      m.Replace,
		Reason:       model.TriggerFeed,
	}
}

func idOr(id, fallback string) string {
	if strings.TrimSpace(id) == "" {
		return fallback
	}
	return id
}
