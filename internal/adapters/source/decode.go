package source

import (
	"fmt"
	"strings"

	"github.com/okian/scoreline/internal/domain/model"
)

// Field names of stored records, shared by every backend.
const (
	FieldID          = "id"
	FieldHomeTeam    = "homeTeam"
	FieldAwayTeam    = "awayTeam"
	FieldStartTime   = "startTime"
	FieldResult      = "result"
	FieldHome        = "home"
	FieldAway        = "away"
	FieldPredictions = "predictions"
	FieldUsername    = "username"
	FieldUpdatedAt   = "updatedAt"
)

// DecodeGame converts a stored game record. id overrides the record's own id
// field when not empty. A record without a usable start time still decodes,
// with a zero StartTime; a record without teams is invalid.
func DecodeGame(id string, rec map[string]any) (model.Game, error) {
	if id == "" {
		id = stringField(rec, FieldID)
	}
	g := model.Game{
		ID:       id,
		HomeTeam: stringField(rec, FieldHomeTeam),
		AwayTeam: stringField(rec, FieldAwayTeam),
	}
	if g.ID == "" || g.HomeTeam == "" || g.AwayTeam == "" {
		return model.Game{}, fmt.Errorf("%w: game %q needs id, %s and %s", ErrInvalidRecord, g.ID, FieldHomeTeam, FieldAwayTeam)
	}
	if t, err := model.ParseStartTime(rec[FieldStartTime]); err == nil {
		g.StartTime = t
	}
	if res, ok := asMap(rec[FieldResult]); ok {
		g.Result = &model.RawResult{Home: res[FieldHome], Away: res[FieldAway]}
	}
	return g, nil
}

// DecodeDocument converts a stored prediction document of userID. Guesses
// that are not objects are dropped; they could never be scored.
func DecodeDocument(userID string, rec map[string]any) model.PredictionDocument {
	doc := model.PredictionDocument{UserID: userID, Predictions: map[string]model.RawGuess{}}
	preds, _ := asMap(rec[FieldPredictions])
	for gameID, v := range preds {
		if guess, ok := asMap(v); ok {
			doc.Predictions[gameID] = guess
		}
	}
	if t, err := model.ParseStartTime(rec[FieldUpdatedAt]); err == nil {
		doc.UpdatedAt = t
	}
	return doc
}

// DecodeProfile converts a stored profile record of userID.
func DecodeProfile(userID string, rec map[string]any) model.Profile {
	return model.Profile{UserID: userID, Username: stringField(rec, FieldUsername)}
}

// EncodeGuesses converts guesses into plain maps for storage.
func EncodeGuesses(guesses map[string]model.RawGuess) map[string]any {
	out := make(map[string]any, len(guesses))
	for id, g := range guesses {
		out[id] = map[string]any(g)
	}
	return out
}

func stringField(rec map[string]any, key string) string {
	switch v := rec[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

// asMap accepts the map shapes produced by the JSON, YAML and DynamoDB
// decoders.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case model.RawGuess:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}
