package nats

import (
	"encoding/json"
	"fmt"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

const eventType = "prediction.recorded"

type predictionEvent struct {
	Type       string            `json:"type"`
	Prediction domain.Prediction `json:"prediction"`
}

func encodeEvent(prediction domain.Prediction) ([]byte, error) {
	payload, err := json.Marshal(predictionEvent{Type: eventType, Prediction: prediction})
	if err != nil {
		return nil, fmt.Errorf("encode prediction event: %w", err)
	}
	return payload, nil
}

func decodeEvent(data []byte) (domain.Prediction, error) {
	var event predictionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.Prediction{}, fmt.Errorf("decode prediction event: %w", err)
	}
	if event.Type != eventType {
		return domain.Prediction{}, fmt.Errorf("unexpected event type %q", event.Type)
	}
	if event.Prediction.ID == "" {
		return domain.Prediction{}, fmt.Errorf("prediction event without id")
	}
	return event.Prediction, nil
}
