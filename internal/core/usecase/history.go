package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
	"github.com/kirillkom/income-bracket-predictor/internal/core/ports"
)

// ArchivePredictionUseCase stores predictions; it backs both the synchronous
// recorder and the worker consuming prediction events.
type ArchivePredictionUseCase struct {
	repo ports.PredictionRepository
}

func NewArchivePredictionUseCase(repo ports.PredictionRepository) *ArchivePredictionUseCase {
	return &ArchivePredictionUseCase{repo: repo}
}

func (uc *ArchivePredictionUseCase) Archive(ctx context.Context, prediction domain.Prediction) error {
	if prediction.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "archive prediction", fmt.Errorf("prediction id is empty"))
	}
	if err := uc.repo.Save(ctx, &prediction); err != nil {
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

func (uc *ArchivePredictionUseCase) Record(ctx context.Context, prediction domain.Prediction) error {
	return uc.Archive(ctx, prediction)
}

// QueueRecorder defers persistence to the worker by publishing an event.
type QueueRecorder struct {
	queue ports.MessageQueue
}

func NewQueueRecorder(queue ports.MessageQueue) *QueueRecorder {
	return &QueueRecorder{queue: queue}
}

func (r *QueueRecorder) Record(ctx context.Context, prediction domain.Prediction) error {
	if err := r.queue.PublishPredictionRecorded(ctx, prediction); err != nil {
		return fmt.Errorf("publish prediction event: %w", err)
	}
	return nil
}

// DisabledHistory answers reads when no history backend is configured.
type DisabledHistory struct{}

func (DisabledHistory) GetByID(context.Context, string) (*domain.Prediction, error) {
	return nil, domain.WrapError(domain.ErrTemporary, "get prediction", fmt.Errorf("prediction history is not configured"))
}
