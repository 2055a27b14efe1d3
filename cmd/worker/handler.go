package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
)

const workerService = "worker"

type resultPublisher interface {
	PublishIntakeResult(ctx context.Context, result *domain.IntakeResult) error
}

type intakeRecorder interface {
	StartIntake()
	FinishIntake(service string, duration time.Duration, result *domain.IntakeResult, err error)
	ObserveQueueLag(service string, lag time.Duration)
}

type intakeHandler struct {
	processor ports.IntakeProcessor
	publisher resultPublisher
	metrics   intakeRecorder
	timeout   time.Duration
	now       func() time.Time
}

// handle processes one request and publishes its result. Failed requests are
// published as rejected results so producers are never left waiting.
func (h *intakeHandler) handle(ctx context.Context, req domain.IntakeRequest) error {
	start := h.now()
	if !req.SubmittedAt.IsZero() {
		h.metrics.ObserveQueueLag(workerService, start.Sub(req.SubmittedAt))
	}
	h.metrics.StartIntake()

	processCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	result, err := h.processor.Process(processCtx, req)
	h.metrics.FinishIntake(workerService, h.now().Sub(start), result, err)
	if err != nil {
		slog.Error("intake_process_failed",
			"request_id", req.ID,
			"label", req.Label,
			"error", err,
		)
		result = &domain.IntakeResult{
			RequestID:   req.ID,
			Label:       req.Label,
			Status:      domain.IntakeRejected,
			Error:       err.Error(),
			ProcessedAt: h.now().UTC(),
		}
	}

	if result.PhotoError != "" {
		slog.Warn("intake_photo_archive_failed",
			"request_id", req.ID,
			"label", req.Label,
			"error", result.PhotoError,
		)
	}
	slog.Info("intake_processed",
		"request_id", req.ID,
		"label", req.Label,
		"status", result.Status,
		"duration_ms", h.now().Sub(start).Milliseconds(),
	)
	return h.publisher.PublishIntakeResult(ctx, result)
}
