package nats

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/resilience"
)

const queueGroup = "intake-workers"

// Queue moves intake requests in and intake results out over NATS subjects.
type Queue struct {
	conn           *nats.Conn
	requestSubject string
	resultSubject  string
	executor       *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, requestSubject, resultSubject string) (*Queue, error) {
	return NewWithOptions(url, requestSubject, resultSubject, Options{})
}

func NewWithOptions(url, requestSubject, resultSubject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("equipment-intake"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:           conn,
		requestSubject: requestSubject,
		resultSubject:  resultSubject,
		executor:       options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// Ping reports whether the connection is usable.
func (q *Queue) Ping(_ context.Context) error {
	if q.conn == nil || !q.conn.IsConnected() {
		return domain.WrapError(domain.ErrTemporary, "nats ping", nats.ErrConnectionClosed)
	}
	return nil
}

// PublishIntakeRequest is used by producers and tests to enqueue a reading.
func (q *Queue) PublishIntakeRequest(ctx context.Context, req domain.IntakeRequest) error {
	payload, err := encodeRequest(req)
	if err != nil {
		return err
	}
	return q.publish(ctx, q.requestSubject, payload)
}

func (q *Queue) PublishIntakeResult(ctx context.Context, result *domain.IntakeResult) error {
	if result == nil {
		return domain.WrapError(domain.ErrInvalidInput, "publish intake result", errors.New("result is nil"))
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal intake result: %w", err)
	}
	return q.publish(ctx, q.resultSubject, payload)
}

func (q *Queue) publish(ctx context.Context, subject string, payload []byte) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeIntakeRequests blocks until ctx is done, then drains the subscription.
func (q *Queue) SubscribeIntakeRequests(ctx context.Context, handler func(context.Context, domain.IntakeRequest) error) error {
	sub, err := q.conn.QueueSubscribe(q.requestSubject, queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		req, err := decodeRequest(msg.Data)
		if err != nil {
			slog.Warn("intake_request_invalid", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, req); err != nil {
			slog.Error("intake_handler_failed", "request_id", req.ID, "label", req.Label, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// intakeEvent is the wire form of a request; the photo travels base64 encoded.
type intakeEvent struct {
	ID          string                    `json:"id"`
	Label       string                    `json:"label"`
	Reading     *domain.NameplateReading  `json:"reading,omitempty"`
	ImageBase64 string                    `json:"image_base64,omitempty"`
	Existing    *domain.EquipmentInstance `json:"existing,omitempty"`
	SubmittedAt time.Time                 `json:"submitted_at,omitempty"`
}

func encodeRequest(req domain.IntakeRequest) ([]byte, error) {
	event := intakeEvent{
		ID:          req.ID,
		Label:       req.Label,
		Reading:     req.Reading,
		Existing:    req.Existing,
		SubmittedAt: req.SubmittedAt,
	}
	if len(req.Image) > 0 {
		event.ImageBase64 = base64.StdEncoding.EncodeToString(req.Image)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal intake request: %w", err)
	}
	return payload, nil
}

func decodeRequest(data []byte) (domain.IntakeRequest, error) {
	var event intakeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.IntakeRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode intake request", err)
	}
	if strings.TrimSpace(event.Label) == "" {
		return domain.IntakeRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode intake request", errors.New("label is required"))
	}
	req := domain.IntakeRequest{
		ID:          event.ID,
		Label:       event.Label,
		Reading:     event.Reading,
		Existing:    event.Existing,
		SubmittedAt: event.SubmittedAt,
	}
	if event.ImageBase64 != "" {
		image, err := base64.StdEncoding.DecodeString(event.ImageBase64)
		if err != nil {
			return domain.IntakeRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode intake image", err)
		}
		req.Image = image
	}
	return req, nil
}
