package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/sourcedesk/sourcedesk/internal/jobs"
	"github.com/sourcedesk/sourcedesk/internal/mail"
	"github.com/sourcedesk/sourcedesk/internal/quotation"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendQuotation delivers a rendered quotation PDF by email.
	TaskTypeSendQuotation = "quotation:send"
	// TaskTypeExpireSweep marks overdue quotations as expired.
	TaskTypeExpireSweep = "quotation:expire_sweep"
)

// SendQuotationPayload identifies the quotation to deliver and the recipient.
type SendQuotationPayload struct {
	QuotationID int64  `json:"quotation_id"`
	Recipient   string `json:"recipient"`
}

// NewSendQuotationTask constructs an Asynq task.
func NewSendQuotationTask(payload SendQuotationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendQuotation, data), nil
}

// NewExpireSweepTask constructs the recurring expiry sweep task.
func NewExpireSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeExpireSweep, nil)
}

// Handlers bundles the dependencies shared by quotation task handlers.
type Handlers struct {
	logger   *slog.Logger
	service  *quotation.Service
	exporter quotation.DocumentExporter
	mailer   *mail.Mailer
	metrics  *jobmetrics.Metrics
}

// NewHandlers constructs the task handler set. metrics may be nil.
func NewHandlers(logger *slog.Logger, service *quotation.Service, exporter quotation.DocumentExporter, mailer *mail.Mailer, metrics *jobmetrics.Metrics) *Handlers {
	return &Handlers{logger: logger, service: service, exporter: exporter, mailer: mailer, metrics: metrics}
}

// HandleSendQuotation renders the quotation document and mails it to the
// recipient. Render and SMTP failures are retryable; a malformed payload or
// a deleted quotation is not.
func (h *Handlers) HandleSendQuotation(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(TaskTypeSendQuotation)
	return tracker.End(h.sendQuotation(ctx, t))
}

func (h *Handlers) sendQuotation(ctx context.Context, t *asynq.Task) error {
	var payload SendQuotationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	q, err := h.service.Get(ctx, payload.QuotationID)
	if err != nil {
		h.logger.Warn("send quotation: load failed", slog.Int64("id", payload.QuotationID), slog.Any("error", err))
		return asynq.SkipRetry
	}
	breakdown, err := h.service.Pricing(ctx, payload.QuotationID)
	if err != nil {
		return fmt.Errorf("price quotation %d: %w", payload.QuotationID, err)
	}
	doc, err := h.exporter.Render(ctx, q, *breakdown)
	if err != nil {
		return fmt.Errorf("render quotation %d: %w", payload.QuotationID, err)
	}
	result, err := h.mailer.Send(mail.Message{
		To:             payload.Recipient,
		Subject:        fmt.Sprintf("Quotation %s", q.Number),
		Body:           fmt.Sprintf("Please find quotation %s attached.", q.Number),
		Attachment:     doc,
		AttachmentName: fmt.Sprintf("%s.pdf", q.Number),
	})
	if err != nil {
		return err
	}
	h.logger.Info("quotation sent",
		slog.Int64("id", payload.QuotationID),
		slog.String("number", q.Number),
		slog.String("recipient", payload.Recipient),
		slog.Time("sent_at", result.SentAt))
	return nil
}

// HandleExpireSweep transitions overdue quotations to expired.
func (h *Handlers) HandleExpireSweep(ctx context.Context, _ *asynq.Task) error {
	tracker := h.metrics.Track(TaskTypeExpireSweep)
	expired, err := h.service.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		return tracker.End(fmt.Errorf("expire sweep: %w", err))
	}
	if expired > 0 {
		h.logger.Info("expiry sweep", slog.Int("expired", expired))
		h.metrics.AddExpired(expired)
	}
	return tracker.End(nil)
}
