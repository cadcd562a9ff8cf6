package provider

import (
	"context"
	"strconv"
	"time"

	"github.com/mstgnz/donate/infra/logger"
	"github.com/mstgnz/donate/infra/opensearch"
)

// FlowLogger records donation flow stages for operator visibility. It is
// best-effort: implementations must never fail the flow.
type FlowLogger interface {
	LogStage(ctx context.Context, stage string, donation *Donation, flowErr error)
}

// OpenSearchFlowLogger ships flow stages to the per-provider indices.
type OpenSearchFlowLogger struct {
	sink *opensearch.Logger
}

// NewOpenSearchFlowLogger creates a flow logger backed by OpenSearch.
func NewOpenSearchFlowLogger(sink *opensearch.Logger) *OpenSearchFlowLogger {
	return &OpenSearchFlowLogger{sink: sink}
}

func (l *OpenSearchFlowLogger) LogStage(ctx context.Context, stage string, donation *Donation, flowErr error) {
	entry := opensearch.FlowLog{
		Timestamp: time.Now().UTC(),
		Form:      donation.Form,
		Provider:  donation.PaymentType,
		Stage:     stage,
		Donation: opensearch.DonationInfo{
			Reference: donation.Reference,
			Amount:    float64(donation.AmountCents) / 100,
			Currency:  donation.Currency,
			Frequency: donation.Frequency,
			Purpose:   donation.Purpose,
			Mode:      donation.Mode,
			Email:     donation.Email,
			Status:    "ok",
		},
	}
	if flowErr != nil {
		entry.Donation.Status = "failed"
		// Provider errors can embed raw response bodies with credentials.
		entry.Error = opensearch.ErrorInfo{
			Kind:    string(KindOf(flowErr)),
			Message: opensearch.SanitizeForLog(flowErr.Error()),
		}
	}

	if err := l.sink.LogFlowEvent(ctx, entry); err != nil {
		logger.Warn("flow log delivery failed", logger.LogContext{
			Form:     donation.Form,
			Provider: donation.PaymentType,
			Fields: map[string]any{
				"stage": stage,
				"error": err.Error(),
				"cents": strconv.FormatInt(donation.AmountCents, 10),
			},
		})
	}
}

// NoopFlowLogger discards flow stages.
type NoopFlowLogger struct{}

func (NoopFlowLogger) LogStage(context.Context, string, *Donation, error) {}
