package notify

import (
	"context"
	"log/slog"

	"github.com/example/mowing-roster/internal/application"
)

// LogNotifier renders emails and logs them instead of sending. It is used
// when no SMTP credentials are configured.
type LogNotifier struct {
	settings Settings
	logger   *slog.Logger
}

var _ application.Notifier = (*LogNotifier)(nil)

// NewLogNotifier returns a LogNotifier writing to logger.
func NewLogNotifier(settings Settings, logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{settings: settings, logger: logger.With("component", "notify.LogNotifier")}
}

func (n *LogNotifier) NotifyAssistance(ctx context.Context, req application.AssistanceRequest) error {
	msg, err := RenderAssistance(req, n.settings)
	if err != nil {
		return err
	}
	n.log(ctx, msg)
	return nil
}

func (n *LogNotifier) NotifyCoverage(ctx context.Context, req application.CoverageRequest) error {
	msg, err := RenderCoverage(req, n.settings)
	if err != nil {
		return err
	}
	n.log(ctx, msg)
	return nil
}

func (n *LogNotifier) log(ctx context.Context, msg Message) {
	n.logger.InfoContext(ctx, "email not sent; smtp is not configured",
		"to", msg.To,
		"subject", msg.Subject,
	)
	n.logger.DebugContext(ctx, "email body", "subject", msg.Subject, "html", msg.HTML)
}
