package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/example/mowing-roster/internal/application"
)

// Config describes the SMTP account used to send mail.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username.
	From string
	// TestingMode sends every message to From instead of the real recipients.
	TestingMode bool
	Timeout     time.Duration
	Settings    Settings
}

type deliverer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer delivers roster emails over SMTP.
type Mailer struct {
	client   deliverer
	from     string
	testing  bool
	settings Settings
	logger   *slog.Logger
}

var _ application.Notifier = (*Mailer)(nil)

// NewMailer returns a Mailer authenticating to cfg.Host with PLAIN auth over
// mandatory STARTTLS.
func NewMailer(cfg Config, logger *slog.Logger) (*Mailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("notify: smtp host is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("notify: smtp credentials are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: create smtp client: %w", err)
	}
	return newMailer(client, cfg, logger), nil
}

func newMailer(client deliverer, cfg Config, logger *slog.Logger) *Mailer {
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = cfg.Username
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		client:   client,
		from:     from,
		testing:  cfg.TestingMode,
		settings: cfg.Settings,
		logger:   logger.With("component", "notify.Mailer"),
	}
}

// RedirectsToSender reports whether testing mode is on.
func (m *Mailer) RedirectsToSender() bool { return m.testing }

// NotifyAssistance emails the administrators.
func (m *Mailer) NotifyAssistance(ctx context.Context, req application.AssistanceRequest) error {
	msg, err := RenderAssistance(req, m.settings)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

// NotifyCoverage emails the coverage recipients.
func (m *Mailer) NotifyCoverage(ctx context.Context, req application.CoverageRequest) error {
	msg, err := RenderCoverage(req, m.settings)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *Mailer) send(ctx context.Context, msg Message) error {
	if m.testing {
		msg.To = []string{m.from}
	}

	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return fmt.Errorf("notify: sender %q: %w", m.from, err)
	}
	if err := out.To(msg.To...); err != nil {
		return fmt.Errorf("notify: recipients: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetBodyString(mail.TypeTextHTML, msg.HTML)

	started := time.Now()
	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("notify: send %q: %w", msg.Subject, err)
	}
	m.logger.InfoContext(ctx, "email sent",
		"subject", msg.Subject,
		"recipients", len(msg.To),
		"testing_mode", m.testing,
		"duration", time.Since(started),
	)
	return nil
}
