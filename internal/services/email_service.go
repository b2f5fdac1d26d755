package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/imposter/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/wneessen/go-mail"
)

const otpEmailSubject = "Your Imposter verification code"

// EmailService delivers one-time codes
type EmailService interface {
	SendOTPEmail(ctx context.Context, email, code string, expiresAt time.Time) error
}

func otpEmailText(code string, expiresAt time.Time) string {
	return fmt.Sprintf(`Your Imposter verification code is: %s

It expires at %s (%s from when it was sent).

If you did not create an account you can ignore this email.
`, code, expiresAt.UTC().Format(time.RFC1123), time.Until(expiresAt).Round(time.Minute))
}

func otpEmailHTML(code string, expiresAt time.Time) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Verify your email</h2>
  <p>Your Imposter verification code is:</p>
  <p style="font-size: 28px; letter-spacing: 6px;"><strong>%s</strong></p>
  <p>It expires at %s.</p>
  <p style="color: #666; font-size: 12px;">If you did not create an account you can ignore this email.</p>
</body>
</html>
`, code, expiresAt.UTC().Format(time.RFC1123))
}

// SESClient is the subset of the SES API used here
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// AWSSESEmailService sends codes through AWS SES
type AWSSESEmailService struct {
	client      SESClient
	fromAddress string
	logger      *slog.Logger
}

func NewAWSSESEmailService(ctx context.Context, region, fromAddress string, log *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewAWSSESEmailServiceWithClient(ses.NewFromConfig(cfg), fromAddress, log), nil
}

func NewAWSSESEmailServiceWithClient(client SESClient, fromAddress string, log *slog.Logger) *AWSSESEmailService {
	return &AWSSESEmailService{client: client, fromAddress: fromAddress, logger: log}
}

func (s *AWSSESEmailService) SendOTPEmail(ctx context.Context, email, code string, expiresAt time.Time) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(otpEmailSubject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(otpEmailHTML(code, expiresAt))},
				Text: &types.Content{Data: aws.String(otpEmailText(code, expiresAt))},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}

	s.logger.Info("otp email sent",
		slog.String("provider", "ses"),
		slog.String("email", logger.SanitizedEmail(email)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
	From     string
}

// SMTPEmailService sends codes through an SMTP relay
type SMTPEmailService struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

func NewSMTPEmailService(cfg SMTPConfig, log *slog.Logger) (*SMTPEmailService, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &SMTPEmailService{cfg: cfg, logger: log}, nil
}

func (s *SMTPEmailService) buildMessage(email, code string, expiresAt time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject(otpEmailSubject)
	msg.SetBodyString(mail.TypeTextPlain, otpEmailText(code, expiresAt))
	msg.AddAlternativeString(mail.TypeTextHTML, otpEmailHTML(code, expiresAt))
	return msg, nil
}

func (s *SMTPEmailService) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.cfg.Port)}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

func (s *SMTPEmailService) SendOTPEmail(ctx context.Context, email, code string, expiresAt time.Time) error {
	msg, err := s.buildMessage(email, code, expiresAt)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	s.logger.Info("otp email sent",
		slog.String("provider", "smtp"),
		slog.String("email", logger.SanitizedEmail(email)))

	return nil
}

// LogEmailService writes the code to the log instead of sending it. Development only.
type LogEmailService struct {
	logger *slog.Logger
}

func NewLogEmailService(log *slog.Logger) *LogEmailService {
	return &LogEmailService{logger: log}
}

func (s *LogEmailService) SendOTPEmail(ctx context.Context, email, code string, expiresAt time.Time) error {
	s.logger.InfoContext(ctx, "otp email (not sent)",
		slog.String("provider", "log"),
		slog.String("email", logger.SanitizedEmail(email)),
		slog.String("otp", code),
		slog.Time("expires_at", expiresAt))
	return nil
}
