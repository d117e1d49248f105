package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

//go:generate mockgen -destination=./mocks/mock_mailer.go -package=mocks github.com/simulai/simulai/pkg/mailer Mailer

// Mailer is the interface for sending emails
type Mailer interface {
	// Send delivers an arbitrary message
	Send(ctx context.Context, msg Message) error
	// SendPasswordReset sends the reset link to a user who asked for it
	SendPasswordReset(ctx context.Context, email, name, resetURL string) error
	// SendScenarioAssigned tells a user a training scenario was assigned to them
	SendScenarioAssigned(ctx context.Context, email, name, scenarioTitle, scenarioURL string) error
}

// Message is a single outgoing email
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Validate checks the message has at least a recipient, a subject and a body
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return errors.New("recipient cannot be empty")
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("subject is required")
	}
	if m.HTML == "" && m.Text == "" {
		return errors.New("html or text body is required")
	}
	return nil
}

// Config holds the configuration for the mailer
type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// SMTPMailer implements the Mailer interface using SMTP
type SMTPMailer struct {
	config   *Config
	testMode bool
	sent     []Message
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(config *Config) *SMTPMailer {
	return &SMTPMailer{
		config: config,
	}
}

// NewTestSMTPMailer creates a mailer that builds messages but never dials
func NewTestSMTPMailer(config *Config) *SMTPMailer {
	return &SMTPMailer{
		config:   config,
		testMode: true,
	}
}

// Sent returns the messages captured in test mode
func (m *SMTPMailer) Sent() []Message {
	return m.sent
}

func (m *SMTPMailer) Send(ctx context.Context, message Message) error {
	if err := message.Validate(); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())

	if err := msg.FromFormat(m.config.FromName, m.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set email from address: %w", err)
	}

	if err := msg.To(message.To...); err != nil {
		return fmt.Errorf("failed to set email recipient: %w", err)
	}

	msg.Subject(message.Subject)

	switch {
	case message.HTML != "" && message.Text != "":
		msg.SetBodyString(mail.TypeTextHTML, message.HTML)
		msg.AddAlternativeString(mail.TypeTextPlain, message.Text)
	case message.HTML != "":
		msg.SetBodyString(mail.TypeTextHTML, message.HTML)
	default:
		msg.SetBodyString(mail.TypeTextPlain, message.Text)
	}

	client, err := m.createSMTPClient()
	if err != nil {
		return err
	}

	if client == nil {
		m.sent = append(m.sent, message)
		log.Printf("Sending email to: %s", strings.Join(message.To, ", "))
		log.Printf("Subject: %s", message.Subject)
		return nil
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, name, resetURL string) error {
	message, err := PasswordResetMessage(ctx, email, name, resetURL)
	if err != nil {
		return err
	}
	return m.Send(ctx, message)
}

func (m *SMTPMailer) SendScenarioAssigned(ctx context.Context, email, name, scenarioTitle, scenarioURL string) error {
	message, err := ScenarioAssignedMessage(ctx, email, name, scenarioTitle, scenarioURL)
	if err != nil {
		return err
	}
	return m.Send(ctx, message)
}

// createSMTPClient creates and configures a new SMTP client
func (m *SMTPMailer) createSMTPClient() (*mail.Client, error) {
	if m.testMode {
		return nil, nil
	}

	clientOptions := []mail.Option{
		mail.WithPort(m.config.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}

	// Unauthenticated relays are allowed
	if m.config.SMTPUsername != "" && m.config.SMTPPassword != "" {
		clientOptions = append(clientOptions,
			mail.WithUsername(m.config.SMTPUsername),
			mail.WithPassword(m.config.SMTPPassword),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
		)
	}

	client, err := mail.NewClient(m.config.SMTPHost, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return client, nil
}

// ConsoleMailer is a development implementation that just prints emails
type ConsoleMailer struct{}

// NewConsoleMailer creates a new console mailer for development
func NewConsoleMailer() *ConsoleMailer {
	return &ConsoleMailer{}
}

func (m *ConsoleMailer) Send(ctx context.Context, message Message) error {
	if err := message.Validate(); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	body := message.Text
	if body == "" {
		body = message.HTML
	}

	fmt.Println("==============================================================")
	fmt.Printf("To: %s\n", strings.Join(message.To, ", "))
	fmt.Printf("Subject: %s\n\n", message.Subject)
	fmt.Println(body)
	fmt.Println("==============================================================")

	return nil
}

func (m *ConsoleMailer) SendPasswordReset(ctx context.Context, email, name, resetURL string) error {
	return m.Send(ctx, Message{
		To:      []string{email},
		Subject: PasswordResetSubject,
		Text:    passwordResetText(name, resetURL),
	})
}

func (m *ConsoleMailer) SendScenarioAssigned(ctx context.Context, email, name, scenarioTitle, scenarioURL string) error {
	return m.Send(ctx, Message{
		To:      []string{email},
		Subject: scenarioAssignedSubject(scenarioTitle),
		Text:    scenarioAssignedText(name, scenarioTitle, scenarioURL),
	})
}
