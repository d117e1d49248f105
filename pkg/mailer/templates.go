package mailer

import (
	"context"
	"fmt"
	"html"

	mjmlgo "github.com/Boostport/mjml-go"
)

const PasswordResetSubject = "Reset your SimulAI password"

const layoutMJML = `<mjml>
  <mj-head>
    <mj-attributes>
      <mj-all font-family="Helvetica, Arial, sans-serif" />
      <mj-text font-size="15px" line-height="22px" color="#333333" />
    </mj-attributes>
  </mj-head>
  <mj-body background-color="#f4f5f7">
    <mj-section background-color="#ffffff" padding="32px 24px">
      <mj-column>
        <mj-text font-size="22px" font-weight="bold">%s</mj-text>
        %s
        <mj-button background-color="#4f46e5" href="%s">%s</mj-button>
        <mj-text font-size="12px" color="#888888">If the button doesn't work, copy this link into your browser: %s</mj-text>
        <mj-text>The SimulAI Team</mj-text>
      </mj-column>
    </mj-section>
  </mj-body>
</mjml>`

func greeting(name string) string {
	if name == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hello %s,", name)
}

func renderLayout(ctx context.Context, title string, paragraphs []string, buttonURL, buttonLabel string) (string, error) {
	body := ""
	for _, p := range paragraphs {
		body += "<mj-text>" + html.EscapeString(p) + "</mj-text>\n"
	}

	escapedURL := html.EscapeString(buttonURL)
	source := fmt.Sprintf(layoutMJML, html.EscapeString(title), body, escapedURL, html.EscapeString(buttonLabel), escapedURL)

	out, err := mjmlgo.ToHTML(ctx, source, mjmlgo.WithMinify(true))
	if err != nil {
		return "", fmt.Errorf("failed to compile email template: %w", err)
	}
	return out, nil
}

// PasswordResetMessage builds the password reset email
func PasswordResetMessage(ctx context.Context, email, name, resetURL string) (Message, error) {
	htmlBody, err := renderLayout(ctx, "Reset your password", []string{
		greeting(name),
		"We received a request to reset the password of your SimulAI account.",
		"This link expires in 1 hour. If you did not ask for it, you can ignore this email.",
	}, resetURL, "Choose a new password")
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      []string{email},
		Subject: PasswordResetSubject,
		HTML:    htmlBody,
		Text:    passwordResetText(name, resetURL),
	}, nil
}

// ScenarioAssignedMessage builds the notification sent when a scenario is assigned
func ScenarioAssignedMessage(ctx context.Context, email, name, scenarioTitle, scenarioURL string) (Message, error) {
	htmlBody, err := renderLayout(ctx, "A new scenario is waiting for you", []string{
		greeting(name),
		fmt.Sprintf("The training scenario \"%s\" has been assigned to you.", scenarioTitle),
	}, scenarioURL, "Open scenario")
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      []string{email},
		Subject: scenarioAssignedSubject(scenarioTitle),
		HTML:    htmlBody,
		Text:    scenarioAssignedText(name, scenarioTitle, scenarioURL),
	}, nil
}

func passwordResetText(name, resetURL string) string {
	return fmt.Sprintf("%s\n\nWe received a request to reset the password of your SimulAI account.\n\n"+
		"Use the following link to choose a new password: %s\n\n"+
		"This link expires in 1 hour. If you did not ask for it, you can ignore this email.\n\n"+
		"The SimulAI Team", greeting(name), resetURL)
}

func scenarioAssignedSubject(scenarioTitle string) string {
	return fmt.Sprintf("New scenario assigned: %s", scenarioTitle)
}

func scenarioAssignedText(name, scenarioTitle, scenarioURL string) string {
	return fmt.Sprintf("%s\n\nThe training scenario \"%s\" has been assigned to you.\n\n"+
		"Open it here: %s\n\nThe SimulAI Team", greeting(name), scenarioTitle, scenarioURL)
}
