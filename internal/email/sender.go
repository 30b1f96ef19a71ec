// Package email delivers transactional mail for the engine. The only
// message today is the lead-assigned notification sent to an agent.
package email

import (
	"context"

	"crm_dashboard_backend/platform/config"
)

// Sender sends transactional emails.
type Sender interface {
	// SendLeadAssignedEmail notifies an agent that a lead was assigned
	// to them by the distribution scheduler.
	SendLeadAssignedEmail(ctx context.Context, toEmail, agentName, leadName, leadSource string) error
}

// NoopSender is used when SMTP is not configured. Sends succeed
// silently.
type NoopSender struct{}

func (NoopSender) SendLeadAssignedEmail(context.Context, string, string, string, string) error {
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured, otherwise
// a NoopSender.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
