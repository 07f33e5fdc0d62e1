// Package notify defines the outbound verification-message surface. Actual
// delivery (SMTP, SMS, push) is owned by an external system; this module only
// needs a collaborator it can hand the token to.
package notify

import "log"

// Notifier dispatches a verification message to a newly registered user.
type Notifier interface {
	SendVerification(email, token, username string) error
}

// LogNotifier writes verification messages to the process log. It stands in
// for the real delivery service in local runs and never fails.
type LogNotifier struct {
	Logger *log.Logger
}

func (n *LogNotifier) SendVerification(email, token, username string) error {
	logger := n.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("verification message for %s <%s>: token=%s", username, email, token)
	return nil
}
