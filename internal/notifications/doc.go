// Package notifications delivers pipeline events to operators.
//
// Events are published through the Service interface. NewService fans out to
// whichever sinks are configured (SMTP email, a JSON webhook, an SQS queue)
// and degrades to a noop when none are. Callers treat delivery as best effort
// and only log failures.
package notifications
