package port

import "context"

// Notifier delivers user-facing messages. It never fails.
type Notifier interface {
	NotifyError(ctx context.Context, message string)
}
