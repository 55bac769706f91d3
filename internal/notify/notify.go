// Package notify provides cross-platform desktop notifications for
// finished upload batches. It uses github.com/gen2brain/beeep.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/config"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
)

// Notifier handles desktop notifications.
type Notifier struct {
	logger       *logging.Logger
	mu           sync.RWMutex
	enabled      bool
	showComplete bool
	showFailed   bool
}

// NewNotifier creates a notifier from the notification config section.
func NewNotifier(cfg config.NotificationConfig, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Notifier{
		logger:       logger,
		enabled:      cfg.Enabled,
		showComplete: cfg.ShowUploadComplete,
		showFailed:   cfg.ShowUploadFailed,
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// UploadComplete announces a fully successful batch.
func (n *Notifier) UploadComplete(fileCount int) {
	if !n.IsEnabled() || !n.showComplete {
		return
	}

	message := fmt.Sprintf("%d photo(s) uploaded.", fileCount)
	if err := n.send("Upload Complete", message); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send upload complete notification")
	}
}

// UploadFailed announces a batch that finished with failures.
func (n *Notifier) UploadFailed(failed, total int) {
	if !n.IsEnabled() || !n.showFailed {
		return
	}

	message := fmt.Sprintf("%d of %d photo(s) failed to upload.", failed, total)
	if err := n.send("Upload Failed", message); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send upload failed notification")
	}
}

// send is the internal method that actually sends the notification.
func (n *Notifier) send(title, message string) error {
	// beeep.Notify is cross-platform:
	// - Windows: Uses toast notifications
	// - macOS: Uses NSUserNotificationCenter
	// - Linux: Uses D-Bus notifications
	return beeep.Notify(title, message, "")
}
