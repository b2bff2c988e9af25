package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/models"
)

// Notifier raises a user-visible notification for a chat message.
type Notifier interface {
	Notify(msg models.Message) error
}

// Desktop raises native desktop notifications. Failures are logged and
// swallowed; a missing notification daemon must never disturb the chat
// flow.
type Desktop struct {
	logger zerolog.Logger
	icon   string
}

// NewDesktop returns a desktop notifier. icon is a path or URL passed
// through to the platform toast, may be empty.
func NewDesktop(logger zerolog.Logger, icon string) *Desktop {
	return &Desktop{logger: logger, icon: icon}
}

// Notify shows a toast titled with the sender's name and bodied with the
// message text.
func (d *Desktop) Notify(msg models.Message) error {
	title := Title(msg.Username)
	if err := beeep.Notify(title, msg.Body, d.icon); err != nil {
		d.logger.Warn().Err(err).
			Str("from", msg.Username).
			Msg("desktop notification failed")
	}
	return nil
}

// Title renders the notification headline for a message from username.
func Title(username string) string {
	return fmt.Sprintf("رسالة جديدة من %s", username)
}
