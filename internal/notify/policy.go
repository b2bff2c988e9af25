// Package notify decides whether an incoming message warrants a desktop
// notification and raises one when it does.
package notify

// Decision carries the facts the policy needs about one incoming message
// as seen by one viewer.
type Decision struct {
	// PermissionGranted is true when the platform notification
	// permission has been granted.
	PermissionGranted bool
	// Mine is true when the viewer authored the message.
	Mine bool
	// MentionsViewer is true when the message body contains the
	// viewer's mention token.
	MentionsViewer bool
	// OnChatView is true when the viewer currently has the chat view
	// open.
	OnChatView bool
}

// ShouldNotify applies the notification policy. Without permission
// nothing fires. The viewer's own messages only fire when they mention
// the viewer, self-mentions notify even mid-conversation. Everyone
// else's messages fire whenever the chat view is not open; an open chat
// view suppresses them, mentioned or not.
func ShouldNotify(d Decision) bool {
	if !d.PermissionGranted {
		return false
	}
	if d.Mine {
		return d.MentionsViewer
	}
	return !d.OnChatView
}
