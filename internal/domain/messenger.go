package domain

import "context"

// Button is an inline action attached to a reply. Data is delivered back
// verbatim when the user presses it.
type Button struct {
	Text string
	Data string
}

// Messenger is the outbound side of a chat transport (Telegram, console).
type Messenger interface {
	// Reply sends text to chatID, attaching buttons as a single row when given,
	// and returns the ID of the sent message.
	Reply(ctx context.Context, chatID int64, text string, buttons ...Button) (int, error)
	// Delete removes a previously sent message.
	Delete(ctx context.Context, chatID int64, messageID int) error
}
