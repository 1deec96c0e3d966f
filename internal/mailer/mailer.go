package mailer

import (
	"context"
	"fmt"
)

// Message is a plain-text email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers or hands off a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ConfirmationMessage builds the signup email carrying the confirmation code.
func ConfirmationMessage(to, username, code string) Message {
	return Message{
		To:      to,
		Subject: "YaMDB confirmation code",
		Body: fmt.Sprintf("Hello, %s!\n\nYour confirmation code: %s\n\n"+
			"Send it with your username to /api/v1/auth/token/ to get an access token.\n",
			username, code),
	}
}
