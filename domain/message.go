// Package domain contains core concepts of the chat system.
// This file defines the lines exchanged on the wire.
// Lines never carry their trailing newline here, transports add it.
package domain

import (
	"fmt"
	"strings"
)

const (
	QuitCommand      = "/quit"
	WelcomePrompt    = "Welcome! Please enter your username:"
	QuitInstructions = "[Server] Type /quit to leave."
	Goodbye          = "[Server] Goodbye!"
)

func ConnectedAs(name string) string {
	return fmt.Sprintf("[Server] You are connected as: %s", name)
}

func JoinedLine(name string) string {
	return fmt.Sprintf("[Server] %s joined the chat.", name)
}

func LeftLine(name string) string {
	return fmt.Sprintf("[Server] %s left the chat.", name)
}

func ChatLine(author, content string) string {
	return author + ": " + content
}

// IsQuit reports whether an already trimmed line asks to leave.
func IsQuit(line string) bool {
	return strings.EqualFold(line, QuitCommand)
}
