package ai

import (
	"context"
	"errors"
)

// Role tags a message sent to a text-generation backend.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Options tune a single generation call.
type Options struct {
	// Temperature is left to the backend default when nil.
	Temperature *float32
}

// ErrNotConfigured is returned by components that need a generator but were built without one.
var ErrNotConfigured = errors.New("text generator is not configured")

// TextGenerator turns an ordered list of role-tagged messages into text.
// Implementations make no promise about the shape of the returned text.
type TextGenerator interface {
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Temperature is a helper for filling Options.Temperature.
func Temperature(v float32) *float32 {
	return &v
}

// System and User build single messages.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }
