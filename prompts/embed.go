// Package prompts holds the fixed assistant copy shown in the chat screen.
package prompts

import _ "embed"

// Greeting is the assistant message shown above every conversation.
//
//go:embed greeting.md
var Greeting string

// Welcome is the intro card shown while a conversation is just starting.
//
//go:embed welcome.md
var Welcome string

// InputTip is shown under the message input.
const InputTip = "Tip: be specific about your needs, timeline and budget for better results"
