package chat

// Session is a point-in-time view of one persona's conversation.
type Session struct {
	PersonaID  string    `json:"personaId"`
	Messages   []Message `json:"messages"`
	HasStarted bool      `json:"hasStarted"`
	Loading    bool      `json:"loading"`
}

// LastUserIndex returns the index of the most recent user message, or -1.
func LastUserIndex(messages []Message) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return i
		}
	}
	return -1
}
