package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	ChatSessionDefaultTitle   = "Unnamed session"
	ChatSessionDefaultPersona = "friendly"

	ChatGreeting = "Hi! Tell me what you're in the mood to read."

	// HistoryWindow bounds how many prior messages feed the intent
	// extractor. Older turns rarely change the current request.
	HistoryWindow = 10
)
