package constant

const (
	// Fiber locals key set by the JWT middleware.
	LocalsUserId = "user_id"

	// In-process topic carrying result interactions from the controller to
	// the NATS forwarder.
	InteractionTopic = "assistant.interactions"
)
