package conversations

import "errors"

// ErrNoConversationService is returned when the view has no conversation service.
var ErrNoConversationService = errors.New("conversation service not configured")
