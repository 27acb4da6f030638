package notify

import "context"

// Null discards all messages.
type Null struct {
}

func (n *Null) Send(ctx context.Context, message string) {
}
