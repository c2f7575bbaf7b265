package session

import "context"

// Token is the session's cooperative cancellation switch: one-way, shared by
// reference with every job pipeline and observed at defined checkpoints
// through the derived context.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewToken creates an uncancelled token.
func NewToken() *Token {
	ctx, cancel := context.WithCancel(context.Background())
	return &Token{ctx: ctx, cancel: cancel}
}

// Context returns the context that trips when the token is cancelled.
func (t *Token) Context() context.Context { return t.ctx }

// Cancel flips the token. Safe to call more than once.
func (t *Token) Cancel() { t.cancel() }

// Cancelled reports whether the token has been flipped.
func (t *Token) Cancelled() bool { return t.ctx.Err() != nil }
