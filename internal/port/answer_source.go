package port

import "context"

// AnswerSource abstracts where clarification answers come from. The
// pipeline publishes a question and blocks until an answer arrives or
// the context is cancelled.
type AnswerSource interface {
	Ask(ctx context.Context, question string) (string, error)
}
