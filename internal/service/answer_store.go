package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"calai/internal/domain"
)

// AnswerStore mediates between a running pipeline and whoever answers
// its clarification questions. The pipeline blocks in Ask; the UI
// fetches the pending question and submits an answer over HTTP. It
// implements port.AnswerSource.
type AnswerStore struct {
	mu      sync.Mutex
	pending *pendingQuestion
	timeout time.Duration
}

type pendingQuestion struct {
	question string
	askedAt  time.Time
	answerCh chan string
}

// NewAnswerStore creates an AnswerStore with the given answer timeout.
func NewAnswerStore(timeout time.Duration) *AnswerStore {
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &AnswerStore{timeout: timeout}
}

// Ask publishes a question and blocks until an answer arrives, the
// context is cancelled, or the timeout passes.
func (s *AnswerStore) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	if s.pending != nil {
		s.mu.Unlock()
		return "", fmt.Errorf("a question is already pending")
	}
	p := &pendingQuestion{
		question: question,
		askedAt:  time.Now(),
		answerCh: make(chan string, 1),
	}
	s.pending = p
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
	}()

	select {
	case answer := <-p.answerCh:
		return answer, nil
	case <-time.After(s.timeout):
		return "", domain.ErrAnswerTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Current returns the pending question, if any.
func (s *AnswerStore) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return "", false
	}
	return s.pending.question, true
}

// Submit delivers an answer to the pending question.
func (s *AnswerStore) Submit(answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return domain.ErrNoPendingQuestion
	}
	select {
	case s.pending.answerCh <- answer:
	default:
		// An answer is already queued for this question.
		return domain.ErrNoPendingQuestion
	}
	return nil
}

// TerminalAnswerSource reads answers from an interactive terminal. It
// implements port.AnswerSource for standalone CLI runs.
type TerminalAnswerSource struct {
	In  io.Reader
	Out io.Writer
}

// Ask prints the question and reads one line.
func (t *TerminalAnswerSource) Ask(ctx context.Context, question string) (string, error) {
	fmt.Fprintf(t.Out, "\n%s\n> ", question)

	type lineResult struct {
		line string
		err  error
	}
	ch := make(chan lineResult, 1)
	go func() {
		reader := bufio.NewReader(t.In)
		line, err := reader.ReadString('\n')
		ch <- lineResult{strings.TrimSpace(line), err}
	}()

	select {
	case res := <-ch:
		if res.err != nil && res.line == "" {
			return "", fmt.Errorf("reading answer: %w", res.err)
		}
		log.Printf("service.TerminalAnswerSource: answer received (%d chars)", len(res.line))
		return res.line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
