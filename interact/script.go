package interact

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Reply is one scripted response.
type Reply struct {
	UserID string
	Text   string
	Err    error
}

// Scripted is a Prompter that plays back canned input. Exhausted queues
// answer with ErrTimeout.
type Scripted struct {
	mu       sync.Mutex
	asks     []Reply
	gathers  [][]Answer
	messages []Reply

	Prompts []Prompt
	Said    []string
	DMs     map[string][]string
}

// NewScripted creates an empty script.
func NewScripted() *Scripted {
	return &Scripted{DMs: make(map[string][]string)}
}

// QueueAsk appends a reaction answer (Text is the option).
func (s *Scripted) QueueAsk(r ...Reply) *Scripted {
	s.mu.Lock()
	s.asks = append(s.asks, r...)
	s.mu.Unlock()
	return s
}

// QueueGather appends the result of one Gather call.
func (s *Scripted) QueueGather(a ...Answer) *Scripted {
	s.mu.Lock()
	s.gathers = append(s.gathers, a)
	s.mu.Unlock()
	return s
}

// QueueMessage appends a text message reply.
func (s *Scripted) QueueMessage(r ...Reply) *Scripted {
	s.mu.Lock()
	s.messages = append(s.messages, r...)
	s.mu.Unlock()
	return s
}

func (s *Scripted) Ask(_ context.Context, p Prompt) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Prompts = append(s.Prompts, p)
	if len(s.asks) == 0 {
		return Answer{}, ErrTimeout
	}
	r := s.asks[0]
	s.asks = s.asks[1:]
	if r.Err != nil {
		return Answer{}, r.Err
	}
	if !p.HasOption(r.Text) {
		return Answer{}, fmt.Errorf("scripted answer %q is not an option of %q", r.Text, p.Text)
	}
	return Answer{UserID: r.UserID, Option: r.Text}, nil
}

func (s *Scripted) Gather(_ context.Context, p Prompt, max int, _ time.Duration) ([]Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Prompts = append(s.Prompts, p)
	if len(s.gathers) == 0 {
		return nil, nil
	}
	a := s.gathers[0]
	s.gathers = s.gathers[1:]
	if max > 0 && len(a) > max {
		a = a[:max]
	}
	return a, nil
}

func (s *Scripted) AwaitMessage(_ context.Context, _, _ string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return "", ErrTimeout
	}
	r := s.messages[0]
	s.messages = s.messages[1:]
	return r.Text, r.Err
}

func (s *Scripted) Say(_ context.Context, _, text string) error {
	s.mu.Lock()
	s.Said = append(s.Said, text)
	s.mu.Unlock()
	return nil
}

func (s *Scripted) DirectMessage(_ context.Context, userID, text string) (string, error) {
	s.mu.Lock()
	s.DMs[userID] = append(s.DMs[userID], text)
	s.mu.Unlock()
	return "dm:" + userID, nil
}
