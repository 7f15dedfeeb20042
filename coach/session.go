package coach

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DandaAkhilReddy/ReddyFitV2/llm"
)

// ChatSession is one ongoing multi-turn conversation. It is single-owner:
// only the caller that created it may send turns, one at a time. History
// is held in memory only; nothing is persisted across sessions.
type ChatSession struct {
	id       string
	gen      llm.Generator
	model    string
	history  []llm.Content
	inFlight atomic.Bool
	logger   *zap.Logger
}

// StartChat opens a session seeded with prior turns. The seed is copied;
// the caller's slice is not retained.
func (c *Coach) StartChat(history []llm.Content) *ChatSession {
	seed := make([]llm.Content, len(history))
	copy(seed, history)
	id := uuid.NewString()
	return &ChatSession{
		id:      id,
		gen:     c.gen,
		model:   c.models.Full,
		history: seed,
		logger:  c.logger.With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier.
func (s *ChatSession) ID() string { return s.id }

// History returns a copy of the turn history, including turns accumulated
// from completed streams.
func (s *ChatSession) History() []llm.Content {
	out := make([]llm.Content, len(s.history))
	copy(out, s.history)
	return out
}

// Send appends a user turn and returns the model's reply as a channel of
// incremental text fragments. Streaming bypasses the retry layer: a failed
// stream creation propagates immediately, since retrying a half-delivered
// conversational turn is not idempotent.
//
// The reply must be consumed to completion before the next Send; a second
// Send while a stream is open is a caller error and is rejected. When the
// stream ends the accumulated reply text is appended to history — on a
// terminal stream error the partial text already delivered still counts.
func (s *ChatSession) Send(ctx context.Context, text string) (<-chan llm.StreamChunk, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, llm.NewError(llm.KindGeneric, "previous reply is still streaming")
	}

	s.history = append(s.history, llm.UserContent(llm.TextPart(text)))

	upstream, err := s.gen.Stream(ctx, &llm.GenerateRequest{
		Model:    s.model,
		Contents: s.history,
	})
	if err != nil {
		// Roll back the turn: nothing was delivered for it.
		s.history = s.history[:len(s.history)-1]
		s.inFlight.Store(false)
		return nil, llm.Classify(err)
	}

	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		defer s.inFlight.Store(false)

		var reply string
		for chunk := range upstream {
			if chunk.Err == nil {
				reply += chunk.Text
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				// Caller abandoned the stream; keep what was delivered.
				if reply != "" {
					s.history = append(s.history, llm.ModelContent(llm.TextPart(reply)))
				}
				return
			}
		}
		if reply != "" {
			s.history = append(s.history, llm.ModelContent(llm.TextPart(reply)))
		}
		s.logger.Debug("chat turn completed", zap.Int("history_len", len(s.history)))
	}()

	return out, nil
}
