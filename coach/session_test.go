package coach

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DandaAkhilReddy/ReddyFitV2/llm"
)

func streamOf(chunks ...llm.StreamChunk) func(*llm.GenerateRequest) (<-chan llm.StreamChunk, error) {
	return func(*llm.GenerateRequest) (<-chan llm.StreamChunk, error) {
		ch := make(chan llm.StreamChunk, len(chunks))
		for _, chunk := range chunks {
			ch <- chunk
		}
		close(ch)
		return ch, nil
	}
}

func drain(t *testing.T, stream <-chan llm.StreamChunk) (string, error) {
	t.Helper()
	var text string
	var terminal error
	for chunk := range stream {
		if chunk.Err != nil {
			terminal = chunk.Err
			continue
		}
		text += chunk.Text
	}
	return text, terminal
}

func TestChatSession_SendAccumulatesHistory(t *testing.T) {
	gen := &fakeGen{streamFn: streamOf(
		llm.StreamChunk{Text: "Leg day: "},
		llm.StreamChunk{Text: "squats and lunges.", FinishReason: "STOP"},
	)}
	c := newTestCoach(gen)

	session := c.StartChat(nil)
	assert.NotEmpty(t, session.ID())

	stream, err := session.Send(context.Background(), "plan my leg day")
	require.NoError(t, err)

	text, terminal := drain(t, stream)
	require.NoError(t, terminal)
	assert.Equal(t, "Leg day: squats and lunges.", text)

	history := session.History()
	require.Len(t, history, 2)
	assert.Equal(t, llm.RoleUser, history[0].Role)
	assert.Equal(t, "plan my leg day", history[0].Parts[0].Text)
	assert.Equal(t, llm.RoleModel, history[1].Role)
	assert.Equal(t, "Leg day: squats and lunges.", history[1].Parts[0].Text)
}

func TestChatSession_SeedHistoryIsCopied(t *testing.T) {
	seed := []llm.Content{
		llm.UserContent(llm.TextPart("earlier question")),
		llm.ModelContent(llm.TextPart("earlier answer")),
	}
	c := newTestCoach(&fakeGen{})

	session := c.StartChat(seed)
	seed[0] = llm.UserContent(llm.TextPart("mutated"))

	history := session.History()
	require.Len(t, history, 2)
	assert.Equal(t, "earlier question", history[0].Parts[0].Text)
}

func TestChatSession_SecondSendWhileStreamingRejected(t *testing.T) {
	release := make(chan struct{})
	gen := &fakeGen{streamFn: func(*llm.GenerateRequest) (<-chan llm.StreamChunk, error) {
		ch := make(chan llm.StreamChunk)
		go func() {
			<-release
			ch <- llm.StreamChunk{Text: "done"}
			close(ch)
		}()
		return ch, nil
	}}
	c := newTestCoach(gen)
	session := c.StartChat(nil)

	stream, err := session.Send(context.Background(), "first")
	require.NoError(t, err)

	_, err = session.Send(context.Background(), "second")
	assert.True(t, llm.IsKind(err, llm.KindGeneric))
	assert.Contains(t, err.Error(), "still streaming")

	close(release)
	text, terminal := drain(t, stream)
	require.NoError(t, terminal)
	assert.Equal(t, "done", text)
}

func TestChatSession_TerminalErrorKeepsPartialText(t *testing.T) {
	streamErr := llm.NewError(llm.KindOverloaded, "connection reset").WithRetryable(true)
	gen := &fakeGen{streamFn: streamOf(
		llm.StreamChunk{Text: "You should start with"},
		llm.StreamChunk{Err: streamErr},
	)}
	c := newTestCoach(gen)
	session := c.StartChat(nil)

	stream, err := session.Send(context.Background(), "advice?")
	require.NoError(t, err)

	text, terminal := drain(t, stream)
	assert.Equal(t, "You should start with", text, "fragments before the failure stay valid")
	assert.ErrorIs(t, terminal, streamErr)

	history := session.History()
	require.Len(t, history, 2)
	assert.Equal(t, "You should start with", history[1].Parts[0].Text,
		"partial reply is still recorded")
}

func TestChatSession_FailedCreationPropagates(t *testing.T) {
	gen := &fakeGen{streamFn: func(*llm.GenerateRequest) (<-chan llm.StreamChunk, error) {
		return nil, llm.NewError(llm.KindOverloaded, "overloaded").WithRetryable(true)
	}}
	c := newTestCoach(gen)
	session := c.StartChat(nil)

	_, err := session.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, llm.IsKind(err, llm.KindOverloaded),
		"stream creation is never retried, the error surfaces as-is")

	// The session is usable again after the failed creation.
	gen.streamFn = streamOf(llm.StreamChunk{Text: "ok"})
	stream, err := session.Send(context.Background(), "hello again")
	require.NoError(t, err)
	text, terminal := drain(t, stream)
	require.NoError(t, terminal)
	assert.Equal(t, "ok", text)
}

func TestChatSession_StreamCarriesFullHistory(t *testing.T) {
	gen := &fakeGen{streamFn: streamOf(llm.StreamChunk{Text: "reply"})}
	c := newTestCoach(gen)

	session := c.StartChat([]llm.Content{
		llm.UserContent(llm.TextPart("turn one")),
		llm.ModelContent(llm.TextPart("answer one")),
	})

	stream, err := session.Send(context.Background(), "turn two")
	require.NoError(t, err)
	drain(t, stream)

	require.Len(t, gen.lastReq.Contents, 3, "seed turns plus the new user turn")
	assert.Equal(t, "turn two", gen.lastReq.Contents[2].Parts[0].Text)
}
