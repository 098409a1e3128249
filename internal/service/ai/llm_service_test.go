package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interviewfriend/relay/backend/internal/model/chat"
	promptmodel "github.com/interviewfriend/relay/backend/internal/model/prompt"
)

// fakeChatModel replays scripted chunks and records its input.
type fakeChatModel struct {
	mu      sync.Mutex
	chunks  []string
	failAt  int
	openErr error
	input   []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.record(input)
	return schema.AssistantMessage("", nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.record(input)
	if f.openErr != nil {
		return nil, f.openErr
	}

	sr, sw := schema.Pipe[*schema.Message](0)
	go func() {
		defer sw.Close()
		for i, text := range f.chunks {
			if f.failAt > 0 && i == f.failAt {
				sw.Send(nil, errors.New("upstream reset"))
				return
			}
			if closed := sw.Send(schema.AssistantMessage(text, nil), nil); closed {
				return
			}
		}
	}()
	return sr, nil
}

func (f *fakeChatModel) record(input []*schema.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = input
}

func (f *fakeChatModel) lastInput() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

var testPrompts = promptmodel.Set{Interviewee: "INTERVIEWER PERSONA", Candidate: "CANDIDATE PERSONA"}

func newTestService(t *testing.T, fake *fakeChatModel) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), fake, testPrompts)
	require.NoError(t, err)
	return svc
}

func collect(t *testing.T, seq func(func(chat.Fragment, error) bool)) ([]string, error) {
	t.Helper()
	var texts []string
	for frag, err := range seq {
		if err != nil {
			return texts, err
		}
		texts = append(texts, frag.Text)
	}
	return texts, nil
}

func TestNewServiceRequiresModel(t *testing.T) {
	_, err := NewService(context.Background(), nil, testPrompts)
	assert.Error(t, err)
}

func TestStreamSkipsEmptyDeltas(t *testing.T) {
	fake := &fakeChatModel{chunks: []string{"Hel", "lo", "", "!"}}
	svc := newTestService(t, fake)

	seq, err := svc.Stream(context.Background(), chat.RoleInterviewee, []chat.RawMessage{
		{Role: "user", Content: "Tell me about yourself"},
	})
	require.NoError(t, err)

	texts, err := collect(t, seq)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo", "!"}, texts)
}

func TestStreamBuildsSystemThenHistory(t *testing.T) {
	fake := &fakeChatModel{chunks: []string{"ok"}}
	svc := newTestService(t, fake)

	seq, err := svc.Stream(context.Background(), chat.RoleInterviewer, []chat.RawMessage{
		{Role: "user", Content: "q1"},
		{Role: "system", Content: "injected"},
		{Role: "assistant", Content: "a1"},
		{Role: "user", Content: "q2 {not a variable}"},
	})
	require.NoError(t, err)
	_, err = collect(t, seq)
	require.NoError(t, err)

	input := fake.lastInput()
	require.Len(t, input, 4)
	assert.Equal(t, schema.System, input[0].Role)
	assert.Equal(t, "CANDIDATE PERSONA", input[0].Content)
	assert.Equal(t, schema.User, input[1].Role)
	assert.Equal(t, "q1", input[1].Content)
	assert.Equal(t, schema.Assistant, input[2].Role)
	assert.Equal(t, "a1", input[2].Content)
	assert.Equal(t, schema.User, input[3].Role)
	assert.Equal(t, "q2 {not a variable}", input[3].Content)
}

func TestStreamSelectsPromptByRole(t *testing.T) {
	fake := &fakeChatModel{chunks: []string{"ok"}}
	svc := newTestService(t, fake)

	seq, err := svc.Stream(context.Background(), chat.RoleInterviewee, []chat.RawMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	_, _ = collect(t, seq)

	assert.Equal(t, "INTERVIEWER PERSONA", fake.lastInput()[0].Content)
}

func TestStreamOpenError(t *testing.T) {
	fake := &fakeChatModel{openErr: errors.New("connection refused")}
	svc := newTestService(t, fake)

	_, err := svc.Stream(context.Background(), chat.RoleInterviewee, []chat.RawMessage{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}

func TestStreamMidStreamErrorEndsSequence(t *testing.T) {
	fake := &fakeChatModel{chunks: []string{"a", "b", "c"}, failAt: 2}
	svc := newTestService(t, fake)

	seq, err := svc.Stream(context.Background(), chat.RoleInterviewer, []chat.RawMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	texts, err := collect(t, seq)
	assert.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, texts)
}

func TestFragmentsEarlyBreakClosesReader(t *testing.T) {
	sr, sw := schema.Pipe[*schema.Message](0)
	producerDone := make(chan struct{})
	go func() {
		defer close(producerDone)
		defer sw.Close()
		for _, text := range []string{"1", "2", "3", "4", "5", "6"} {
			if closed := sw.Send(schema.AssistantMessage(text, nil), nil); closed {
				return
			}
		}
		t.Error("producer was not stopped by the consumer")
	}()

	for frag, err := range fragments(sr) {
		require.NoError(t, err)
		if frag.Text == "2" {
			break
		}
	}

	select {
	case <-producerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("producer still blocked after consumer stopped")
	}
}
