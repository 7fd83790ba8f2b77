package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiox-platform/shopassist/internal/dialogue"
	inats "github.com/aiox-platform/shopassist/internal/nats"
)

type fakeAssistant struct {
	users    []string
	messages []string
	err      error
}

func (f *fakeAssistant) HandleTurn(_ context.Context, userID, message string) (*dialogue.TurnResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.users = append(f.users, userID)
	f.messages = append(f.messages, message)
	return &dialogue.TurnResult{Response: "reply to " + message}, nil
}

type fakeOutbound struct {
	sent []inats.OutboundMessage
	err  error
}

func (f *fakeOutbound) PublishOutboundMessage(_ context.Context, msg inats.OutboundMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeMsg struct {
	jetstream.Msg
	data   []byte
	acked  bool
	nakked bool
	termed bool
}

func (m *fakeMsg) Data() []byte { return m.data }
func (m *fakeMsg) Ack() error   { m.acked = true; return nil }
func (m *fakeMsg) Nak() error   { m.nakked = true; return nil }
func (m *fakeMsg) Term() error  { m.termed = true; return nil }

func inboundMsg(t *testing.T, in inats.InboundMessage) *fakeMsg {
	t.Helper()
	data, err := json.Marshal(in)
	require.NoError(t, err)
	return &fakeMsg{data: data}
}

func newTestGateway(assistant Assistant, out OutboundPublisher, allowed ...string) *Gateway {
	return NewGateway(assistant, out, nil, NewRouter("assistant.shop.local"), NewValidator(allowed, 2000))
}

func TestGateway_ProcessMessage(t *testing.T) {
	assistant := &fakeAssistant{}
	out := &fakeOutbound{}
	g := newTestGateway(assistant, out)

	msg := inboundMsg(t, inats.InboundMessage{
		ID:      "in-1",
		FromJID: "alice@shop.local/phone",
		ToJID:   "assistant.shop.local",
		Body:    "show my cart",
	})
	g.processMessage(context.Background(), msg)

	assert.True(t, msg.acked)
	assert.Equal(t, []string{"alice@shop.local"}, assistant.users)
	require.Len(t, out.sent, 1)
	assert.Equal(t, "alice@shop.local/phone", out.sent[0].ToJID)
	assert.Equal(t, "assistant.shop.local", out.sent[0].FromJID)
	assert.Equal(t, "reply to show my cart", out.sent[0].Body)
	assert.Equal(t, "in-1", out.sent[0].InReplyTo)
}

func TestGateway_ResourcesShareOneUser(t *testing.T) {
	assistant := &fakeAssistant{}
	g := newTestGateway(assistant, &fakeOutbound{})

	g.processMessage(context.Background(), inboundMsg(t, inats.InboundMessage{FromJID: "alice@shop.local/phone", Body: "hi"}))
	g.processMessage(context.Background(), inboundMsg(t, inats.InboundMessage{FromJID: "alice@shop.local/laptop", Body: "hi"}))

	assert.Equal(t, []string{"alice@shop.local", "alice@shop.local"}, assistant.users)
}

func TestGateway_RejectsDisallowedDomain(t *testing.T) {
	assistant := &fakeAssistant{}
	out := &fakeOutbound{}
	g := newTestGateway(assistant, out, "shop.local")

	msg := inboundMsg(t, inats.InboundMessage{FromJID: "mallory@evil.example", Body: "hi"})
	g.processMessage(context.Background(), msg)

	assert.True(t, msg.acked)
	assert.Empty(t, assistant.users)
	require.Len(t, out.sent, 1)
	assert.Equal(t, replyNotAuthorized, out.sent[0].Body)
}

func TestGateway_DropsEmptyBodySilently(t *testing.T) {
	assistant := &fakeAssistant{}
	out := &fakeOutbound{}
	g := newTestGateway(assistant, out)

	msg := inboundMsg(t, inats.InboundMessage{FromJID: "alice@shop.local", Body: "  "})
	g.processMessage(context.Background(), msg)

	assert.True(t, msg.acked)
	assert.Empty(t, assistant.users)
	assert.Empty(t, out.sent)
}

func TestGateway_AssistantFailureSendsApology(t *testing.T) {
	out := &fakeOutbound{}
	g := newTestGateway(&fakeAssistant{err: errors.New("boom")}, out)

	msg := inboundMsg(t, inats.InboundMessage{FromJID: "alice@shop.local", Body: "hi"})
	g.processMessage(context.Background(), msg)

	assert.True(t, msg.acked)
	require.Len(t, out.sent, 1)
	assert.Equal(t, replyUnavailable, out.sent[0].Body)
}

func TestGateway_PublishFailureTerminates(t *testing.T) {
	assistant := &fakeAssistant{}
	g := newTestGateway(assistant, &fakeOutbound{err: errors.New("nats down")})

	msg := inboundMsg(t, inats.InboundMessage{FromJID: "alice@shop.local", Body: "hi"})
	g.processMessage(context.Background(), msg)

	assert.True(t, msg.termed)
	assert.False(t, msg.nakked)
	assert.Len(t, assistant.users, 1)
}

func TestGateway_MalformedPayload(t *testing.T) {
	assistant := &fakeAssistant{}
	g := newTestGateway(assistant, &fakeOutbound{})

	msg := &fakeMsg{data: []byte("{")}
	g.processMessage(context.Background(), msg)

	assert.True(t, msg.termed)
	assert.Empty(t, assistant.users)
}
