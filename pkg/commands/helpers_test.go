package commands

import (
	"context"
	"strings"
	"sync"

	"telegrambot/pkg/events"
	"telegrambot/pkg/objects"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recordingEmitter) Start() error                              { return nil }
func (r *recordingEmitter) Stop() error                               { return nil }
func (r *recordingEmitter) Subscribe(t events.Type, h events.Handler) {}
func (r *recordingEmitter) Unsubscribe(t events.Type)                 {}
func (r *recordingEmitter) GetMetrics() map[string]uint64             { return nil }

func (r *recordingEmitter) Emit(ctx context.Context, ev *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEmitter) byType(t events.Type) []*events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*events.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type fakeSender struct {
	mu   sync.Mutex
	sent []objects.SendMessageParams
}

func (f *fakeSender) SendMessage(ctx context.Context, params objects.SendMessageParams) (*objects.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, params)
	return &objects.Message{
		MessageID: len(f.sent),
		Chat:      &objects.Chat{ID: params.ChatID},
		Text:      params.Text,
	}, nil
}

func (f *fakeSender) last() objects.SendMessageParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return objects.SendMessageParams{}
	}
	return f.sent[len(f.sent)-1]
}

const testChatID = 100

// textUpdate builds a message update with a bot_command entity for every
// token, located by its first occurrence in text.
func textUpdate(text string, tokens ...string) *objects.Update {
	msg := &objects.Message{
		MessageID: 1,
		Chat:      &objects.Chat{ID: testChatID, Type: "private"},
		Text:      text,
	}
	for _, token := range tokens {
		msg.Entities = append(msg.Entities, commandEntity(text, token))
	}
	return &objects.Update{UpdateID: 1, Message: msg}
}

func commandEntity(text, token string) objects.MessageEntity {
	idx := strings.Index(text, token)
	if idx < 0 {
		panic("token not in text: " + token)
	}
	return objects.MessageEntity{
		Type:   objects.EntityTypeBotCommand,
		Offset: objects.UTF16Len(text[:idx]),
		Length: objects.UTF16Len(token),
	}
}

// recorder collects invocations of test commands in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
	args  []Arguments
}

func (r *recorder) command(name string, params ...Parameter) *FuncCommand {
	return NewFunc(name, name+" command", func(ctx context.Context, c *Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, name)
		r.args = append(r.args, c.Arguments.Clone())
		return nil
	}).WithParameters(params...)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}
