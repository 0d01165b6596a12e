package objects

import (
	"encoding/json"
	"testing"
)

func TestSliceUTF16(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		offset int
		length int
		want   string
	}{
		{name: "ascii", text: "/start hello", offset: 0, length: 6, want: "/start"},
		{name: "to end", text: "/a foo /b bar", offset: 7, length: -1, want: "/b bar"},
		{name: "emoji before command", text: "😀 /ping now", offset: 3, length: 5, want: "/ping"},
		{name: "cyrillic", text: "привет /go", offset: 7, length: 3, want: "/go"},
		{name: "clamped", text: "/x", offset: 0, length: 10, want: "/x"},
		{name: "offset past end", text: "/x", offset: 5, length: 1, want: ""},
		{name: "zero length", text: "/x", offset: 0, length: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SliceUTF16(tt.text, tt.offset, tt.length); got != tt.want {
				t.Fatalf("SliceUTF16(%q, %d, %d) = %q, want %q", tt.text, tt.offset, tt.length, got, tt.want)
			}
		})
	}
}

func TestUTF16Len(t *testing.T) {
	if n := UTF16Len("😀a"); n != 3 {
		t.Fatalf("expected 3 code units, got %d", n)
	}
	if n := UTF16Len(""); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestRelatedMessage(t *testing.T) {
	raw := `{"update_id":7,"edited_message":{"message_id":3,"chat":{"id":42,"type":"private"},"text":"/start","entities":[{"type":"bot_command","offset":0,"length":6}]}}`

	var update Update
	if err := json.Unmarshal([]byte(raw), &update); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	msg := update.RelatedMessage()
	if msg == nil || msg.MessageID != 3 {
		t.Fatalf("expected edited message to be related, got %+v", msg)
	}
	if chat := update.Chat(); chat == nil || chat.ID != 42 {
		t.Fatalf("expected chat 42, got %+v", chat)
	}
	if !msg.Entities[0].IsCommand() {
		t.Fatal("expected bot_command entity")
	}

	var empty *Update
	if empty.RelatedMessage() != nil {
		t.Fatal("nil update must have no related message")
	}
}

func TestCallbackQueryMessageIsRelated(t *testing.T) {
	update := &Update{
		CallbackQuery: &CallbackQuery{
			ID:      "cb",
			From:    &User{ID: 9},
			Message: &Message{MessageID: 11},
		},
	}
	if msg := update.RelatedMessage(); msg == nil || msg.MessageID != 11 {
		t.Fatalf("expected callback message, got %+v", msg)
	}
	if from := update.From(); from == nil || from.ID != 9 {
		t.Fatalf("expected callback sender, got %+v", from)
	}
}
