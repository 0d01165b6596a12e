package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"

	"telegrambot/pkg/objects"
)

const testToken = "123:ABC"

type apiCall struct {
	Method string
	Form   url.Values
}

// fakeBotAPI answers Bot API methods the way Telegram does, from memory.
type fakeBotAPI struct {
	srv *httptest.Server

	mu      sync.Mutex
	calls   []apiCall
	updates []objects.Update
	fail    map[string]bool
}

func newFakeBotAPI(t *testing.T) *fakeBotAPI {
	t.Helper()
	f := &fakeBotAPI{fail: make(map[string]bool)}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

// endpoint is the URL format to pass as APIEndpoint.
func (f *fakeBotAPI) endpoint() string {
	return f.srv.URL + "/bot%s/%s"
}

func (f *fakeBotAPI) queue(updates ...objects.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updates...)
}

func (f *fakeBotAPI) failMethod(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = true
}

func (f *fakeBotAPI) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBotAPI) serve(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	method := path.Base(r.URL.Path)
	if !strings.HasPrefix(r.URL.Path, "/bot"+testToken+"/") {
		writeAPI(w, false, nil, "Unauthorized")
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Form: r.PostForm})
	failing := f.fail[method]
	f.mu.Unlock()

	if failing {
		writeAPI(w, false, nil, "Bad Request: forced failure")
		return
	}

	switch method {
	case "getMe":
		writeAPI(w, true, objects.User{ID: 1, IsBot: true, FirstName: "Test", UserName: "test_bot"}, "")
	case "getUpdates":
		offset, _ := strconv.Atoi(r.PostForm.Get("offset"))
		f.mu.Lock()
		var pending []objects.Update
		for _, u := range f.updates {
			if u.UpdateID >= offset {
				pending = append(pending, u)
			}
		}
		f.mu.Unlock()
		if pending == nil {
			pending = []objects.Update{}
		}
		writeAPI(w, true, pending, "")
	case "sendMessage":
		chatID, _ := strconv.ParseInt(r.PostForm.Get("chat_id"), 10, 64)
		writeAPI(w, true, objects.Message{
			MessageID: len(f.callsTo("sendMessage")),
			Date:      1,
			Chat:      &objects.Chat{ID: chatID, Type: "private"},
			Text:      r.PostForm.Get("text"),
		}, "")
	case "setWebhook", "deleteWebhook", "setMyCommands":
		writeAPI(w, true, true, "")
	default:
		writeAPI(w, false, nil, "Not Found: method not found")
	}
}

func writeAPI(w http.ResponseWriter, ok bool, result any, description string) {
	resp := map[string]any{"ok": ok}
	if ok {
		resp["result"] = result
	} else {
		resp["error_code"] = 400
		resp["description"] = description
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// commandUpdate builds an update whose text starts with a bot command.
func commandUpdate(id int, text string) objects.Update {
	length := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		length = i
	}
	return objects.Update{
		UpdateID: id,
		Message: &objects.Message{
			MessageID: id,
			Date:      1,
			Chat:      &objects.Chat{ID: 42, Type: "private"},
			Text:      text,
			Entities: []objects.MessageEntity{
				{Type: objects.EntityTypeBotCommand, Offset: 0, Length: length},
			},
		},
	}
}
