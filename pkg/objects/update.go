// Package objects holds the Telegram Bot API data model consumed by the
// command dispatcher. Only the fields the SDK reads are modelled; unknown
// fields are ignored when decoding.
package objects

// EntityTypeBotCommand marks a "/command" span inside message text.
const EntityTypeBotCommand = "bot_command"

// Update is an incoming update from Telegram.
// At most one of the optional fields is present in any given update.
type Update struct {
	UpdateID          int            `json:"update_id"`
	Message           *Message       `json:"message,omitempty"`
	EditedMessage     *Message       `json:"edited_message,omitempty"`
	ChannelPost       *Message       `json:"channel_post,omitempty"`
	EditedChannelPost *Message       `json:"edited_channel_post,omitempty"`
	CallbackQuery     *CallbackQuery `json:"callback_query,omitempty"`
}

// RelatedMessage returns the message-like object carried by the update, or
// nil when the update has none.
func (u *Update) RelatedMessage() *Message {
	if u == nil {
		return nil
	}
	switch {
	case u.Message != nil:
		return u.Message
	case u.EditedMessage != nil:
		return u.EditedMessage
	case u.ChannelPost != nil:
		return u.ChannelPost
	case u.EditedChannelPost != nil:
		return u.EditedChannelPost
	case u.CallbackQuery != nil:
		return u.CallbackQuery.Message
	}
	return nil
}

// Chat returns the chat the update belongs to, or nil.
func (u *Update) Chat() *Chat {
	if msg := u.RelatedMessage(); msg != nil {
		return msg.Chat
	}
	return nil
}

// From returns the user who triggered the update, or nil.
func (u *Update) From() *User {
	if u == nil {
		return nil
	}
	if u.CallbackQuery != nil {
		return u.CallbackQuery.From
	}
	if msg := u.RelatedMessage(); msg != nil {
		return msg.From
	}
	return nil
}

// Message is a Telegram message. Field order matters: the entity locator
// walks fields in declaration order when looking for entity lists.
type Message struct {
	MessageID       int             `json:"message_id"`
	From            *User           `json:"from,omitempty"`
	SenderChat      *Chat           `json:"sender_chat,omitempty"`
	Date            int             `json:"date"`
	Chat            *Chat           `json:"chat"`
	ReplyToMessage  *Message        `json:"reply_to_message,omitempty"`
	EditDate        int             `json:"edit_date,omitempty"`
	Text            string          `json:"text,omitempty"`
	Entities        []MessageEntity `json:"entities,omitempty"`
	Caption         string          `json:"caption,omitempty"`
	CaptionEntities []MessageEntity `json:"caption_entities,omitempty"`
}

// MessageEntity is a special span in a text message. Offset and Length are
// measured in UTF-16 code units.
type MessageEntity struct {
	Type     string `json:"type"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	URL      string `json:"url,omitempty"`
	User     *User  `json:"user,omitempty"`
	Language string `json:"language,omitempty"`
}

// IsCommand reports whether the entity marks a bot command.
func (e MessageEntity) IsCommand() bool {
	return e.Type == EntityTypeBotCommand
}

// User is a Telegram user or bot.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	UserName     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Chat is a Telegram chat.
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	UserName  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// CallbackQuery is an incoming callback from an inline keyboard button.
type CallbackQuery struct {
	ID           string   `json:"id"`
	From         *User    `json:"from"`
	Message      *Message `json:"message,omitempty"`
	ChatInstance string   `json:"chat_instance,omitempty"`
	Data         string   `json:"data,omitempty"`
}
