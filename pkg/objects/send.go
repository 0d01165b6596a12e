package objects

// Parse modes accepted by sendMessage.
const (
	ParseModeMarkdown   = "Markdown"
	ParseModeMarkdownV2 = "MarkdownV2"
	ParseModeHTML       = "HTML"
)

// SendMessageParams are the sendMessage arguments the SDK supports.
type SendMessageParams struct {
	ChatID              int64  `json:"chat_id"`
	Text                string `json:"text"`
	ParseMode           string `json:"parse_mode,omitempty"`
	ReplyToMessageID    int    `json:"reply_to_message_id,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

// BotCommand is one entry of the command menu shown by Telegram clients.
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}
