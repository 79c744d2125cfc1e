package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

// Telegram posts order activity to the restaurant staff chat. Every call is
// best-effort: failures are logged and swallowed so the order flow never
// blocks on the notifier.
type Telegram struct {
	botToken string
	chatID   int64
	baseURL  string
	client   *http.Client
}

func NewTelegram(botToken string, chatID int64, baseURL string) *Telegram {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) IsConfigured() bool {
	return t != nil && t.botToken != "" && t.chatID != 0
}

// InlineButton is one button of an inline keyboard; CallbackData comes back
// through the Telegram webhook when tapped.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type Message struct {
	ChatID         int64
	Text           string
	InlineKeyboard [][]InlineButton
}

// SendMessage posts a message to the staff chat (or an explicit chat id).
func (t *Telegram) SendMessage(msg Message) {
	chatID := msg.ChatID
	if chatID == 0 {
		chatID = t.chatID
	}
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    msg.Text,
	}
	if len(msg.InlineKeyboard) > 0 {
		payload["reply_markup"] = map[string]interface{}{
			"inline_keyboard": msg.InlineKeyboard,
		}
	}
	t.post("sendMessage", payload)
}

// AnswerCallbackQuery acknowledges an inline-keyboard tap.
func (t *Telegram) AnswerCallbackQuery(callbackID, text string) {
	t.post("answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackID,
		"text":              text,
	})
}

// EditMessageText rewrites a previously sent message.
func (t *Telegram) EditMessageText(chatID int64, messageID int, text string) {
	t.post("editMessageText", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	})
}

func (t *Telegram) post(method string, payload map[string]interface{}) {
	if !t.IsConfigured() {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("telegram %s: marshal failed: %v", method, err)
		return
	}
	resp, err := t.client.Post(t.baseURL+"/bot"+t.botToken+"/"+method, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("telegram %s failed: %v", method, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("telegram %s returned %d", method, resp.StatusCode)
	}
}
