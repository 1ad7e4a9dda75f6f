package stakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/hibiken/asynq"

	"stakevault/internal/telegram"
)

// Notification task types, consumed by the worker process.
const (
	TaskTxReview = "notify:tx_review"
	TaskSignUp   = "notify:signup"
)

const notifyQueue = "notify"

type txReviewPayload struct {
	Txid      string  `json:"txid"`
	AccountId uint    `json:"account_id"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	Email     string  `json:"email"`
}

type signUpPayload struct {
	Email string `json:"email"`
}

// AsynqNotifier implements Notifier by enqueueing tasks; delivery happens in
// the worker process so submission never waits on telegram.
type AsynqNotifier struct {
	client *asynq.Client
}

func NewAsynqNotifier(client *asynq.Client) *AsynqNotifier {
	return &AsynqNotifier{client: client}
}

func (n *AsynqNotifier) SignedUp(email string) {
	payload, _ := json.Marshal(signUpPayload{Email: email})
	_, err := n.client.Enqueue(asynq.NewTask(TaskSignUp, payload), asynq.Queue(notifyQueue))
	if err != nil {
		log.Printf("[notify] signup task for %s not enqueued: %v", email, err)
	}
}

func (n *AsynqNotifier) ReviewRequested(req PendingRequest, email string) {
	payload, _ := json.Marshal(txReviewPayload{
		Txid:      req.Txid,
		AccountId: req.AccountId,
		Type:      req.Type,
		Amount:    req.Amount,
		Email:     email,
	})
	_, err := n.client.Enqueue(asynq.NewTask(TaskTxReview, payload), asynq.Queue(notifyQueue))
	if err != nil {
		log.Printf("[notify] review task for tx %s not enqueued: %v", req.Txid, err)
	}
}

// NotifyMux wires the notification handlers for the asynq server.
func NotifyMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTxReview, HandleTxReviewTask)
	mux.HandleFunc(TaskSignUp, HandleSignUpTask)
	return mux
}

func HandleTxReviewTask(ctx context.Context, t *asynq.Task) error {
	var p txReviewPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	return SendTelegramMessage(txReviewMessage(p, os.Getenv("CP_URL")), "finance")
}

// txReviewMessage builds the MarkdownV2 notice. Link urls stay raw; every
// display field, the uuid txid included, goes through the escaper or telegram
// rejects the message.
func txReviewMessage(p txReviewPayload, cpUrl string) string {
	return fmt.Sprintf(
		`New %s to review [Transaction: %s](%s/requests/%s)
[Account: %d](%s/accounts/%d)
Email: %s
Amount: %s`,
		p.Type,
		EscapeMarkdownV2(p.Txid),
		cpUrl,
		p.Txid,
		p.AccountId,
		cpUrl,
		p.AccountId,
		EscapeMarkdownV2(p.Email),
		EscapeMarkdownV2(fmt.Sprintf("%.2f", p.Amount)),
	)
}

func HandleSignUpTask(ctx context.Context, t *asynq.Task) error {
	var p signUpPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	msg := fmt.Sprintf("New signup: %s", EscapeMarkdownV2(p.Email))
	return SendTelegramMessage(msg, "signup")
}

// SendTelegramMessage posts to one of the admin chats. Chat ids come from the
// environment per topic.
func SendTelegramMessage(msg string, chat string) error {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return errors.New("TELEGRAM_TOKEN is not set")
	}
	var chatId string
	switch chat {
	case "signup":
		chatId = os.Getenv("SIGNUP_CHAT_ID")
	case "finance":
		chatId = os.Getenv("FINANCE_CHAT_ID")
	}
	if chatId == "" {
		chatId = os.Getenv("DEFAULT_CHAT_ID")
	}
	if chatId == "" {
		return errors.New("no chat id configured for " + chat)
	}
	chatIdInt, err := strconv.ParseInt(chatId, 10, 64)
	if err != nil {
		return err
	}
	bot, err := telegram.NewBot(token)
	if err != nil {
		return err
	}
	return bot.SendMarkdown(chatIdInt, msg)
}
