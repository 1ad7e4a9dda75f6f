package telegram

import (
	"github.com/PaulSonOfLars/gotgbot/v2"
)

type Bot struct {
	Api *gotgbot.Bot
}

func NewBot(token string) (*Bot, error) {
	api, err := gotgbot.NewBot(token, nil)
	if err != nil {
		return nil, err
	}

	return &Bot{
		Api: api,
	}, nil
}

// SendMarkdown posts a MarkdownV2 message without link previews, the format
// used for admin review notices.
func (b *Bot) SendMarkdown(chatId int64, msg string) error {
	_, err := b.Api.SendMessage(chatId, msg, &gotgbot.SendMessageOpts{
		ParseMode: "MarkdownV2",
		LinkPreviewOptions: &gotgbot.LinkPreviewOptions{
			IsDisabled: true,
		},
	})
	return err
}
