package notifications

import (
	"context"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// TelegramChannel доставка через Telegram бота
type TelegramChannel struct {
	client TelegramSender
}

// NewTelegramChannel создает канал Telegram
func NewTelegramChannel(client TelegramSender) *TelegramChannel {
	return &TelegramChannel{client: client}
}

func (c *TelegramChannel) Name() domain.Channel { return domain.ChannelTelegram }

func (c *TelegramChannel) CanReach(r domain.Recipient) bool {
	return c.client.Configured() && r.TelegramChatID != nil && *r.TelegramChatID != ""
}

func (c *TelegramChannel) Send(ctx context.Context, r domain.Recipient, m Message) error {
	return c.client.SendMessage(ctx, *r.TelegramChatID, m.Text())
}

// LineChannel доставка через LINE
type LineChannel struct {
	client LineSender
}

// NewLineChannel создает канал LINE
func NewLineChannel(client LineSender) *LineChannel {
	return &LineChannel{client: client}
}

func (c *LineChannel) Name() domain.Channel { return domain.ChannelLine }

func (c *LineChannel) CanReach(r domain.Recipient) bool {
	return c.client.Configured() && r.LineUserID != nil && *r.LineUserID != ""
}

func (c *LineChannel) Send(ctx context.Context, r domain.Recipient, m Message) error {
	return c.client.Push(ctx, *r.LineUserID, m.Text())
}

// EmailChannel доставка письмом
type EmailChannel struct {
	client EmailSender
}

// NewEmailChannel создает почтовый канал
func NewEmailChannel(client EmailSender) *EmailChannel {
	return &EmailChannel{client: client}
}

func (c *EmailChannel) Name() domain.Channel { return domain.ChannelEmail }

func (c *EmailChannel) CanReach(r domain.Recipient) bool {
	return c.client.Configured() && r.Email != ""
}

func (c *EmailChannel) Send(ctx context.Context, r domain.Recipient, m Message) error {
	return c.client.Send(ctx, r.Email, m.Subject, m.Body)
}
