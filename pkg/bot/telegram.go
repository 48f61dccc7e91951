package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/voltwrench/faultbot/pkg/engine"
)

// Telegram adapts the Bot API to the Transport interface and owns the
// long-polling update loop.
type Telegram struct {
	api *tgbotapi.BotAPI
	log *zap.Logger
}

func NewTelegram(token string, log *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("telegram connected", zap.String("username", api.Self.UserName))
	return &Telegram{api: api, log: log}, nil
}

// Run long-polls for updates and feeds them to h until ctx is cancelled.
func (t *Telegram) Run(ctx context.Context, h Handler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			t.dispatch(h, upd)
		}
	}
}

func (t *Telegram) dispatch(h Handler, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		cq := upd.CallbackQuery
		h.HandleCallback(cq.Message.Chat.ID, cq.Message.MessageID, cq.ID, cq.Data)
	case upd.Message != nil && upd.Message.Text != "":
		h.HandleMessage(upd.Message.Chat.ID, upd.Message.Text)
	}
}

func (t *Telegram) Send(chatID int64, v engine.View) (int, error) {
	if v.ImagePath != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(v.ImagePath))
		photo.Caption = v.Text
		photo.ReplyMarkup = keyboard(v.Buttons)
		sent, err := t.api.Send(photo)
		if err != nil {
			return 0, fmt.Errorf("send photo: %w", err)
		}
		return sent.MessageID, nil
	}

	msg := tgbotapi.NewMessage(chatID, v.Text)
	if len(v.Buttons) > 0 {
		msg.ReplyMarkup = keyboard(v.Buttons)
	}
	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// Edit rewrites a rendered message in place. Photo views cannot replace a
// text message, and edits fail once a message is too old, so both cases fall
// back to a fresh send. An unchanged-content error is treated as success.
func (t *Telegram) Edit(chatID int64, messageID int, v engine.View) (int, error) {
	if v.ImagePath != "" {
		return t.Send(chatID, v)
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, v.Text)
	if len(v.Buttons) > 0 {
		kb := keyboard(v.Buttons)
		edit.ReplyMarkup = &kb
	}
	if _, err := t.api.Send(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return messageID, nil
		}
		t.log.Debug("edit failed, sending fresh",
			zap.Int64("chat", chatID), zap.Int("message", messageID), zap.Error(err))
		return t.Send(chatID, v)
	}
	return messageID, nil
}

func (t *Telegram) AnswerCallback(callbackID string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

func keyboard(rows [][]engine.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		out = append(out, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}
