package telegram

import (
	"context"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tunedrop/tunedrop/internal/acquire"
	"github.com/tunedrop/tunedrop/internal/delivery"
	"github.com/tunedrop/tunedrop/internal/shared"
)

const welcomeText = `Hi! I turn YouTube videos into MP3s.

Send me either:
- a YouTube link, and I'll convert it straight away
- the name of a song, and I'll show you what I found

Use /help for details.`

const helpText = `How to use this bot:

1. Paste a YouTube link to get its audio as an MP3.
2. Or type a song name; pick a result from the buttons and
   flip pages with « Prev / Next ».

Tracks over the Telegram size limit can't be delivered.`

// Bot runs the Telegram update loop and implements the coordinator's
// Messenger surface. Each update is handled on its own goroutine.
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *log.Logger
}

// New connects to the Bot API and validates the token.
func New(token string, debug bool, logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug

	logger.Info("authorized", "account", api.Self.UserName)

	return &Bot{api: api, logger: logger}, nil
}

// Run consumes updates until ctx is cancelled or the update channel closes.
func (b *Bot) Run(ctx context.Context, c *delivery.Coordinator) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handle(ctx, c, update)
		}
	}
}

func (b *Bot) handle(ctx context.Context, c *delivery.Coordinator, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, c, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, c, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, c *delivery.Coordinator, msg *tgbotapi.Message) {
	ownerID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.send(ownerID, welcomeText)
		case "help":
			b.send(ownerID, helpText)
		default:
			b.send(ownerID, "Unknown command. Try /help.")
		}
		return
	}

	c.HandleText(ctx, ownerID, msg.Text)
}

// callbackOrigin extracts the chat and message a callback button lives on.
// Telegram omits the message for buttons older than 48 hours and for
// inline-mode messages; those callbacks can only be answered, not serviced.
func callbackOrigin(cq *tgbotapi.CallbackQuery) (ownerID int64, messageID int, ok bool) {
	if cq.Message == nil || cq.Message.Chat == nil {
		return 0, 0, false
	}
	return cq.Message.Chat.ID, cq.Message.MessageID, true
}

func (b *Bot) handleCallback(ctx context.Context, c *delivery.Coordinator, cq *tgbotapi.CallbackQuery) {
	ownerID, messageID, ok := callbackOrigin(cq)
	if !ok {
		b.answer(cq.ID, delivery.UserMessage(shared.ErrSessionExpired))
		return
	}

	cb, err := ParseCallback(cq.Data)
	if err != nil {
		b.answer(cq.ID, "")
		return
	}

	switch cb.Kind {
	case CallbackNoop:
		b.answer(cq.ID, "")

	case CallbackSelect:
		b.answer(cq.ID, "")
		if err := c.SelectResult(ctx, ownerID, cb.Generation, cb.Value); err != nil {
			b.send(ownerID, delivery.UserMessage(err))
		}

	case CallbackPage:
		view, err := c.TurnPage(ownerID, cb.Generation, cb.Value)
		if err != nil {
			b.answer(cq.ID, delivery.UserMessage(err))
			return
		}
		b.answer(cq.ID, "")

		edit := tgbotapi.NewEditMessageTextAndMarkup(
			ownerID, messageID, resultsText(view), resultsKeyboard(view))
		if _, err := b.api.Send(edit); err != nil {
			b.logger.Debug("page edit failed", "owner", ownerID, "err", err)
		}
	}
}

// SendStatus posts a transient status message and returns its id for later
// edits.
func (b *Bot) SendStatus(ownerID int64, text string) (int, error) {
	sent, err := b.api.Send(tgbotapi.NewMessage(ownerID, text))
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// EditStatus rewrites a previously sent status message.
func (b *Bot) EditStatus(ownerID int64, messageID int, text string) error {
	_, err := b.api.Send(tgbotapi.NewEditMessageText(ownerID, messageID, text))
	return err
}

// DeleteStatus removes a status message once the request has concluded.
func (b *Bot) DeleteStatus(ownerID int64, messageID int) error {
	_, err := b.api.Request(tgbotapi.NewDeleteMessage(ownerID, messageID))
	return err
}

// SendResults posts one page of search results with its inline keyboard.
func (b *Bot) SendResults(ownerID int64, view delivery.ResultsView) error {
	msg := tgbotapi.NewMessage(ownerID, resultsText(view))
	msg.ReplyMarkup = resultsKeyboard(view)
	_, err := b.api.Send(msg)
	return err
}

// SendAudio uploads the finished artifact with its delivery metadata.
func (b *Bot) SendAudio(ownerID int64, artifact *acquire.Artifact) error {
	audio := tgbotapi.NewAudio(ownerID, tgbotapi.FilePath(artifact.Path))
	audio.Title = artifact.Title
	audio.Performer = artifact.Performer
	audio.Duration = artifact.DurationSec
	if artifact.ThumbPath != "" {
		audio.Thumb = tgbotapi.FilePath(artifact.ThumbPath)
	}

	_, err := b.api.Send(audio)
	return err
}

func (b *Bot) send(ownerID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(ownerID, text)); err != nil {
		b.logger.Debug("send failed", "owner", ownerID, "err", err)
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Debug("callback answer failed", "err", err)
	}
}

func resultsText(view delivery.ResultsView) string {
	return "Pick a track:"
}
