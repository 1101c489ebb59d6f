// Package telegram implements the Telegram transport adapter over the
// responder engine: long polling, the command surface and the inline
// feedback keyboard.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sabia-bot/sabia/engine"
	"github.com/sabia-bot/sabia/store"
)

const (
	// updateTimeoutSeconds is the long-poll timeout for GetUpdates.
	updateTimeoutSeconds = 30

	feedbackCallbackPrefix = "feedback"
)

const (
	startText = "Olá! Sou uma IA em treinamento. 😊\n" +
		"Converse comigo para me ajudar a aprender!\n" +
		"Use /ajuda para ver os comandos disponíveis."

	helpText = "Comandos disponíveis:\n" +
		"/start - Inicia a conversa\n" +
		"/ajuda - Exibe esta mensagem\n" +
		"/ensinar pergunta | resposta - Ensina algo novo\n" +
		"/estatisticas - Mostra minhas estatísticas de aprendizado\n\n" +
		"Qualquer outra mensagem será processada como uma pergunta."

	teachFormatText = "Formato incorreto. Use: /ensinar pergunta | resposta"

	thanksPositiveText = "Obrigado pelo feedback! Isso me ajuda a melhorar. 😊"
	thanksNegativeText = "Obrigado pelo feedback. Vou tentar melhorar! 🤔"
)

// Bot runs the Telegram adapter. The update loop is single-flight: each
// update is fully handled before the next one, which is the serialization
// the engine requires.
type Bot struct {
	api    *tgbotapi.BotAPI
	engine *engine.Engine
}

// NewBot creates the Telegram bot.
func NewBot(token string, eng *engine.Engine) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &Bot{api: api, engine: eng}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("telegram: bot authorized", "username", b.api.Self.UserName)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = updateTimeoutSeconds
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleFeedback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(update.Message)
	case update.Message != nil && update.Message.Text != "":
		b.handleText(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.reply(msg.Chat.ID, startText)
	case "ajuda":
		b.reply(msg.Chat.ID, helpText)
	case "ensinar":
		b.handleTeach(msg)
	case "estatisticas":
		b.handleStats(msg)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

func (b *Bot) handleTeach(msg *tgbotapi.Message) {
	pattern, reply, err := engine.ParseTeachInput(msg.CommandArguments())
	if err != nil {
		b.reply(msg.Chat.ID, teachFormatText)
		return
	}

	b.engine.Teach(pattern, reply)
	b.reply(msg.Chat.ID, fmt.Sprintf(
		"Obrigado! Aprendi que quando me perguntarem sobre '%s', devo responder: '%s'",
		pattern, reply,
	))
}

func (b *Bot) handleStats(msg *tgbotapi.Message) {
	report := b.engine.Stats()

	text := fmt.Sprintf(
		"📊 *Estatísticas de Aprendizado*\n\n"+
			"Total de interações: %d\n"+
			"Feedback positivo: %d\n"+
			"Feedback negativo: %d\n"+
			"Última atualização: %s\n\n"+
			"Base de conhecimento: %d itens\n"+
			"Respostas aprendidas: %d padrões",
		report.Interactions,
		report.PositiveFeedback,
		report.NegativeFeedback,
		report.LastUpdated.Format("2006-01-02 15:04:05"),
		report.KnowledgeEntries,
		report.LearnedPatterns,
	)

	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(out); err != nil {
		slog.Error("telegram: failed to send stats", "error", err)
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	reply := b.engine.Respond(ctx, msg.Text, userID)

	out := tgbotapi.NewMessage(msg.Chat.ID, reply.Text)
	out.ReplyMarkup = feedbackKeyboard(msg.MessageID)
	if _, err := b.api.Send(out); err != nil {
		slog.Error("telegram: failed to send reply", "error", err)
	}
}

// feedbackKeyboard builds the 👍/👎 inline keyboard. The callback data
// carries the polarity and the id of the user's message, which is what the
// feedback learner will look up in the conversation log.
func feedbackKeyboard(messageID int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👍",
				fmt.Sprintf("%s_%s_%d", feedbackCallbackPrefix, store.PolarityPositive, messageID)),
			tgbotapi.NewInlineKeyboardButtonData("👎",
				fmt.Sprintf("%s_%s_%d", feedbackCallbackPrefix, store.PolarityNegative, messageID)),
		),
	)
}

func (b *Bot) handleFeedback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		slog.Warn("telegram: failed to answer callback", "error", err)
	}

	parts := strings.SplitN(query.Data, "_", 3)
	if len(parts) < 3 || parts[0] != feedbackCallbackPrefix {
		return
	}
	polarity := store.Polarity(parts[1])
	if !polarity.IsValid() {
		return
	}
	messageID := parts[2]
	userID := strconv.FormatInt(query.From.ID, 10)

	b.engine.RecordFeedback(ctx, messageID, userID, polarity)
	b.engine.LearnFromFeedback(messageID, polarity)

	if query.Message == nil {
		return
	}

	// Strip the keyboard and append the acknowledgement to the reply.
	removeMarkup := tgbotapi.NewEditMessageReplyMarkup(
		query.Message.Chat.ID, query.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	if _, err := b.api.Request(removeMarkup); err != nil {
		slog.Warn("telegram: failed to remove feedback keyboard", "error", err)
	}

	thanks := thanksPositiveText
	if polarity == store.PolarityNegative {
		thanks = thanksNegativeText
	}
	edit := tgbotapi.NewEditMessageText(
		query.Message.Chat.ID, query.Message.MessageID,
		query.Message.Text+"\n\n"+thanks,
	)
	if _, err := b.api.Request(edit); err != nil {
		slog.Warn("telegram: failed to edit reply", "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("telegram: failed to send message", "error", err)
	}
}
