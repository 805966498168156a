package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tb "gopkg.in/tucnak/telebot.v2"
)

// Message is an incoming telegram message.
type Message struct {
	ChatID   int64
	Username string
	Text     string
	Payload  string
}

type Bot struct {
	bot  *tb.Bot
	log  zerolog.Logger
	boot time.Time
}

// New creates the bot. Every request to the telegram api is bounded by
// timeout.
func New(log zerolog.Logger, token string, transport Transport, timeout time.Duration) (*Bot, error) {
	poller, err := transport.poller()
	if err != nil {
		return nil, fmt.Errorf("telegram: invalid transport: %w", err)
	}
	b, err := tb.NewBot(tb.Settings{
		Token:  token,
		Poller: poller,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: couldn't create bot: %w", err)
	}
	return &Bot{
		bot:  b,
		log:  log.With().Str("component", "telegram").Str("transport", transport.String()).Logger(),
		boot: time.Now(),
	}, nil
}

// HandleCommand registers a handler for /command. Messages sent before the
// bot booted are ignored.
func (b *Bot) HandleCommand(command string, handler func(Message)) {
	b.bot.Handle(fmt.Sprintf("/%s", strings.TrimPrefix(command, "/")), b.wrap(handler))
}

// HandleText registers a handler for any text that isn't a known command.
func (b *Bot) HandleText(handler func(Message)) {
	b.bot.Handle(tb.OnText, b.wrap(handler))
}

func (b *Bot) wrap(handler func(Message)) func(*tb.Message) {
	return func(m *tb.Message) {
		if m.Time().Before(b.boot) {
			return
		}
		msg := Message{
			ChatID:  m.Chat.ID,
			Text:    m.Text,
			Payload: m.Payload,
		}
		if m.Sender != nil {
			msg.Username = m.Sender.Username
		}
		handler(msg)
	}
}

// Reply answers to the chat of m. Errors are logged.
func (b *Bot) Reply(m Message, text string) {
	if _, err := b.bot.Send(&tb.Chat{ID: m.ChatID}, text); err != nil {
		b.log.Warn().Err(err).Int64("chat", m.ChatID).Msg("couldn't reply")
	}
}

// Send sends text to a chat. It returns when the message has been sent or
// ctx is done.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) error {
	errc := make(chan error, 1)
	go func() {
		_, err := b.bot.Send(&tb.Chat{ID: chatID}, text)
		errc <- err
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("telegram: couldn't send to %d: %w", chatID, ctx.Err())
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("telegram: couldn't send to %d: %w", chatID, err)
		}
		return nil
	}
}

// Run receives updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	go b.bot.Start()
	defer b.bot.Stop()
	b.log.Info().Str("bot", b.bot.Me.Username).Msg("telegram bot started")
	<-ctx.Done()
	return nil
}
