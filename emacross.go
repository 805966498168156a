package emacross

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/igolaizola/emacross/pkg/engine"
	"github.com/igolaizola/emacross/pkg/logging"
	"github.com/igolaizola/emacross/pkg/market"
	"github.com/igolaizola/emacross/pkg/market/binance"
	"github.com/igolaizola/emacross/pkg/metrics"
	"github.com/igolaizola/emacross/pkg/notify"
	"github.com/igolaizola/emacross/pkg/stream"
	"github.com/igolaizola/emacross/pkg/subscriber"
	"github.com/igolaizola/emacross/pkg/subscriber/store"
	"github.com/igolaizola/emacross/pkg/telegram"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var version = "v211019a"

type Config struct {
	Engine engine.Config

	Mode           string
	WebhookListen  string
	WebhookURL     string
	TelegramToken  string
	ExchangeKey    string
	ExchangeSecret string

	Store string
	DB    string
	// HTTP is the listen address for /metrics and /ws, empty disables it.
	HTTP        string
	SendTimeout time.Duration
	LogLevel    string
	Dry         bool
	Debug       bool
}

// chat is the subset of the telegram bot used by Bot.
type chat interface {
	HandleCommand(command string, handler func(telegram.Message))
	HandleText(handler func(telegram.Message))
	Reply(m telegram.Message, text string)
	Send(ctx context.Context, chatID int64, text string) error
	Run(ctx context.Context) error
}

type Bot struct {
	chat     chat
	engine   *engine.Engine
	registry subscriber.Registry
	log      zerolog.Logger
	http     *http.Server
	now      func() time.Time
	dry      bool
}

func NewBot(cfg Config) (*Bot, error) {
	log := logging.New(cfg.LogLevel, cfg.Debug)
	if cfg.SendTimeout <= 0 || cfg.SendTimeout >= cfg.Engine.Interval {
		return nil, fmt.Errorf("emacross: send timeout %s must be positive and lower than interval %s", cfg.SendTimeout, cfg.Engine.Interval)
	}
	transport, err := telegram.NewTransport(cfg.Mode, cfg.WebhookListen, cfg.WebhookURL)
	if err != nil {
		return nil, fmt.Errorf("emacross: couldn't select transport: %w", err)
	}
	tgbot, err := telegram.New(log, cfg.TelegramToken, transport, cfg.SendTimeout)
	if err != nil {
		return nil, fmt.Errorf("emacross: couldn't create telegram bot: %w", err)
	}
	reg, err := store.New(cfg.Store, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("emacross: couldn't open subscriber store: %w", err)
	}
	src := binance.New(log, cfg.ExchangeKey, cfg.ExchangeSecret, cfg.Engine.FetchTimeout, cfg.Debug)
	b, err := newBot(log, cfg, tgbot, src, reg)
	if err != nil {
		reg.Close()
		return nil, err
	}
	return b, nil
}

func newBot(log zerolog.Logger, cfg Config, c chat, src market.Source, reg subscriber.Registry) (*Bot, error) {
	m := metrics.New()
	var sender notify.Sender = c
	if cfg.Dry {
		sender = notify.LogSender{Log: log}
	}
	dispatcher := notify.New(log, m, reg, sender, cfg.SendTimeout)
	hub := stream.NewHub(log, m)
	eng, err := engine.New(log, m, cfg.Engine, src, dispatcher, hub)
	if err != nil {
		return nil, fmt.Errorf("emacross: couldn't create engine: %w", err)
	}
	b := &Bot{
		chat:     c,
		engine:   eng,
		registry: reg,
		log:      log,
		now:      time.Now,
		dry:      cfg.Dry,
	}
	if cfg.HTTP != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.Handle("/ws", hub)
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintln(w, "ok")
		})
		b.http = &http.Server{Addr: cfg.HTTP, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	}

	c.HandleCommand("start", b.start)
	c.HandleCommand("exit", b.exit)
	c.HandleCommand("price", b.price)
	c.HandleCommand("status", b.status)
	c.HandleCommand("help", b.help)
	c.HandleText(func(m telegram.Message) {
		b.log.Info().Int64("chat", m.ChatID).Msg("echo")
		c.Reply(m, m.Text)
	})
	return b, nil
}

// Run starts the chat transport, the engine and the http server and blocks
// until ctx is done or one of them fails.
func (b *Bot) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer b.registry.Close()

	b.log.Info().Str("version", version).Bool("dry", b.dry).Msg("🤖 emacross bot running")
	defer b.log.Info().Msg("🛑 emacross bot stopped")

	runs := []func(context.Context) error{b.chat.Run, b.engine.Run}
	if b.http != nil {
		runs = append(runs, b.serve)
	}
	errc := make(chan error, len(runs))
	for _, run := range runs {
		run := run
		go func() {
			errc <- run(ctx)
		}()
	}
	var err error
	for range runs {
		if e := <-errc; e != nil && err == nil {
			err = e
		}
		cancel()
	}
	return err
}

func (b *Bot) serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		b.log.Info().Str("addr", b.http.Addr).Msg("http server listening")
		errc <- b.http.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return fmt.Errorf("emacross: http server failed: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.http.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("emacross: couldn't shutdown http server: %w", err)
	}
	return nil
}

func (b *Bot) start(m telegram.Message) {
	b.log.Info().Int64("chat", m.ChatID).Str("user", m.Username).Msg("user started bot")
	sub := subscriber.Subscriber{ID: m.ChatID, Name: m.Username, Since: b.now().UTC()}
	if err := b.registry.Add(context.Background(), sub); err != nil {
		b.log.Error().Err(err).Int64("chat", m.ChatID).Msg("couldn't add subscriber")
		b.chat.Reply(m, "Couldn't subscribe, try again later")
		return
	}
	b.chat.Reply(m, "Welcome to the bot")
}

func (b *Bot) exit(m telegram.Message) {
	b.log.Info().Int64("chat", m.ChatID).Str("user", m.Username).Msg("user exited")
	if err := b.registry.Remove(context.Background(), m.ChatID); err != nil {
		b.log.Error().Err(err).Int64("chat", m.ChatID).Msg("couldn't remove subscriber")
		b.chat.Reply(m, "Couldn't unsubscribe, try again later")
		return
	}
	b.chat.Reply(m, "Goodbye")
}

func (b *Bot) price(m telegram.Message) {
	sb := &strings.Builder{}
	for _, p := range b.engine.Prices(context.Background()) {
		if p.Err != nil {
			fmt.Fprintf(sb, "%s Last Price : unavailable\n", p.Symbol)
			continue
		}
		fmt.Fprintf(sb, "%s Last Price : %s\n", p.Symbol, decimal.NewFromFloat(p.Price).StringFixed(2))
	}
	b.log.Info().Int64("chat", m.ChatID).Msg("price requested")
	b.chat.Reply(m, strings.TrimSuffix(sb.String(), "\n"))
}

func (b *Bot) status(m telegram.Message) {
	sb := &strings.Builder{}
	for _, s := range b.engine.Status() {
		switch {
		case s.Checked.IsZero():
			fmt.Fprintf(sb, "%s: %s, not checked yet\n", s.Symbol, s.State)
		case s.Err != nil:
			fmt.Fprintf(sb, "%s: %s, last check failed (%s) %s\n", s.Symbol, s.State, engine.Cause(s.Err), s.Checked.UTC().Format(time.RFC3339))
		default:
			fmt.Fprintf(sb, "%s: %s, last price %s %s\n", s.Symbol, s.State, decimal.NewFromFloat(s.Price).StringFixed(2), s.Checked.UTC().Format(time.RFC3339))
		}
	}
	b.chat.Reply(m, strings.TrimSuffix(sb.String(), "\n"))
}

func (b *Bot) help(m telegram.Message) {
	b.log.Info().Int64("chat", m.ChatID).Msg("user needs help")
	b.chat.Reply(m, strings.Join([]string{
		"/start - receive EMA crossover notifications",
		"/exit - stop receiving notifications",
		"/price - last price of watched symbols",
		"/status - crossover state of watched symbols",
		"/help - show this help",
	}, "\n"))
}
