package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/igolaizola/emacross"
	"github.com/igolaizola/emacross/pkg/engine"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/peterbourgon/ff/v3/ffyaml"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatal(err)
	}

	// Create signal based context
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-c:
			cancel()
		case <-ctx.Done():
			cancel()
		}
		signal.Stop(c)
	}()

	// Launch command
	cmd := newCommand()
	if err := cmd.ParseAndRun(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *ffcli.Command {
	fs := flag.NewFlagSet("emacross", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "emacross [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newRunCommand(),
		},
	}
}

func newRunCommand() *ffcli.Command {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	config := fs.String("config", "", "config file, plain or yaml by extension (optional)")

	defaults := engine.DefaultConfig()
	mode := fs.String("mode", "", "telegram transport: polling or webhook")
	token := fs.String("telegram-token", "", "telegram token")
	listen := fs.String("webhook-listen", "0.0.0.0:8443", "webhook listen address")
	webhookURL := fs.String("webhook-url", "", "webhook public url")
	key := fs.String("exchange-key", "", "binance api key (optional)")
	secret := fs.String("exchange-secret", "", "binance api secret (optional)")
	symbols := fs.String("symbols", strings.Join(defaults.Symbols, ","), "comma separated symbols to watch")
	short := fs.Int("ema-short", defaults.Short, "short ema period")
	long := fs.Int("ema-long", defaults.Long, "long ema period")
	interval := fs.Duration("interval", defaults.Interval, "interval between checks")
	delay := fs.Duration("delay", defaults.Delay, "delay before the first check")
	candle := fs.String("candle", defaults.Candle, "candle interval")
	lookback := fs.Duration("lookback", defaults.Lookback, "price history used for crossover checks")
	priceLookback := fs.Duration("price-lookback", defaults.PriceLookback, "price history used for price queries")
	fetchTimeout := fs.Duration("fetch-timeout", defaults.FetchTimeout, "market data request timeout")
	sendTimeout := fs.Duration("send-timeout", 10*time.Second, "telegram request timeout")
	st := fs.String("store", "bolt", "subscriber store: bolt, redis, sqlite or memory")
	db := fs.String("db", "emacross.db", "database path or redis url")
	httpAddr := fs.String("http", "", "listen address for /metrics and /ws (optional)")
	logLevel := fs.String("log-level", "info", "log level")
	dry := fs.Bool("dry", false, "log notifications instead of sending them")
	debug := fs.Bool("debug", false, "enable debug mode")

	return &ffcli.Command{
		Name:       "run",
		ShortUsage: "emacross run [flags]",
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(func(r io.Reader, set func(name, value string) error) error {
				switch strings.ToLower(filepath.Ext(*config)) {
				case ".yaml", ".yml":
					return ffyaml.Parser(r, set)
				default:
					return ff.PlainParser(r, set)
				}
			}),
			ff.WithEnvVarPrefix("EMACROSS"),
		},
		ShortHelp: "run emacross bot",
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			if *mode == "" {
				return errors.New("no mode specified (polling or webhook)")
			}
			if *token == "" {
				return errors.New("missing telegram token")
			}
			if *st != "memory" && *db == "" {
				return errors.New("missing db")
			}
			var syms []string
			for _, s := range strings.Split(*symbols, ",") {
				s = strings.ToUpper(strings.TrimSpace(s))
				if s != "" {
					syms = append(syms, s)
				}
			}
			if len(syms) == 0 {
				return errors.New("missing symbols")
			}
			bot, err := emacross.NewBot(emacross.Config{
				Engine: engine.Config{
					Symbols:       syms,
					Short:         *short,
					Long:          *long,
					Interval:      *interval,
					Delay:         *delay,
					Candle:        *candle,
					Lookback:      *lookback,
					PriceLookback: *priceLookback,
					FetchTimeout:  *fetchTimeout,
				},
				Mode:           *mode,
				WebhookListen:  *listen,
				WebhookURL:     *webhookURL,
				TelegramToken:  *token,
				ExchangeKey:    *key,
				ExchangeSecret: *secret,
				Store:          *st,
				DB:             *db,
				HTTP:           *httpAddr,
				SendTimeout:    *sendTimeout,
				LogLevel:       *logLevel,
				Dry:            *dry,
				Debug:          *debug,
			})
			if err != nil {
				return err
			}
			return bot.Run(ctx)
		},
	}
}
