package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brianly1003/phxstream/internal/config"
	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
	"github.com/brianly1003/phxstream/internal/hub"
	"github.com/brianly1003/phxstream/internal/output"
	"github.com/brianly1003/phxstream/internal/recorder"
	"github.com/brianly1003/phxstream/internal/socket"
	"github.com/brianly1003/phxstream/internal/transport"
)

var tailStdin bool

// tailCmd streams a socket's traffic to stdout.
var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Join channels and stream their messages",
	Long: `Connect to a Phoenix socket, join the configured topics and print
every message, socket status transition and join reply as it arrives.

Demand bounds how many elements each stream delivers; replenish adds to the
demand after every element. A demand of 0 is unlimited.

Examples:
  phxstream tail --url wss://example.com/socket --topic room:lobby
  phxstream tail --url http://localhost:4000/socket --topic room:1 --event new_msg
  phxstream tail --topic room:1 --demand 10 --format text
  phxstream tail --stdin < frames.log       # read server frames from stdin`,
	RunE: runTail,
}

func init() {
	f := tailCmd.Flags()
	f.String("url", "", "socket URL (ws, wss, http or https)")
	f.StringSlice("topic", nil, "topic to join (repeatable)")
	f.StringSlice("event", nil, "only stream these channel events (repeatable)")
	f.Int("demand", 0, "initial demand per stream (0 = unlimited)")
	f.Int("replenish", 0, "demand added after each element")
	f.String("format", "", "output format: json, yaml or text")
	f.StringSlice("type", nil, "only print these record types (repeatable)")
	f.Bool("record", false, "record to the SQLite database")
	f.BoolVar(&tailStdin, "stdin", false, "read server frames from stdin instead of dialing")
}

// tailFlags maps tail flags to config keys.
var tailFlags = map[string]string{
	"url":       "socket.url",
	"topic":     "stream.topics",
	"event":     "stream.events",
	"demand":    "stream.demand",
	"replenish": "stream.replenish",
	"format":    "output.format",
	"type":      "output.types",
	"record":    "recorder.enabled",
}

func runTail(cmd *cobra.Command, args []string) error {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	for flag, key := range tailFlags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Socket.URL == "" && !tailStdin {
		return fmt.Errorf("no socket url: set socket.url, PHXSTREAM_SOCKET_URL or --url")
	}

	setupLogging(cfg)
	watchLogLevel(v)

	h := hub.New()
	if err := h.Start(); err != nil {
		return err
	}
	defer h.Stop()

	if err := subscribeOutputs(h, cfg); err != nil {
		return err
	}

	sock := socket.New(newDialer(cfg),
		socket.WithVSN(cfg.Socket.VSN),
		socket.WithDefaultTimeout(cfg.Socket.RequestTimeout),
		socket.WithHeartbeatInterval(cfg.Socket.HeartbeatInterval),
	)

	p := newPipeline(sock, h, cfg.Stream)
	p.attach()
	defer p.cancel()

	log.Info().
		Str("version", version).
		Str("url", cfg.Socket.URL).
		Strs("topics", cfg.Stream.Topics).
		Msg("starting phxstream")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := sock.Connect(ctx); err != nil {
		return err
	}
	p.join()

	select {
	case <-ctx.Done():
		p.leave()
		disconnect(sock, cfg.Socket.WriteTimeout)
	case <-sock.Done():
		log.Info().Msg("socket closed by peer")
	}

	log.Info().Msg("phxstream stopped")
	return nil
}

// disconnect closes the socket, giving up after timeout when the read loop is
// stuck in a blocking read such as an idle stdin.
func disconnect(sock *socket.Socket, timeout time.Duration) {
	errc := make(chan error, 1)
	go func() { errc <- sock.Disconnect() }()

	select {
	case err := <-errc:
		if err != nil {
			log.Debug().Err(err).Msg("disconnect")
		}
	case <-time.After(timeout):
		log.Warn().Dur("timeout", timeout).Msg("socket did not close in time")
	}
}

// newDialer returns a dialer for the configured endpoint, or one reading
// frames from stdin and writing outgoing frames to stderr.
func newDialer(cfg *config.Config) socket.Dialer {
	if tailStdin {
		return func(context.Context) (transport.Transport, error) {
			return transport.NewStdioTransportWithIO(os.Stdin, os.Stderr), nil
		}
	}

	return func(ctx context.Context) (transport.Transport, error) {
		endpoint, err := socket.EndpointURL(cfg.Socket.URL, cfg.Socket.VSN, cfg.Socket.Params)
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(ctx, cfg.Socket.ConnectTimeout)
		defer cancel()

		log.Debug().Str("endpoint", endpoint).Msg("dialing")
		tr, err := transport.Dial(ctx, endpoint, nil,
			transport.WithReadTimeout(cfg.Socket.ReadTimeout),
			transport.WithWriteTimeout(cfg.Socket.WriteTimeout),
		)
		if err != nil {
			return nil, err
		}
		return tr, nil
	}
}

// subscribeOutputs adds the stdout printer, a debug log of every record and,
// when enabled, the recorder.
func subscribeOutputs(h ports.EventHub, cfg *config.Config) error {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	var printer ports.Subscriber = output.NewPrinter("stdout", os.Stdout, format)
	if len(cfg.Output.Types) > 0 {
		filtered := hub.NewFilteredSubscriber(printer)
		for _, t := range cfg.Output.Types {
			filtered.AllowType(events.EventType(t))
		}
		printer = filtered
	}
	h.Subscribe(printer)

	h.Subscribe(hub.NewLogSubscriber("log", func(e events.Event) {
		log.Debug().Str("type", string(e.Type())).Str("topic", e.GetTopic()).Msg("record dispatched")
	}))

	if cfg.Recorder.Enabled {
		rec, err := recorder.Open(cfg.Recorder.Path)
		if err != nil {
			return fmt.Errorf("failed to open recorder: %w", err)
		}
		h.Subscribe(rec)
		log.Info().Str("path", rec.Path()).Msg("recording")
	}

	return nil
}

// watchLogLevel re-applies logging.level whenever the config file changes.
func watchLogLevel(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		level := v.GetString("logging.level")
		applyLogLevel(level)
		log.Info().Str("file", e.Name).Str("level", level).Msg("config changed")
	})
	v.WatchConfig()
}
