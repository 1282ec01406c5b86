package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"surveyor/internal/capture"
	"surveyor/internal/config"
	"surveyor/internal/events"
	"surveyor/internal/game"
	"surveyor/internal/journal"
	"surveyor/internal/log"
	"surveyor/internal/observer"
	"surveyor/internal/routemap"
	"surveyor/internal/survey/parser"
	"surveyor/internal/tailer"
	"surveyor/internal/theme"
	"surveyor/internal/tui"
)

// session is everything one run wires together around the manager.
type session struct {
	cfg     config.Config
	bus     *events.Bus
	manager *game.Manager

	journal *journal.Journal
	capture *capture.Writer

	closers []func()
}

// loadConfig reads the config named by --config and applies --log-level.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	log.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// newSession builds the bus, the manager and the optional journal, capture
// and observer. Nothing is watched until watch is called.
func newSession(ctx context.Context, cfg config.Config) (*session, error) {
	decoder, err := cfg.Decoder()
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, bus: events.NewBus()}

	opts := tailer.Options{
		Prefix:  cfg.LogPattern.Prefix,
		Suffix:  cfg.LogPattern.Suffix,
		Decoder: decoder,
	}
	if cfg.CaptureDir != "" {
		s.capture = capture.NewWriter(cfg.CaptureDir)
		opts.Capture = s.capture
		s.closers = append(s.closers, func() {
			if err := s.capture.Close(); err != nil {
				log.Warn("closing capture", "error", err)
			}
		})
	}

	state := game.NewState()
	config.Apply(cfg, state)
	s.manager = game.NewManager(state, s.bus, opts)
	s.closers = append(s.closers, func() {
		if err := s.manager.Close(); err != nil {
			log.Debug("closing watch", "error", err)
		}
	})

	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.journal = j
		detach := j.Attach(s.bus)
		s.closers = append(s.closers, func() {
			detach()
			if err := j.Close(); err != nil {
				log.Warn("closing journal", "error", err)
			}
		})
		log.Info("journal open", "path", cfg.JournalPath, "session", j.Session())
	}

	if cfg.Observer.Enabled {
		srv := observer.NewServer(s.manager, s.bus)
		obsCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := srv.ListenAndServe(obsCtx, cfg.Observer.Addr); err != nil {
				log.Error("observer stopped", "addr", cfg.Observer.Addr, "error", err)
			}
		}()
		s.closers = append(s.closers, func() {
			cancel()
			<-done
			srv.Close()
		})
	}

	return s, nil
}

// watch starts ingestion from dir, or from the configured directory when dir
// is empty. With neither set it does nothing.
func (s *session) watch(dir string) error {
	if dir == "" {
		dir = s.cfg.LogDirectory
	}
	if dir == "" {
		return nil
	}
	_, err := s.manager.SetLogDirectory(dir)
	return err
}

// Close releases everything in reverse order of creation.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("dir")

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return runHeadless(cmd.Context(), cfg, dir, nil)
	}

	if err := theme.GetThemeManager().SetTheme(cfg.Theme); err != nil {
		log.Warn("unknown theme, keeping default", "theme", cfg.Theme)
	}

	// Keep log lines off the terminal while the UI owns it
	if err := log.SetFileOutput(cfg.DebugLog); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open debug log %s: %v\n", cfg.DebugLog, err)
	}

	s, err := newSession(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	app := tui.NewApplication(s.manager, s.bus, tui.Options{ExportPath: cfg.ExportPath})
	if err := s.watch(dir); err != nil {
		log.Warn("log directory not watched", "error", err)
	}

	go func() {
		<-cmd.Context().Done()
		app.Stop()
	}()

	log.Info("starting surveyor", "version", version)
	return app.Run()
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" && cfg.LogDirectory == "" {
		return errors.New("no log directory: pass --dir or set log_directory")
	}

	var inline *inlineRenderer
	if on, _ := cmd.Flags().GetBool("inline"); on {
		inline = &inlineRenderer{out: cmd.OutOrStdout()}
		inline.cols, _ = cmd.Flags().GetInt("cols")
		inline.rows, _ = cmd.Flags().GetInt("rows")
		inline.dither, _ = cmd.Flags().GetBool("dither")
	}
	return runHeadless(cmd.Context(), cfg, dir, inline)
}

// runHeadless watches until ctx is done. Each state update is printed as one
// JSON line, or as an inline route image when inline is set.
func runHeadless(ctx context.Context, cfg config.Config, dir string, inline *inlineRenderer) error {
	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		outMu   sync.Mutex
		lastSeq uint64
		enc     = json.NewEncoder(os.Stdout)
	)
	printer := func(ev events.Event) {
		u, ok := ev.Data.(events.StateUpdate)
		if !ok {
			return
		}
		outMu.Lock()
		defer outMu.Unlock()
		if u.Seq != 0 {
			if u.Seq <= lastSeq {
				return
			}
			lastSeq = u.Seq
		}
		if err := enc.Encode(u.Payload); err != nil {
			log.Warn("writing state", "error", err)
		}
	}

	if inline != nil {
		inline.manager = s.manager
		inline.wake = make(chan struct{}, 1)
		go inline.loop(ctx)
		printer = func(events.Event) { inline.poke() }
	}

	sub := s.bus.Subscribe(events.StateUpdated, printer)
	defer s.bus.Unsubscribe(events.StateUpdated, sub)

	if err := s.watch(dir); err != nil {
		return err
	}
	printer(events.Event{
		Type: events.StateUpdated,
		Data: events.StateUpdate{Payload: s.manager.GetRenderState()},
	})

	<-ctx.Done()
	return nil
}

// inlineRenderer redraws the route image for the newest state. Updates that
// arrive while a frame is rendering collapse into one.
type inlineRenderer struct {
	out        io.Writer
	cols, rows int
	dither     bool

	manager *game.Manager
	wake    chan struct{}
}

func (r *inlineRenderer) poke() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *inlineRenderer) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
			if err := r.draw(ctx); err != nil {
				log.Warn("inline route render failed", "error", err)
			}
		}
	}
}

func (r *inlineRenderer) draw(ctx context.Context) error {
	pos, zone, surveys, order := r.manager.Snapshot()
	g, err := routemap.Build(pos, surveys, zone, order)
	if err != nil {
		return err
	}
	data, err := routemap.RenderPNG(ctx, g, zone)
	if err != nil {
		return err
	}
	return routemap.Inline(r.out, data, r.cols, r.rows, r.dither)
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("batch"); n > 0 {
		cfg.BatchSize = n
	}
	if z, _ := cmd.Flags().GetString("zone"); z != "" {
		cfg.Zone = z
	}

	state, err := replay(args[0], cfg)
	if err != nil {
		return err
	}
	printRoute(cmd.OutOrStdout(), state)

	if out, _ := cmd.Flags().GetString("png"); out != "" {
		if err := routemap.Export(cmd.Context(), out, state.PlayerPos, state.Surveys, state.Zone, state.PathOrder); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	}
	return nil
}

// replay feeds a whole log file through a fresh state seeded from cfg.
func replay(path string, cfg config.Config) (*game.State, error) {
	decoder, err := cfg.Decoder()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := decoder.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	state := game.NewState()
	config.Apply(cfg, state)
	state.Ingest(parser.SplitLines(text))
	return state, nil
}

func printRoute(w io.Writer, state *game.State) {
	fmt.Fprintf(w, "zone: %s  mode: %s\n", state.Zone, state.Mode)
	if len(state.PathOrder) == 0 {
		fmt.Fprintln(w, state.Project().Summary)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STOP\tSURVEY\tRESOURCE\tOFFSET")
	for stop, idx := range state.PathOrder {
		s := state.Surveys[idx]
		fmt.Fprintf(tw, "%d\t%d\t%s\t%dE %dS\n", stop+1, idx+1, s.Resource, s.DX, s.DY)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d stops, %.0fm\n", len(state.PathOrder), state.RouteLength())
}

func runJournal(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("path")
	if path == "" {
		path = cfg.JournalPath
	}
	if path == "" {
		return errors.New("no journal: pass --path or set journal_path")
	}

	j, err := journal.OpenReadOnly(path)
	if err != nil {
		return err
	}
	defer j.Close()

	rows, err := j.Summary()
	if err != nil {
		return err
	}
	sessions, err := j.SessionCount()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tCOMMITTED\tCOLLECTED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", r.Resource, r.Committed, r.Collected)
	}
	tw.Flush()
	fmt.Fprintf(out, "%d sessions\n", sessions)
	return nil
}
