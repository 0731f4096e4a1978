package run

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"earshot/internal/config"
	"earshot/internal/control"
	"earshot/internal/engine"
	"earshot/internal/sink"
	"earshot/pkg/speech"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// Server owns the recognition session, sink dispatch, metrics, and the
// control socket.
type Server struct {
	cfg       *config.Config
	logger    *logrus.Logger
	session   *speech.Session
	dispatch  *sink.Dispatcher
	metrics   *metrics
	startedAt time.Time

	transcriptsMu sync.Mutex
	transcripts   []control.Transcript

	unsubscribe []func()
}

// NewServer wraps eng in a session configured from cfg and subscribes to all
// of its events.
func NewServer(cfg *config.Config, logger *logrus.Logger, eng speech.Engine, sinks []sink.Sink) *Server {
	s := &Server{
		cfg:         cfg,
		logger:      logger,
		metrics:     newMetrics(),
		startedAt:   time.Now(),
		transcripts: make([]control.Transcript, 0, max(cfg.UI.StatusTail, 0)),
	}
	s.dispatch = sink.NewDispatcher(cfg.Dispatch.Workers, sinks, logger, s.metrics.observeDelivery)
	s.session = speech.NewSession(eng, cfg.SessionOptions(), speech.WithLogger(logger))
	s.unsubscribe = []func(){
		s.session.On(speech.EventStart, s.onStart),
		s.session.On(speech.EventFinalResult, s.onFinal),
		s.session.On(speech.EventInterimResult, s.onInterim),
		s.session.On(speech.EventError, s.onError),
		s.session.On(speech.EventEnd, s.onEnd),
	}
	return s
}

func (s *Server) Session() *speech.Session { return s.session }

// Close stops the session, detaches from it, and drains pending deliveries.
func (s *Server) Close() {
	if err := s.session.Stop(); err != nil {
		s.logger.Warnf("stop session: %v", err)
	}
	for _, off := range s.unsubscribe {
		off()
	}
	s.dispatch.Close()
}

// Serve runs the daemon until interrupted.
func Serve(cfg *config.Config, logger *logrus.Logger) error {
	if err := config.MustStatePaths(cfg); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Paths.PidPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(cfg.Paths.PidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("remove pid file: %v", err)
		}
	}()
	if err := os.Remove(cfg.Paths.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debugf("remove stale socket: %v", err)
	}

	eng, closeEngine, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("engine %s: %w", cfg.Engine.Kind, err)
	}
	defer func() {
		if err := closeEngine(); err != nil {
			logger.Warnf("close engine: %v", err)
		}
	}()
	sinks, closeSinks := BuildSinks(cfg, logger)
	defer closeSinks()

	srv := NewServer(cfg, logger, eng, sinks)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("unix", cfg.Paths.SocketPath)
	if err != nil {
		return fmt.Errorf("control listen: %w", err)
	}
	go srv.controlLoop(ctx, ln)

	if cfg.Metrics.Enabled {
		go srv.metrics.serve(ctx, cfg.Metrics.Addr, logger)
	}

	logger.WithField("engine", cfg.Engine.Kind).Info("starting session")
	if err := srv.session.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	s := <-sigCh
	logger.Infof("received signal %s, shutting down", s)
	return nil
}

func (s *Server) onStart(speech.Event) {
	s.metrics.sessionsStarted.Inc()
	s.metrics.active.Set(1)
	s.logger.Info("listening")
}

func (s *Server) onEnd(speech.Event) {
	s.metrics.sessionsEnded.Inc()
	s.metrics.active.Set(0)
	s.logger.Info("session ended")
}

func (s *Server) onError(e speech.Event) {
	s.metrics.engineErrors.Inc()
	s.logger.WithError(e.Err).Warn("engine error")
}

func (s *Server) onInterim(e speech.Event) {
	s.metrics.results.WithLabelValues("interim").Inc()
	s.logger.Debugf("interim: %q", e.Transcript)
	s.dispatch.Dispatch(sink.NewTranscript(e.SessionID, e.Transcript, false, e.Time))
}

func (s *Server) onFinal(e speech.Event) {
	s.metrics.results.WithLabelValues("final").Inc()
	s.logger.Infof("heard: %q", e.Transcript)
	s.recordTranscript(e)
	s.dispatch.Dispatch(sink.NewTranscript(e.SessionID, e.Transcript, true, e.Time))
}

func (s *Server) recordTranscript(e speech.Event) {
	entry := control.Transcript{
		SessionID: e.SessionID,
		Text:      e.Transcript,
		Timestamp: e.Time,
	}
	s.transcriptsMu.Lock()
	s.transcripts = append(s.transcripts, entry)
	if tail := max(s.cfg.UI.StatusTail, 0); len(s.transcripts) > tail {
		s.transcripts = s.transcripts[len(s.transcripts)-tail:]
	}
	s.transcriptsMu.Unlock()

	if !s.cfg.Transcripts.Enabled {
		return
	}
	f, err := os.OpenFile(s.cfg.Paths.TranscriptPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.logger.Warnf("open transcript file: %v", err)
		return
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s\t%s\n", entry.Timestamp.Format(time.RFC3339), entry.Text); err != nil {
		s.logger.Warnf("write transcript: %v", err)
	}
}

func (s *Server) controlLoop(ctx context.Context, ln net.Listener) {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Errorf("control accept: %v", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil && ctx.Err() == nil {
			s.logger.Warnf("control connection close: %v", err)
		}
	}()
	sc := bufio.NewScanner(conn)
	if !sc.Scan() {
		return
	}
	var req control.Request
	if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
		_ = json.NewEncoder(conn).Encode(control.SimpleResponse{Message: "bad request: " + err.Error()})
		return
	}
	if err := json.NewEncoder(conn).Encode(s.Handle(req)); err != nil {
		s.logger.Warnf("control reply: %v", err)
	}
}

// Handle answers one control request.
func (s *Server) Handle(req control.Request) any {
	switch req.Op {
	case control.OpStatus:
		return s.Status()
	case control.OpHealth:
		return control.SimpleResponse{OK: true, Message: "ok"}
	case control.OpStart:
		return result(s.session.Start(), "start requested")
	case control.OpStop:
		return result(s.session.Stop(), "stop requested")
	default:
		return control.SimpleResponse{Message: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

func result(err error, okMsg string) control.SimpleResponse {
	if err != nil {
		return control.SimpleResponse{Message: err.Error()}
	}
	return control.SimpleResponse{OK: true, Message: okMsg}
}

func (s *Server) Status() control.Status {
	return control.Status{
		Running:     true,
		UptimeSec:   time.Since(s.startedAt).Seconds(),
		Engine:      s.cfg.Engine.Kind,
		Session:     s.session.Snapshot(),
		Sinks:       s.dispatch.Sinks(),
		Pending:     s.dispatch.Pending(),
		Transcripts: s.copyTranscripts(),
	}
}

func (s *Server) copyTranscripts() []control.Transcript {
	s.transcriptsMu.Lock()
	defer s.transcriptsMu.Unlock()
	out := make([]control.Transcript, len(s.transcripts))
	copy(out, s.transcripts)
	return out
}
