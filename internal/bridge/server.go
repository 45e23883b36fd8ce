// Package bridge exposes import and export to a UI over a websocket, one
// JSON message per frame.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"design-localizer/internal/export"
	"design-localizer/internal/importer"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Importer is the import surface the bridge drives.
type Importer interface {
	Run(ctx context.Context, raw string) (*importer.Report, error)
	SetSink(s importer.Sink)
}

// Exporter is the export surface the bridge drives.
type Exporter interface {
	Scan(ctx context.Context) []export.Candidate
	Export(ctx context.Context, ids []string) (*export.Result, error)
}

// Server accepts UI sessions. Commands from all sessions share one lane:
// the document must never see two commands at once.
type Server struct {
	importer  Importer
	exporter  Exporter
	outputDir string
	upgrader  websocket.Upgrader

	lane    sync.Mutex
	onClose func()
	// ReportHook, when set, receives every finished import report.
	ReportHook func(ctx context.Context, r *importer.Report)
}

// NewServer creates a server. Exported assets are written to outputDir.
func NewServer(im Importer, ex Exporter, outputDir string) *Server {
	return &Server{
		importer:  im,
		exporter:  ex,
		outputDir: outputDir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			// The UI is served from a plugin sandbox with an opaque origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// OnClose registers fn to run when a UI sends the close command.
func (s *Server) OnClose(fn func()) {
	s.onClose = fn
}

// Wait blocks until the command in progress, if any, has finished.
func (s *Server) Wait() {
	s.lane.Lock()
	defer s.lane.Unlock()
}

// ListenAndServe serves the bridge on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Bridge listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve bridge: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown bridge: %w", err)
		}
		return nil
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	sess := &session{server: s, conn: conn}
	sess.serve(r.Context())
}

type session struct {
	server  *Server
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (ss *session) send(msg Outbound) {
	ss.writeMu.Lock()
	defer ss.writeMu.Unlock()
	if err := ss.conn.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Str("event", string(msg.Event)).Msg("Failed to send event")
	}
}

func (ss *session) fail(err error) {
	ss.send(Outbound{Event: EventError, Message: err.Error()})
}

// serve reads commands on one goroutine and runs them on another, so a
// close arriving mid-run cancels the run instead of waiting behind it.
func (ss *session) serve(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer ss.conn.Close()
	// Unblocks the reader when the server shuts down.
	stop := context.AfterFunc(ctx, func() { ss.conn.Close() })
	defer stop()

	log.Info().Str("remote", ss.conn.RemoteAddr().String()).Msg("UI connected")

	cmds := make(chan Inbound)
	closed := false
	go func() {
		defer close(cmds)
		for {
			_, data, err := ss.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug().Err(err).Msg("Websocket read ended")
				}
				cancel()
				return
			}
			var in Inbound
			if err := json.Unmarshal(data, &in); err != nil {
				ss.fail(fmt.Errorf("decode message: %w", err))
				continue
			}
			if in.Command == CommandClose {
				closed = true
				cancel()
				return
			}
			select {
			case cmds <- in:
			case <-ctx.Done():
				return
			}
		}
	}()

	for in := range cmds {
		ss.server.lane.Lock()
		ss.handle(ctx, in)
		ss.server.lane.Unlock()
	}

	log.Info().Bool("close_command", closed).Msg("UI disconnected")
	if closed && ss.server.onClose != nil {
		ss.server.onClose()
	}
}

func (ss *session) handle(ctx context.Context, in Inbound) {
	log.Debug().Str("command", string(in.Command)).Msg("Handling command")

	switch in.Command {
	case CommandImport:
		raw, err := csvPayload(in.Payload)
		if err != nil {
			ss.fail(err)
			return
		}
		ss.server.importer.SetSink(importer.SinkFunc(func(message string, pct int) {
			ss.send(Outbound{Event: EventProgress, Message: message, PercentComplete: pct})
		}))
		defer ss.server.importer.SetSink(nil)

		report, err := ss.server.importer.Run(ctx, raw)
		if err != nil {
			ss.fail(err)
			return
		}
		if hook := ss.server.ReportHook; hook != nil {
			hook(context.WithoutCancel(ctx), report)
		}
		ss.send(Outbound{Event: EventCompleted, Message: report.Summary(), Summary: report})

	case CommandScan:
		ss.send(Outbound{Event: EventProgress, Message: "Scanning frames", PercentComplete: 10})
		cands := ss.server.exporter.Scan(ctx)
		ss.send(Outbound{
			Event:   EventCompleted,
			Message: fmt.Sprintf("%d exportable assets found", len(cands)),
			Summary: cands,
		})

	case CommandExport:
		ids, err := selectionPayload(in.Payload)
		if err != nil {
			ss.fail(err)
			return
		}
		res, err := ss.server.exporter.Export(ctx, ids)
		if err != nil {
			if errors.Is(err, export.ErrNothingToExport) {
				log.Warn().Strs("ids", ids).Msg("Nothing to export")
			}
			ss.fail(err)
			return
		}
		if ss.server.outputDir != "" {
			if err := export.Save(ss.server.outputDir, res.Assets); err != nil {
				ss.fail(err)
				return
			}
		}
		ss.send(Outbound{
			Event:   EventCompleted,
			Message: fmt.Sprintf("%d assets exported, %d skipped", len(res.Assets), len(res.Skipped)),
			Summary: res,
		})

	default:
		ss.fail(fmt.Errorf("unknown command %q", in.Command))
	}
}
