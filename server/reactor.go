package server

import (
	"context"
	stderrors "errors"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/nczempin/httpd-go/errors"
	"github.com/nczempin/httpd-go/protocol"
	"github.com/nczempin/httpd-go/transport"
)

// DefaultBufferSize bounds the single read done per readiness event
const DefaultBufferSize = 1024

// Fixed PollSet positions
const (
	listenerIndex = 0
	wakeIndex     = 1
)

// Options configures a Reactor
type Options struct {
	BufferSize int
	Logger     zerolog.Logger
}

// Stats counts connection outcomes since the reactor started
type Stats struct {
	Accepted     uint64
	Served       uint64
	Rejected     uint64
	Disconnected uint64
	AcceptErrors uint64
	WriteErrors  uint64
}

type counters struct {
	accepted     atomic.Uint64
	served       atomic.Uint64
	rejected     atomic.Uint64
	disconnected atomic.Uint64
	acceptErrors atomic.Uint64
	writeErrors  atomic.Uint64
}

// Reactor multiplexes the listener and all client connections on the
// goroutine that calls Run. Every step after the poll wait runs to
// completion, so a slow file read or a stalled client write holds up
// every other connection.
//
// Each connection gets exactly one read. A request split across several
// segments is parsed from whatever the first read returned.
type Reactor struct {
	listener  *transport.Listener
	transport transport.Transport
	handler   Handler
	log       zerolog.Logger

	pollSet *PollSet
	conns   map[int]*Connection
	buf     []byte

	wakeR, wakeW int
	stats        counters
	closed       bool
}

// New creates a Reactor around an already listening socket
func New(l *transport.Listener, t transport.Transport, h Handler, opts Options) (*Reactor, error) {
	size := opts.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}

	var pipe [2]int
	if err := unix.Pipe2(pipe[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to create wake pipe",
			err,
		)
	}

	return &Reactor{
		listener:  l,
		transport: t,
		handler:   h,
		log:       opts.Logger,
		pollSet:   NewPollSet(l.Fd(), pipe[0]),
		conns:     make(map[int]*Connection),
		buf:       make([]byte, size),
		wakeR:     pipe[0],
		wakeW:     pipe[1],
	}, nil
}

// Run polls until ctx is cancelled. Poll failures are logged and the wait
// is retried.
func (r *Reactor) Run(ctx context.Context) error {
	if r.closed {
		return errors.NewTransportError(
			errors.TransportErrorPollFailure,
			"reactor closed",
			nil,
		)
	}

	stop := context.AfterFunc(ctx, r.wake)
	defer stop()

	for {
		if _, err := r.pollSet.Wait(); err != nil {
			if !stderrors.Is(err, unix.EINTR) {
				r.log.Error().Err(err).Msg("poll failed")
			}
			continue
		}

		if r.pollSet.Ready(wakeIndex) {
			r.drainWake()
			if ctx.Err() != nil {
				return nil
			}
		}

		r.dispatch()
	}
}

// dispatch handles every ready entry of the last wait exactly once.
// Entries appended by accept during the scan are not visited.
func (r *Reactor) dispatch() {
	count := r.pollSet.Len()
	for i := 0; i < count; i++ {
		if !r.pollSet.Ready(i) {
			continue
		}

		switch i {
		case listenerIndex:
			r.accept()
		case wakeIndex:
		default:
			r.serve(i)
		}
	}
	r.pollSet.Compact()
}

func (r *Reactor) accept() {
	fd, peer, err := r.listener.Accept()
	if err != nil {
		r.stats.acceptErrors.Add(1)
		r.log.Error().Err(err).Msg("accept failed")
		return
	}

	conn := &Connection{Fd: fd, Peer: peer, Stage: StageAwaitingData}
	r.conns[fd] = conn
	r.pollSet.Add(fd)
	r.stats.accepted.Add(1)
	r.log.Debug().Int("fd", fd).Str("peer", conn.peerString()).Msg("new connection")
}

func (r *Reactor) serve(i int) {
	fd := r.pollSet.Fd(i)
	conn, ok := r.conns[fd]
	if !ok {
		conn = &Connection{Fd: fd, Stage: StageAwaitingData}
	}

	n, err := r.transport.Read(fd, r.buf)
	if err != nil || n == 0 {
		r.stats.disconnected.Add(1)
		r.log.Debug().Int("fd", fd).Err(err).Msg("peer disconnected")
		r.closeConn(i, conn)
		return
	}

	payload := r.respond(conn, r.buf[:n])
	if _, err := r.transport.Write(fd, payload); err != nil {
		r.stats.writeErrors.Add(1)
		r.log.Error().Err(err).Int("fd", fd).Msg("write failed")
	} else {
		conn.Stage = StageResponseSent
	}
	r.closeConn(i, conn)
}

// respond parses raw and returns the bytes to send back
func (r *Reactor) respond(conn *Connection, raw []byte) []byte {
	req, err := protocol.ParseRequest(raw)
	conn.Stage = StageParsedOrRejected
	if err != nil {
		r.stats.rejected.Add(1)
		r.log.Warn().Err(err).Int("fd", conn.Fd).Str("peer", conn.peerString()).Msg("bad request")
		return protocol.BadRequest()
	}

	resp := r.handler.ServeRequest(req)
	payload := protocol.Serialize(resp)
	r.stats.served.Add(1)
	r.log.Info().
		Int("fd", conn.Fd).
		Str("method", req.Method).
		Str("uri", req.URI).
		Int("status", resp.StatusCode).
		Int("bytes", len(resp.Body)).
		Msg("served")
	return payload
}

func (r *Reactor) closeConn(i int, conn *Connection) {
	if err := r.transport.Close(conn.Fd); err != nil {
		r.log.Error().Err(err).Int("fd", conn.Fd).Msg("close failed")
	}
	r.log.Debug().Int("fd", conn.Fd).Stringer("stage", conn.Stage).Msg("connection closed")
	conn.Stage = StageClosed
	delete(r.conns, conn.Fd)
	r.pollSet.MarkClosed(i)
}

// wake interrupts the poll wait. A full pipe already holds a pending wake.
func (r *Reactor) wake() {
	if _, err := unix.Write(r.wakeW, []byte{1}); err != nil && err != unix.EAGAIN {
		r.log.Debug().Err(err).Int("fd", r.wakeW).Msg("wake failed")
	}
}

func (r *Reactor) drainWake() {
	var buf [64]byte
	for {
		n, err := unix.Read(r.wakeR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Stats returns a snapshot of the counters
func (r *Reactor) Stats() Stats {
	return Stats{
		Accepted:     r.stats.accepted.Load(),
		Served:       r.stats.served.Load(),
		Rejected:     r.stats.rejected.Load(),
		Disconnected: r.stats.disconnected.Load(),
		AcceptErrors: r.stats.acceptErrors.Load(),
		WriteErrors:  r.stats.writeErrors.Load(),
	}
}

// Addr returns the listening address
func (r *Reactor) Addr() string {
	return r.listener.Addr().String()
}

// Close closes the listener, every open connection and the wake pipe.
// It must not be called while Run is executing.
func (r *Reactor) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	if err := r.listener.Close(); err != nil {
		firstErr = err
	}
	for _, fd := range r.pollSet.Fds() {
		if err := r.transport.Close(fd); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.conns, fd)
	}
	unix.Close(r.wakeR)
	unix.Close(r.wakeW)
	return firstErr
}
