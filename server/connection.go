package server

import "net"

// Stage is the lifecycle position of a Connection
type Stage int

const (
	StageAwaitingData Stage = iota
	StageParsedOrRejected
	StageResponseSent
	StageClosed
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingData:
		return "awaiting-data"
	case StageParsedOrRejected:
		return "parsed-or-rejected"
	case StageResponseSent:
		return "response-sent"
	case StageClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is one accepted client socket. It serves a single request.
type Connection struct {
	Fd    int
	Peer  net.Addr
	Stage Stage
}

func (c *Connection) peerString() string {
	if c.Peer == nil {
		return "?"
	}
	return c.Peer.String()
}
