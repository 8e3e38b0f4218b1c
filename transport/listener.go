package transport

import (
	"fmt"
	"net"
	"strconv"

	sockaddrnet "github.com/libp2p/go-sockaddr/net"
	"golang.org/x/sys/unix"

	"github.com/nczempin/httpd-go/errors"
)

// Listener is a non-blocking listening TCP socket
type Listener struct {
	fd   int
	addr *net.TCPAddr
}

// Listen creates a non-blocking socket bound to host:port and starts listening
func Listen(host string, port int, backlog int) (*Listener, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			fmt.Sprintf("failed to resolve %s", addr),
			err,
		)
	}
	if tcpAddr.IP == nil {
		tcpAddr.IP = net.IPv4zero
	}

	sa := sockaddrnet.NetAddrToSockaddr(tcpAddr)
	if sa == nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			fmt.Sprintf("unsupported address %s", addr),
			nil,
		)
	}

	fd, err := unix.Socket(sockaddrnet.NetAddrAF(tcpAddr), unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to create socket",
			err,
		)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketOptionFailure,
			"failed to set SO_REUSEADDR",
			err,
		)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketOptionFailure,
			"failed to set non-blocking mode",
			err,
		)
	}

	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketBindFailure,
			fmt.Sprintf("failed to bind %s", addr),
			err,
		)
	}

	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketListenFailure,
			fmt.Sprintf("failed to listen on %s", addr),
			err,
		)
	}

	// port 0 is resolved by the kernel
	local := tcpAddr
	if bound, err := unix.Getsockname(fd); err == nil {
		if a := sockaddrnet.SockaddrToTCPAddr(bound); a != nil {
			local = a
		}
	}

	return &Listener{fd: fd, addr: local}, nil
}

// Fd returns the listening descriptor, or -1 once closed
func (l *Listener) Fd() int {
	return l.fd
}

// Addr returns the bound local address
func (l *Listener) Addr() net.Addr {
	return l.addr
}

// Accept takes one pending connection and makes it non-blocking.
// The returned peer is nil when the address family is not TCP.
func (l *Listener) Accept() (int, net.Addr, error) {
	if l.fd < 0 {
		return -1, nil, errors.NewTransportError(
			errors.TransportErrorSocketAcceptFailure,
			"listener closed",
			nil,
		)
	}

	fd, sa, err := unix.Accept4(l.fd, unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, nil, errors.NewTransportError(
			errors.TransportErrorSocketAcceptFailure,
			"accept failed",
			err,
		)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, nil, errors.NewTransportError(
			errors.TransportErrorSocketOptionFailure,
			"failed to set non-blocking mode",
			err,
		)
	}

	var peer net.Addr
	if a := sockaddrnet.SockaddrToTCPAddr(sa); a != nil {
		peer = a
	}
	return fd, peer, nil
}

// Close closes the listening socket. Closing twice is a no-op.
func (l *Listener) Close() error {
	if l.fd < 0 {
		return nil
	}

	fd := l.fd
	l.fd = -1
	return closeFd(fd, unix.Close)
}
