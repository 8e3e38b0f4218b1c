package transport

import (
	stderrors "errors"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/nczempin/httpd-go/errors"
)

// SyscallTransport uses plain read(2)/write(2) on the descriptor
type SyscallTransport struct{}

// NewSyscallTransport creates a SyscallTransport
func NewSyscallTransport() *SyscallTransport {
	return &SyscallTransport{}
}

// Read performs one read(2)
func (t *SyscallTransport) Read(fd int, buf []byte) (int, error) {
	n, err := syscall.Read(fd, buf)
	if err != nil {
		if stderrors.Is(err, syscall.ECONNRESET) {
			return 0, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection reset by peer",
				err,
			)
		}
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read failed",
			err,
		)
	}

	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed by peer",
			nil,
		)
	}

	return n, nil
}

// Write loops until buf is sent. EAGAIN parks the caller in poll(2)
// until the descriptor is writable again.
func (t *SyscallTransport) Write(fd int, buf []byte) (int, error) {
	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := syscall.Write(fd, buf[totalWritten:])
		if err != nil {
			switch {
			case stderrors.Is(err, syscall.EINTR):
				continue
			case stderrors.Is(err, syscall.EAGAIN):
				if err := waitWritable(fd); err != nil {
					return totalWritten, err
				}
				continue
			case stderrors.Is(err, syscall.EPIPE), stderrors.Is(err, syscall.ECONNRESET):
				return totalWritten, errors.NewTransportError(
					errors.TransportErrorConnectionClosed,
					"connection closed during write",
					err,
				)
			default:
				return totalWritten, errors.NewTransportError(
					errors.TransportErrorSocketWriteFailure,
					"write failed",
					err,
				)
			}
		}

		totalWritten += n
	}

	return totalWritten, nil
}

// Close closes the descriptor
func (t *SyscallTransport) Close(fd int) error {
	return closeFd(fd, syscall.Close)
}

// Destroy is a no-op
func (t *SyscallTransport) Destroy() {}

// waitWritable blocks until fd accepts more data or reports an error
func waitWritable(fd int) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	for {
		_, err := unix.Poll(fds, -1)
		if err == nil {
			return nil
		}
		if stderrors.Is(err, unix.EINTR) {
			continue
		}
		return errors.NewTransportError(
			errors.TransportErrorPollFailure,
			"waiting for write readiness failed",
			err,
		)
	}
}
