package transport

import "github.com/nczempin/httpd-go/errors"

// Backend names accepted by New
const (
	BackendSyscall = "syscall"
	BackendIoUring = "iouring"
	BackendUring   = "uring"
)

// Transport performs I/O on accepted client descriptors
type Transport interface {
	// Read performs a single read into buf.
	// A peer that has closed its side is reported as TransportErrorConnectionClosed.
	Read(fd int, buf []byte) (int, error)

	// Write sends all of buf, waiting for the descriptor to drain if needed.
	// Returns the number of bytes written.
	Write(fd int, buf []byte) (int, error)

	// Close closes the descriptor
	Close(fd int) error

	// Destroy releases backend resources such as rings
	Destroy()
}

// New returns the transport registered under backend
func New(backend string) (Transport, error) {
	switch backend {
	case "", BackendSyscall:
		return NewSyscallTransport(), nil
	case BackendIoUring:
		return NewUringTransport()
	case BackendUring:
		return NewUringTransportV2()
	default:
		return nil, errors.NewConfigError(
			errors.ConfigErrorInvalidValue,
			"unknown io backend: "+backend,
			nil,
		)
	}
}

func closeFd(fd int, close func(int) error) error {
	if err := close(fd); err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}
	return nil
}
