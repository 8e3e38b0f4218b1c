package transport

import (
	stderrors "errors"
	"syscall"

	"github.com/iceber/iouring-go"
	"github.com/nczempin/httpd-go/errors"
)

// UringTransport implements Transport using io_uring for socket I/O
type UringTransport struct {
	iour *iouring.IOURing
}

// NewUringTransport creates a new transport backed by an io_uring instance
func NewUringTransport() (*UringTransport, error) {
	// Create io_uring instance with queue depth of 32
	iour, err := iouring.New(32)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &UringTransport{iour: iour}, nil
}

// Read receives data from fd using io_uring
func (t *UringTransport) Read(fd int, buf []byte) (int, error) {
	n, err := t.complete(iouring.Recv(fd, buf, 0), errors.TransportErrorSocketReadFailure, "read")
	if err != nil {
		return 0, err
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

// Write sends all of buf using io_uring
func (t *UringTransport) Write(fd int, buf []byte) (int, error) {
	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := t.complete(iouring.Send(fd, buf[totalWritten:], 0), errors.TransportErrorSocketWriteFailure, "write")
		if err != nil {
			if stderrors.Is(err, syscall.EAGAIN) {
				if err := waitWritable(fd); err != nil {
					return totalWritten, err
				}
				continue
			}
			if stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, syscall.ECONNRESET) {
				return totalWritten, errors.NewTransportError(
					errors.TransportErrorConnectionClosed,
					"connection closed during write",
					err,
				)
			}
			return totalWritten, err
		}

		if n <= 0 {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed during write",
				nil,
			)
		}

		totalWritten += n
	}

	return totalWritten, nil
}

// complete submits one request and waits for it. Recv and Send carry no
// result resolver, so the count comes from the raw completion result,
// which is a negated errno on failure.
func (t *UringTransport) complete(prep iouring.PrepRequest, failure errors.TransportError, name string) (int, error) {
	ch := make(chan iouring.Result, 1)
	req, err := t.iour.SubmitRequest(prep, ch)
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit "+name+" request",
			err,
		)
	}
	<-ch

	if err := req.Err(); err != nil {
		return 0, errors.NewTransportError(failure, name+" failed", err)
	}
	res, err := req.GetRes()
	if err != nil {
		return 0, errors.NewTransportError(failure, name+" failed", err)
	}
	if res < 0 {
		return 0, errors.NewTransportError(failure, name+" failed", syscall.Errno(-res))
	}
	return res, nil
}

// Close closes the descriptor
func (t *UringTransport) Close(fd int) error {
	return closeFd(fd, syscall.Close)
}

// Destroy releases the io_uring instance
func (t *UringTransport) Destroy() {
	if t.iour != nil {
		t.iour.Close()
		t.iour = nil
	}
}
