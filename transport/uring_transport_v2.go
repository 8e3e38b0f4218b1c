package transport

import (
	stderrors "errors"
	"syscall"

	"github.com/godzie44/go-uring/uring"
	"github.com/nczempin/httpd-go/errors"
)

// UringTransportV2 implements Transport using godzie44/go-uring
type UringTransportV2 struct {
	ring *uring.Ring
}

// NewUringTransportV2 creates a new transport with io_uring (v2 using godzie44/go-uring)
func NewUringTransportV2() (*UringTransportV2, error) {
	ring, err := uring.New(32)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &UringTransportV2{ring: ring}, nil
}

// complete queues op, submits it and waits for its completion
func (t *UringTransportV2) complete(op uring.Operation, failure errors.TransportError, name string) (int, error) {
	if err := t.ring.QueueSQE(op, 0, 0); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to queue "+name+" request",
			err,
		)
	}

	if _, err := t.ring.Submit(); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit "+name+" request",
			err,
		)
	}

	cqe, err := t.ring.WaitCQEvents(1)
	if err != nil {
		return 0, errors.NewTransportError(
			failure,
			"failed to wait for "+name+" completion",
			err,
		)
	}

	if err := cqe.Error(); err != nil {
		t.ring.SeenCQE(cqe)
		return 0, errors.NewTransportError(
			failure,
			name+" operation failed",
			err,
		)
	}

	n := int(cqe.Res)
	t.ring.SeenCQE(cqe)
	return n, nil
}

// Read receives data from fd using io_uring
func (t *UringTransportV2) Read(fd int, buf []byte) (int, error) {
	n, err := t.complete(uring.Read(uintptr(fd), buf, 0), errors.TransportErrorSocketReadFailure, "read")
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
func (t *UringTransportV2) Write(fd int, buf []byte) (int, error) {
	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := t.complete(uring.Write(uintptr(fd), buf[totalWritten:], 0), errors.TransportErrorSocketWriteFailure, "write")
		if err != nil {
			if stderrors.Is(err, syscall.EAGAIN) {
				if err := waitWritable(fd); err != nil {
					return totalWritten, err
				}
				continue
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

// Close closes the descriptor
func (t *UringTransportV2) Close(fd int) error {
	return closeFd(fd, syscall.Close)
}

// Destroy releases the ring
func (t *UringTransportV2) Destroy() {
	if t.ring != nil {
		t.ring.Close()
		t.ring = nil
	}
}
