package server

import "golang.org/x/sys/unix"

const readyMask = unix.POLLIN | unix.POLLHUP | unix.POLLERR | unix.POLLNVAL

// PollSet is the ordered list of descriptors watched for readability.
// The first fixed entries are never removed. Client entries are marked
// closed during a scan and dropped by Compact afterwards, so indices stay
// stable for the whole scan.
type PollSet struct {
	fds   []unix.PollFd
	fixed int
}

// NewPollSet creates a PollSet whose leading entries are fixed
func NewPollSet(fixed ...int) *PollSet {
	p := &PollSet{fixed: len(fixed)}
	for _, fd := range fixed {
		p.Add(fd)
	}
	return p
}

// Add appends fd, interested in readability
func (p *PollSet) Add(fd int) {
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
}

// Len returns the number of entries, including marked ones
func (p *PollSet) Len() int {
	return len(p.fds)
}

// Fd returns the descriptor at index i, or -1 if it was marked closed
func (p *PollSet) Fd(i int) int {
	return int(p.fds[i].Fd)
}

// Ready reports whether entry i has pending events from the last Wait
func (p *PollSet) Ready(i int) bool {
	return p.fds[i].Fd >= 0 && p.fds[i].Revents&readyMask != 0
}

// Wait blocks until at least one entry is ready
func (p *PollSet) Wait() (int, error) {
	return unix.Poll(p.fds, -1)
}

// MarkClosed flags client entry i for removal. Fixed entries are ignored.
func (p *PollSet) MarkClosed(i int) {
	if i < p.fixed {
		return
	}
	p.fds[i].Fd = -1
	p.fds[i].Revents = 0
}

// Compact drops marked entries, keeping the order of the rest.
// Returns the number of entries removed.
func (p *PollSet) Compact() int {
	kept := p.fds[:p.fixed]
	for _, pfd := range p.fds[p.fixed:] {
		if pfd.Fd >= 0 {
			kept = append(kept, pfd)
		}
	}
	removed := len(p.fds) - len(kept)
	p.fds = kept
	return removed
}

// Fds returns the live client descriptors in order
func (p *PollSet) Fds() []int {
	fds := make([]int, 0, len(p.fds)-p.fixed)
	for _, pfd := range p.fds[p.fixed:] {
		if pfd.Fd >= 0 {
			fds = append(fds, int(pfd.Fd))
		}
	}
	return fds
}
