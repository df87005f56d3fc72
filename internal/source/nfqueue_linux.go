// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

package source

import (
	"context"
	"time"

	"github.com/florianl/go-nfqueue/v2"

	"grimm.is/ddosentinel/internal/errors"
	"grimm.is/ddosentinel/internal/logging"
	"grimm.is/ddosentinel/internal/packet"
)

var logger = logging.WithComponent("source.nfqueue")

// NFQueueReader binds a Linux NFQUEUE and delivers drained packets to a
// Pipeline. It always returns NfAccept; the core is detect-and-signal
// only (spec.md §6.2).
type NFQueueReader struct {
	nf       *nfqueue.Nfqueue
	pipeline Pipeline
	frames   chan Frame
}

// NewNFQueueReader opens and binds queue number queueNum, delivering
// drained frames through pipeline.
func NewNFQueueReader(queueNum uint16, pipeline Pipeline) (*NFQueueReader, error) {
	cfg := nfqueue.Config{
		NfQueue:      queueNum,
		MaxPacketLen: 0xffff,
		MaxQueueLen:  0xff,
		Copymode:     nfqueue.NfQnlCopyPacket,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 15 * time.Millisecond,
	}

	nf, err := nfqueue.Open(&cfg)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindUnavailable, "source: open nfqueue %d", queueNum)
	}

	r := &NFQueueReader{
		nf:       nf,
		pipeline: pipeline,
		frames:   make(chan Frame, 4096),
	}
	return r, nil
}

// Start registers the netlink callback and begins delivering frames to
// the internal channel Poll drains from.
func (r *NFQueueReader) Start(ctx context.Context) error {
	fn := func(a nfqueue.Attribute) int {
		if a.PacketID == nil || a.Payload == nil {
			return 0
		}

		f := Frame{
			Payload: *a.Payload,
			Length:  len(*a.Payload),
			ID:      *a.PacketID,
		}
		if a.Timestamp != nil {
			f.Timestamp = *a.Timestamp
		} else {
			f.Timestamp = time.Now()
		}

		select {
		case r.frames <- f:
		default:
			logger.Warn("frame channel full, dropping packet", "id", f.ID)
		}

		_ = r.nf.SetVerdict(f.ID, nfqueue.NfAccept)
		return 0
	}

	errFn := func(e error) int {
		logger.Warn("nfqueue error", "err", e)
		return 0
	}

	if err := r.nf.RegisterWithErrorFunc(ctx, fn, errFn); err != nil {
		return errors.Wrap(err, errors.KindInternal, "source: register nfqueue callback")
	}
	return nil
}

// Close releases the underlying netlink socket.
func (r *NFQueueReader) Close() error {
	return r.nf.Close()
}

// Poll drains up to batchSize frames queued by the netlink callback,
// dissecting each through Pipeline.
func (r *NFQueueReader) Poll(batchSize int) (int, error) {
	n := 0
	for n < batchSize {
		select {
		case f := <-r.frames:
			info := packet.DissectEthernet(f.Payload, f.Timestamp, f.Length, 1)
			r.pipeline(info)
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}
