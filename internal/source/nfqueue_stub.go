// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux

package source

import (
	"context"

	"grimm.is/ddosentinel/internal/errors"
)

// NFQueueReader is a stub on non-Linux systems; NFQUEUE is a Linux-only
// kernel facility.
type NFQueueReader struct{}

// NewNFQueueReader always fails on non-Linux systems.
func NewNFQueueReader(queueNum uint16, pipeline Pipeline) (*NFQueueReader, error) {
	return nil, errors.New(errors.KindUnavailable, "source: nfqueue is only supported on Linux")
}

// Start always fails on non-Linux systems.
func (r *NFQueueReader) Start(ctx context.Context) error {
	return errors.New(errors.KindUnavailable, "source: nfqueue is only supported on Linux")
}

// Close is a no-op stub.
func (r *NFQueueReader) Close() error { return nil }

// Poll always reports nothing drained on non-Linux systems.
func (r *NFQueueReader) Poll(batchSize int) (int, error) { return 0, nil }
