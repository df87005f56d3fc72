// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingReader struct {
	remaining int32
}

func (r *countingReader) Poll(batchSize int) (int, error) {
	n := int(atomic.LoadInt32(&r.remaining))
	if n > batchSize {
		n = batchSize
	}
	atomic.AddInt32(&r.remaining, int32(-n))
	return n, nil
}

func TestRun_DrainsReaderUntilCanceled(t *testing.T) {
	loop := New(WithBatchSize(10))
	reader := &countingReader{remaining: 25}
	loop.RegisterReader(reader)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_ = loop.Run(ctx)

	if atomic.LoadInt32(&reader.remaining) != 0 {
		t.Fatalf("expected reader fully drained, %d remaining", reader.remaining)
	}
}

func TestAfterFunc_RunsCallbackSerializedOnLoop(t *testing.T) {
	loop := New()
	fired := make(chan struct{}, 1)

	loop.AfterFunc(time.Millisecond, func() { fired <- struct{}{} })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(done)
	}()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expected timer callback to fire through the loop")
	}
	<-done
}
