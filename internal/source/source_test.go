// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package source

import (
	"testing"
	"time"

	"grimm.is/ddosentinel/internal/packet"
)

// replayReader feeds a fixed slate of frames through a Pipeline, the
// shape a test or replay tool would use in place of a live NFQUEUE bind.
type replayReader struct {
	frames   []Frame
	pipeline Pipeline
}

func (r *replayReader) Poll(batchSize int) (int, error) {
	n := 0
	for n < batchSize && len(r.frames) > 0 {
		f := r.frames[0]
		r.frames = r.frames[1:]
		info := packet.DissectEthernet(f.Payload, f.Timestamp, f.Length, 1)
		r.pipeline(info)
		n++
	}
	return n, nil
}

func TestReplayReader_DeliversAllFramesThroughPipeline(t *testing.T) {
	var seen int
	reader := &replayReader{
		frames: []Frame{
			{Payload: make([]byte, 14), Length: 14, Timestamp: time.Now(), ID: 1},
			{Payload: make([]byte, 14), Length: 14, Timestamp: time.Now(), ID: 2},
		},
		pipeline: func(info packet.Info) { seen++ },
	}

	n, err := reader.Poll(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || seen != 2 {
		t.Fatalf("expected 2 frames delivered, got n=%d seen=%d", n, seen)
	}
}

func TestReplayReader_RespectsBatchSize(t *testing.T) {
	reader := &replayReader{
		frames: []Frame{
			{Payload: make([]byte, 14), Length: 14},
			{Payload: make([]byte, 14), Length: 14},
			{Payload: make([]byte, 14), Length: 14},
		},
		pipeline: func(info packet.Info) {},
	}

	n, _ := reader.Poll(2)
	if n != 2 {
		t.Fatalf("expected batch of 2, got %d", n)
	}
	if len(reader.frames) != 1 {
		t.Fatalf("expected 1 frame remaining, got %d", len(reader.frames))
	}
}
