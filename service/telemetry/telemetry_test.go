// SPDX-License-Identifier: BSD-3-Clause

package telemetry

import (
	"errors"
	"testing"
)

func TestRecordEventAccountsPerTopic(t *testing.T) {
	s := New()

	payloads := [][]byte{
		append([]byte{7}, []byte("x:[1]")...),
		append([]byte{7}, []byte("x:[2]")...),
		append([]byte{9}, []byte("y")...),
		{},
	}
	for _, p := range payloads {
		topic, size := s.recordEvent(p)
		if size != len(p) {
			t.Fatalf("recorded size %d for payload of %d bytes", size, len(p))
		}
		if len(p) > 0 && topic != p[0] {
			t.Fatalf("topic = %d, want %d", topic, p[0])
		}
	}

	counts, bytes := s.snapshot()
	if counts[7] != 2 || counts[9] != 1 || counts[0] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	var want uint64
	for _, p := range payloads {
		want += uint64(len(p))
	}
	if bytes != want {
		t.Fatalf("bytes = %d, want %d", bytes, want)
	}
}

func TestParseCounterReply(t *testing.T) {
	n, err := parseCounterReply([]byte("3"))
	if err != nil || n != 3 {
		t.Fatalf("parse = %d, %v", n, err)
	}
	if _, err := parseCounterReply([]byte("false")); !errors.Is(err, ErrBadReply) {
		t.Fatalf("non-counter reply error = %v, want ErrBadReply", err)
	}
}
