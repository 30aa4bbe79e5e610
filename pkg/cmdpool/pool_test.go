// SPDX-License-Identifier: BSD-3-Clause

package cmdpool

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRunCapturedReturnsStdout(t *testing.T) {
	p := New()
	out, err := p.RunCaptured(context.Background(), "echo hi")
	if err != nil {
		t.Fatalf("RunCaptured: %v", err)
	}
	if out != "hi\n" {
		t.Fatalf("captured output = %q, want %q", out, "hi\n")
	}
}

func TestRunCapturedRejectsNonUTF8(t *testing.T) {
	p := New()
	_, err := p.RunCaptured(context.Background(), `printf '\377\376'`)
	if err == nil {
		t.Fatal("expected non-UTF-8 error, got nil")
	}
}

func TestRunPipedDeliversLines(t *testing.T) {
	p := New()

	var mu sync.Mutex
	var got strings.Builder
	done := make(chan struct{})

	err := p.RunPiped(context.Background(), "printf 'a\\nb\\n'", func(line string) error {
		mu.Lock()
		got.WriteString(line)
		if got.Len() == 4 {
			close(done)
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("RunPiped: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for piped output")
	}

	mu.Lock()
	defer mu.Unlock()
	if got.String() != "a\nb\n" {
		t.Fatalf("piped output = %q, want %q", got.String(), "a\nb\n")
	}
}

func TestReapDropsFinishedChildren(t *testing.T) {
	p := New()
	if err := p.Spawn(context.Background(), "true"); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		p.reap()
		if p.Len() == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("child never reaped, pool len = %d", p.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
