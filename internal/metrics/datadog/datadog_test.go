package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"tabsource/internal/metrics"
)

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("expected error for empty Addr")
	}
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	if got := labelsToTags(nil); got != nil {
		t.Fatalf("labelsToTags(nil) = %v, want nil", got)
	}
	got := labelsToTags(metrics.Labels{"kind": "emitted", "job": "nightly"})
	want := []string{"job:nightly", "kind:emitted"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("labelsToTags = %v, want %v", got, want)
	}
}

func TestBackend_SendsToAgent(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen: %v", err)
	}
	defer pc.Close()

	b, err := NewBackend(Config{Addr: pc.LocalAddr().String(), Namespace: "test."})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RowsTotal, 4, metrics.Labels{"kind": metrics.KindEmitted})
	b.ObserveHistogram(metrics.OpenDuration, 0.25, metrics.Labels{"status": "success"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received strings.Builder
	buf := make([]byte, 4096)
	wantCount := "test." + metrics.RowsTotal + ":4|c|#kind:emitted"
	wantHist := "test." + metrics.OpenDuration + ":0.25|h"
	for !strings.Contains(received.String(), wantCount) || !strings.Contains(received.String(), wantHist) {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatalf("read datagram: %v (got %q)", err, received.String())
		}
		received.Write(buf[:n])
		received.WriteByte('\n')
	}
}

func TestBackend_NilClient(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.RowsTotal, 1, nil)
	b.ObserveHistogram(metrics.OpenDuration, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush on nil client: %v", err)
	}
}
