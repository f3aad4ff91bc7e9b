package netcb

import (
	"net"
	"testing"
	"time"
)

func TestReadPendingWhenIdle(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	w := New(a)
	buf := make([]byte, 16)
	n, err := w.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected pending (n=0), got n=%d", n)
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	wa := New(a)
	msg := []byte("hello salt channel")
	done := make(chan error, 1)
	go func() {
		_, err := b.Write(msg)
		done <- err
	}()

	buf := make([]byte, len(msg))
	got := 0
	deadline := time.Now().Add(2 * time.Second)
	for got < len(msg) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out reading, got %d/%d bytes", got, len(msg))
		}
		n, err := wa.Read(buf[got:])
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		got += n
	}
	if string(buf) != string(msg) {
		t.Fatalf("got %q, want %q", buf, msg)
	}
	if err := <-done; err != nil {
		t.Fatalf("writer: %v", err)
	}
}
