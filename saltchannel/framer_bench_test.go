package saltchannel

import (
	"fmt"
	"testing"
)

// discardTransport drives Write/Read against in-memory buffers without any
// of link's copy overhead, so the benchmark measures the framer, not bytes.Buffer.
type discardTransport struct {
	buf []byte
	off int
}

func (d *discardTransport) reset() { d.buf = d.buf[:0]; d.off = 0 }

func (d *discardTransport) write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	return len(p), nil
}

func (d *discardTransport) read(p []byte) (int, error) {
	n := copy(p, d.buf[d.off:])
	d.off += n
	return n, nil
}

func benchSessionPair(b *testing.B, appMax int) (*Session, *Session) {
	b.Helper()
	p := testProvider{}
	var hostKP, clientKP SigningKeypair
	if err := p.SignKeypair(hostKP.Public[:], hostKP.Secret[:]); err != nil {
		b.Fatal(err)
	}
	if err := p.SignKeypair(clientKP.Public[:], clientKP.Secret[:]); err != nil {
		b.Fatal(err)
	}
	host, err := NewSession(Config{Role: RoleHost, Provider: p, Buffer: make([]byte, MinBufferLen(appMax)), Signing: hostKP, AppMax: appMax})
	if err != nil {
		b.Fatal(err)
	}
	client, err := NewSession(Config{Role: RoleClient, Provider: p, Buffer: make([]byte, MinBufferLen(appMax)), Signing: clientKP, AppMax: appMax})
	if err != nil {
		b.Fatal(err)
	}
	l := &link{}
	for i := 0; i < 64; i++ {
		if !host.Established() {
			host.Handshake(l.hostTransport(), nil)
		}
		if !client.Established() {
			client.Handshake(l.clientTransport(), nil)
		}
		if host.Established() && client.Established() {
			break
		}
	}
	if !host.Established() || !client.Established() {
		b.Fatal("handshake did not complete")
	}
	return host, client
}

func BenchmarkWrite(b *testing.B) {
	sizes := []int{16, 256, 4096}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("%dB", size), func(b *testing.B) {
			_, client := benchSessionPair(b, size)
			payload := make([]byte, size)
			t := &discardTransport{}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				t.reset()
				if _, err := client.Write(Transport{Write: t.write, Read: t.read}, payload, false); err != nil {
					b.Fatalf("write: %v", err)
				}
			}
		})
	}
}

func BenchmarkWriteMulti(b *testing.B) {
	sizes := []int{16, 256, 4096}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("3x%dB", size), func(b *testing.B) {
			_, client := benchSessionPair(b, size)
			payloads := [][]byte{make([]byte, size/2), make([]byte, size/4), make([]byte, size/8)}
			t := &discardTransport{}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				t.reset()
				if _, err := client.WriteMulti(Transport{Write: t.write, Read: t.read}, payloads, false); err != nil {
					b.Fatalf("write multi: %v", err)
				}
			}
		})
	}
}

func BenchmarkRead(b *testing.B) {
	sizes := []int{16, 256, 4096}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("%dB", size), func(b *testing.B) {
			host, client := benchSessionPair(b, size)
			payload := make([]byte, size)
			wt := &discardTransport{}
			rt := &discardTransport{}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				wt.reset()
				if _, err := client.Write(Transport{Write: wt.write, Read: wt.read}, payload, false); err != nil {
					b.Fatalf("write: %v", err)
				}
				rt.buf = wt.buf
				rt.off = 0
				if _, _, err := host.Read(Transport{Read: rt.read, Write: rt.write}); err != nil {
					b.Fatalf("read: %v", err)
				}
			}
		})
	}
}
