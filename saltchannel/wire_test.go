package saltchannel

import "testing"

func TestPutGetU32(t *testing.T) {
	var b [4]byte
	putU32(b[:], 0xdeadbeef)
	if got := getU32(b[:]); got != 0xdeadbeef {
		t.Fatalf("got %#x, want %#x", got, 0xdeadbeef)
	}
}

func TestM1EncodeDecode(t *testing.T) {
	cases := []struct {
		name string
		m    M1
	}{
		{"no pin", M1{ClientDHPub: fill32(1)}},
		{"with pin", M1{PinPeerKey: true, HasPeerSigKey: true, ClientDHPub: fill32(2), PeerSigKey: fill32(3)}},
		{"resume asked ignored", M1{ResumeAsked: true, ClientDHPub: fill32(4)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, m1BodyLen(true))
			n, err := EncodeM1(buf, tc.m)
			if err != nil {
				t.Fatalf("EncodeM1: %v", err)
			}
			got, err := DecodeM1(buf[:n])
			if err != nil {
				t.Fatalf("DecodeM1: %v", err)
			}
			if got != tc.m {
				t.Fatalf("round trip mismatch: got %+v, want %+v", got, tc.m)
			}
		})
	}
}

func TestM1RejectsBadProtocolID(t *testing.T) {
	buf := make([]byte, m1BodyLen(false))
	EncodeM1(buf, M1{ClientDHPub: fill32(1)})
	buf[2] = 'X'
	if _, err := DecodeM1(buf); CodeOf(err) != CodeParse {
		t.Fatalf("expected CodeParse, got %v", err)
	}
}

func TestM2EncodeDecode(t *testing.T) {
	m := M2{NoSuchServer: true, HostDHPub: fill32(9)}
	buf := make([]byte, m2BodyLen)
	n, err := EncodeM2(buf, m)
	if err != nil {
		t.Fatalf("EncodeM2: %v", err)
	}
	got, err := DecodeM2(buf[:n])
	if err != nil {
		t.Fatalf("DecodeM2: %v", err)
	}
	if got != m {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, m)
	}
}

func TestM3M4PlaintextRoundTrip(t *testing.T) {
	pub := fill32(5)
	sig := fillN(64, 6)
	buf := make([]byte, m3m4PlaintextLen)

	n, err := EncodeM3Plaintext(buf, pub[:], sig)
	if err != nil {
		t.Fatalf("EncodeM3Plaintext: %v", err)
	}
	gotPub, gotSig, err := DecodeM3Plaintext(buf[:n])
	if err != nil {
		t.Fatalf("DecodeM3Plaintext: %v", err)
	}
	if gotPub != pub || !bytesEq(gotSig[:], sig) {
		t.Fatal("M3 round trip mismatch")
	}

	n, err = EncodeM4Plaintext(buf, pub[:], sig)
	if err != nil {
		t.Fatalf("EncodeM4Plaintext: %v", err)
	}
	gotPub, gotSig, err = DecodeM4Plaintext(buf[:n])
	if err != nil {
		t.Fatalf("DecodeM4Plaintext: %v", err)
	}
	if gotPub != pub || !bytesEq(gotSig[:], sig) {
		t.Fatal("M4 round trip mismatch")
	}
}

func TestAppPlaintextRoundTrip(t *testing.T) {
	payload := []byte("application payload")
	buf := make([]byte, AppPlaintextLen(len(payload)))
	n, err := EncodeAppPlaintext(buf, true, 12345, payload)
	if err != nil {
		t.Fatalf("EncodeAppPlaintext: %v", err)
	}
	d, err := DecodeAppPlaintext(buf[:n])
	if err != nil {
		t.Fatalf("DecodeAppPlaintext: %v", err)
	}
	if !d.Last || d.TimestampMs != 12345 || !bytesEq(d.Payload, payload) {
		t.Fatalf("round trip mismatch: %+v", d)
	}
}

func TestMultiAppPlaintextRoundTrip(t *testing.T) {
	payloads := [][]byte{[]byte("one"), []byte("two"), {}, []byte("four")}
	buf := make([]byte, MultiAppPlaintextLen([]int{3, 3, 0, 4}))
	n, err := EncodeMultiAppPlaintext(buf, false, 99, payloads)
	if err != nil {
		t.Fatalf("EncodeMultiAppPlaintext: %v", err)
	}
	cur, err := DecodeMultiAppPlaintext(buf[:n], 0)
	if err != nil {
		t.Fatalf("DecodeMultiAppPlaintext: %v", err)
	}
	if cur.Count() != len(payloads) {
		t.Fatalf("count = %d, want %d", cur.Count(), len(payloads))
	}
	for i, want := range payloads {
		got, ok, err := cur.Next()
		if err != nil {
			t.Fatalf("Next(%d): %v", i, err)
		}
		if !ok {
			t.Fatalf("Next(%d): exhausted early", i)
		}
		if !bytesEq(got, want) {
			t.Fatalf("payload %d = %q, want %q", i, got, want)
		}
	}
	if _, ok, _ := cur.Next(); ok {
		t.Fatal("cursor should be exhausted")
	}
}

func TestMultiAppRejectsOverMaxCount(t *testing.T) {
	buf := make([]byte, MultiAppPlaintextLen([]int{1, 1, 1}))
	EncodeMultiAppPlaintext(buf, false, 0, [][]byte{{1}, {2}, {3}})
	if _, err := DecodeMultiAppPlaintext(buf, 2); CodeOf(err) != CodeParse {
		t.Fatalf("expected CodeParse for over-max count, got %v", err)
	}
}

func TestA1A2RoundTrip(t *testing.T) {
	a1 := A1{AddressType: 1, Address: []byte("example.com")}
	buf := make([]byte, A1BodyLen(len(a1.Address)))
	n, err := EncodeA1(buf, a1)
	if err != nil {
		t.Fatalf("EncodeA1: %v", err)
	}
	gotA1, err := DecodeA1(buf[:n])
	if err != nil {
		t.Fatalf("DecodeA1: %v", err)
	}
	if gotA1.AddressType != a1.AddressType || !bytesEq(gotA1.Address, a1.Address) {
		t.Fatalf("A1 round trip mismatch: %+v", gotA1)
	}

	pairs := []ProtocolPair{{P1: [10]byte{'S', 'C', 'v', '2'}, P2: [10]byte{'-'}}}
	buf2 := make([]byte, A2BodyLen(len(pairs)))
	n, err = EncodeA2(buf2, true, pairs)
	if err != nil {
		t.Fatalf("EncodeA2: %v", err)
	}
	last, gotPairs, err := DecodeA2(buf2[:n])
	if err != nil {
		t.Fatalf("DecodeA2: %v", err)
	}
	if !last || gotPairs.Count() != 1 || gotPairs.At(0) != pairs[0] {
		t.Fatalf("A2 round trip mismatch: last=%v count=%d", last, gotPairs.Count())
	}
}

func fill32(b byte) [SizePublicKey]byte {
	var out [SizePublicKey]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func fillN(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func bytesEq(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
