package linkcodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

// fastCodec keeps the production salt but far fewer iterations so the
// exhaustive tamper tests stay quick.
func fastCodec() *Codec {
	return &Codec{Salt: []byte(DefaultSalt), Iterations: 1000}
}

func TestRoundTrip(t *testing.T) {
	c := fastCodec()
	pairs := []struct{ receiver, giver string }{
		{"Beto", "Ana"},
		{"Caio", "Beto"},
		{"José da Silva", "Mãe"},
		{"🎁 Zoë", "名前"},
		{"", "Ana"},
		{strings.Repeat("x", 500), "long receiver"},
		{"Ana", ""},
	}
	for _, p := range pairs {
		token, err := c.Encode(p.receiver, p.giver)
		if err != nil {
			t.Fatalf("Encode(%q, %q): %v", p.receiver, p.giver, err)
		}
		got, err := c.Decode(token, p.giver)
		if err != nil {
			t.Fatalf("Decode for %q: %v", p.giver, err)
		}
		if got != p.receiver {
			t.Errorf("Expected %q, got %q", p.receiver, got)
		}
	}
}

func TestTokenFormat(t *testing.T) {
	c := fastCodec()
	token, err := c.Encode("Beto", "Ana")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token %q is not unpadded base64url", token)
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not base64url: %v", err)
	}
	if want := NonceSize + len("Beto") + TagSize; len(raw) != want {
		t.Errorf("Expected %d raw bytes, got %d", want, len(raw))
	}
}

func TestDecodeRejectsWrongName(t *testing.T) {
	c := fastCodec()
	token, err := c.Encode("Caio", "Ana")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, name := range []string{"Beto", "ana", "Ana ", " Ana", "", "Anna"} {
		got, err := c.Decode(token, name)
		if !errors.Is(err, ErrInvalidOrTamperedLink) {
			t.Errorf("Decode with %q: expected ErrInvalidOrTamperedLink, got %q, %v", name, got, err)
		}
	}
}

func TestDecodeRejectsEveryBitFlip(t *testing.T) {
	c := fastCodec()
	token, err := c.Encode("Beto", "Ana")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	raw, _ := base64.RawURLEncoding.DecodeString(token)

	for i := 0; i < len(raw)*8; i++ {
		tampered := bytes.Clone(raw)
		tampered[i/8] ^= 1 << (i % 8)
		got, err := c.Decode(base64.RawURLEncoding.EncodeToString(tampered), "Ana")
		if !errors.Is(err, ErrInvalidOrTamperedLink) {
			t.Fatalf("bit %d: expected ErrInvalidOrTamperedLink, got %q, %v", i, got, err)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	c := fastCodec()
	token, _ := c.Encode("Beto", "Ana")
	raw, _ := base64.RawURLEncoding.DecodeString(token)

	tests := map[string]string{
		"empty":          "",
		"not base64":     "!!!not-a-token!!!",
		"padded":         token + "==",
		"nonce only":     base64.RawURLEncoding.EncodeToString(raw[:NonceSize]),
		"truncated tag":  base64.RawURLEncoding.EncodeToString(raw[:len(raw)-1]),
		"extra byte":     base64.RawURLEncoding.EncodeToString(append(bytes.Clone(raw), 0)),
		"standard alpha": strings.NewReplacer("-", "+", "_", "/").Replace(token) + "+",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := c.Decode(tok, "Ana"); !errors.Is(err, ErrInvalidOrTamperedLink) {
				t.Errorf("Expected ErrInvalidOrTamperedLink, got %v", err)
			}
		})
	}
}

func TestEncodeUsesFreshNonce(t *testing.T) {
	c := fastCodec()
	a, err := c.Encode("Beto", "Ana")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := c.Encode("Beto", "Ana")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if a == b {
		t.Fatal("Expected two encodings of the same pair to differ")
	}
	for _, tok := range []string{a, b} {
		if got, err := c.Decode(tok, "Ana"); err != nil || got != "Beto" {
			t.Errorf("Decode: got %q, %v", got, err)
		}
	}
}

func TestEncodeNonceFailure(t *testing.T) {
	c := fastCodec()
	c.Rand = bytes.NewReader(nil)
	if _, err := c.Encode("Beto", "Ana"); err == nil {
		t.Fatal("Expected an error when the nonce source is exhausted")
	}
}

func TestDeriveKey(t *testing.T) {
	c := fastCodec()
	k1 := c.DeriveKey("Ana")
	if len(k1) != KeySize {
		t.Fatalf("Expected %d byte key, got %d", KeySize, len(k1))
	}
	if !bytes.Equal(k1, c.DeriveKey("Ana")) {
		t.Error("Expected key derivation to be deterministic")
	}
	if bytes.Equal(k1, c.DeriveKey("Beto")) {
		t.Error("Expected different names to derive different keys")
	}
	other := &Codec{Salt: []byte("another-app"), Iterations: c.Iterations}
	if bytes.Equal(k1, other.DeriveKey("Ana")) {
		t.Error("Expected the salt to separate key domains")
	}
}

func TestDefaultCodecScenario(t *testing.T) {
	if Default().Iterations != DefaultIterations || string(Default().Salt) != DefaultSalt {
		t.Fatalf("unexpected default parameters: %+v", Default())
	}

	token, err := Encode("Beto", "Ana")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(token, "Ana")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "Beto" {
		t.Errorf("Expected Beto, got %q", got)
	}
	if _, err := Decode(token, "Beto"); !errors.Is(err, ErrInvalidOrTamperedLink) {
		t.Errorf("Expected ErrInvalidOrTamperedLink for the wrong giver, got %v", err)
	}
}
