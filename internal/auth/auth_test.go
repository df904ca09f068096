package auth

import (
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/kkkkikiki/crowdfund/internal/address"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return NewSigner(key)
}

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	verifier := NewVerifier(DefaultMaxAge)
	body := []byte(`{"cid":"1","amount":"1000000000"}`)

	token, err := signer.Sign("donate", body)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	got, err := verifier.Verify(token, "donate", body)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != signer.Address() {
		t.Fatalf("verified address = %s, want %s", got, signer.Address())
	}
}

func TestVerifyRejections(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	body := []byte(`{"cid":"1"}`)
	token, err := signer.Sign("withdraw", body)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name        string
		token       string
		instruction string
		body        []byte
		wantErr     error
	}{
		{"missing token", "", "withdraw", body, ErrMissingToken},
		{"other instruction", token, "donate", body, ErrInvalidToken},
		{"tampered body", token, "withdraw", []byte(`{"cid":"2"}`), ErrInvalidToken},
		{"garbage", "not.a.jwt", "withdraw", body, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVerifier(DefaultMaxAge).Verify(tt.token, tt.instruction, tt.body)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyRejectsReplay(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	verifier := NewVerifier(DefaultMaxAge)
	body := []byte(`{}`)

	token, err := signer.Sign("initialize", body)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifier.Verify(token, "initialize", body); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := verifier.Verify(token, "initialize", body); !errors.Is(err, ErrReplayedToken) {
		t.Fatalf("replay: err = %v, want ErrReplayedToken", err)
	}
}

func TestVerifyRejectsForgedSubject(t *testing.T) {
	t.Parallel()

	victim := newTestSigner(t)
	attacker := newTestSigner(t)
	// The attacker signs with their own key but claims the victim's address.
	attacker.addr = victim.Address()

	token, err := attacker.Sign("withdraw", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewVerifier(DefaultMaxAge).Verify(token, "withdraw", nil); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyLifetime(t *testing.T) {
	t.Parallel()

	base := time.Unix(1_700_000_000, 0)
	signer := newTestSigner(t)
	signer.now = func() time.Time { return base }

	expired := NewVerifier(DefaultMaxAge)
	expired.now = func() time.Time { return base.Add(3 * time.Minute) }
	token, err := signer.Sign("donate", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := expired.Verify(token, "donate", nil); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: err = %v, want ErrInvalidToken", err)
	}

	signer.maxAge = time.Hour
	longLived, err := signer.Sign("donate", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	strict := NewVerifier(DefaultMaxAge)
	strict.now = func() time.Time { return base }
	if _, err := strict.Verify(longLived, "donate", nil); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("long-lived token: err = %v, want ErrInvalidToken", err)
	}
}

func TestParsePrivateKey(t *testing.T) {
	t.Parallel()

	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	want := address.FromPublicKey(key.Public().(ed25519.PublicKey))

	for name, text := range map[string]string{
		"full key": EncodePrivateKey(key),
		"seed":     EncodePrivateKey(key.Seed()),
	} {
		parsed, err := ParsePrivateKey(text)
		if err != nil {
			t.Fatalf("%s: parse: %v", name, err)
		}
		if got := NewSigner(parsed).Address(); got != want {
			t.Fatalf("%s: address = %s, want %s", name, got, want)
		}
	}

	for _, bad := range []string{"", "0OIl", EncodePrivateKey(key[:10])} {
		if _, err := ParsePrivateKey(bad); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("ParsePrivateKey(%q) err = %v, want ErrInvalidKey", bad, err)
		}
	}
}
