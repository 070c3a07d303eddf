package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDevModeToken(t *testing.T) {
	v := NewVerifier("dev")
	p, err := v.Verify("7")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.TenantID != 7 {
		t.Fatalf("tenant: %d", p.TenantID)
	}
	for _, bad := range []string{"", "abc", "-1", "0"} {
		if _, err := v.Verify(bad); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("token %q: want ErrUnauthorized, got %v", bad, err)
		}
	}
}

func signHS256(t *testing.T, secret []byte, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		return base64.RawURLEncoding.EncodeToString(b)
	}
	head := enc(map[string]string{"alg": "HS256", "typ": "JWT"})
	payload := enc(claims)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(head + "." + payload))
	return head + "." + payload + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func TestHMACMode(t *testing.T) {
	v := NewVerifier("hmac")
	v.HMACSecret = []byte("shh")

	tok := signHS256(t, v.HMACSecret, map[string]any{"tenant": "12", "exp": time.Now().Add(time.Hour).Unix()})
	p, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.TenantID != 12 {
		t.Fatalf("tenant: %d", p.TenantID)
	}

	// wrong secret
	bad := signHS256(t, []byte("other"), map[string]any{"tenant": "12"})
	if _, err := v.Verify(bad); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("bad signature: want ErrUnauthorized, got %v", err)
	}

	// expired
	old := signHS256(t, v.HMACSecret, map[string]any{"tenant": "12", "exp": time.Now().Add(-time.Hour).Unix()})
	if _, err := v.Verify(old); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token: want ErrUnauthorized, got %v", err)
	}

	// numeric claim form
	num := signHS256(t, v.HMACSecret, map[string]any{"tenant": 9})
	p, err = v.Verify(num)
	if err != nil || p.TenantID != 9 {
		t.Fatalf("numeric claim: %v %+v", err, p)
	}
}
