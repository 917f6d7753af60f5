package relay

import (
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

func TestStateSigner_SignAndConsume(t *testing.T) {
	s := NewStateSigner("secret", time.Minute, newMemStore())

	state, err := s.Sign("google", "https://app.example/cb")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := s.Consume(state)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if claims.Provider != "google" {
		t.Fatalf("provider = %q", claims.Provider)
	}
	if claims.RedirectURI != "https://app.example/cb" {
		t.Fatalf("redirect = %q", claims.RedirectURI)
	}
	if claims.Nonce == "" {
		t.Fatal("claims sin nonce")
	}
}

func TestStateSigner_SingleUse(t *testing.T) {
	s := NewStateSigner("secret", time.Minute, newMemStore())

	state, err := s.Sign("google", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Consume(state); err != nil {
		t.Fatalf("primer consume: %v", err)
	}
	if _, err := s.Consume(state); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("replay debe fallar con ErrInvalidState, got %v", err)
	}
}

func TestStateSigner_RejectsTamperedAndForeign(t *testing.T) {
	store := newMemStore()
	s := NewStateSigner("secret", time.Minute, store)

	cases := map[string]string{
		"garbage": "not-a-jwt",
		"empty":   "",
	}

	// Token firmado con otro secreto.
	other := NewStateSigner("other-secret", time.Minute, store)
	foreign, err := other.Sign("google", "")
	if err != nil {
		t.Fatal(err)
	}
	cases["wrong secret"] = foreign

	// Token con la audiencia equivocada.
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.RegisteredClaims{
		Audience:  jwtv5.ClaimStrings{"other-audience"},
		ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Minute)),
	})
	badAud, err := tok.SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	cases["wrong audience"] = badAud

	for name, state := range cases {
		if _, err := s.Consume(state); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("%s: want ErrInvalidState, got %v", name, err)
		}
	}
}

func TestStateSigner_RejectsExpired(t *testing.T) {
	store := newMemStore()
	// TTL negativo produce un token ya vencido. El constructor normaliza TTL
	// no positivo, así que firmamos a mano.
	s := NewStateSigner("secret", time.Minute, store)

	now := time.Now().UTC().Add(-2 * time.Minute)
	claims := StateClaims{
		Provider: "google",
		Nonce:    "n1",
		RegisteredClaims: jwtv5.RegisteredClaims{
			Audience:  jwtv5.ClaimStrings{StateAudience},
			ExpiresAt: jwtv5.NewNumericDate(now.Add(time.Minute)),
			IssuedAt:  jwtv5.NewNumericDate(now),
		},
	}
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	expired, err := tok.SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	store.Set("relay:state:n1", []byte("google"), time.Minute)

	if _, err := s.Consume(expired); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("state vencido debe fallar cerrado, got %v", err)
	}
}

func TestGenerateNonce_NoCollisions(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		n, err := generateNonce(24)
		if err != nil {
			t.Fatal(err)
		}
		if _, dup := seen[n]; dup {
			t.Fatalf("nonce repetido: %s", n)
		}
		seen[n] = struct{}{}
	}
}
