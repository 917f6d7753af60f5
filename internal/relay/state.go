package relay

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/physioquantum/auth-relay/internal/cache"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// StateAudience es la audiencia esperada de los state JWT.
const StateAudience = "relay-state"

const stateKeyPrefix = "relay:state:"

// StateClaims viaja firmado dentro del parámetro state: liga el callback al
// request de autorización que responde (nonce) y arrastra el redirect_uri
// pedido en el init, si hubo override.
type StateClaims struct {
	Provider    string `json:"provider"`
	RedirectURI string `json:"redir,omitempty"`
	Nonce       string `json:"nonce"`
	jwtv5.RegisteredClaims
}

// StateSigner firma y valida state JWTs (HS256) y persiste el nonce en el
// cache para exigir single-use en el callback.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	store  cache.Cache
}

func NewStateSigner(secret string, ttl time.Duration, store cache.Cache) *StateSigner {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateSigner{secret: []byte(secret), ttl: ttl, store: store}
}

// Sign emite un state firmado con nonce fresco y lo registra en el store.
func (s *StateSigner) Sign(provider, redirectURI string) (string, error) {
	nonce, err := generateNonce(24)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	claims := StateClaims{
		Provider:    provider,
		RedirectURI: redirectURI,
		Nonce:       nonce,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Audience:  jwtv5.ClaimStrings{StateAudience},
			ExpiresAt: jwtv5.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
		},
	}
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	s.store.Set(stateKeyPrefix+nonce, []byte(provider), s.ttl)
	return signed, nil
}

// Consume valida firma, audiencia y expiración, y quema el nonce (single-use).
// Falla cerrado: nonce ausente o ya usado ⇒ ErrInvalidState.
func (s *StateSigner) Consume(state string) (*StateClaims, error) {
	claims := &StateClaims{}
	tok, err := jwtv5.ParseWithClaims(state, claims, func(t *jwtv5.Token) (any, error) {
		return s.secret, nil
	}, jwtv5.WithValidMethods([]string{"HS256"}), jwtv5.WithAudience(StateAudience))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidState
	}
	if claims.Nonce == "" {
		return nil, ErrInvalidState
	}
	if _, ok := s.store.Get(stateKeyPrefix + claims.Nonce); !ok {
		return nil, ErrInvalidState
	}
	s.store.Delete(stateKeyPrefix + claims.Nonce)
	return claims, nil
}

// generateNonce genera un string base64url aleatorio de n bytes de entropía.
func generateNonce(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
