// Package auth signs and verifies instruction requests.
//
// A request is authorized by an EdDSA JWT signed with the caller's ed25519
// key. The subject is the caller's address, from which the verification key
// is recovered, so no key registry is needed. The token is bound to one
// instruction and one request body through the ins and dig claims.
package auth

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"github.com/kkkkikiki/crowdfund/internal/address"
)

// DefaultMaxAge bounds how long a signed request stays valid.
const DefaultMaxAge = 2 * time.Minute

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned for tokens that fail signature or claim checks.
	ErrInvalidToken = errors.New("invalid request signature")
	// ErrReplayedToken is returned when a token id has already been accepted.
	ErrReplayedToken = errors.New("request token already used")
	// ErrInvalidKey is returned for undecodable private keys.
	ErrInvalidKey = errors.New("invalid private key")
)

type requestClaims struct {
	jwt.RegisteredClaims
	Instruction string `json:"ins"`
	Digest      string `json:"dig"`
}

// Digest returns the hex SHA-256 of a request body.
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// GenerateKey returns a new random ed25519 key.
func GenerateKey() (ed25519.PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// ParsePrivateKey decodes a base58 ed25519 key, either the 32-byte seed or
// the 64-byte seed plus public key form.
func ParsePrivateKey(s string) (ed25519.PrivateKey, error) {
	raw, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		key := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
		if !key.Equal(ed25519.PrivateKey(raw)) {
			return nil, fmt.Errorf("%w: public half does not match seed", ErrInvalidKey)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKey, len(raw))
	}
}

// EncodePrivateKey returns the base58 form of key accepted by ParsePrivateKey.
func EncodePrivateKey(key ed25519.PrivateKey) string {
	return base58.Encode(key)
}

// Signer issues request tokens for one address.
type Signer struct {
	key    ed25519.PrivateKey
	addr   address.Address
	maxAge time.Duration
	now    func() time.Time
}

// NewSigner creates a signer for key.
func NewSigner(key ed25519.PrivateKey) *Signer {
	return &Signer{
		key:    key,
		addr:   address.FromPublicKey(key.Public().(ed25519.PublicKey)),
		maxAge: DefaultMaxAge,
		now:    time.Now,
	}
}

// Address returns the address the signer authorizes for.
func (s *Signer) Address() address.Address {
	return s.addr
}

// Sign returns a token authorizing instruction with the given request body.
func (s *Signer) Sign(instruction string, body []byte) (string, error) {
	now := s.now()
	claims := requestClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.addr.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
		Instruction: instruction,
		Digest:      Digest(body),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s request: %w", instruction, err)
	}
	return token, nil
}

// Verifier checks request tokens and rejects replays within their lifetime.
type Verifier struct {
	maxAge time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time // jti -> expiry
}

// NewVerifier creates a verifier accepting tokens valid for at most maxAge.
func NewVerifier(maxAge time.Duration) *Verifier {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Verifier{
		maxAge: maxAge,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
}

// Verify checks token against instruction and body and returns the signer.
func (v *Verifier) Verify(token, instruction string, body []byte) (address.Address, error) {
	if strings.TrimSpace(token) == "" {
		return address.Address{}, ErrMissingToken
	}

	var claims requestClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		signer, err := address.Parse(claims.Subject)
		if err != nil {
			return nil, err
		}
		return signer.PublicKey(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return address.Address{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.ID == "" {
		return address.Address{}, fmt.Errorf("%w: jti is required", ErrInvalidToken)
	}
	if claims.Instruction != instruction {
		return address.Address{}, fmt.Errorf("%w: signed for %q", ErrInvalidToken, claims.Instruction)
	}
	if claims.Digest != Digest(body) {
		return address.Address{}, fmt.Errorf("%w: body digest mismatch", ErrInvalidToken)
	}

	now := v.now()
	expiry := claims.ExpiresAt.Time
	if expiry.Sub(now) > v.maxAge {
		return address.Address{}, fmt.Errorf("%w: expiry too far in the future", ErrInvalidToken)
	}

	if err := v.remember(claims.ID, expiry, now); err != nil {
		return address.Address{}, err
	}

	signer, _ := address.Parse(claims.Subject)
	return signer, nil
}

func (v *Verifier) remember(id string, expiry, now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for jti, exp := range v.seen {
		if !exp.After(now) {
			delete(v.seen, jti)
		}
	}
	if _, ok := v.seen[id]; ok {
		return ErrReplayedToken
	}
	v.seen[id] = expiry
	return nil
}
