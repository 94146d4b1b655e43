// Package hashing implements one-way hashing and constant-time
// verification of API/SDK bearer tokens, per spec.md §4.2. Two profiles
// are offered: Argon2id for long-lived admin API keys, and a much
// cheaper BLAKE2b-based profile for SDK keys, which are verified on
// every hot-path config fetch.
package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
)

// Params controls the Argon2id cost parameters. Defaults follow spec.md
// §4.2: memoryCost 2^16 KiB, timeCost 3, parallelism 1.
type Params struct {
	MemoryKiB   uint32
	TimeCost    uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// DefaultParams returns the spec-mandated Argon2id cost parameters.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   1 << 16,
		TimeCost:    3,
		Parallelism: 1,
		SaltLen:     16,
		KeyLen:      32,
	}
}

// Service hashes and verifies tokens under either profile.
type Service struct {
	argonParams Params
}

// New creates a Service with the given Argon2id parameters.
func New(params Params) *Service {
	return &Service{argonParams: params}
}

const (
	argonPrefix = "argon2id"
	blake2Prefix = "blake2b"
)

// HashAdminKey hashes a long-lived admin API key token with Argon2id.
// The result is a self-describing string: it embeds the algorithm name,
// cost parameters and salt, so Verify does not need out-of-band params.
func (s *Service) HashAdminKey(token string) (string, error) {
	p := s.argonParams
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	sum := argon2.IDKey([]byte(token), salt, p.TimeCost, p.MemoryKiB, p.Parallelism, p.KeyLen)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argonPrefix,
		argon2.Version,
		p.MemoryKiB, p.TimeCost, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// HashSDKKey hashes a high-throughput SDK key token with a fast,
// still-salted BLAKE2b profile acceptable on the read hot path.
func (s *Service) HashSDKKey(token string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	sum := blake2bSum(salt, token)
	return fmt.Sprintf("$%s$%s$%s",
		blake2Prefix,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify recomputes the hash for token under whichever profile the
// self-describing hash string names, and compares constant-time.
func (s *Service) Verify(hash, token string) (bool, error) {
	parts := strings.Split(hash, "$")
	// parts[0] is empty (leading "$"); parts[1] is the algorithm name.
	if len(parts) < 2 {
		return false, fmt.Errorf("malformed hash string")
	}
	switch parts[1] {
	case argonPrefix:
		return verifyArgon2id(parts, token)
	case blake2Prefix:
		return verifyBlake2b(parts, token)
	default:
		return false, fmt.Errorf("unknown hash profile %q", parts[1])
	}
}

func verifyArgon2id(parts []string, token string) (bool, error) {
	if len(parts) != 6 {
		return false, fmt.Errorf("malformed argon2id hash string")
	}
	var version int
	var memKiB, timeCost uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("parse version: %w", err)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memKiB, &timeCost, &parallelism); err != nil {
		return false, fmt.Errorf("parse cost params: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}
	got := argon2.IDKey([]byte(token), salt, timeCost, memKiB, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func verifyBlake2b(parts []string, token string) (bool, error) {
	if len(parts) != 4 {
		return false, fmt.Errorf("malformed blake2b hash string")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}
	got := blake2bSum(salt, token)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func blake2bSum(salt []byte, token string) []byte {
	h, _ := blake2b.New256(salt) // salt doubles as the keyed-hash key; len<=64 always valid here.
	_, _ = h.Write([]byte(token))
	return h.Sum(nil)
}
