// Package tokencodec builds and parses opaque bearer tokens for admin API
// keys and SDK keys, per spec.md §4.2/§6. A token is a prefix (rpa_ for
// admin keys, rp_ for SDK keys) followed by the hex encoding of 24 random
// bytes concatenated with the key's 16-byte id. The id is recoverable
// from the trailing bytes without touching the hash store, so a lookup
// by token never needs a full-table scan: fetch the row by id, then
// verify the whole token against the stored hash.
package tokencodec

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const randomLen = 24

// PrefixAdminKey and PrefixSDKKey are the two token families this
// control plane issues.
const (
	PrefixAdminKey = "rpa"
	PrefixSDKKey   = "rp"
)

// Build mints a new token of the given prefix bound to id. It returns
// the token to return to the caller once (it is never stored in the
// clear) and the random portion. Callers hash and persist the whole
// token, not the random portion.
func Build(prefix string, id uuid.UUID) (token string, random []byte, err error) {
	random = make([]byte, randomLen)
	if _, err := rand.Read(random); err != nil {
		return "", nil, fmt.Errorf("read random bytes: %w", err)
	}
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return "", nil, fmt.Errorf("marshal id: %w", err)
	}
	payload := append(append([]byte{}, random...), idBytes...)
	token = prefix + "_" + hex.EncodeToString(payload)
	return token, random, nil
}

// Parse splits a token into its prefix, embedded id, and random portion.
// It does not verify the random portion against any stored hash — that
// is the caller's job once it has loaded the row for id.
func Parse(token string) (prefix string, id uuid.UUID, random []byte, err error) {
	idx := strings.IndexByte(token, '_')
	if idx < 0 {
		return "", uuid.Nil, nil, fmt.Errorf("token missing prefix separator")
	}
	prefix = token[:idx]
	payload, err := hex.DecodeString(token[idx+1:])
	if err != nil {
		return "", uuid.Nil, nil, fmt.Errorf("decode token payload: %w", err)
	}
	if len(payload) != randomLen+16 {
		return "", uuid.Nil, nil, fmt.Errorf("unexpected token payload length %d", len(payload))
	}
	random = payload[:randomLen]
	if err := id.UnmarshalBinary(payload[randomLen:]); err != nil {
		return "", uuid.Nil, nil, fmt.Errorf("unmarshal id: %w", err)
	}
	return prefix, id, random, nil
}
