// Package obfuscation - Symmetric obfuscation of model files.
//
// A model file is obfuscated with AES-128 in CBC mode with PKCS7 padding. The
// key is derived from a caller GUID combined with a shared GUID, and the same
// 16 bytes are used as the initialization vector. Files carry no header: the
// output is the raw ciphertext.
package obfuscation

import (
	"github.com/google/uuid"

	"github.com/nvr-ai/go-skills/common"
)

// KeySize is the size of a combined key in bytes.
const KeySize = 16

// SharedSecret is the GUID combined with every caller key.
//
// {688885AD-6073-49C0-A9B2-1A9C00F2798A}
var SharedSecret = uuid.UUID{
	0x68, 0x88, 0x85, 0xad,
	0x60, 0x73,
	0x49, 0xc0,
	0xa9, 0xb2, 0x1a, 0x9c, 0x00, 0xf2, 0x79, 0x8a,
}

// Key is a combined 16-byte key. It is used as both the AES key and the IV.
type Key [KeySize]byte

// DeriveKey combines a caller GUID with the shared secret.
//
// Every byte of the result is SharedSecret[i] AND userGUID[i]. The GUID bytes
// are taken in string order (Data1 and the other integer fields big-endian),
// matching how obfuscated files were produced.
//
// Arguments:
//   - userGUID: The caller-supplied GUID.
//
// Returns:
//   - Key: The combined key.
func DeriveKey(userGUID uuid.UUID) Key {
	var key Key
	for i := range key {
		key[i] = SharedSecret[i] & userGUID[i]
	}
	return key
}

// ParseKey parses a brace-less GUID string and derives the combined key.
//
// Only the canonical XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX form is accepted.
//
// Arguments:
//   - s: The GUID string.
//
// Returns:
//   - Key: The combined key.
//   - error: An InvalidArgument error if s is not a canonical GUID.
func ParseKey(s string) (Key, error) {
	if len(s) != 36 {
		return Key{}, common.Errorf(common.KindInvalidArgument, "obfuscation.ParseKey",
			"key %q must be a GUID without braces (XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX)", s)
	}
	guid, err := uuid.Parse(s)
	if err != nil {
		return Key{}, common.E(common.KindInvalidArgument, "obfuscation.ParseKey", err)
	}
	return DeriveKey(guid), nil
}

// Bytes returns a copy of the key bytes.
func (k Key) Bytes() []byte {
	b := make([]byte, KeySize)
	copy(b, k[:])
	return b
}
