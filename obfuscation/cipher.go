package obfuscation

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-skills/common"
)

// Encrypt encrypts a whole buffer with AES-CBC and PKCS7 padding.
//
// The key doubles as the IV so that existing obfuscated files stay readable.
//
// Arguments:
//   - key: The combined key.
//   - plaintext: The bytes to encrypt. May be empty.
//
// Returns:
//   - []byte: The ciphertext, a multiple of the AES block size.
//   - error: A CryptoError if the cipher cannot be constructed.
func Encrypt(key Key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, common.E(common.KindCrypto, "obfuscation.Encrypt", err)
	}

	padded := pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, key[:]).CryptBlocks(out, padded)
	return out, nil
}

// Decrypt reverses Encrypt.
//
// Arguments:
//   - key: The combined key used for encryption.
//   - ciphertext: The encrypted bytes.
//
// Returns:
//   - []byte: The plaintext.
//   - error: A CryptoError if the input is not block aligned or the padding is invalid.
func Decrypt(key Key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, common.E(common.KindCrypto, "obfuscation.Decrypt", err)
	}

	size := block.BlockSize()
	if len(ciphertext) == 0 || len(ciphertext)%size != 0 {
		return nil, common.Errorf(common.KindCrypto, "obfuscation.Decrypt",
			"ciphertext length %d is not a positive multiple of %d", len(ciphertext), size)
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, key[:]).CryptBlocks(out, ciphertext)

	plain, err := unpad(out, size)
	if err != nil {
		return nil, common.E(common.KindCrypto, "obfuscation.Decrypt", err)
	}
	return plain, nil
}

// pad appends PKCS7 padding. A full block is added when data is already aligned.
func pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad strips and validates PKCS7 padding.
func unpad(data []byte, size int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > size || n > len(data) {
		return nil, errors.Errorf("invalid padding length %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding bytes")
		}
	}
	return data[:len(data)-n], nil
}
