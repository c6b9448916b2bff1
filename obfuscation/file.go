package obfuscation

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-skills/common"
)

// ObfuscateFile encrypts inputPath into outputPath.
//
// The whole input is read into memory. The ciphertext is written to a
// temporary file next to outputPath and renamed over it, so a failure never
// leaves a partially written output behind. An existing output is replaced.
//
// Arguments:
//   - inputPath: The plain model file.
//   - outputPath: The obfuscated file to create or replace.
//   - key: The combined key.
//
// Returns:
//   - error: An IOError on file failures, a CryptoError on cipher failures.
func ObfuscateFile(inputPath, outputPath string, key Key) error {
	const op = "obfuscation.ObfuscateFile"

	plain, err := os.ReadFile(inputPath)
	if err != nil {
		return common.E(common.KindIO, op, err)
	}

	encrypted, err := Encrypt(key, plain)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(outputPath, encrypted); err != nil {
		return common.E(common.KindIO, op, err)
	}
	return nil
}

// DeobfuscateFile reads and decrypts an obfuscated file.
//
// Arguments:
//   - path: The obfuscated file.
//   - key: The combined key used to produce it.
//
// Returns:
//   - []byte: The plain bytes.
//   - error: An IOError if the file cannot be read, a CryptoError if it does not decrypt.
func DeobfuscateFile(path string, key Key) ([]byte, error) {
	encrypted, err := os.ReadFile(path)
	if err != nil {
		return nil, common.E(common.KindIO, "obfuscation.DeobfuscateFile", err)
	}
	return Decrypt(key, encrypted)
}

// DeobfuscateToLoadableStream decrypts an obfuscated file into memory.
//
// Returns:
//   - *bytes.Reader: A seekable reader positioned at offset 0.
//   - error: See DeobfuscateFile.
func DeobfuscateToLoadableStream(path string, key Key) (*bytes.Reader, error) {
	plain, err := DeobfuscateFile(path, key)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(plain), nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}
