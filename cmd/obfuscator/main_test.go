package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-skills/obfuscation"
)

const testGUID = "3F2504E0-4F89-11D3-9A0C-0305E82C3301"

func TestRunWrongArgumentCount(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "model.onnx")
	require.NoError(t, os.WriteFile(in, []byte("model"), 0o644))

	for _, args := range [][]string{
		nil,
		{in, dir, "model.bin"},
		{in, dir, "model.bin", testGUID, "extra"},
	} {
		var stdout, stderr bytes.Buffer
		assert.Equal(t, -1, run(args, &stdout, &stderr))
		assert.Contains(t, stdout.String(), "Usage: obfuscator")
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunObfuscatesAndVerifies(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "model.onnx")
	plain := bytes.Repeat([]byte("onnx"), 1000)
	require.NoError(t, os.WriteFile(in, plain, 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{in, dir, "model.bin", testGUID}, &stdout, &stderr)
	require.Equal(t, 0, code, stdout.String())
	assert.Contains(t, stdout.String(), "strkey = "+testGUID)

	key, err := obfuscation.ParseKey(testGUID)
	require.NoError(t, err)
	got, err := obfuscation.DeobfuscateFile(filepath.Join(dir, "model.bin"), key)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestRunReportsErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "model.onnx")
	require.NoError(t, os.WriteFile(in, []byte("model"), 0o644))

	tests := []struct {
		name string
		args []string
		exit int
	}{
		{name: "bad key", args: []string{in, dir, "model.bin", "{" + testGUID + "}"}, exit: 6},
		{name: "missing input", args: []string{filepath.Join(dir, "missing"), dir, "model.bin", testGUID}, exit: 3},
		{name: "missing output dir", args: []string{in, filepath.Join(dir, "nope"), "model.bin", testGUID}, exit: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.exit, run(tt.args, &stdout, &stderr))
			assert.Contains(t, stdout.String(), "Error during model encryption: ")
		})
	}
}
