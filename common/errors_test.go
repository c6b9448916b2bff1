package common

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := E(KindCrypto, "obfuscation.Decrypt", errors.New("bad padding"))

	assert.True(t, errors.Is(err, ErrCrypto))
	assert.False(t, errors.Is(err, ErrIO))
	assert.Equal(t, KindCrypto, KindOf(err))
	assert.Equal(t, "obfuscation.Decrypt: CryptoError: bad padding", err.Error())
}

func TestErrorSurvivesWrapping(t *testing.T) {
	inner := E(KindIO, "obfuscation.ObfuscateFile", fs.ErrNotExist)
	wrapped := errors.Wrap(inner, "loading model")
	wrapped = fmt.Errorf("skill: %w", wrapped)

	assert.True(t, errors.Is(wrapped, ErrIO))
	assert.True(t, errors.Is(wrapped, fs.ErrNotExist))
	assert.Equal(t, KindIO, KindOf(wrapped))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestCodeAndExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code uint32
		exit int
	}{
		{name: "nil", err: nil, code: 0, exit: 0},
		{name: "crypto", err: E(KindCrypto, "op", nil), code: 0, exit: 2},
		{name: "io", err: E(KindIO, "op", nil), code: 0, exit: 3},
		{name: "no source", err: E(KindNoSourceFound, "op", nil), code: 0, exit: 4},
		{name: "no format", err: E(KindNoCompatibleFormat, "op", nil), code: 0, exit: 5},
		{name: "invalid", err: E(KindInvalidArgument, "op", nil), code: 0, exit: 6},
		{name: "plain", err: errors.New("x"), code: 0, exit: 1},
		{
			name: "nested code",
			err:  E(KindIO, "outer", WithCode(KindIO, "inner", 0xC00D3704, nil)),
			code: 0xC00D3704,
			exit: int(int32(-1072875772)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeOf(tt.err))
			assert.Equal(t, tt.exit, ExitCode(tt.err))
		})
	}
}

func TestSentinelWithCode(t *testing.T) {
	err := WithCode(KindIO, "camera.Initialize", 0xC00D3704, nil)

	require.True(t, errors.Is(err, &Error{Kind: KindIO, Code: 0xC00D3704}))
	assert.False(t, errors.Is(err, &Error{Kind: KindIO, Code: 1}))
	assert.Contains(t, err.Error(), "0xc00d3704")
}

func TestFaceBox(t *testing.T) {
	box := FaceBox{Left: 0, Top: 0, Right: 0.4, Bottom: 0.4}

	assert.True(t, box.Valid())
	assert.False(t, box.IsZero())
	assert.InDelta(t, 0.4, box.Width(), 1e-6)
	assert.InDelta(t, 0.4, box.Height(), 1e-6)
	assert.Equal(t, []float32{0, 0, 0.4, 0.4}, box.Flatten(nil))
	assert.Equal(t, "Face (0.000, 0.000), (0.400, 0.400)", box.String())

	assert.True(t, FaceBox{}.IsZero())
	assert.False(t, FaceBox{Left: 0.5, Right: 0.2}.Valid())
}
