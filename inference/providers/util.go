package providers

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/nvr-ai/go-skills/common"
)

// LibraryPathEnv overrides the onnxruntime shared library location.
const LibraryPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// GetSharedLibPath returns the path to the shared library for the current platform.
//
// Returns:
//   - string: The path to the shared library.
//   - error: InvalidArgument if the platform has no known library.
func GetSharedLibPath() (string, error) {
	if p := os.Getenv(LibraryPathEnv); p != "" {
		return p, nil
	}
	return sharedLibPath(runtime.GOOS, runtime.GOARCH)
}

func sharedLibPath(goos, goarch string) (string, error) {
	dir := "third_party"
	switch goos {
	case "windows":
		if goarch == "amd64" || goarch == "arm64" {
			return filepath.Join(dir, "onnxruntime.dll"), nil
		}
	case "darwin":
		return filepath.Join(dir, "libonnxruntime.dylib"), nil
	case "linux":
		if goarch == "arm64" {
			return filepath.Join(dir, "onnxruntime_arm64.so"), nil
		}
		return filepath.Join(dir, "onnxruntime.so"), nil
	}
	return "", common.Errorf(common.KindInvalidArgument, "providers.GetSharedLibPath",
		"no onnxruntime library for %s/%s", goos, goarch)
}
