// Package util - Helpers for the command line tools.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-skills/common"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number parsed from a "frame-N" name, or -1.
	Frame int
}

// IsImageFile reports whether name has an extension the skill can decode.
func IsImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// LoadImageFiles reads a single image file, or every image file in a directory.
//
// Directory entries are ordered by frame number when named "frame-N.ext",
// then by name.
//
// Arguments:
//   - path: An image file or a directory containing image files.
//
// Returns:
//   - []ImageFile: The loaded files.
//   - error: IOError if path or one of its images cannot be read,
//     InvalidArgument if path is a file with an unsupported extension.
func LoadImageFiles(path string) ([]ImageFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, common.E(common.KindIO, "util.LoadImageFiles", err)
	}
	if info.IsDir() {
		return LoadDirectoryImageFiles(path)
	}
	if !IsImageFile(path) {
		return nil, common.Errorf(common.KindInvalidArgument, "util.LoadImageFiles", "%s is not a jpeg or png file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.E(common.KindIO, "util.LoadImageFiles", err)
	}
	return []ImageFile{{Path: path, Data: data, Frame: frameNumber(filepath.Base(path))}}, nil
}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
//   - error: IOError if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.E(common.KindIO, "util.LoadDirectoryImageFiles", err)
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() || !IsImageFile(file.Name()) {
			continue
		}

		imgPath := filepath.Join(dir, file.Name())
		data, readErr := os.ReadFile(imgPath)
		if readErr != nil {
			return nil, common.E(common.KindIO, "util.LoadDirectoryImageFiles", readErr)
		}
		images = append(images, ImageFile{
			Path:  imgPath,
			Data:  data,
			Frame: frameNumber(file.Name()),
		})
	}

	sort.SliceStable(images, func(i, j int) bool {
		if images[i].Frame != images[j].Frame {
			return images[i].Frame < images[j].Frame
		}
		return images[i].Path < images[j].Path
	})

	return images, nil
}

func frameNumber(name string) int {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if !strings.HasPrefix(base, "frame-") {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimPrefix(base, "frame-"))
	if err != nil || n < 0 {
		return -1
	}
	return n
}
