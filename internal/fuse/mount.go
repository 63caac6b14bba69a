//go:build !linux
// +build !linux

package fuse

import (
	"fmt"

	"github.com/pixelloop/angif/gif"
)

func Mount(mountpoint string, source gif.ByteSource) error {
	return fmt.Errorf("FUSE mount is only supported on Linux")
}
