//go:build !linux

package filesystem

import "errors"

var errReflinkUnsupported = errors.New("reflink is not supported on this platform")

func reflink(src, dst string) error {
	return errReflinkUnsupported
}

func reflinkSupported() bool {
	return false
}
