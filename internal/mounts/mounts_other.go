//go:build !linux

package mounts

func listNative() ([]Mount, error) {
	return nil, ErrUnsupported
}
