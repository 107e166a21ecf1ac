//go:build !egl

package server

func OpenGraphics(string) (*Graphics, error) {
	return nil, ErrGraphicsUnavailable
}
