//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package httpapi

import (
	"context"
	"net"
)

// Listen binds addr. Without SO_REUSEPORT only one worker can hold the port.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", addr)
}
