//go:build !unix

package server

import "syscall"

// Windows sockets treat SO_REUSEADDR as port stealing; the default
// listener already rebinds after close there.
func reuseAddr(_, _ string, _ syscall.RawConn) error {
	return nil
}
