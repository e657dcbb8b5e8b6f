//go:build linux || darwin

package log

import "golang.org/x/sys/unix"

// isTerminal reports whether fd is a terminal, by asking for its termios.
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), ioctlGetTermios)
	return err == nil
}
