package config

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Replaced in tests.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// Exitf prints a fatal error line to stderr and terminates with status 1.
func Exitf(format string, args ...any) {
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintln(stderr, line)
	exit(1)
}
