// Package stacktrace trims raw goroutine stacks down to this module's own frames.
package stacktrace

import "strings"

// InternalPaths extracts the internal package frames from a raw stack trace,
// keeping panic logs readable without dumping the whole runtime stack.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines))

	for i := 0; i < len(lines)-1; i++ {
		line := strings.TrimSpace(lines[i+1])
		if !strings.Contains(line, "/internal/") || !strings.Contains(line, ".go") {
			continue
		}

		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		end := strings.Index(line[idx:], " ")
		if end == -1 {
			end = len(line)
		} else {
			end += idx
		}

		shortPath := line[:end]
		if internalIdx := strings.Index(shortPath, "/internal/"); internalIdx != -1 {
			paths = append(paths, shortPath[internalIdx+1:])
		}
	}

	return paths
}
