package parent

import (
	"bytes"
	"fmt"
	"os"
)

// exited reports whether /proc shows pid as a zombie. A zombie still
// answers signal 0, so kill alone cannot tell that it is gone.
func exited(pid int) bool {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}
	state, ok := procState(data)
	return ok && (state == 'Z' || state == 'X')
}

// procState extracts the state letter from a /proc/<pid>/stat line. The
// command name is parenthesised and may itself contain parentheses.
func procState(stat []byte) (byte, bool) {
	i := bytes.LastIndexByte(stat, ')')
	if i < 0 || i+2 >= len(stat) {
		return 0, false
	}
	return stat[i+2], true
}
