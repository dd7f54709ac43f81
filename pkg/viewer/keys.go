package viewer

import (
	"io"
)

// Control bytes read from a raw-mode terminal.
const (
	keyCtrlC = 0x03
	keyCtrlL = 0x0c
	keyLF    = '\n'
	keyCR    = '\r'
)

// KeyHandlers are the actions ReadKeys dispatches to.
type KeyHandlers struct {
	Exit      func()
	Clear     func()
	Interrupt func()
}

// ReadKeys reads single key presses from r until Enter, Ctrl+C or the
// end of input. Enter calls Exit and Ctrl+C calls Interrupt, and both
// end the loop. Ctrl+L calls Clear. End of input returns without calling
// anything; a closed stdin does not mean the user wants out.
func ReadKeys(r io.Reader, h KeyHandlers) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			switch b {
			case keyCR, keyLF:
				call(h.Exit)
				return
			case keyCtrlC:
				call(h.Interrupt)
				return
			case keyCtrlL:
				call(h.Clear)
			}
		}
		if err != nil {
			return
		}
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
