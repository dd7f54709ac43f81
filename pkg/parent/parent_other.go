//go:build !unix && !windows

package parent

func newWatcher(int, bool) (Watcher, error) {
	return nil, ErrUnsupported
}
