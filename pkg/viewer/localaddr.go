package viewer

import (
	"net"
	"sync"
	"time"
)

// refreshInterval limits how often a miss re-reads the interface list.
const refreshInterval = 5 * time.Second

// LocalAddrs is a cached set of the host's IPv4 addresses, loopback
// included. A lookup miss refreshes the cache at most every few seconds
// so new interfaces are picked up.
type LocalAddrs struct {
	mu        sync.Mutex
	addrs     map[[4]byte]struct{}
	refreshed time.Time
	lookup    func() ([]net.Addr, error)
}

// NewLocalAddrs reads addresses from net.InterfaceAddrs.
func NewLocalAddrs() *LocalAddrs {
	return &LocalAddrs{lookup: net.InterfaceAddrs}
}

// Contains reports whether ip is one of the host's IPv4 addresses.
func (l *LocalAddrs) Contains(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}
	key := [4]byte(ip4)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.addrs[key]; ok {
		return true
	}
	if l.addrs != nil && time.Since(l.refreshed) < refreshInterval {
		return false
	}
	l.refresh()
	_, ok := l.addrs[key]
	return ok
}

func (l *LocalAddrs) refresh() {
	l.refreshed = time.Now()
	addrs, err := l.lookup()
	if err != nil {
		if l.addrs == nil {
			l.addrs = map[[4]byte]struct{}{}
		}
		return
	}
	set := make(map[[4]byte]struct{}, len(addrs))
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil {
			set[[4]byte(ip4)] = struct{}{}
		}
	}
	l.addrs = set
}
