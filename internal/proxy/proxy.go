// Package proxy loads the proxy list used when a remedy asks for a proxy and
// picks entries at random.
package proxy

import (
	"bufio"
	"math/rand"
	"os"
	"strings"
)

// DefaultProxy is used when no proxy list file is available.
const DefaultProxy = "http://127.0.0.1:8080"

// Pool is a read-only set of proxy URLs. Selection is an independent uniform
// random draw with replacement.
type Pool struct {
	proxies []string
	pick    func(n int) int
}

// Load reads one proxy URL per line from path, skipping blank lines. A
// missing or unreadable file is not an error: the pool falls back to
// DefaultProxy and reports fellBack so the caller can warn the operator.
func Load(path string) (p *Pool, fellBack bool) {
	f, err := os.Open(path)
	if err != nil {
		return NewPool(nil), true
	}
	defer f.Close()

	var proxies []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			proxies = append(proxies, line)
		}
	}
	if sc.Err() != nil || len(proxies) == 0 {
		return NewPool(nil), true
	}
	return NewPool(proxies), false
}

// NewPool builds a pool from the given proxies, falling back to DefaultProxy
// when the list is empty.
func NewPool(proxies []string) *Pool {
	if len(proxies) == 0 {
		proxies = []string{DefaultProxy}
	}
	return &Pool{proxies: proxies, pick: rand.Intn}
}

// SetPicker overrides the random index function, for deterministic tests.
func (p *Pool) SetPicker(pick func(n int) int) {
	p.pick = pick
}

// Pick returns one proxy URL chosen uniformly at random.
func (p *Pool) Pick() string {
	return p.proxies[p.pick(len(p.proxies))]
}

// Len returns the number of proxies in the pool.
func (p *Pool) Len() int {
	return len(p.proxies)
}
