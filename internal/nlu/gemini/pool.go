package gemini

import (
	"sync"
)

// CredentialPool rotates over an ordered list of API keys. A key that has
// failed is never handed out again for the process lifetime.
type CredentialPool struct {
	mu      sync.Mutex
	keys    []string
	current int
	failed  map[int]bool
}

// Credential is one usable entry of the pool.
type Credential struct {
	Index int
	Key   string
}

func NewCredentialPool(keys []string) *CredentialPool {
	copied := make([]string, len(keys))
	copy(copied, keys)
	return &CredentialPool{
		keys:   copied,
		failed: make(map[int]bool),
	}
}

// Current returns the credential at the pool's cursor, advancing past
// failed entries if needed. ok is false when every key has failed; no
// caller should touch the network in that case.
func (p *CredentialPool) Current() (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.nextUsable(p.current)
	if !ok {
		return Credential{}, false
	}
	p.current = idx
	return Credential{Index: idx, Key: p.keys[idx]}, true
}

// MarkFailed permanently retires the credential at idx.
func (p *CredentialPool) MarkFailed(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if idx >= 0 && idx < len(p.keys) {
		p.failed[idx] = true
	}
}

// Rotate retires lastFailed and returns the next usable credential in
// round-robin order. ok is false once the pool is exhausted.
func (p *CredentialPool) Rotate(lastFailed int) (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if lastFailed >= 0 && lastFailed < len(p.keys) {
		p.failed[lastFailed] = true
	}

	idx, ok := p.nextUsable((lastFailed + 1) % max(len(p.keys), 1))
	if !ok {
		return Credential{}, false
	}
	p.current = idx
	return Credential{Index: idx, Key: p.keys[idx]}, true
}

// nextUsable scans at most len(keys) slots starting at from. Bounded loop,
// never recursion. Caller holds the lock.
func (p *CredentialPool) nextUsable(from int) (int, bool) {
	n := len(p.keys)
	if n == 0 {
		return 0, false
	}
	for i := 0; i < n; i++ {
		idx := (from + i) % n
		if !p.failed[idx] {
			return idx, true
		}
	}
	return 0, false
}

// Exhausted reports whether every credential has failed.
func (p *CredentialPool) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.nextUsable(0)
	return !ok
}

// Size returns the number of configured credentials.
func (p *CredentialPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// FailedCount returns the number of retired credentials.
func (p *CredentialPool) FailedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.failed)
}
