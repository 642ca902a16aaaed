package solitaire

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"
)

// Source supplies shuffle randomness. *math/rand.Rand satisfies it, which is
// what tests inject for reproducible decks.
type Source interface {
	// Intn returns a uniform value in [0, n).
	Intn(n int) int
}

// CryptoSource draws from crypto/rand. If crypto/rand fails it falls back to
// a time-seeded generator so deck creation keeps working.
type CryptoSource struct {
	mu   sync.Mutex
	seed int64
}

func (s *CryptoSource) Intn(n int) int {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err == nil {
		return int(nBig.Int64())
	}
	return s.fallback(n)
}

func (s *CryptoSource) fallback(n int) int {
	// Minimal fallback (predictable) used only if crypto/rand fails.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	s.seed = (s.seed*6364136223846793005 + 1) & 0x7fffffffffffffff
	return int(s.seed % int64(n))
}
