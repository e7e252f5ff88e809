package stats

import (
	"math/rand"
	"sync"
)

// DefaultQuotes is the Malay motivational pool appended to weekly summaries.
var DefaultQuotes = []string{
	"Kehadiran hari ini, kejayaan esok hari. 🌟",
	"Setiap hari di sekolah adalah satu langkah ke arah impian. 💪",
	"Murid yang hadir, ilmu yang mekar. 📚",
	"Rajin ke sekolah, cerah masa depan. ☀️",
	"Kehadiran penuh tanda murid cemerlang. 🏆",
	"Jangan biarkan kerusi kosong, ilmu menanti di sekolah. 🪑",
	"Hadir setiap hari, hebat setiap masa. ✨",
	"Sekolah dirindui, ilmu dicari, kejayaan dimiliki. 🎯",
}

// Pick draws one quote from the pool with the given source of randomness.
// The rng parameter makes the draw reproducible in tests; pass nil to use
// the package-level source. An empty pool yields an empty string.
func Pick(pool []string, rng *rand.Rand) string {
	if len(pool) == 0 {
		return ""
	}
	if rng == nil {
		return pool[rand.Intn(len(pool))]
	}
	return pool[rng.Intn(len(pool))]
}

// QuotePicker draws quotes from a fixed pool. Safe for concurrent use.
type QuotePicker struct {
	mu   sync.Mutex
	pool []string
	rng  *rand.Rand
}

// NewQuotePicker creates a picker over the pool. A nil pool uses
// DefaultQuotes; a nil rng uses the package-level source.
func NewQuotePicker(pool []string, rng *rand.Rand) *QuotePicker {
	if pool == nil {
		pool = DefaultQuotes
	}
	return &QuotePicker{pool: pool, rng: rng}
}

// Pick returns one quote from the pool.
func (p *QuotePicker) Pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Pick(p.pool, p.rng)
}
