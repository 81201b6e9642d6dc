package paper

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ulidSource hands out ULIDs for order rows. Monotonic entropy keeps ids
// generated within one millisecond lexicographically increasing, so rows
// sort by creation time and the status index stays insert-ordered.
type ulidSource struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newULIDSource() *ulidSource {
	seed := time.Now().UnixNano()
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(buf[:]))
	}
	return &ulidSource{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// next returns a ULID stamped with t. Entropy exhaustion within a
// millisecond is the only failure mode and MustNew treats it as fatal.
func (s *ulidSource) next(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t.UTC()), s.entropy).String()
}
