package uid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// ErrStableNodeIdentityUnavailable indicates no stable node identity is available.
var ErrStableNodeIdentityUnavailable = errors.New("uid: cannot determine stable node identity (machine-id/hostname unavailable)")

// ObjectIDGenerator produces 32-byte sortable IDs rendered as 64 hex chars.
// Layout: 6-byte millisecond timestamp, 6-byte node id, 2-byte pid, 4-byte
// counter, 14 random bytes.
type ObjectIDGenerator struct {
	nodeID  [6]byte
	pid     uint16
	counter uint32
}

// NewObjectIDGenerator derives the node id from /etc/machine-id or the
// hostname and seeds the counter from crypto/rand.
func NewObjectIDGenerator() (*ObjectIDGenerator, error) {
	src, err := stableNodeIdentity()
	if err != nil {
		return nil, err
	}

	g := &ObjectIDGenerator{pid: uint16(os.Getpid())}
	sum := sha256.Sum256([]byte(src))
	copy(g.nodeID[:], sum[:6])

	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	g.counter = binary.BigEndian.Uint32(seed[:])

	return g, nil
}

func stableNodeIdentity() (string, error) {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}

	if h, err := os.Hostname(); err == nil {
		if h = strings.TrimSpace(h); h != "" {
			return h, nil
		}
	}

	return "", ErrStableNodeIdentityUnavailable
}

// Generate returns a 64-char hex string. IDs sort roughly by creation time.
func (g *ObjectIDGenerator) Generate() string {
	var raw [32]byte

	binary.BigEndian.PutUint64(raw[:8], uint64(time.Now().UnixMilli())<<16)
	copy(raw[6:12], g.nodeID[:])
	binary.BigEndian.PutUint16(raw[12:14], g.pid)
	binary.BigEndian.PutUint32(raw[14:18], atomic.AddUint32(&g.counter, 1))

	// Random tail; on failure fall back to a hash of the deterministic head
	// so IDs stay unique per counter tick.
	if _, err := rand.Read(raw[18:]); err != nil {
		sum := sha256.Sum256(raw[:18])
		copy(raw[18:], sum[:14])
	}

	var hexBuf [64]byte
	hex.Encode(hexBuf[:], raw[:])
	return string(hexBuf[:])
}
