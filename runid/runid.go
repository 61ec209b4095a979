// Package runid makes the ULIDs that tag each selection run in the
// logs and in the pick output.
package runid

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var monotonicPool = sync.Pool{
	New: func() any {
		var seed int64
		err := binary.Read(cryptorand.Reader, binary.BigEndian, &seed)
		if err != nil {
			// fall back to the clock; run ids only need to be unique-ish
			seed = time.Now().UnixNano()
		}
		rand := mathrand.New(mathrand.NewSource(seed))
		return ulid.Monotonic(rand, 0)
	},
}

// New returns a ULID for the time t.
func New(t time.Time) (ulid.ULID, error) {
	mono := monotonicPool.Get().(io.Reader)
	defer monotonicPool.Put(mono)

	id, err := ulid.New(ulid.Timestamp(t), mono)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}
