// codec.go encodes row payloads. data and context are JSON (goccy/go-json),
// content is zstd-compressed, and keys are hashed with xxh3 for the point
// lookup index.

package analytical

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"
)

// Shared encoder/decoder; both are safe for concurrent use and expensive
// to construct.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	zstdDecoder, _ = zstd.NewReader(nil)
)

func compress(s string) []byte {
	if s == "" {
		return nil
	}
	return zstdEncoder.EncodeAll([]byte(s), nil)
}

func decompress(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	out, err := zstdDecoder.DecodeAll(b, nil)
	if err != nil {
		return "", fmt.Errorf("zstd: %w", err)
	}
	return string(out), nil
}

// keyHash identifies (ns, id). Collisions are harmless: lookups also
// compare ns and id.
func keyHash(ns, id string) int64 {
	return int64(xxh3.HashString(ns + "\x00" + id))
}

func encodeJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func encodeData(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func decodeData(b []byte) (map[string]any, error) {
	m := map[string]any{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeAny(b []byte) (any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Timestamps are stored as Unix nanoseconds.
func toUnix(t time.Time) int64 { return t.UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }
