package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Key derives the cache key for (cacheType, params). It is a pure function:
// parameters are canonicalized by sorted key order before hashing, so
// semantically identical requests collide to one key regardless of map
// iteration order. The key format is type:sha256hex.
func Key(cacheType string, params Params) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(cacheType)
	for _, name := range names {
		sb.WriteString("|")
		sb.WriteString(name)
		sb.WriteString("=")
		// Scalar values marshal deterministically; Marshal only fails for
		// non-serializable values, which the canonical form encodes by
		// type name so they never alias a real value.
		val, err := json.Marshal(params[name])
		if err != nil {
			sb.WriteString("!unserializable")
			continue
		}
		sb.Write(val)
	}

	hash := sha256.Sum256([]byte(sb.String()))
	return cacheType + ":" + hex.EncodeToString(hash[:])
}
