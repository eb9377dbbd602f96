package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Key derives a cache key from an operation name and the operation's resolved
// filter parameters. Two invocations with equal parameters always produce the
// same key regardless of how the final query text happens to be formatted, so
// equivalent filter sets share one cache entry.
type Key struct {
	op    string
	parts []string
}

// NewKey starts a key for the named operation.
func NewKey(op string) *Key {
	return &Key{op: op}
}

// Int records an integer parameter.
func (k *Key) Int(name string, v int) *Key {
	k.parts = append(k.parts, name+"="+strconv.Itoa(v))
	return k
}

// Int64 records a 64-bit integer parameter.
func (k *Key) Int64(name string, v int64) *Key {
	k.parts = append(k.parts, name+"="+strconv.FormatInt(v, 10))
	return k
}

// Str records a string parameter.
func (k *Key) Str(name, v string) *Key {
	k.parts = append(k.parts, name+"="+v)
	return k
}

// Bool records a boolean parameter.
func (k *Key) Bool(name string, v bool) *Key {
	k.parts = append(k.parts, name+"="+strconv.FormatBool(v))
	return k
}

// Ints records an integer slice parameter.
func (k *Key) Ints(name string, vs []int) *Key {
	ss := make([]string, len(vs))
	for i, v := range vs {
		ss[i] = strconv.Itoa(v)
	}
	k.parts = append(k.parts, name+"="+strings.Join(ss, ","))
	return k
}

// String renders the key as "<op>:<digest>" where the digest covers the
// canonical parameter encoding.
func (k *Key) String() string {
	sum := sha1.Sum([]byte(strings.Join(k.parts, ";")))
	return fmt.Sprintf("%s:%s", k.op, hex.EncodeToString(sum[:]))
}
