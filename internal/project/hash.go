package project

import (
	"github.com/zeebo/xxh3"
)

// Digest - фиксированный 128 битный хеш xxh3
type Digest [16]byte

// HashBytes hashes raw content.
func HashBytes(b []byte) Digest {
	return xxh3.Hash128(b).Bytes()
}

// Combine строит модульный хеш: H( content || dep1 || dep2 ... ).
// Порядок deps должен быть детерминированным.
func Combine(content Digest, deps ...Digest) Digest {
	h := xxh3.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	return h.Sum128().Bytes()
}

// IsZero reports whether the digest was never computed.
func (d Digest) IsZero() bool {
	return d == Digest{}
}
