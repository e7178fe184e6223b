package database

import (
	"bytes"
	"encoding/hex"
)

var bucketSeparator = []byte("/")

// Bucket is a "/"-separated key prefix, such as the one every stored BTC
// block shares. Cursors iterate over exactly one bucket.
type Bucket struct {
	path [][]byte
}

// MakeBucket returns the bucket at path.
func MakeBucket(path ...[]byte) *Bucket {
	return &Bucket{path: path}
}

// Bucket returns the child bucket named name.
func (b *Bucket) Bucket(name []byte) *Bucket {
	path := append(make([][]byte, 0, len(b.path)+1), b.path...)
	return MakeBucket(append(path, name)...)
}

// Key returns the key suffix inside b.
func (b *Bucket) Key(suffix []byte) *Key {
	return &Key{bucket: b, suffix: suffix}
}

// Path returns the prefix of every key in b, separator included.
func (b *Bucket) Path() []byte {
	return append(bytes.Join(b.path, bucketSeparator), bucketSeparator...)
}

// Key is a database key made of a bucket and a suffix within it.
type Key struct {
	bucket *Bucket
	suffix []byte
}

// Bytes returns the bucket path followed by the suffix.
func (k *Key) Bytes() []byte {
	return append(k.bucket.Path(), k.suffix...)
}

func (k *Key) String() string {
	return hex.EncodeToString(k.Bytes())
}

func (k *Key) Bucket() *Bucket {
	return k.bucket
}

func (k *Key) Suffix() []byte {
	return k.suffix
}
