package externalapi

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"
)

// DomainHashSize of array used to store hashes.
const DomainHashSize = 32

// ShortHashSize is the size of the truncated hash block trees are keyed by.
const ShortHashSize = 12

// DomainHash is the domain representation of a Hash
type DomainHash [DomainHashSize]byte

// ShortHash is the leading ShortHashSize bytes of a DomainHash.
type ShortHash [ShortHashSize]byte

// NewDomainHashFromByteSlice creates a DomainHash from the given bytes.
func NewDomainHashFromByteSlice(hashBytes []byte) (*DomainHash, error) {
	if len(hashBytes) != DomainHashSize {
		return nil, errors.Errorf("invalid hash size. Want: %d, got: %d",
			DomainHashSize, len(hashBytes))
	}
	var domainHash DomainHash
	copy(domainHash[:], hashBytes)
	return &domainHash, nil
}

// NewDomainHashFromString creates a DomainHash from its hexadecimal representation.
func NewDomainHashFromString(hashString string) (*DomainHash, error) {
	hashBytes, err := hex.DecodeString(hashString)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return NewDomainHashFromByteSlice(hashBytes)
}

// String returns the Hash as the hexadecimal string of the hash.
func (hash DomainHash) String() string {
	return hex.EncodeToString(hash[:])
}

// ByteSlice returns a copy of the hash bytes.
func (hash *DomainHash) ByteSlice() []byte {
	clone := *hash
	return clone[:]
}

// Short returns the truncated form of the hash.
func (hash *DomainHash) Short() ShortHash {
	var short ShortHash
	copy(short[:], hash[:ShortHashSize])
	return short
}

// Equal returns whether hash equals to other
func (hash *DomainHash) Equal(other *DomainHash) bool {
	if hash == nil || other == nil {
		return hash == other
	}
	return *hash == *other
}

// Less returns true iff hash is lexicographically smaller than other.
func (hash *DomainHash) Less(other *DomainHash) bool {
	return bytes.Compare(hash[:], other[:]) < 0
}

// String returns the ShortHash as a hexadecimal string.
func (hash ShortHash) String() string {
	return hex.EncodeToString(hash[:])
}

// NewShortHashFromByteSlice accepts either a full or an already truncated
// hash and returns its truncated form.
func NewShortHashFromByteSlice(hashBytes []byte) (ShortHash, error) {
	var short ShortHash
	if len(hashBytes) != DomainHashSize && len(hashBytes) != ShortHashSize {
		return short, errors.Errorf("invalid hash size. Want: %d or %d, got: %d",
			DomainHashSize, ShortHashSize, len(hashBytes))
	}
	copy(short[:], hashBytes[:ShortHashSize])
	return short, nil
}

// HashesEqual returns whether the given hash slices are equal.
func HashesEqual(a, b []*DomainHash) bool {
	if len(a) != len(b) {
		return false
	}

	for i, hash := range a {
		if !hash.Equal(b[i]) {
			return false
		}
	}
	return true
}
