package types

import (
	"encoding/hex"
	"fmt"
)

// FeedID identifies an external price feed.
type FeedID [AddressSize]byte

// IsZero returns true if the feed ID is all zeros.
func (f FeedID) IsZero() bool {
	return f == FeedID{}
}

// String returns the 0x-prefixed lowercase hex form.
func (f FeedID) String() string {
	return "0x" + hex.EncodeToString(f[:])
}

// MarshalText encodes the feed ID as a 0x-prefixed hex string.
func (f FeedID) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes a hex string into a feed ID.
func (f *FeedID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*f = FeedID{}
		return nil
	}
	parsed, err := ParseFeedID(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFeedID parses a 40-char hex feed ID, optionally 0x-prefixed.
func ParseFeedID(s string) (FeedID, error) {
	b, err := decodeHex20(s)
	if err != nil {
		return FeedID{}, fmt.Errorf("invalid feed id %q: %w", s, err)
	}
	var f FeedID
	copy(f[:], b)
	return f, nil
}

// MustParseFeedID is like ParseFeedID but panics on error.
func MustParseFeedID(s string) FeedID {
	f, err := ParseFeedID(s)
	if err != nil {
		panic(err)
	}
	return f
}
