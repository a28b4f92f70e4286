// Package idgen provides collision-resistant event ID generation backed by nanoid.
package idgen

import (
	"fmt"
	"strconv"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// EventPrefix is prepended to every generated event ID.
var EventPrefix = "evt_"

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding prefix and time part).
var Length = 10

// now is swapped in tests.
var now = time.Now

// Event returns a new event ID of the form evt_<base36 unix nanos>.<random>.
// The time component keeps IDs roughly ordered by creation; the random
// component keeps concurrent calls within the same nanosecond distinct.
func Event() (string, error) {
	return WithPrefix(EventPrefix)
}

// WithPrefix returns a new time-ordered ID with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	ts := strconv.FormatInt(now().UnixNano(), 36)
	return prefix + ts + "." + id, nil
}

// MustEvent is like Event but panics if the system random source fails.
// Event constructors use it because a broken entropy source is not a
// condition they can recover from.
func MustEvent() string {
	id, err := Event()
	if err != nil {
		panic(err)
	}
	return id
}
