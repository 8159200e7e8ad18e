package service

import "time"

// Clock returns the current time. Tests swap it for a fixed one.
type Clock func() time.Time

// now is UTC truncated to milliseconds, the precision every stored
// timestamp uses so keyset comparisons are exact.
func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC().Truncate(time.Millisecond)
	}
	return c().UTC().Truncate(time.Millisecond)
}
