package regbus

import (
	"errors"

	"github.com/cenkalti/backoff/v4"
)

// ErrPollExhausted is returned by Poll when the condition never held.
var ErrPollExhausted = errors.New("poll bound exhausted")

// Poll evaluates cond until it returns true, at most attempts times, without
// sleeping between evaluations. A bound below one is treated as one.
func Poll(attempts int, cond func() bool) error {
	return PollErr(attempts, func() (bool, error) {
		return cond(), nil
	})
}

// PollErr is Poll for conditions that can fail. An error from cond ends the
// poll at once and is returned as is.
func PollErr(attempts int, cond func() (bool, error)) error {
	if attempts <= 1 {
		ok, err := cond()
		switch {
		case err != nil:
			return err
		case !ok:
			return ErrPollExhausted
		}
		return nil
	}

	op := func() error {
		ok, err := cond()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return ErrPollExhausted
		}
		return nil
	}
	b := backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(attempts-1))
	return backoff.Retry(op, b)
}

// BitsSet reports whether every bit of mask is set in the register at offset.
func BitsSet(b Bus, offset, mask uint32) bool {
	return b.Read(offset)&mask == mask
}
