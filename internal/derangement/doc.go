// Package derangement draws a random pairing of participants in which nobody
// is paired with themself.
//
// A draw is produced by rejection sampling: the participant list is shuffled
// with Fisher-Yates until no position keeps its original name, giving up after
// MaxAttempts shuffles. About 37% of uniform permutations have no fixed point,
// so a draw usually takes two or three shuffles.
//
// The randomness is an injected Source so tests can replace it with a
// deterministic one. It decides who gets whom, not what protects the link, so
// it does not need to be cryptographically secure.
package derangement
