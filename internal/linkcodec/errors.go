package linkcodec

import "errors"

// ErrInvalidOrTamperedLink is returned for every decode failure: wrong name,
// altered bytes, truncated or malformed token. Callers cannot tell them apart.
var ErrInvalidOrTamperedLink = errors.New("linkcodec: invalid or tampered link")
