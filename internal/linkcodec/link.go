package linkcodec

import (
	"errors"
	"net/url"
	"strings"
)

// Query parameter names of a share link.
const (
	ParamGiver = "u"
	ParamToken = "k"
)

var ErrMissingLinkParams = errors.New("linkcodec: link is missing the giver or token parameter")

// BuildLink appends the giver and token to base as query parameters. The
// giver is percent-encoded; the token alphabet needs no escaping.
func BuildLink(base, giver, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set(ParamGiver, giver)
	u.RawQuery = q.Encode() + "&" + ParamToken + "=" + token
	u.Fragment = ""
	return u.String(), nil
}

// ParseLink extracts the giver and token from a share link or a bare query
// string.
func ParseLink(raw string) (giver, token string, err error) {
	query := raw
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		query = raw[i+1:]
	}
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query = query[:i]
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return "", "", err
	}
	if !values.Has(ParamGiver) || !values.Has(ParamToken) {
		return "", "", ErrMissingLinkParams
	}
	return values.Get(ParamGiver), values.Get(ParamToken), nil
}
