package rest

import (
	"net/http"
	"strings"
)

// Links are the pagination targets of a list response, as found in a
// `Link: <url>; rel="next", ...` header. Absent relations are empty.
type Links struct {
	First string `json:"first,omitempty"`
	Prev  string `json:"previous,omitempty"`
	Next  string `json:"next,omitempty"`
	Last  string `json:"last,omitempty"`
}

// HasNext reports whether another page exists.
func (l Links) HasNext() bool { return l.Next != "" }

// ParseLinks reads every Link header value in h.
func ParseLinks(h http.Header) Links {
	var out Links
	for _, v := range h.Values("Link") {
		for _, part := range strings.Split(v, ",") {
			target, rel, ok := parseLink(part)
			if !ok {
				continue
			}
			switch rel {
			case "first":
				out.First = target
			case "prev", "previous":
				out.Prev = target
			case "next":
				out.Next = target
			case "last":
				out.Last = target
			}
		}
	}
	return out
}

func parseLink(s string) (target, rel string, ok bool) {
	segs := strings.Split(strings.TrimSpace(s), ";")
	if len(segs) < 2 {
		return "", "", false
	}
	u := strings.TrimSpace(segs[0])
	if !strings.HasPrefix(u, "<") || !strings.HasSuffix(u, ">") {
		return "", "", false
	}
	for _, p := range segs[1:] {
		k, v, found := strings.Cut(strings.TrimSpace(p), "=")
		if found && strings.EqualFold(strings.TrimSpace(k), "rel") {
			return u[1 : len(u)-1], strings.ToLower(strings.Trim(strings.TrimSpace(v), `"`)), true
		}
	}
	return "", "", false
}
