package retrieval

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// IDLength is the length of a hosted video identifier.
const IDLength = 11

// videoRef matches watch pages (watch?v= or &v=), short links (youtu.be/)
// and embed paths (embed/) on the video host, capturing the token that follows.
var videoRef = regexp.MustCompile(`^(?:https?://)?(?:(?:www\.|m\.)?youtube(?:-nocookie)?\.com/(?:watch\?(?:[^#]*&)?v=|embed/)|youtu\.be/)([^#&?/]*)`)

// ExtractID returns the 11-character video identifier referenced by raw.
func ExtractID(raw string) (string, bool) {
	m := videoRef.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil || len(m[1]) != IDLength {
		return "", false
	}
	return m[1], true
}

const (
	// audioFormat selects the audio-only M4A stream.
	audioFormat = "140"
)

// Endpoint is a third-party mirror able to proxy a video's audio stream.
type Endpoint struct {
	Name    string
	BaseURL string
}

// TargetURL asks the endpoint for the audio-only variant of id and forces it
// to proxy the bytes itself instead of redirecting elsewhere.
func (e Endpoint) TargetURL(id string) string {
	q := url.Values{}
	q.Set("id", id)
	q.Set("itag", audioFormat)
	q.Set("local", "true")
	return fmt.Sprintf("%s/latest_version?%s", strings.TrimRight(e.BaseURL, "/"), q.Encode())
}

func (e Endpoint) String() string {
	if e.Name != "" {
		return e.Name
	}
	return e.BaseURL
}

// Relay is a generic pass-through that fetches a wrapped URL on our behalf.
type Relay struct {
	Prefix string
}

// Wrap returns the relay URL fetching target.
func (r Relay) Wrap(target string) string {
	return r.Prefix + url.QueryEscape(target)
}

// Enabled reports whether a relay prefix is configured.
func (r Relay) Enabled() bool {
	return r.Prefix != ""
}

// ParseEndpoints builds an ordered endpoint list from base URLs, naming each
// after its host.
func ParseEndpoints(bases []string) []Endpoint {
	out := make([]Endpoint, 0, len(bases))
	for _, b := range bases {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		name := b
		if u, err := url.Parse(b); err == nil && u.Host != "" {
			name = u.Host
		}
		out = append(out, Endpoint{Name: name, BaseURL: b})
	}
	return out
}
