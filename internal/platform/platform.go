// Package platform is the closed catalogue of social platforms a profile can
// link to. Each platform carries its own input parser and URL formatter.
package platform

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type Platform int

const (
	Instagram Platform = iota + 1
	Twitter
	LinkedIn
	Facebook
	TikTok
	YouTube
	GitHub
	WhatsApp
	Telegram
	Snapchat
	Pinterest
	Threads
	Twitch
	Behance
	Website

	endOfCatalogue
)

var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrEmptyInput      = errors.New("empty input")
	ErrInvalidInput    = errors.New("invalid input")
)

type inputKind int

const (
	kindHandle inputKind = iota
	kindPhone
	kindURL
)

type entry struct {
	key        string
	label      string
	kind       inputKind
	hosts      []string
	pathPrefix string // path segment preceding the handle, e.g. "in" for LinkedIn
	format     string
	pattern    *regexp.Regexp
}

var catalogue = [endOfCatalogue]entry{
	Instagram: {key: "instagram", label: "Instagram", hosts: []string{"instagram.com", "instagr.am"}, format: "https://instagram.com/%s", pattern: regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)},
	Twitter:   {key: "twitter", label: "X", hosts: []string{"x.com", "twitter.com"}, format: "https://x.com/%s", pattern: regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)},
	LinkedIn:  {key: "linkedin", label: "LinkedIn", hosts: []string{"linkedin.com"}, pathPrefix: "in", format: "https://linkedin.com/in/%s", pattern: regexp.MustCompile(`^[A-Za-z0-9-]{3,100}$`)},
	Facebook:  {key: "facebook", label: "Facebook", hosts: []string{"facebook.com", "fb.com"}, format: "https://facebook.com/%s", pattern: regexp.MustCompile(`^[A-Za-z0-9.]{5,50}$`)},
	TikTok:    {key: "tiktok", label: "TikTok", hosts: []string{"tiktok.com"}, format: "https://tiktok.com/@%s", pattern: regexp.MustCompile(`^[A-Za-z0-9._]{2,24}$`)},
	YouTube:   {key: "youtube", label: "YouTube", hosts: []string{"youtube.com"}, format: "https://youtube.com/@%s", pattern: regexp.MustCompile(`^[A-Za-z0-9._-]{3,30}$`)},
	GitHub:    {key: "github", label: "GitHub", hosts: []string{"github.com"}, format: "https://github.com/%s", pattern: regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{0,38}$`)},
	WhatsApp:  {key: "whatsapp", label: "WhatsApp", kind: kindPhone, hosts: []string{"wa.me", "whatsapp.com"}, format: "https://wa.me/%s"},
	Telegram:  {key: "telegram", label: "Telegram", hosts: []string{"t.me", "telegram.me"}, format: "https://t.me/%s", pattern: regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)},
	Snapchat:  {key: "snapchat", label: "Snapchat", hosts: []string{"snapchat.com"}, pathPrefix: "add", format: "https://snapchat.com/add/%s", pattern: regexp.MustCompile(`^[A-Za-z0-9._-]{3,15}$`)},
	Pinterest: {key: "pinterest", label: "Pinterest", hosts: []string{"pinterest.com"}, format: "https://pinterest.com/%s", pattern: regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)},
	Threads:   {key: "threads", label: "Threads", hosts: []string{"threads.net", "threads.com"}, format: "https://threads.net/@%s", pattern: regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)},
	Twitch:    {key: "twitch", label: "Twitch", hosts: []string{"twitch.tv"}, format: "https://twitch.tv/%s", pattern: regexp.MustCompile(`^[A-Za-z0-9_]{4,25}$`)},
	Behance:   {key: "behance", label: "Behance", hosts: []string{"behance.net"}, format: "https://behance.net/%s", pattern: regexp.MustCompile(`^[A-Za-z0-9_-]{3,30}$`)},
	Website:   {key: "website", label: "Website", kind: kindURL},
}

// All returns every platform in catalogue order.
func All() []Platform {
	out := make([]Platform, 0, len(catalogue)-1)
	for p := Instagram; p < endOfCatalogue; p++ {
		out = append(out, p)
	}
	return out
}

func (p Platform) Valid() bool { return p >= Instagram && p < endOfCatalogue }

func (p Platform) Key() string {
	if !p.Valid() {
		return ""
	}
	return catalogue[p].key
}

func (p Platform) Label() string {
	if !p.Valid() {
		return ""
	}
	return catalogue[p].label
}

func (p Platform) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Platform(%d)", int(p))
	}
	return catalogue[p].key
}

// Lookup resolves a platform key such as "instagram".
func Lookup(key string) (Platform, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for p := Instagram; p < endOfCatalogue; p++ {
		if catalogue[p].key == key {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPlatform, key)
}

func (p Platform) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlatform, int(p))
	}
	return []byte(catalogue[p].key), nil
}

func (p *Platform) UnmarshalText(b []byte) error {
	v, err := Lookup(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Parsed is the result of running raw user input through a platform parser.
type Parsed struct {
	URL      string `json:"url"`
	Username string `json:"username"`
}

// Parse turns raw input (a handle, "@handle", a full profile URL or, for
// phone platforms, a phone number) into the canonical profile URL.
func Parse(p Platform, raw string) (Parsed, error) {
	if !p.Valid() {
		return Parsed{}, fmt.Errorf("%w: %d", ErrUnknownPlatform, int(p))
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Parsed{}, ErrEmptyInput
	}
	e := catalogue[p]
	switch e.kind {
	case kindURL:
		u, err := NormalizeURL(raw)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{URL: u, Username: displayHost(u)}, nil
	case kindPhone:
		return e.parsePhone(raw)
	}
	return e.parseHandle(raw)
}

func (e entry) parseHandle(raw string) (Parsed, error) {
	handle := raw
	if looksLikeURL(raw) {
		h, ok := e.handleFromURL(raw)
		if !ok {
			return Parsed{}, fmt.Errorf("%w: not a %s profile link", ErrInvalidInput, e.label)
		}
		handle = h
	}
	handle = strings.TrimLeft(handle, "@")
	if !e.pattern.MatchString(handle) {
		return Parsed{}, fmt.Errorf("%w: %q is not a valid %s username", ErrInvalidInput, handle, e.label)
	}
	return Parsed{URL: fmt.Sprintf(e.format, handle), Username: "@" + handle}, nil
}

func (e entry) handleFromURL(raw string) (string, bool) {
	segs, ok := e.pathSegments(raw)
	if !ok || len(segs) == 0 {
		return "", false
	}
	if e.pathPrefix != "" {
		if segs[0] != e.pathPrefix || len(segs) < 2 {
			return "", false
		}
		segs = segs[1:]
	}
	return segs[0], true
}

// pathSegments parses raw as a URL on one of the platform's hosts.
func (e entry) pathSegments(raw string) ([]string, bool) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	matched := false
	for _, h := range e.hosts {
		if host == h {
			matched = true
			break
		}
	}
	if !matched {
		return nil, false
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs, true
}

func (e entry) parsePhone(raw string) (Parsed, error) {
	number := raw
	if looksLikeURL(raw) {
		segs, ok := e.pathSegments(raw)
		if !ok || len(segs) == 0 {
			return Parsed{}, fmt.Errorf("%w: not a %s link", ErrInvalidInput, e.label)
		}
		number = segs[len(segs)-1]
	}
	var digits strings.Builder
	for _, r := range number {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return Parsed{}, fmt.Errorf("%w: %q is not a phone number", ErrInvalidInput, raw)
		}
	}
	d := digits.String()
	if len(d) < 7 || len(d) > 15 {
		return Parsed{}, fmt.Errorf("%w: phone numbers have 7 to 15 digits", ErrInvalidInput)
	}
	return Parsed{URL: fmt.Sprintf(e.format, d), Username: "+" + d}, nil
}

// looksLikeURL reports whether raw is a link rather than a bare handle.
func looksLikeURL(raw string) bool {
	if strings.Contains(raw, "://") {
		return true
	}
	if strings.HasPrefix(raw, "@") {
		return false
	}
	first, _, hasPath := strings.Cut(raw, "/")
	if !strings.Contains(first, ".") {
		return false
	}
	return hasPath || hasKnownTLD(first)
}

func hasKnownTLD(host string) bool {
	i := strings.LastIndex(host, ".")
	if i < 0 {
		return false
	}
	switch strings.ToLower(host[i+1:]) {
	case "com", "net", "me", "tv", "am", "org", "io":
		return true
	}
	return false
}

func displayHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Host, "www.")
}
