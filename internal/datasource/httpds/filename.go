package httpds

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

var (
	filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	safeExt         = regexp.MustCompile(`^\.[a-zA-Z0-9]{1,8}$`)
)

// HashString returns a stable 16-hex-digit xxh3 digest of s.
func HashString(s string) string {
	h := strconv.FormatUint(xxh3.HashString(s), 16)
	return strings.Repeat("0", 16-len(h)) + h
}

// SafeFilenameFromURL derives a filesystem-safe, collision-resistant name from
// a URL: the last path segment and the query, reduced to [A-Za-z0-9_], plus a
// hash of the whole URL. A short alphanumeric extension is kept. Unparsable
// URLs yield the hash alone.
func SafeFilenameFromURL(rawURL string) string {
	sum := HashString(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return sum
	}

	base := path.Base(u.Path)
	if base == "." || base == "/" {
		base = ""
	}
	ext := path.Ext(base)
	if !safeExt.MatchString(ext) {
		ext = ""
	}
	stem := strings.TrimSuffix(base, ext)

	name := strings.Trim(filenameCleaner.ReplaceAllString(stem+"_"+u.RawQuery, "_"), "_")
	if name == "" {
		return sum + ext
	}
	return name + "_" + sum + ext
}
