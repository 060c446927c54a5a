// Package pep440 parses and orders Python package versions.
//
// It covers the subset of PEP 440 that public indexes actually publish:
// an optional epoch, a dotted numeric release, pre-releases (a/b/rc),
// post-releases, dev-releases, and a local segment. Ordering follows the
// standard rules: epoch first, then release components numerically, with
// dev-releases before pre-releases before final releases before
// post-releases. The local segment is ignored for ordering.
//
// Versions that normalize to the same value (leading zeros, case,
// separator spelling) compare equal even when their spellings differ.
package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// versionRE matches a PEP 440 version after lowercasing and trimming.
// Groups: epoch, release, pre letter, pre number, post number (spelled),
// implicit post number (N-N form is not supported), dev number, local.
var versionRE = regexp.MustCompile(`^v?` +
	`(?:(\d+)!)?` + // 1: epoch
	`(\d+(?:\.\d+)*)` + // 2: release
	`(?:[._-]?(a|b|c|rc|alpha|beta|pre|preview)[._-]?(\d*))?` + // 3, 4: pre
	`(?:[._-]?(post|rev|r)[._-]?(\d*))?` + // 5, 6: post
	`(?:[._-]?(dev)[._-]?(\d*))?` + // 7, 8: dev
	`(?:\+([a-z0-9]+(?:[._-][a-z0-9]+)*))?` + // 9: local
	`$`)

// preLetters maps spelled-out pre-release markers to their canonical form.
var preLetters = map[string]string{
	"a": "a", "alpha": "a",
	"b": "b", "beta": "b",
	"c": "rc", "rc": "rc", "pre": "rc", "preview": "rc",
}

// preRank orders canonical pre-release letters.
var preRank = map[string]int{"a": 0, "b": 1, "rc": 2}

// Version is a parsed PEP 440 version. The zero value is not a valid
// version; use Parse or MustParse.
type Version struct {
	Epoch   int
	Release []int
	Pre     *Pre
	Post    *int
	Dev     *int
	Local   string

	original string
}

// Pre is a pre-release segment such as a1, b2, or rc3.
type Pre struct {
	Letter string // canonical: "a", "b", or "rc"
	Number int
}

// Parse parses s as a PEP 440 version. The input is trimmed and
// lowercased before matching, so "2.0.0RC1" and "2.0.0rc1" are the
// same version. An error is returned for anything the grammar does
// not cover (URLs, hashes, legacy versions).
func Parse(s string) (Version, error) {
	original := strings.TrimSpace(s)
	m := versionRE.FindStringSubmatch(strings.ToLower(original))
	if m == nil {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}

	v := Version{original: original, Local: m[9]}
	if m[1] != "" {
		v.Epoch, _ = strconv.Atoi(m[1])
	}
	for _, part := range strings.Split(m[2], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			// Release components too large for an int are not
			// versions anyone publishes on purpose.
			return Version{}, fmt.Errorf("invalid version %q", s)
		}
		v.Release = append(v.Release, n)
	}
	if m[3] != "" {
		v.Pre = &Pre{Letter: preLetters[m[3]], Number: atoiDefault(m[4])}
	}
	if m[5] != "" {
		n := atoiDefault(m[6])
		v.Post = &n
	}
	if m[7] != "" {
		n := atoiDefault(m[8])
		v.Dev = &n
	}
	return v, nil
}

// MustParse is Parse for statically-known inputs; it panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// String returns the version as originally written.
func (v Version) String() string { return v.original }

// Component returns the i-th release component, or 0 when the release
// has fewer components (1.2 has Component(2) == 0, matching the padding
// rule used for comparison).
func (v Version) Component(i int) int {
	if i < len(v.Release) {
		return v.Release[i]
	}
	return 0
}

// IsFinal reports whether v is a plain release with no pre, post, or
// dev segment. Only final releases are considered when picking the
// latest published version.
func (v Version) IsFinal() bool {
	return v.Pre == nil && v.Post == nil && v.Dev == nil
}

// IsPrerelease reports whether v has a pre-release or dev segment.
func (v Version) IsPrerelease() bool {
	return v.Pre != nil || v.Dev != nil
}

// stage positions a version among others sharing the same release
// tuple: dev-only < pre < final < post.
func (v Version) stage() int {
	switch {
	case v.Pre != nil:
		return 1
	case v.Post != nil:
		return 3
	case v.Dev != nil:
		return 0
	default:
		return 2
	}
}

// Compare returns -1, 0, or 1 ordering a against b under PEP 440 rules.
// The local segment is ignored, so 1.0+cpu equals 1.0.
func Compare(a, b Version) int {
	if a.Epoch != b.Epoch {
		return cmpInt(a.Epoch, b.Epoch)
	}
	n := max(len(a.Release), len(b.Release))
	for i := 0; i < n; i++ {
		if c := cmpInt(a.Component(i), b.Component(i)); c != 0 {
			return c
		}
	}
	if c := cmpInt(a.stage(), b.stage()); c != 0 {
		return c
	}
	if a.Pre != nil && b.Pre != nil {
		if c := cmpInt(preRank[a.Pre.Letter], preRank[b.Pre.Letter]); c != 0 {
			return c
		}
		if c := cmpInt(a.Pre.Number, b.Pre.Number); c != 0 {
			return c
		}
	}
	// Within the same stage and pre-segment, a post-release sorts
	// after the bare version (1.0rc1 < 1.0rc1.post1).
	if c := cmpInt(postKey(a), postKey(b)); c != 0 {
		return c
	}
	// A dev-release sorts before the same version without one
	// (1.0rc1.dev2 < 1.0rc1).
	return cmpInt(devKey(a), devKey(b))
}

func postKey(v Version) int {
	if v.Post == nil {
		return -1
	}
	return *v.Post
}

func devKey(v Version) int {
	if v.Dev == nil {
		return 1<<31 - 1
	}
	return *v.Dev
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts before b.
func Less(a, b Version) bool { return Compare(a, b) < 0 }

// Equal reports whether a and b normalize to the same version.
func Equal(a, b Version) bool { return Compare(a, b) == 0 }

// Max returns the largest version in vs, or the zero Version and false
// when vs is empty.
func Max(vs []Version) (Version, bool) {
	if len(vs) == 0 {
		return Version{}, false
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if Compare(v, best) > 0 {
			best = v
		}
	}
	return best, true
}
