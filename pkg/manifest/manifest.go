// Package manifest reads and rewrites pip requirements files.
//
// Every input line is classified before any field extraction: requirement,
// comment, blank, directive (pip options, including -r includes), unsupported
// (URLs, local paths, exotic specifiers), or broken (parse failure). Broken
// lines surface as warnings and never abort a run. Requirement lines keep the
// byte span of their version token so a rewrite can replace just that token
// and leave everything else in the file untouched.
//
// Includes via -r/--requirement are followed exactly one level deep.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pipstale/pipstale/pkg/pep440"
)

// Kind classifies a manifest line.
type Kind int

// Line kinds, in rough order of interest.
const (
	KindRequirement Kind = iota
	KindComment
	KindBlank
	KindDirective   // pip options, including -r includes
	KindUnsupported // declarations we recognize but cannot check
	KindBroken      // lines that failed to parse
)

func (k Kind) String() string {
	switch k {
	case KindRequirement:
		return "requirement"
	case KindComment:
		return "comment"
	case KindBlank:
		return "blank"
	case KindDirective:
		return "directive"
	case KindUnsupported:
		return "unsupported"
	case KindBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// reqLineRE captures a requirement declaration. Group indexes:
// 1 indent, 2 name, 3 extras, 4 specifier, 5 marker, 6 comment.
var reqLineRE = regexp.MustCompile(`^(\s*)` +
	`([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)` +
	`\s*(\[[^\]]*\])?` +
	`\s*((?:===?|!=|>=?|<=?|~=)\s*[^\s;#,]+(?:\s*,\s*[^\s;#]+)*)?` +
	`\s*(;[^#]*?)?` +
	`\s*(#.*)?$`)

// specOpRE matches the operator at the start of a specifier clause.
var specOpRE = regexp.MustCompile(`^(===?|!=|>=?|<=?|~=)\s*`)

// canonRE collapses name separator runs per PEP 503.
var canonRE = regexp.MustCompile(`[-_.]+`)

// Canonical normalizes a package name: lowercase with runs of ".", "-",
// and "_" collapsed to a single hyphen.
func Canonical(name string) string {
	return canonRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// Requirement is the declaration extracted from a requirement line.
type Requirement struct {
	Name      string // as written
	Canonical string // PEP 503 normalized
	Extras    string // including brackets, "" when absent
	Specifier string // e.g. "==1.2.3", "" when unpinned
	Version   string // version token from the specifier, "" when unpinned

	// Byte offsets into Line.Raw. For pinned requirements verStart/verEnd
	// bound the version token; for unpinned ones both equal the position
	// where a pin would be inserted.
	verStart, verEnd int
}

// Pinned reports whether the declaration carries a version.
func (r *Requirement) Pinned() bool { return r.Version != "" }

// Line is one line of a requirements file.
type Line struct {
	Kind   Kind
	File   string // base name of the owning file
	Number int    // 1-based line number within the owning file
	Raw    string // original text, without the trailing newline
	Req    *Requirement
	Reason string // why the line is unsupported or broken

	owner *File
}

// Location returns "file:line" for messages.
func (l *Line) Location() string {
	return fmt.Sprintf("%s:%d", l.File, l.Number)
}

// SetVersion rewrites the line's version token to v. For unpinned
// requirements a "==v" pin is inserted after the name (and extras).
// Only requirement lines can be rewritten.
func (l *Line) SetVersion(v string) error {
	if l.Kind != KindRequirement || l.Req == nil {
		return fmt.Errorf("%s: not a requirement line", l.Location())
	}
	r := l.Req
	if r.Pinned() {
		l.Raw = l.Raw[:r.verStart] + v + l.Raw[r.verEnd:]
		r.Specifier = r.Specifier[:len(r.Specifier)-len(r.Version)] + v
	} else {
		l.Raw = l.Raw[:r.verStart] + "==" + v + l.Raw[r.verEnd:]
		r.Specifier = "==" + v
		r.verStart += len("==")
	}
	r.verEnd = r.verStart + len(v)
	r.Version = v
	if l.owner != nil {
		l.owner.dirty = true
	}
	return nil
}

// Warning is a non-fatal problem found while parsing.
type Warning struct {
	File    string
	Line    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Message)
}

// File is a parsed requirements file plus any files it includes.
type File struct {
	Path     string
	Lines    []*Line
	Includes map[int]*File // keyed by the 1-based line number of the -r directive

	finalNewline bool
	dirty        bool
}

// Parse reads and parses the requirements file at path. Include files
// that cannot be read produce warnings, not errors; only an unreadable
// root file is fatal.
func Parse(path string) (*File, []Warning, error) {
	var warnings []Warning
	f, err := parseFile(path, 1, &warnings)
	if err != nil {
		return nil, nil, err
	}
	return f, warnings, nil
}

func parseFile(path string, depth int, warnings *[]Warning) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read requirements: %w", err)
	}
	f := ParseBytes(path, data, warnings)

	for n, l := range f.Lines {
		if l.Kind != KindDirective {
			continue
		}
		target := includeTarget(l.Raw)
		if target == "" {
			continue
		}
		if depth > 1 {
			*warnings = append(*warnings, Warning{
				File: l.File, Line: l.Number,
				Message: "includes are only followed one level deep",
			})
			continue
		}
		inc, err := parseFile(filepath.Join(filepath.Dir(path), target), depth+1, warnings)
		if err != nil {
			*warnings = append(*warnings, Warning{
				File: l.File, Line: l.Number,
				Message: fmt.Sprintf("cannot include %s: %v", target, err),
			})
			continue
		}
		if f.Includes == nil {
			f.Includes = make(map[int]*File)
		}
		f.Includes[n+1] = inc
	}
	return f, nil
}

// ParseBytes parses manifest text without touching the filesystem.
// Include directives are recorded but not followed.
func ParseBytes(path string, data []byte, warnings *[]Warning) *File {
	text := string(data)
	f := &File{
		Path:         path,
		finalNewline: strings.HasSuffix(text, "\n"),
	}
	raws := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if text == "" {
		raws = nil
	}

	base := filepath.Base(path)
	for i, raw := range raws {
		l := classify(raw)
		l.File = base
		l.Number = i + 1
		l.owner = f
		if l.Kind == KindBroken && warnings != nil {
			*warnings = append(*warnings, Warning{File: base, Line: l.Number, Message: l.Reason})
		}
		f.Lines = append(f.Lines, l)
	}
	return f
}

// includeTarget extracts the file argument of a -r/--requirement
// directive, or "" for other directives.
func includeTarget(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return ""
	}
	switch fields[0] {
	case "-r", "--requirement":
		return fields[1]
	}
	return ""
}

func classify(raw string) *Line {
	trimmed := strings.TrimSpace(raw)
	head := strings.SplitN(trimmed, "#", 2)[0] // declaration before any comment
	switch {
	case trimmed == "":
		return &Line{Kind: KindBlank, Raw: raw}
	case strings.HasPrefix(trimmed, "#"):
		return &Line{Kind: KindComment, Raw: raw}
	case strings.HasPrefix(trimmed, "-"):
		return &Line{Kind: KindDirective, Raw: raw}
	case strings.Contains(head, "://") || strings.HasPrefix(trimmed, "git+"):
		return &Line{Kind: KindUnsupported, Raw: raw, Reason: "URL requirements are not checkable"}
	case strings.HasPrefix(trimmed, "./") || strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "~"):
		return &Line{Kind: KindUnsupported, Raw: raw, Reason: "local paths are not checkable"}
	case strings.Contains(head, "@"):
		// PEP 508 direct references (name @ url).
		return &Line{Kind: KindUnsupported, Raw: raw, Reason: "direct references are not checkable"}
	}

	idx := reqLineRE.FindStringSubmatchIndex(raw)
	if idx == nil {
		return &Line{Kind: KindBroken, Raw: raw, Reason: "could not parse line"}
	}
	group := func(n int) string {
		if idx[2*n] < 0 {
			return ""
		}
		return raw[idx[2*n]:idx[2*n+1]]
	}

	name := group(2)
	req := &Requirement{
		Name:      name,
		Canonical: Canonical(name),
		Extras:    group(3),
	}
	line := &Line{Kind: KindRequirement, Raw: raw, Req: req}

	spec := group(4)
	if spec == "" {
		// Unpinned; a pin would be inserted right after the name/extras.
		at := idx[5] // end of name
		if idx[6] >= 0 {
			at = idx[7] // end of extras
		}
		req.verStart, req.verEnd = at, at
		return line
	}

	if strings.Contains(spec, ",") {
		line.Kind = KindUnsupported
		line.Reason = "multi-clause specifiers are not supported"
		return line
	}
	op := specOpRE.FindString(spec)
	opTrimmed := strings.TrimSpace(op)
	switch opTrimmed {
	case "==", ">=", "~=":
	default:
		line.Kind = KindUnsupported
		line.Reason = fmt.Sprintf("unsupported specifier %q", spec)
		return line
	}
	version := spec[len(op):]
	if strings.HasSuffix(version, ".*") {
		line.Kind = KindUnsupported
		line.Reason = "wildcard pins are not checkable"
		return line
	}
	if _, err := pep440.Parse(version); err != nil {
		line.Kind = KindBroken
		line.Reason = fmt.Sprintf("invalid version %q", version)
		return line
	}

	req.Specifier = opTrimmed + version
	req.Version = version
	req.verStart = idx[8] + len(op)
	req.verEnd = idx[9]
	return line
}

// Requirements returns every requirement line in declaration order,
// descending into included files at the point of their -r directive.
func (f *File) Requirements() []*Line {
	var out []*Line
	for i, l := range f.Lines {
		if l.Kind == KindRequirement {
			out = append(out, l)
		}
		if inc, ok := f.Includes[i+1]; ok {
			out = append(out, inc.Requirements()...)
		}
	}
	return out
}

// Skipped returns the lines that were recognized but cannot be checked,
// in order, including those in included files.
func (f *File) Skipped() []*Line {
	var out []*Line
	for i, l := range f.Lines {
		if l.Kind == KindUnsupported {
			out = append(out, l)
		}
		if inc, ok := f.Includes[i+1]; ok {
			out = append(out, inc.Skipped()...)
		}
	}
	return out
}

// Render reassembles the file text. Lines that were not rewritten are
// reproduced byte-for-byte, including the final-newline state.
func (f *File) Render() []byte {
	raws := make([]string, len(f.Lines))
	for i, l := range f.Lines {
		raws[i] = l.Raw
	}
	text := strings.Join(raws, "\n")
	if f.finalNewline && len(f.Lines) > 0 {
		text += "\n"
	}
	return []byte(text)
}

// Write persists every modified file (the root and any includes) back
// to its original path. Untouched files are left alone.
func (f *File) Write() error {
	if f.dirty {
		if err := os.WriteFile(f.Path, f.Render(), 0o644); err != nil {
			return fmt.Errorf("write requirements: %w", err)
		}
		f.dirty = false
	}
	for _, inc := range f.Includes {
		if err := inc.Write(); err != nil {
			return err
		}
	}
	return nil
}
