// Package loader resolves the fingerprint profile from its ranked sources:
// the launch argument, a file next to the executable, and the built-in
// document. The first source that yields a JSON object wins; a broken source
// is logged and skipped, never fatal.
package loader

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/stupside/veil/internal/profile"
)

const (
	// SwitchName is the launch argument carrying a base64 encoded profile.
	SwitchName = "fingerprint-config"
	// FileName is the profile file looked up beside the executable.
	FileName = "fingerprint.json"
)

var (
	ErrNotObject   = errors.New("payload is not a JSON object")
	ErrInvalidUTF8 = errors.New("payload is not valid UTF-8")
)

// Source identifies the tier a profile was resolved from.
type Source int

const (
	SourceArgument Source = iota
	SourceFile
	SourceBuiltin
)

func (s Source) String() string {
	switch s {
	case SourceArgument:
		return "argument"
	case SourceFile:
		return "file"
	case SourceBuiltin:
		return "builtin"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Loader walks the source tiers. The zero value only knows the built-in
// document; use New for the process defaults.
type Loader struct {
	args   []string
	dir    string
	logger *slog.Logger
}

// Option customizes a Loader.
type Option func(*Loader)

// WithArgs sets the command line scanned for the launch argument.
func WithArgs(args []string) Option {
	return func(l *Loader) { l.args = args }
}

// WithDir sets the directory searched for FileName. An empty dir disables
// the file tier.
func WithDir(dir string) Option {
	return func(l *Loader) { l.dir = dir }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New returns a loader reading the current process arguments and the
// executable's directory.
func New(opts ...Option) *Loader {
	l := &Loader{
		args: os.Args[1:],
		dir:  executableDir(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return slog.Default()
}

// Resolve builds a profile from the first usable source. It always
// succeeds: the built-in document is the last tier.
func (l *Loader) Resolve() (*profile.Profile, Source) {
	root, src := l.document()

	p := profile.New()
	decode(root, p)
	p.ApplyFallbacks()

	for _, issue := range p.Validate() {
		l.log().Warn("implausible profile value", "field", issue.Field, "rule", issue.Rule, "value", issue.Value)
	}

	l.log().Info("fingerprint profile resolved", "source", src, "seed", p.GlobalSeed)
	return p, src
}

func (l *Loader) document() (dict, Source) {
	if encoded, ok := switchValue(l.args, SwitchName); ok {
		root, err := parseArgument(encoded)
		if err == nil {
			l.log().Debug("profile loaded from launch argument")
			return root, SourceArgument
		}
		l.log().Warn("discarding launch argument profile", "switch", SwitchName, "error", err)
	}

	if l.dir != "" {
		path := filepath.Join(l.dir, FileName)
		root, err := parseFile(path)
		switch {
		case err == nil:
			l.log().Debug("profile loaded from file", "path", path)
			return root, SourceFile
		case errors.Is(err, fs.ErrNotExist):
			l.log().Debug("no profile file", "path", path)
		default:
			l.log().Warn("discarding profile file", "path", path, "error", err)
		}
	}

	root, err := Parse(profile.DefaultJSON)
	if err != nil {
		l.log().Error("built-in profile is unreadable", "error", err)
		return dict{}, SourceBuiltin
	}
	l.log().Debug("using built-in profile")
	return root, SourceBuiltin
}

func parseArgument(encoded string) (dict, error) {
	payload, err := Payload(encoded)
	if err != nil {
		return nil, err
	}
	return Parse(payload)
}

func parseFile(path string) (dict, error) {
	b, err := file.Provider(path).ReadBytes()
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a UTF-8 JSON object. Arrays, scalars and null are rejected
// with ErrNotObject.
func Parse(b []byte) (dict, error) {
	if !utf8.Valid(b) {
		return nil, ErrInvalidUTF8
	}
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(trimmed), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return dict(k.Raw()), nil
}

// Decode resolves a raw document into a profile the same way Resolve does
// for a winning tier. Unparseable input yields the record defaults.
func Decode(b []byte) (*profile.Profile, error) {
	p := profile.New()
	root, err := Parse(b)
	if err == nil {
		decode(root, p)
	}
	p.ApplyFallbacks()
	return p, err
}

// Encode returns the launch argument value for a JSON document.
func Encode(doc []byte) string {
	return base64.StdEncoding.EncodeToString(doc)
}

// Payload decodes a launch argument value.
func Payload(encoded string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding base64: %w", err)
	}
	return b, nil
}

// Argument formats the full launch argument for a JSON document.
func Argument(doc []byte) string {
	return "--" + SwitchName + "=" + Encode(doc)
}

// HasArgument reports whether args carry the launch argument.
func HasArgument(args []string) bool {
	_, ok := switchValue(args, SwitchName)
	return ok
}

// switchValue scans args the way a browser command line does: switches
// start with "--" or "-", carry their value after "=", the last occurrence
// wins and a bare "--" ends switch parsing.
func switchValue(args []string, name string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, arg := range args {
		if arg == "--" {
			break
		}
		rest, ok := strings.CutPrefix(arg, "--")
		if !ok {
			if rest, ok = strings.CutPrefix(arg, "-"); !ok {
				continue
			}
		}
		key, val, _ := strings.Cut(rest, "=")
		if key == name {
			value, found = val, true
		}
	}
	return value, found
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
