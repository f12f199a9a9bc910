package code

import (
	"fmt"
	"regexp"
	"strings"
)

// SecurityLevel controls which imports the policy admits. Levels are strictly
// ordered: everything strict allows is allowed by medium, and everything
// medium allows is allowed by permissive.
type SecurityLevel int

const (
	LevelStrict SecurityLevel = iota
	LevelMedium
	LevelPermissive
)

func (l SecurityLevel) String() string {
	switch l {
	case LevelStrict:
		return "strict"
	case LevelMedium:
		return "medium"
	case LevelPermissive:
		return "permissive"
	default:
		return fmt.Sprintf("SecurityLevel(%d)", int(l))
	}
}

// ParseSecurityLevel converts a config string into a SecurityLevel.
func ParseSecurityLevel(s string) (SecurityLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return LevelStrict, nil
	case "medium":
		return LevelMedium, nil
	case "permissive":
		return LevelPermissive, nil
	default:
		return 0, fmt.Errorf("code: unknown security level %q", s)
	}
}

// denySymbols are rejected at every level. They cover process spawning,
// low-level interpreter access, and the import machinery itself, which would
// otherwise let code sidestep the allow-list.
var denySymbols = []string{
	"subprocess",
	"multiprocessing",
	"ctypes",
	"pty",
	"os.system",
	"os.popen",
	"os.exec",
	"os.spawn",
	"os.fork",
	"os.kill",
	"shutil.rmtree",
	"importlib",
	"__import__",
	"__subclasses__",
	"__bases__",
	"sys.settrace",
	"gc.get_objects",
	"eval(",
	"exec(",
	"compile(",
}

// denyRoots are module roots that may never be imported, regardless of level.
var denyRoots = []string{"subprocess", "multiprocessing", "ctypes", "pty", "importlib"}

var strictImports = []string{
	"math", "cmath", "decimal", "fractions", "random", "statistics",
	"json", "re", "string", "textwrap", "datetime", "time", "calendar",
	"collections", "heapq", "bisect", "array", "itertools", "functools",
	"operator", "copy", "enum", "dataclasses", "typing", "uuid",
	"hashlib", "base64", "unicodedata",
}

// mediumImports extends strict with the data-science stack and binary IO.
var mediumImports = []string{
	"io", "csv", "struct", "zlib", "gzip",
	"numpy", "pandas", "scipy", "sklearn", "sympy",
	"matplotlib", "seaborn", "PIL",
}

var (
	fromImportRe = regexp.MustCompile(`(?m)^\s*from\s+([A-Za-z_][A-Za-z0-9_.]*)`)
	importLineRe = regexp.MustCompile(`(?m)^\s*import\s+(.+)$`)
	moduleNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*`)
)

// importRoots lists the root module of every import statement in the code,
// covering comma-separated clauses (`import math, socket`) and aliases.
func importRoots(code string) []string {
	var roots []string
	add := func(name string) {
		if name == "" {
			return
		}
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[:i]
		}
		roots = append(roots, name)
	}
	for _, m := range fromImportRe.FindAllStringSubmatch(code, -1) {
		add(m[1])
	}
	for _, m := range importLineRe.FindAllStringSubmatch(code, -1) {
		for _, clause := range strings.Split(m[1], ",") {
			add(moduleNameRe.FindString(strings.TrimSpace(clause)))
		}
	}
	return roots
}

// Policy decides whether code may be sent to the interpreter.
type Policy struct {
	Level SecurityLevel
}

// AllowedRoots returns the importable module roots for the policy's level, or
// nil when any root not on the deny-list is allowed.
func (p Policy) AllowedRoots() []string {
	switch p.Level {
	case LevelStrict:
		return append([]string(nil), strictImports...)
	case LevelMedium:
		roots := append([]string(nil), strictImports...)
		return append(roots, mediumImports...)
	default:
		return nil
	}
}

// DeniedRoots returns the module roots rejected at every level.
func (p Policy) DeniedRoots() []string {
	return append([]string(nil), denyRoots...)
}

// Scan statically checks code against the policy. It returns a
// *PolicyViolationError naming the first offending symbol, or nil when the
// code may run. The scan is best effort; the interpreter enforces the same
// import rules at runtime.
func (p Policy) Scan(code string) error {
	for _, sym := range denySymbols {
		if strings.Contains(code, sym) {
			return &PolicyViolationError{Symbol: sym, Level: p.Level}
		}
	}

	allowed := p.AllowedRoots()
	if allowed == nil {
		return nil
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, root := range allowed {
		allowedSet[root] = struct{}{}
	}

	for _, root := range importRoots(code) {
		if _, ok := allowedSet[root]; !ok {
			return &PolicyViolationError{Symbol: root, Level: p.Level}
		}
	}
	return nil
}
