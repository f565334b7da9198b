// Package validator performs a conservative textual scan of submitted source
// for symbols that are unsafe to execute. It is a cheap fast-reject layer, not
// a security boundary; the sandbox engine's isolation is what actually
// constrains the program.
package validator

import (
	"fmt"
	"regexp"

	appErr "codearena/pkg/errors"
)

// blockedModules are denied in both "import X" and "from X import ..." forms.
var blockedModules = []string{
	"os",
	"sys",
	"subprocess",
	"socket",
	"shutil",
	"pickle",
	"marshal",
	"ctypes",
	"importlib",
	"multiprocessing",
	"threading",
	"requests",
	"urllib",
	"http",
	"socketserver",
	"pty",
	"signal",
	"resource",
}

// blockedCalls are denied at direct call sites.
var blockedCalls = []string{
	"open",
	"eval",
	"exec",
	"__import__",
	"compile",
	"globals",
	"locals",
	"vars",
	"getattr",
	"setattr",
	"delattr",
	"breakpoint",
}

type pattern struct {
	symbol string
	re     *regexp.Regexp
}

var patterns = buildPatterns()

func buildPatterns() []pattern {
	out := make([]pattern, 0, len(blockedModules)+len(blockedCalls))
	for _, mod := range blockedModules {
		expr := fmt.Sprintf(`(?i)(^|[^\w.])(import[ \t]+%s|from[ \t]+%s(\.[\w.]*)?[ \t]+import)\b`, mod, mod)
		out = append(out, pattern{symbol: mod, re: regexp.MustCompile(expr)})
	}
	for _, call := range blockedCalls {
		expr := fmt.Sprintf(`(?i)(^|[^\w.])%s[ \t]*\(`, regexp.QuoteMeta(call))
		out = append(out, pattern{symbol: call + "(", re: regexp.MustCompile(expr)})
	}
	return out
}

// Validate scans the source and returns a ForbiddenSymbol error naming the
// first blocked symbol found, or nil when no denylisted symbol matches.
func Validate(source string) error {
	for _, p := range patterns {
		if p.re.MatchString(source) {
			return appErr.New(appErr.ForbiddenSymbol).
				WithMessagef("use of '%s' is not allowed", p.symbol)
		}
	}
	return nil
}
