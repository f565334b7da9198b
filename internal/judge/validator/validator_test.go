package validator

import (
	"strings"
	"testing"

	appErr "codearena/pkg/errors"
)

func TestValidateRejectsBlockedSymbols(t *testing.T) {
	cases := []struct {
		name   string
		source string
		symbol string
	}{
		{"import os", "import os\nprint('hi')", "os"},
		{"import os uppercase", "IMPORT OS", "os"},
		{"from subprocess import", "from subprocess import run", "subprocess"},
		{"from submodule import", "from os.path import join", "os"},
		{"import socket", "import socket", "socket"},
		{"open call", "f = open('data.txt')", "open("},
		{"eval call", "x = eval(input())", "eval("},
		{"eval call uppercase", "x = EVAL(s)", "eval("},
		{"exec call", "exec('print(1)')", "exec("},
		{"dunder import call", "mod = __import__('os')", "__import__("},
		{"compile call", "code = compile(src, 'f', 'exec')", "compile("},
		{"indented import", "def f():\n    import subprocess\n", "subprocess"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.source)
			if err == nil {
				t.Fatalf("source %q accepted, want rejection", tc.source)
			}
			if !appErr.Is(err, appErr.ForbiddenSymbol) {
				t.Fatalf("error code = %v, want ForbiddenSymbol", appErr.GetCode(err))
			}
			if !strings.Contains(err.Error(), tc.symbol) {
				t.Fatalf("reason %q does not name blocked symbol %q", err.Error(), tc.symbol)
			}
		})
	}
}

func TestValidateAcceptsCleanSource(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"sum program", "a, b = map(int, input().split())\nprint(a + b)"},
		{"math import", "import math\nprint(math.sqrt(16))"},
		{"collections import", "from collections import Counter\nprint(Counter('aa'))"},
		{"identifier containing os", "cosmos = 1\nprint(cosmos)"},
		{"method named open", "class F:\n    def reopen(self):\n        pass\n"},
		{"attribute call", "obj.evaluate(x)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.source); err != nil {
				t.Fatalf("source %q rejected: %v", tc.source, err)
			}
		})
	}
}
