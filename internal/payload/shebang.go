// Package payload runs the script embedded in an installed wrapper.
package payload

import (
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Shebang is the interpreter line of a payload.
type Shebang struct {
	Interpreter string   // path or command name, e.g. "/bin/bash", "python3"
	Args        []string // extra interpreter arguments
	Found       bool
}

// ParseShebang reads the #! line at the start of script.
//
//	#!/bin/bash               -> "/bin/bash"
//	#!/usr/bin/env python3    -> "python3"
//	#!/usr/bin/env -S node -r -> "node", ["-r"]
func ParseShebang(script []byte) Shebang {
	line := string(script)
	if idx := strings.IndexByte(line, '\n'); idx != -1 {
		line = line[:idx]
	}
	line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if !strings.HasPrefix(line, "#!") {
		return Shebang{}
	}

	parts := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(parts) == 0 {
		return Shebang{}
	}
	if filepath.Base(parts[0]) != "env" {
		return Shebang{Interpreter: parts[0], Args: parts[1:], Found: true}
	}

	args := parts[1:]
	if len(args) > 0 && args[0] == "-S" {
		args = args[1:]
	}
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			return Shebang{Interpreter: arg, Args: args[i+1:], Found: true}
		}
	}
	return Shebang{}
}

// shellDialects maps interpreter names the in-process shell can run to
// the parser variant used for them.
var shellDialects = map[string]syntax.LangVariant{
	"sh":   syntax.LangPOSIX,
	"dash": syntax.LangPOSIX,
	"ash":  syntax.LangPOSIX,
	"bash": syntax.LangBash,
	"ksh":  syntax.LangMirBSDKorn,
	"mksh": syntax.LangMirBSDKorn,
}

// Dialect reports whether the shebang names a shell that runs in-process
// and which parser variant to use. A script without a shebang is bash.
func (s Shebang) Dialect() (syntax.LangVariant, bool) {
	if !s.Found {
		return syntax.LangBash, true
	}
	lang, ok := shellDialects[filepath.Base(s.Interpreter)]
	return lang, ok
}

// shellFlags are the single-letter options the in-process shell honours:
// errexit, noglob, noexec, nounset and xtrace.
const shellFlags = "efnux"

// ShellOptions splits the shebang arguments into one option per flag, so
// "#!/bin/bash -eu" yields ["-e", "-u"]. It reports false when an argument
// is not a flag the in-process shell supports; such payloads must run
// under their real interpreter.
func (s Shebang) ShellOptions() ([]string, bool) {
	var opts []string
	for _, arg := range s.Args {
		if len(arg) < 2 || arg[0] != '-' {
			return nil, false
		}
		for _, c := range arg[1:] {
			if !strings.ContainsRune(shellFlags, c) {
				return nil, false
			}
			opts = append(opts, "-"+string(c))
		}
	}
	return opts, true
}
