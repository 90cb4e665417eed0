package interp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vercel-labs/vshell/expand"
)

// builtinFunc runs a builtin with its already-expanded arguments, returning
// the exit status to assign to Runner.exit.
type builtinFunc func(ctx context.Context, r *Runner, args []string) int

// builtins is the fixed table of commands the interpreter implements
// itself rather than dispatching to the registry, grounded on the
// teacher's execBuiltin switch (interp/builtin.go).
var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		":":        func(ctx context.Context, r *Runner, args []string) int { return 0 },
		"true":     func(ctx context.Context, r *Runner, args []string) int { return 0 },
		"false":    func(ctx context.Context, r *Runner, args []string) int { return 1 },
		"echo":     biEcho,
		"printf":   biPrintf,
		"cd":       biCd,
		"pwd":      biPwd,
		"export":   biExport,
		"unset":    biUnset,
		"readonly": biReadonly,
		"local":    biLocal,
		"declare":  biDeclare,
		"typeset":  biDeclare,
		"shift":    biShift,
		"return":   biReturn,
		"exit":     biExit,
		"break":    biBreak,
		"continue": biContinue,
		"eval":     biEval,
		"set":      biSet,
		"alias":    biAlias,
		"unalias":  biUnalias,
		"type":     biType,
		"command":  biCommand,
		"test":     biTest,
		"[":        biTestBracket,
		"let":      biLet,
		"read":     biRead,
	}
}

func biEcho(ctx context.Context, r *Runner, args []string) int {
	noNewline := false
	interpret := false
	for len(args) > 0 {
		switch args[0] {
		case "-n":
			noNewline = true
		case "-e":
			interpret = true
		case "-E":
			interpret = false
		default:
			goto done
		}
		args = args[1:]
	}
done:
	s := strings.Join(args, " ")
	if interpret {
		s = expandBackslashes(s)
	}
	if !noNewline {
		s += "\n"
	}
	r.writeStdout([]byte(s))
	return 0
}

func expandBackslashes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func biPrintf(ctx context.Context, r *Runner, args []string) int {
	if len(args) == 0 {
		return 1
	}
	format := expandBackslashes(args[0])
	rest := make([]any, 0, len(args)-1)
	for _, a := range args[1:] {
		rest = append(rest, a)
	}
	s := format
	if strings.Contains(format, "%") {
		s = fmt.Sprintf(format, rest...)
	}
	r.writeStdout([]byte(s))
	return 0
}

func biCd(ctx context.Context, r *Runner, args []string) int {
	dir := "/"
	if len(args) > 0 {
		dir = args[0]
	} else if home, ok := r.lookupPlain("HOME"); ok {
		dir = home.Str
	}
	target := r.resolvePath(dir)
	if err := r.FS.Chdir(target); err != nil {
		fmt.Fprintf(r.Stderr, "cd: %v\n", err)
		return 1
	}
	r.Dir = r.FS.Getwd()
	return 0
}

func biPwd(ctx context.Context, r *Runner, args []string) int {
	r.writeStdout([]byte(r.Dir + "\n"))
	return 0
}

func biExport(ctx context.Context, r *Runner, args []string) int {
	if len(args) == 0 {
		r.printVars(true, false)
		return 0
	}
	for _, a := range args {
		name, val, hasVal := splitAssign(a)
		vr, _ := r.lookupPlain(name)
		if hasVal {
			vr = expand.Variable{Kind: expand.String, Str: val}
		}
		vr.Exported = true
		r.setVar(name, vr)
	}
	return 0
}

func biReadonly(ctx context.Context, r *Runner, args []string) int {
	if len(args) == 0 {
		r.printVars(false, true)
		return 0
	}
	for _, a := range args {
		name, val, hasVal := splitAssign(a)
		vr, _ := r.lookupPlain(name)
		if hasVal {
			vr = expand.Variable{Kind: expand.String, Str: val}
		}
		vr.ReadOnly = true
		r.setVar(name, vr)
	}
	return 0
}

func biLocal(ctx context.Context, r *Runner, args []string) int {
	for _, a := range args {
		name, val, hasVal := splitAssign(a)
		vr := expand.Variable{Kind: expand.String}
		if hasVal {
			vr.Str = val
		}
		r.setLocal(name, vr)
	}
	return 0
}

func biDeclare(ctx context.Context, r *Runner, args []string) int {
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		name, val, hasVal := splitAssign(a)
		vr := expand.Variable{Kind: expand.String}
		if hasVal {
			vr.Str = val
		}
		r.setVar(name, vr)
	}
	return 0
}

func splitAssign(s string) (name, val string, hasVal bool) {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

func (r *Runner) printVars(exportedOnly, readonlyOnly bool) {
	names := sortedKeys(r.globals)
	for _, name := range names {
		vr := r.globals[name]
		if exportedOnly && !vr.Exported {
			continue
		}
		if readonlyOnly && !vr.ReadOnly {
			continue
		}
		fmt.Fprintf(r.Stdout, "%s=%q\n", name, vr.Str)
	}
}

func biUnset(ctx context.Context, r *Runner, args []string) int {
	for _, name := range args {
		if _, ok := r.funcs[name]; ok {
			delete(r.funcs, name)
			continue
		}
		r.deleteVar(name)
	}
	return 0
}

func biShift(ctx context.Context, r *Runner, args []string) int {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	if n > len(r.params) {
		return 1
	}
	r.params = r.params[n:]
	return 0
}

func biReturn(ctx context.Context, r *Runner, args []string) int {
	code := r.exit
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			code = v
		}
	}
	panic(controlSignal{kind: ctlReturn, count: code})
}

func biExit(ctx context.Context, r *Runner, args []string) int {
	code := r.exit
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			code = v
		}
	}
	panic(controlSignal{kind: ctlExit, count: code})
}

func biBreak(ctx context.Context, r *Runner, args []string) int {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	panic(controlSignal{kind: ctlBreak, count: n})
}

func biContinue(ctx context.Context, r *Runner, args []string) int {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	panic(controlSignal{kind: ctlContinue, count: n})
}

func biEval(ctx context.Context, r *Runner, args []string) int {
	src := strings.Join(args, " ")
	res, err := r.execSub(ctx, src, r.Dir)
	r.Stdout.Write(res.Stdout)
	r.Stderr.Write(res.Stderr)
	if err != nil {
		return 2
	}
	return res.ExitCode
}

// setOption maps a -o/+o option name to the Runner flag it controls.
func setOption(r *Runner, name string, enable bool) {
	switch name {
	case "errexit":
		r.errExit = enable
	case "nounset":
		r.unsetErr = enable
	case "xtrace":
		r.xtrace = enable
	case "noglob":
		r.noGlob = enable
	case "pipefail":
		r.pipefail = enable
	}
}

func biSet(ctx context.Context, r *Runner, args []string) int {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "-e":
			r.errExit = true
		case "+e":
			r.errExit = false
		case "-u":
			r.unsetErr = true
		case "+u":
			r.unsetErr = false
		case "-x":
			r.xtrace = true
		case "+x":
			r.xtrace = false
		case "-f":
			r.noGlob = true
		case "+f":
			r.noGlob = false
		case "-o", "+o":
			i++
			if i >= len(args) {
				break
			}
			setOption(r, args[i], a == "-o")
		case "--":
			r.params = append([]string{}, args[i+1:]...)
			return 0
		default:
			if !strings.HasPrefix(a, "-") && !strings.HasPrefix(a, "+") {
				r.params = args[i:]
				return 0
			}
		}
	}
	return 0
}

func biAlias(ctx context.Context, r *Runner, args []string) int {
	if len(args) == 0 {
		for _, name := range sortedStringKeys(r.aliases) {
			fmt.Fprintf(r.Stdout, "alias %s=%q\n", name, r.aliases[name])
		}
		return 0
	}
	for _, a := range args {
		name, val, hasVal := splitAssign(a)
		if hasVal {
			r.aliases[name] = val
		} else if v, ok := r.aliases[name]; ok {
			fmt.Fprintf(r.Stdout, "alias %s=%q\n", name, v)
		}
	}
	return 0
}

func biUnalias(ctx context.Context, r *Runner, args []string) int {
	for _, name := range args {
		delete(r.aliases, name)
	}
	return 0
}

func biType(ctx context.Context, r *Runner, args []string) int {
	status := 0
	for _, name := range args {
		switch {
		case r.funcs[name] != nil:
			fmt.Fprintf(r.Stdout, "%s is a function\n", name)
		case builtins[name] != nil:
			fmt.Fprintf(r.Stdout, "%s is a shell builtin\n", name)
		default:
			if _, ok := r.Registry.Lookup(name); ok {
				fmt.Fprintf(r.Stdout, "%s is %s\n", name, name)
			} else {
				fmt.Fprintf(r.Stderr, "%s: not found\n", name)
				status = 1
			}
		}
	}
	return status
}

func biCommand(ctx context.Context, r *Runner, args []string) int {
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		args = args[1:]
	}
	if len(args) == 0 {
		return 0
	}
	r.dispatchArgs(ctx, args)
	return r.exit
}

func biTest(ctx context.Context, r *Runner, args []string) int {
	return evalTestArgs(r, args)
}

func biTestBracket(ctx context.Context, r *Runner, args []string) int {
	if len(args) > 0 && args[len(args)-1] == "]" {
		args = args[:len(args)-1]
	}
	return evalTestArgs(r, args)
}

// evalTestArgs implements the POSIX "test"/"[" argument grammar directly
// over already-expanded strings, a thin adapter in front of the same
// comparison helpers evalTest uses for "[[ ]]".
func evalTestArgs(r *Runner, args []string) int {
	switch len(args) {
	case 0:
		return 1
	case 1:
		if args[0] != "" {
			return 0
		}
		return 1
	case 2:
		if args[0] == "!" {
			return 1 - evalTestArgs(r, args[1:])
		}
		if boolOk(testUnaryString(r, args[0], args[1])) {
			return 0
		}
		return 1
	case 3:
		if boolOk(testBinaryString(r, args[0], args[1], args[2])) {
			return 0
		}
		return 1
	}
	return 1
}

func boolOk(b bool) bool { return b }

func testUnaryString(r *Runner, op, arg string) bool {
	switch op {
	case "-z":
		return arg == ""
	case "-n":
		return arg != ""
	case "-e", "-a":
		_, err := r.FS.Stat(r.resolvePath(arg))
		return err == nil
	case "-f":
		fi, err := r.FS.Stat(r.resolvePath(arg))
		return err == nil && !fi.IsDir()
	case "-d":
		fi, err := r.FS.Stat(r.resolvePath(arg))
		return err == nil && fi.IsDir()
	}
	return false
}

func testBinaryString(r *Runner, a, op, b string) bool {
	switch op {
	case "=", "==":
		return a == b
	case "!=":
		return a != b
	case "-eq":
		return numEq(a, b, func(x, y int64) bool { return x == y })
	case "-ne":
		return numEq(a, b, func(x, y int64) bool { return x != y })
	case "-lt":
		return numEq(a, b, func(x, y int64) bool { return x < y })
	case "-le":
		return numEq(a, b, func(x, y int64) bool { return x <= y })
	case "-gt":
		return numEq(a, b, func(x, y int64) bool { return x > y })
	case "-ge":
		return numEq(a, b, func(x, y int64) bool { return x >= y })
	case "-nt", "-ot", "-ef":
		return r.evalFileCompare(op, a, b)
	}
	return false
}

func biLet(ctx context.Context, r *Runner, args []string) int {
	status := 1
	for _, expr := range args {
		x, err := r.parseArithString(expr)
		if err != nil {
			return 1
		}
		n, err := r.ecfg.Arith(x)
		if err != nil {
			return 1
		}
		status = boolStatus(n != 0)
	}
	return status
}

func biRead(ctx context.Context, r *Runner, args []string) int {
	var names []string
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			names = append(names, a)
		}
	}
	if len(names) == 0 {
		names = []string{"REPLY"}
	}
	line, ok := r.readLine()
	if !ok {
		return 1
	}
	fields := strings.Fields(line)
	for i, name := range names {
		if i < len(fields) {
			r.setVarString(name, fields[i])
		} else {
			r.setVarString(name, "")
		}
	}
	return 0
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
