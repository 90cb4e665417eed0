package interp

import (
	"bytes"
	"io"
	"strconv"

	"github.com/vercel-labs/vshell/syntax"
)

// applyRedirects rewires r.Stdin/Stdout/Stderr for the duration of one
// statement, returning a closer that restores the previous streams,
// grounded on the teacher's Runner.redir (interp/interp.go) but reading and
// writing through vfs.FS instead of the host's *os.File.
func (r *Runner) applyRedirects(redirs []*syntax.Redirect) (closer func(), err error) {
	if len(redirs) == 0 {
		return func() {}, nil
	}
	savedIn, savedOut, savedErr := r.Stdin, r.Stdout, r.Stderr
	restore := func() {
		r.Stdin, r.Stdout, r.Stderr = savedIn, savedOut, savedErr
	}

	for _, rd := range redirs {
		if err := r.applyOneRedirect(rd); err != nil {
			restore()
			return func() {}, err
		}
	}
	return restore, nil
}

func (r *Runner) applyOneRedirect(rd *syntax.Redirect) error {
	switch rd.Op {
	case syntax.RedirIn, syntax.RedirInOut:
		path, err := r.ecfg.Literal(rd.Word)
		if err != nil {
			return &RedirectionError{Op: "<", Err: err}
		}
		data, err := r.FS.ReadFile(r.resolvePath(path))
		if err != nil {
			return &RedirectionError{Op: "<", Err: err}
		}
		r.Stdin = bytes.NewReader(data)

	case syntax.RedirOut, syntax.ClobberOut:
		path, err := r.ecfg.Literal(rd.Word)
		if err != nil {
			return &RedirectionError{Op: ">", Err: err}
		}
		w := &fileWriter{r: r, path: r.resolvePath(path), append: false}
		r.setOutStream(srcFD(rd, 1), w)

	case syntax.AppOut:
		path, err := r.ecfg.Literal(rd.Word)
		if err != nil {
			return &RedirectionError{Op: ">>", Err: err}
		}
		w := &fileWriter{r: r, path: r.resolvePath(path), append: true}
		r.setOutStream(srcFD(rd, 1), w)

	case syntax.RedirAll, syntax.AppAll:
		path, err := r.ecfg.Literal(rd.Word)
		if err != nil {
			return &RedirectionError{Op: "&>", Err: err}
		}
		w := &fileWriter{r: r, path: r.resolvePath(path), append: rd.Op == syntax.AppAll}
		r.Stdout = w
		r.Stderr = w

	case syntax.DupOut:
		target, err := r.ecfg.Literal(rd.Word)
		if err != nil {
			return &RedirectionError{Op: ">&", Err: err}
		}
		fd := srcFD(rd, 1)
		if target == "-" {
			r.setOutStream(fd, io.Discard)
			return nil
		}
		tfd, err := strconv.Atoi(target)
		if err != nil {
			return &RedirectionError{Op: ">&", Err: err}
		}
		r.setOutStream(fd, r.outStream(tfd))

	case syntax.DupIn:
		target, err := r.ecfg.Literal(rd.Word)
		if err != nil {
			return &RedirectionError{Op: "<&", Err: err}
		}
		if target == "-" {
			r.Stdin = bytes.NewReader(nil)
		}

	case syntax.Heredoc, syntax.DashHeredoc:
		body := ""
		if rd.Hdoc != nil {
			if s, err := r.ecfg.Literal(rd.Hdoc); err == nil {
				body = s
			}
		}
		r.Stdin = bytes.NewReader([]byte(body))

	case syntax.HeredocStr:
		s, err := r.ecfg.Literal(rd.Word)
		if err != nil {
			return &RedirectionError{Op: "<<<", Err: err}
		}
		r.Stdin = bytes.NewReader([]byte(s + "\n"))
	}
	return nil
}

// srcFD returns the explicit source file descriptor named before a
// redirection operator, e.g. the "2" in 2>&1 (syntax.Redirect.N). A nil N
// means the operator's default applies: 1 for >, >>, >&, etc.
func srcFD(rd *syntax.Redirect, def int) int {
	if rd.N == nil {
		return def
	}
	n, err := strconv.Atoi(rd.N.Value)
	if err != nil {
		return def
	}
	return n
}

// outStream returns the Runner's current writer for a given output fd.
// Only fd 1 and 2 are modeled; any other fd reads as a discarded stream,
// since the Runner carries no general file-descriptor table.
func (r *Runner) outStream(fd int) io.Writer {
	switch fd {
	case 1:
		return r.Stdout
	case 2:
		return r.Stderr
	default:
		return io.Discard
	}
}

// setOutStream rewires the Runner's fd 1 or fd 2 writer. Setting any other
// fd is a no-op: the Runner has no slot to hold it.
func (r *Runner) setOutStream(fd int, w io.Writer) {
	switch fd {
	case 1:
		r.Stdout = w
	case 2:
		r.Stderr = w
	}
}

// resolvePath joins a possibly-relative redirection target against the
// Runner's current directory, the same convention vfs.FS.abs applies
// internally to every other path-taking method.
func (r *Runner) resolvePath(p string) string {
	if len(p) > 0 && p[0] == '/' {
		return p
	}
	if r.Dir == "" || r.Dir == "/" {
		return "/" + p
	}
	return r.Dir + "/" + p
}

// fileWriter adapts vfs.FS's whole-file WriteFile/AppendFile calls to
// io.Writer: every Write is passed straight to the VFS, the first as a
// truncating WriteFile (unless appending) and later ones as AppendFile —
// vfs.FS has no open-file-descriptor concept, only whole-file reads and
// writes.
type fileWriter struct {
	r      *Runner
	path   string
	append bool
	buf    bytes.Buffer
	opened bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.r.checkOutputBudget(len(p))
	n, err := w.buf.Write(p)
	w.flush()
	return n, err
}

func (w *fileWriter) flush() {
	if w.append || w.opened {
		w.r.FS.AppendFile(w.path, w.buf.Bytes(), 0644)
	} else {
		w.r.FS.WriteFile(w.path, w.buf.Bytes(), 0644)
	}
	w.opened = true
	w.buf.Reset()
}
