package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

type result struct {
	status int
	stdout string
	stderr string
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	argv := append([]string{"tagre"}, args...)
	status := Run(context.Background(), argv, strings.NewReader(stdin), &stdout, &stderr)
	return result{status: status, stdout: stdout.String(), stderr: stderr.String()}
}

func TestFilter(t *testing.T) {
	cases := []struct {
		name   string
		args   []string
		stdin  string
		status int
		stdout string
	}{
		{"Match", []string{"b.r"}, "foo\nbar\nbaz\n", ExitSelected, "bar\n"},
		{"NoMatch", []string{"qux"}, "foo\nbar\n", ExitNone, ""},
		{"EmptyInput", []string{"a"}, "", ExitNone, ""},
		{"NoTrailingNewline", []string{"z"}, "foo\nbaz", ExitSelected, "baz\n"},
		{"Invert", []string{"-v", "a"}, "foo\nbar\nqux\n", ExitSelected, "foo\nqux\n"},
		{"LineNumber", []string{"-n", "o"}, "foo\nbar\nboo\n", ExitSelected, "1:foo\n3:boo\n"},
		{"Subst", []string{"-s", `\2\1`, `\(a\)\(b\)`}, "xaby\nzz\n", ExitSelected, "xbay\n"},
		{"SubstFirstOnly", []string{"-s", "0", "o"}, "foo boo\n", ExitSelected, "f0o boo\n"},
		{"SubstGlobal", []string{"-g", "-s", "0", "o"}, "foo boo\n", ExitSelected, "f00 b00\n"},
		{"SubstWhole", []string{"--subst=<&>", "[0-9][0-9]*"}, "a 42 b\n", ExitSelected, "a <42> b\n"},
		{"OnlyMatching", []string{"-o", "[0-9]+"}, "a12b345\nnone\n", ExitSelected, "12\n345\n"},
		{"OnlyMatchingSkipsEmpty", []string{"-o", "x*"}, "axxb\n", ExitSelected, "xx\n"},
		{"WordBoundary", []string{`\<is\>`}, "this\nit is\n", ExitSelected, "it is\n"},
		{"WordChars", []string{"--word-chars=-", `\<b`}, "a-b\n", ExitNone, ""},
		{"Extended", []string{"-x", `a\tb`}, "a\tb\natb\n", ExitSelected, "a\tb\n"},
		{"Classic", []string{`a\tb`}, "a\tb\natb\n", ExitSelected, "atb\n"},
		{"Anchored", []string{"^b"}, "abc\nbcd\n", ExitSelected, "bcd\n"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			r := run(t, c.stdin, c.args...)
			assert.Equal(t, r.status, c.status, "stderr: %s", r.stderr)
			assert.Equal(t, r.stdout, c.stdout)
			assert.Equal(t, r.stderr, "")
		})
	}
}

func TestDump(t *testing.T) {
	r := run(t, "", "-d", "ab*")
	assert.Equal(t, r.status, ExitSelected)
	assert.Equal(t, r.stdout, "CHR a\nCLOSURE\n    CHR b\nEND\n")
}

func TestHelp(t *testing.T) {
	r := run(t, "", "-h")
	assert.Equal(t, r.status, ExitSelected)
	assert.Check(t, is.Contains(r.stdout, "--subst"))
	assert.Check(t, is.Contains(r.stdout, "pattern [file...]"))
}

func TestArgumentErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"MissingPattern", nil, "a pattern must be specified"},
		{"GlobalWithoutSubst", []string{"-g", "a"}, "--global requires --subst"},
		{"InvertSubst", []string{"-v", "-s", "x", "a"}, "--invert can not be combined"},
		{"OnlyMatchingSubst", []string{"-o", "-s", "x", "a"}, "--only-matching can not be combined"},
		{"NegativeSteps", []string{"--max-steps=-1", "a"}, "must not be negative"},
		{"NonASCIIWordChars", []string{"--word-chars=é", "a"}, "may only hold ASCII"},
		{"UnknownOption", []string{"--bogus", "a"}, "bogus"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			r := run(t, "", c.args...)
			assert.Equal(t, r.status, ExitError)
			assert.Equal(t, r.stdout, "")
			assert.Check(t, is.Contains(r.stderr, c.want))
		})
	}
}

func TestInvalidPattern(t *testing.T) {
	r := run(t, "abc\n", "[a")
	assert.Equal(t, r.status, ExitError)
	assert.Equal(t, r.stdout, "")
	assert.Check(t, is.Contains(r.stderr, "missing ]"))
	assert.Check(t, is.Contains(r.stderr, `invalid pattern "[a"`))
}

func TestStepLimit(t *testing.T) {
	stdin := strings.Repeat("a", 30) + "\nab\n"
	r := run(t, stdin, "--max-steps=1000", `\(a*\)*b`)
	assert.Equal(t, r.status, ExitSelected)
	assert.Equal(t, r.stdout, "ab\n")
	assert.Check(t, is.Contains(r.stderr, "(standard input):1:"))
	assert.Check(t, is.Contains(r.stderr, "line skipped"))
}

func TestStepLimitInvert(t *testing.T) {
	stdin := strings.Repeat("a", 30) + "\nb\nc\n"
	r := run(t, stdin, "-v", "--max-steps=1000", `\(a*\)*b`)
	assert.Equal(t, r.status, ExitSelected)
	assert.Equal(t, r.stdout, "c\n")
	assert.Check(t, is.Contains(r.stderr, "(standard input):1:"))
	assert.Check(t, is.Contains(r.stderr, "step limit exceeded, line skipped"))
}

func TestDefaultStepLimit(t *testing.T) {
	r := run(t, strings.Repeat("a", 40)+"\n", `\(a*\)*b`)
	assert.Equal(t, r.status, ExitNone)
	assert.Equal(t, r.stdout, "")
	assert.Check(t, is.Contains(r.stderr, "line skipped"))

	cfg := &config{MaxSteps: defaultMaxSteps}
	cfg.initArgvParser("tagre")
	assert.Assert(t, is.Len(cfg.parseArgv([]string{"tagre", "a"}), 0))
	assert.Equal(t, cfg.MaxSteps, defaultMaxSteps)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	one := filepath.Join(dir, "one.txt")
	two := filepath.Join(dir, "two.txt")
	assert.NilError(t, os.WriteFile(one, []byte("apple\nberry\n"), 0o644))
	assert.NilError(t, os.WriteFile(two, []byte("cherry\n"), 0o644))

	t.Run("Single", func(t *testing.T) {
		r := run(t, "", "rr", two)
		assert.Equal(t, r.status, ExitSelected)
		assert.Equal(t, r.stdout, "cherry\n")
	})
	t.Run("Multiple", func(t *testing.T) {
		r := run(t, "", "-n", "rr", one, two)
		assert.Equal(t, r.status, ExitSelected)
		assert.Equal(t, r.stdout, one+":2:berry\n"+two+":1:cherry\n")
	})
	t.Run("Stdin", func(t *testing.T) {
		r := run(t, "error\n", "rr", one, "-")
		assert.Equal(t, r.status, ExitSelected)
		assert.Equal(t, r.stdout, one+":berry\n(standard input):error\n")
	})
	t.Run("Missing", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.txt")
		r := run(t, "", "rr", missing, two)
		assert.Equal(t, r.status, ExitError)
		assert.Equal(t, r.stdout, two+":cherry\n")
		assert.Check(t, is.Contains(r.stderr, missing))
	})
}

func TestInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	status := Run(ctx, []string{"tagre", "a"}, strings.NewReader("a\n"), &stdout, &stderr)
	assert.Equal(t, status, ExitError)
	assert.Check(t, is.Contains(stderr.String(), "interrupted"))
}
