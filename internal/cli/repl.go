package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/auvred/tagre"
)

const (
	prompt      = "tagre> "
	historyName = ".tagre_history"
)

var commands = []string{":pattern ", ":subst ", ":words ", ":dump", ":help", "exit"}

const replHelp = `Every other line is searched with the current pattern.
  :pattern PATTERN   compile PATTERN and use it from now on
  :subst [TEMPLATE]  show the expansion of TEMPLATE after every match, none clears it
  :words CHARS       add CHARS to the word characters
  :dump              print the compiled program
  :help              print this text
  exit, quit         leave
`

// session is the state of an interactive run. eval is kept apart from the
// terminal handling in interact so it can be driven by tests.
type session struct {
	flags tagre.Flag
	words *tagre.WordTable
	limit int

	m        *tagre.Matcher
	re       *tagre.Regexp
	subst    string
	hasSubst bool
}

func (s *session) setPattern(pattern string) error {
	re, err := tagre.Compile(pattern, s.flags)
	if err != nil {
		return err
	}
	s.re = re
	s.m = tagre.NewMatcher(re, s.words)
	s.m.SetStepLimit(s.limit)
	return nil
}

func (s *session) setSubst(template string) {
	s.subst, s.hasSubst = template, template != ""
}

// eval handles one line of input and reports whether the session is over.
func (s *session) eval(ctx context.Context, out io.Writer, input string) (quit bool) {
	trimmed := strings.TrimSpace(input)
	switch {
	case trimmed == "exit" || trimmed == "quit":
		return true
	case trimmed == ":help":
		fmt.Fprint(out, replHelp)
	case trimmed == ":dump":
		if s.re == nil {
			fmt.Fprintln(out, "no pattern, set one with :pattern")
			break
		}
		fmt.Fprint(out, s.re.Dump())
	case isCommand(trimmed, ":pattern"):
		pattern := argument(input, ":pattern")
		if err := s.setPattern(pattern); err != nil {
			fmt.Fprintf(out, "invalid pattern %q: %s\n", pattern, err)
			break
		}
		fmt.Fprintf(out, "pattern %q, %d tags\n", pattern, s.re.NumTags())
	case isCommand(trimmed, ":subst"):
		s.setSubst(argument(input, ":subst"))
	case isCommand(trimmed, ":words"):
		s.words.Add(strings.TrimSpace(argument(input, ":words")))
		fmt.Fprintf(out, "word characters %q\n", s.words.Chars())
	case strings.HasPrefix(trimmed, ":"):
		fmt.Fprintf(out, "unknown command %q, try :help\n", trimmed)
	case s.m == nil:
		fmt.Fprintln(out, "no pattern, set one with :pattern")
	default:
		s.search(ctx, out, []byte(input))
	}
	return false
}

func isCommand(trimmed, name string) bool {
	rest, ok := strings.CutPrefix(trimmed, name)
	return ok && (rest == "" || rest[0] == ' ')
}

// argument returns what follows name and a single separating space,
// keeping any further white space as part of the argument.
func argument(input, name string) string {
	rest := strings.TrimPrefix(strings.TrimLeft(input, " \t"), name)
	return strings.TrimPrefix(rest, " ")
}

func (s *session) search(ctx context.Context, out io.Writer, input []byte) {
	_, ok, err := s.m.FindContext(ctx, input, 0)
	if err != nil {
		fmt.Fprintf(out, "search stopped: %s\n", err)
		return
	}
	if !ok {
		fmt.Fprintln(out, "no match")
		return
	}
	for tag := 0; tag <= s.re.NumTags(); tag++ {
		span, ok := s.m.Group(tag)
		if !ok {
			fmt.Fprintf(out, "%d: unset\n", tag)
			continue
		}
		fmt.Fprintf(out, "%d: [%d,%d) %q\n", tag, span.Start, span.End, s.m.Bytes(tag))
	}
	if s.hasSubst {
		res, err := s.m.Substitute(s.subst)
		if err != nil {
			fmt.Fprintf(out, "substitution failed: %s\n", err)
			return
		}
		fmt.Fprintf(out, "=> %q\n", res)
	}
}

func complete(line string) (c []string) {
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, line) {
			c = append(c, cmd)
		}
	}
	return c
}

// interact runs the session on the terminal with line editing and a
// history file kept in the temporary directory.
func (s *session) interact(ctx context.Context, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(complete)

	historyFile := filepath.Join(os.TempDir(), historyName)
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(out, "Type :help for commands, exit or Ctrl+D to quit")
	for ctx.Err() == nil {
		input, err := line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if s.eval(ctx, out, input) {
			return nil
		}
	}
	return ctx.Err()
}
