// Package cli implements the tagre command: a line filter in the manner of
// grep, with sed-like substitution.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/auvred/tagre"
)

// Exit statuses, as grep uses them.
const (
	ExitSelected = 0
	ExitNone     = 1
	ExitError    = 2
)

const stdinName = "(standard input)"

// Run executes the command for argv (argv[0] being the program name) and
// returns the exit status.
func Run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	program := "tagre"
	if len(argv) > 0 {
		program = filepath.Base(argv[0])
	}
	logger := log.New(stderr, program+": ", 0)

	cfg := &config{MaxSteps: defaultMaxSteps}
	cfg.initArgvParser(program)
	if errs := cfg.parseArgv(argv); len(errs) > 0 {
		fmt.Fprint(stderr, "\n")
		cfg.printUsage(stderr)
		printArgErrors(stderr, errs)
		return ExitError
	}
	if cfg.Help {
		cfg.printUsage(stdout)
		return ExitSelected
	}

	words := tagre.NewWordTable()
	words.Add(cfg.WordChars)

	if cfg.Interactive {
		s := &session{flags: cfg.flags(), words: words, limit: cfg.MaxSteps}
		if cfg.optSet.IsSet("subst") {
			s.setSubst(cfg.Subst)
		}
		if cfg.pattern != "" {
			if err := s.setPattern(cfg.pattern); err != nil {
				logger.Printf("invalid pattern %q: %s", cfg.pattern, err)
				return ExitError
			}
		}
		if err := s.interact(ctx, stdout); err != nil {
			logger.Print(err)
			return ExitError
		}
		return ExitSelected
	}

	re, err := tagre.Compile(cfg.pattern, cfg.flags())
	if err != nil {
		logger.Printf("invalid pattern %q: %s", cfg.pattern, err)
		return ExitError
	}
	if cfg.Dump {
		fmt.Fprint(stdout, re.Dump())
		return ExitSelected
	}

	m := tagre.NewMatcher(re, words)
	m.SetStepLimit(cfg.MaxSteps)

	out := bufio.NewWriter(stdout)
	f := &filter{
		cfg:    cfg,
		m:      m,
		out:    out,
		logger: logger,
		multi:  len(cfg.files) > 1,
	}

	status := ExitNone
	note := func(err error, name string) {
		if err == nil {
			return
		}
		logger.Printf("%s: %s", name, err)
		status = ExitError
	}
	if len(cfg.files) == 0 {
		note(f.scan(ctx, stdin, stdinName), stdinName)
	}
	for _, name := range cfg.files {
		if ctx.Err() != nil {
			break
		}
		if name == "-" {
			note(f.scan(ctx, stdin, stdinName), stdinName)
			continue
		}
		fh, err := os.Open(name)
		if err != nil {
			note(err, name)
			continue
		}
		note(f.scan(ctx, fh, name), name)
		fh.Close()
	}
	if err := out.Flush(); err != nil {
		note(err, "output")
	}
	if err := ctx.Err(); err != nil {
		note(err, "interrupted")
	}

	if status == ExitError {
		return ExitError
	}
	if f.selected {
		return ExitSelected
	}
	return status
}

type filter struct {
	cfg      *config
	m        *tagre.Matcher
	out      *bufio.Writer
	logger   *log.Logger
	multi    bool
	selected bool
}

// scan filters every line of r. Lines that exhaust the step budget are
// reported and skipped.
func (f *filter) scan(ctx context.Context, r io.Reader, name string) error {
	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSuffix(line, []byte{'\n'})
			err := f.line(ctx, line, name, lineNo)
			if errors.Is(err, tagre.ErrStepLimit) {
				f.logger.Printf("%s:%d: %s, line skipped", name, lineNo, err)
			} else if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func (f *filter) line(ctx context.Context, line []byte, name string, lineNo int) error {
	span, ok, err := f.m.FindContext(ctx, line, 0)
	if err != nil {
		return err
	}

	switch {
	case f.cfg.Invert:
		if !ok {
			f.emit(name, lineNo, line)
		}
	case !ok:
	case f.cfg.OnlyMatching:
		for ok {
			if span.Len() > 0 {
				f.emit(name, lineNo, f.m.Bytes(0))
			}
			next := span.End
			if span.Len() == 0 {
				next++
			}
			if span, ok, err = f.m.FindContext(ctx, line, next); err != nil {
				return err
			}
		}
	case f.cfg.optSet.IsSet("subst") && f.cfg.Global:
		res, err := f.m.ReplaceAll(line, f.cfg.Subst)
		if err != nil {
			return err
		}
		f.emit(name, lineNo, res)
	case f.cfg.optSet.IsSet("subst"):
		res := append([]byte(nil), line[:span.Start]...)
		if res, err = f.m.AppendSubstitute(res, f.cfg.Subst); err != nil {
			return err
		}
		f.emit(name, lineNo, append(res, line[span.End:]...))
	default:
		f.emit(name, lineNo, line)
	}
	return nil
}

func (f *filter) emit(name string, lineNo int, text []byte) {
	f.selected = true
	if f.multi {
		f.out.WriteString(name)
		f.out.WriteByte(':')
	}
	if f.cfg.LineNumber {
		f.out.WriteString(strconv.Itoa(lineNo))
		f.out.WriteByte(':')
	}
	f.out.Write(text)
	f.out.WriteByte('\n')
}
