package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/thisisjab/cmoon/config"
	"github.com/thisisjab/cmoon/entity"
	"github.com/thisisjab/cmoon/fault"
	"github.com/thisisjab/cmoon/lexer"
	"github.com/thisisjab/cmoon/parser"
	"github.com/thisisjab/cmoon/token"
	"gopkg.in/yaml.v3"
)

type mode string

const (
	modeLex   mode = "lex"
	modeParse mode = "parse"
)

type options struct {
	path       string
	mode       mode
	configPath string
	verbose    bool
	print      bool
	recover    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "%v\nusage: cmoon [-config path] [-v] [-print] [-recover] <file> --lex|--parse\n", err)
		return 2
	}

	logger, err := newLogger(opts)
	if err != nil {
		fmt.Fprintf(stderr, "cannot create logger: %v\n", err)
		return 1
	}

	content, err := os.ReadFile(opts.path)
	if err != nil {
		logger.Error("cannot read source file.", "path", opts.path, "error", err)
		return 1
	}

	tokens, err := scan(string(content), opts.recover)
	if err != nil {
		logDiagnostics(logger, opts.path, err)
		return 1
	}
	logger.Info("lexed source file.", "path", opts.path, "tokens", len(tokens))

	if opts.mode == modeLex {
		if opts.print {
			for _, tok := range tokens {
				fmt.Fprintln(stdout, tok)
			}
		}
		return 0
	}

	program, err := parser.New(tokens).ParseProgram()
	if err != nil {
		logDiagnostics(logger, opts.path, err)
		return 1
	}
	logger.Info("parsed source file.", "path", opts.path, "function", program.Function.Name)

	if opts.print {
		fmt.Fprintln(stdout, program)
	}

	return 0
}

func scan(source string, all bool) ([]token.Token, error) {
	if all {
		return lexer.New(source).ScanAll()
	}
	return lexer.Scan(source)
}

func logDiagnostics(logger *slog.Logger, path string, err error) {
	for _, d := range entity.DiagnosticsFromError(err) {
		logger.Error(d.Message, "path", path, "line", d.Line, "code", d.Code)
	}
	if _, ok := fault.LineOf(err); !ok {
		logger.Error("compilation failed.", "path", path, "error", err)
	}
}

// parseArgs accepts the mode flag before or after the file path.
func parseArgs(args []string, output io.Writer) (options, error) {
	var opts options
	var lex, parse bool

	fs := flag.NewFlagSet("cmoon", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "config", "", "path to config file")
	fs.BoolVar(&opts.verbose, "v", false, "enable debug logging")
	fs.BoolVar(&opts.print, "print", false, "print tokens (--lex) or the syntax tree (--parse)")
	fs.BoolVar(&opts.recover, "recover", false, "report every lexical error instead of stopping at the first")
	fs.BoolVar(&lex, "lex", false, "run the tokenizer")
	fs.BoolVar(&parse, "parse", false, "run the tokenizer and the parser")

	rest := args
	var positional []string
	for {
		if err := fs.Parse(rest); err != nil {
			return options{}, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}

	switch {
	case lex && parse:
		return options{}, errors.New("--lex and --parse are mutually exclusive")
	case lex:
		opts.mode = modeLex
	case parse:
		opts.mode = modeParse
	default:
		return options{}, errors.New("a mode flag is required")
	}

	if len(positional) != 1 {
		return options{}, fmt.Errorf("expected exactly one source file, got %d: %s", len(positional), strings.Join(positional, " "))
	}
	opts.path = positional[0]

	return opts, nil
}

func newLogger(opts options) (*slog.Logger, error) {
	cfg := config.Default()

	if opts.configPath != "" {
		fileContent, err := os.ReadFile(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file content: %w", err)
		}
		if err := yaml.Unmarshal(fileContent, &cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file: %w", err)
		}
	}

	if opts.verbose {
		cfg.Logger.Level = "debug"
	}

	return cfg.NewLogger()
}
