package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/thisisjab/cmoon/fault"
	"github.com/thisisjab/cmoon/token"
)

// Lexer scans one source text. It walks the input byte by byte; only ASCII letters and
// digits are part of the alphabet, so no character is ever re-decoded.
// A Lexer is single-use and must not be shared between goroutines.
type Lexer struct {
	input     string
	start     int // start of the lexeme being scanned
	current   int // next character to examine
	line      int // 0-indexed, bumped once per newline skipped
	lineStart int // offset of the first character of the current line
}

func New(input string) *Lexer {
	return &Lexer{input: input}
}

// Scan tokenizes input in one pass. See (*Lexer).Scan.
func Scan(input string) ([]token.Token, error) {
	return New(input).Scan()
}

// Scan returns every token of the input in source order. It stops at the first lexical
// error and returns no tokens in that case; the error is a fault.Fault carrying the line.
func (l *Lexer) Scan() ([]token.Token, error) {
	tokens := make([]token.Token, 0)

	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.EOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// ScanAll keeps going past lexical errors. Unrecognized characters are skipped and
// invalid constants are dropped; every error is returned joined with the tokens that
// could be recognized.
func (l *Lexer) ScanAll() ([]token.Token, error) {
	tokens := make([]token.Token, 0)
	var errs []error

	for {
		tok, err := l.NextToken()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if tok.Kind == token.EOF {
			return tokens, errors.Join(errs...)
		}
		tokens = append(tokens, tok)
	}
}

// NextToken returns the next token. Once the input is exhausted it returns an EOF token
// on every call.
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespace()
	l.start = l.current

	if l.isAtEnd() {
		return l.makeToken(token.EOF), nil
	}

	c := l.advance()
	switch c {
	case '(':
		return l.makeToken(token.LPAREN), nil
	case ')':
		return l.makeToken(token.RPAREN), nil
	case '{':
		return l.makeToken(token.LBRACE), nil
	case '}':
		return l.makeToken(token.RBRACE), nil
	case ';':
		return l.makeToken(token.SEMICOLON), nil
	}

	if isDigit(c) {
		return l.readConstant()
	}
	if isLetter(c) {
		return l.readIdentifier(), nil
	}

	return token.Token{}, l.unrecognized()
}

func (l *Lexer) readIdentifier() token.Token {
	for !l.isAtEnd() && (isLetter(l.peek()) || isDigit(l.peek())) {
		l.advance()
	}

	return l.makeToken(token.LookupIdent(l.lexeme()))
}

func (l *Lexer) readConstant() (token.Token, error) {
	for !l.isAtEnd() && isDigit(l.peek()) {
		l.advance()
	}

	literal := l.lexeme()
	v, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return token.Token{}, fault.New(fault.InvalidConstantCode, fmt.Sprintf("invalid integer constant %s", literal)).
			WithLine(l.line).
			WithOriginal(err)
	}

	tok := l.makeToken(token.CONSTANT)
	tok.Value = v
	return tok, nil
}

func (l *Lexer) unrecognized() error {
	// Consume the whole encoded character so a multi-byte rune is reported once.
	r, size := utf8.DecodeRuneInString(l.input[l.start:])
	l.current = l.start + size

	return fault.New(fault.UnrecognizedCharacterCode, fmt.Sprintf("unrecognized character %q", r)).
		WithLine(l.line).
		WithMetadata(map[string]any{"column": l.start - l.lineStart})
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\r', '\t':
			l.advance()
		case '\n':
			l.line++
			l.advance()
			l.lineStart = l.current
		case '/':
			if l.peekNext() != '/' {
				return
			}
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) makeToken(kind token.Kind) token.Token {
	return token.Token{
		Kind:   kind,
		Lexeme: l.lexeme(),
		Line:   l.line,
		Column: l.start - l.lineStart,
		Offset: l.start,
	}
}

func (l *Lexer) lexeme() string {
	return l.input[l.start:l.current]
}

// peek returns the current character, or 0 at the end of input.
func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.input[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.input) {
		return 0
	}
	return l.input[l.current+1]
}

// advance does not check for the end of input; callers do.
func (l *Lexer) advance() byte {
	c := l.peek()
	l.current++
	return c
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.input)
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
