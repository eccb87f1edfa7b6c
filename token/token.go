package token

import (
	"fmt"
	"strconv"
)

const (
	// Keywords
	INT Kind = iota
	VOID
	RETURN

	// Identifiers + literals
	IDENT
	CONSTANT

	// Delimiters
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	SEMICOLON

	EOF
)

type Kind int

var kindNames = [...]string{
	INT:       "IntKeyword",
	VOID:      "VoidKeyword",
	RETURN:    "ReturnKeyword",
	IDENT:     "Identifier",
	CONSTANT:  "Constant",
	LPAREN:    "OpenParenthesis",
	RPAREN:    "CloseParenthesis",
	LBRACE:    "OpenBrace",
	RBRACE:    "CloseBrace",
	SEMICOLON: "Semicolon",
	EOF:       "EOF",
}

var keywords = map[string]Kind{
	"int":    INT,
	"void":   VOID,
	"return": RETURN,
}

// LookupIdent classifies an identifier-shaped lexeme. Only exact matches against the
// keyword table are keywords.
func LookupIdent(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

func (k Kind) IsKeyword() bool {
	return k == INT || k == VOID || k == RETURN
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown token kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown token kind %q", text)
}

// Token is one classified lexeme. Value is only meaningful for CONSTANT.
// Line and Column are 0-indexed; Offset is the byte offset of the lexeme in the source.
type Token struct {
	Kind   Kind   `json:"kind"`
	Lexeme string `json:"lexeme"`
	Value  int64  `json:"value"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
}

// New builds a token without position information.
func New(kind Kind, lexeme string) Token {
	return Token{Kind: kind, Lexeme: lexeme}
}

// Constant builds a CONSTANT token whose lexeme is the decimal form of v.
func Constant(v int64) Token {
	return Token{Kind: CONSTANT, Lexeme: strconv.FormatInt(v, 10), Value: v}
}

// SameAs reports whether t and other carry the same kind and payload, ignoring position.
func (t Token) SameAs(other Token) bool {
	return t.Kind == other.Kind && t.Lexeme == other.Lexeme && t.Value == other.Value
}

func (t Token) String() string {
	switch t.Kind {
	case IDENT:
		return fmt.Sprintf("%s '%s'", t.Kind, t.Lexeme)
	case CONSTANT:
		return fmt.Sprintf("%s '%d'", t.Kind, t.Value)
	default:
		return t.Kind.String()
	}
}
