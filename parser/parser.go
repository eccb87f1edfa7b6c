package parser

import (
	"fmt"

	"github.com/thisisjab/cmoon/ast"
	"github.com/thisisjab/cmoon/fault"
	"github.com/thisisjab/cmoon/token"
)

// Parser is a recursive descent parser over a complete token sequence.
//
//	<program>   ::= <function>
//	<function>  ::= "int" <identifier> "(" "void" ")" "{" <statement> "}"
//	<statement> ::= "return" <exp> ";"
//	<exp>       ::= <int>
type Parser struct {
	tokens   []token.Token
	pos      int
	curToken token.Token
}

func New(tokens []token.Token) *Parser {
	p := &Parser{tokens: tokens, pos: -1}
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	if p.pos < len(p.tokens) {
		p.pos++
	}

	if p.pos < len(p.tokens) {
		p.curToken = p.tokens[p.pos]
		return
	}

	p.curToken = token.Token{Kind: token.EOF, Line: p.lastLine()}
}

func (p *Parser) lastLine() int {
	if len(p.tokens) == 0 {
		return 0
	}
	return p.tokens[len(p.tokens)-1].Line
}

// expect consumes the current token if it has the given kind.
func (p *Parser) expect(kind token.Kind, message string) (token.Token, error) {
	tok := p.curToken
	if tok.Kind == token.EOF {
		return tok, fault.New(fault.UnexpectedEOFCode, fmt.Sprintf("%s, reached end of input", message)).WithLine(tok.Line)
	}
	if tok.Kind != kind {
		return tok, fault.New(fault.UnexpectedTokenCode, fmt.Sprintf("%s, got %s", message, tok)).
			WithLine(tok.Line).
			WithMetadata(map[string]any{"lexeme": tok.Lexeme, "column": tok.Column})
	}

	p.nextToken()
	return tok, nil
}

// ParseProgram parses the whole token sequence. Tokens left after the function are an error.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	fn, err := p.parseFunction()
	if err != nil {
		return nil, err
	}

	if p.curToken.Kind != token.EOF {
		return nil, fault.New(fault.UnexpectedTokenCode, fmt.Sprintf("unexpected %s after end of program", p.curToken)).
			WithLine(p.curToken.Line)
	}

	return &ast.Program{Function: fn}, nil
}

func (p *Parser) parseFunction() (*ast.Function, error) {
	start, err := p.expect(token.INT, "expected 'int' keyword at start of function")
	if err != nil {
		return nil, err
	}

	name, err := p.expect(token.IDENT, "expected function identifier")
	if err != nil {
		return nil, err
	}

	steps := []struct {
		kind    token.Kind
		message string
	}{
		{token.LPAREN, "expected '(' after function identifier"},
		{token.VOID, "expected 'void' keyword in function parameters"},
		{token.RPAREN, "expected ')' after function parameters"},
		{token.LBRACE, "expected '{' to begin function body"},
	}
	for _, s := range steps {
		if _, err := p.expect(s.kind, s.message); err != nil {
			return nil, err
		}
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.RBRACE, "expected '}' to end function body"); err != nil {
		return nil, err
	}

	return &ast.Function{Name: name.Lexeme, Body: body, Line: start.Line}, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	ret, err := p.expect(token.RETURN, "expected 'return' keyword")
	if err != nil {
		return nil, err
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.SEMICOLON, "expected ';' after return statement"); err != nil {
		return nil, err
	}

	return &ast.Return{Value: value, Line: ret.Line}, nil
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	c, err := p.expect(token.CONSTANT, "expected integer constant in expression")
	if err != nil {
		return nil, err
	}

	return &ast.Constant{Value: c.Value, Line: c.Line}, nil
}
