package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisisjab/cmoon/ast"
	"github.com/thisisjab/cmoon/fault"
	"github.com/thisisjab/cmoon/lexer"
	"github.com/thisisjab/cmoon/token"
)

func TestParseProgram(t *testing.T) {
	tests := map[string]*ast.Program{
		"int main(void) { return 42; }": {
			Function: &ast.Function{Name: "main", Body: &ast.Return{Value: &ast.Constant{Value: 42}}},
		},
		"// entry\nint  start(void)\n {\n return 0;  \n}": {
			Function: &ast.Function{Name: "start", Body: &ast.Return{Value: &ast.Constant{Value: 0}}},
		},
	}

	for input, expected := range tests {
		tokens, err := lexer.Scan(input)
		require.NoError(t, err)

		actual, err := New(tokens).ParseProgram()
		require.NoError(t, err, "ParseProgram(%q)", input)
		if !actual.Equal(expected) {
			t.Fatalf("ParseProgram(%q)\n%v,\nwant %v", input, actual, expected)
		}
	}
}

func TestParseProgramKeepsLines(t *testing.T) {
	tokens, err := lexer.Scan("int main(void)\n{\n  return 7;\n}")
	require.NoError(t, err)

	program, err := New(tokens).ParseProgram()
	require.NoError(t, err)

	assert.Equal(t, 0, program.Function.Line)
	ret := program.Function.Body.(*ast.Return)
	assert.Equal(t, 2, ret.Line)
	assert.Equal(t, 2, ret.Value.(*ast.Constant).Line)
}

func TestParseProgramErrors(t *testing.T) {
	tests := []struct {
		name   string
		tokens []token.Token
		code   string
	}{
		{
			name: "missing int",
			tokens: []token.Token{
				token.New(token.IDENT, "main"), token.New(token.LPAREN, "("),
				token.New(token.VOID, "void"), token.New(token.RPAREN, ")"),
				token.New(token.LBRACE, "{"), token.New(token.RETURN, "return"),
				token.Constant(42), token.New(token.SEMICOLON, ";"),
				token.New(token.RBRACE, "}"),
			},
			code: string(fault.UnexpectedTokenCode),
		},
		{
			name: "missing parenthesis",
			tokens: []token.Token{
				token.New(token.INT, "int"), token.New(token.IDENT, "main"),
				token.New(token.VOID, "void"), token.New(token.RPAREN, ")"),
				token.New(token.LBRACE, "{"), token.New(token.RETURN, "return"),
				token.Constant(42), token.New(token.SEMICOLON, ";"),
				token.New(token.RBRACE, "}"),
			},
			code: string(fault.UnexpectedTokenCode),
		},
		{
			name: "missing semicolon",
			tokens: []token.Token{
				token.New(token.INT, "int"), token.New(token.IDENT, "main"),
				token.New(token.LPAREN, "("), token.New(token.VOID, "void"),
				token.New(token.RPAREN, ")"), token.New(token.LBRACE, "{"),
				token.New(token.RETURN, "return"), token.Constant(42),
				token.New(token.RBRACE, "}"),
			},
			code: string(fault.UnexpectedTokenCode),
		},
		{
			name: "missing constant",
			tokens: []token.Token{
				token.New(token.INT, "int"), token.New(token.IDENT, "main"),
				token.New(token.LPAREN, "("), token.New(token.VOID, "void"),
				token.New(token.RPAREN, ")"), token.New(token.LBRACE, "{"),
				token.New(token.RETURN, "return"), token.New(token.SEMICOLON, ";"),
				token.New(token.RBRACE, "}"),
			},
			code: string(fault.UnexpectedTokenCode),
		},
		{
			name: "truncated",
			tokens: []token.Token{
				token.New(token.INT, "int"), token.New(token.IDENT, "main"),
				token.New(token.LPAREN, "("),
			},
			code: string(fault.UnexpectedEOFCode),
		},
		{
			name:   "empty",
			tokens: nil,
			code:   string(fault.UnexpectedEOFCode),
		},
		{
			name: "trailing tokens",
			tokens: []token.Token{
				token.New(token.INT, "int"), token.New(token.IDENT, "main"),
				token.New(token.LPAREN, "("), token.New(token.VOID, "void"),
				token.New(token.RPAREN, ")"), token.New(token.LBRACE, "{"),
				token.New(token.RETURN, "return"), token.Constant(1),
				token.New(token.SEMICOLON, ";"), token.New(token.RBRACE, "}"),
				token.New(token.SEMICOLON, ";"),
			},
			code: string(fault.UnexpectedTokenCode),
		},
	}

	for _, tt := range tests {
		program, err := New(tt.tokens).ParseProgram()
		assert.Nil(t, program, tt.name)

		var f fault.Fault
		if assert.ErrorAs(t, err, &f, tt.name) {
			assert.Equal(t, tt.code, string(f.Code()), tt.name)
		}
	}
}

func TestParseProgramErrorLine(t *testing.T) {
	tokens, err := lexer.Scan("int main(void) {\n  return 3\n}")
	require.NoError(t, err)

	_, err = New(tokens).ParseProgram()
	require.Error(t, err)

	line, ok := fault.LineOf(err)
	assert.True(t, ok)
	assert.Equal(t, 2, line)
	assert.Contains(t, err.Error(), "expected ';' after return statement, got CloseBrace")
}
