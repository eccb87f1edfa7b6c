package processor

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/thisisjab/cmoon/entity"
	"github.com/thisisjab/cmoon/fault"
	"github.com/thisisjab/cmoon/token"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	luajson "layeh.com/gopher-json"
)

const luaCheckFunction = "check_tokens"

type LuaProcessorConfig struct {
	Name       string `yaml:"-"`
	ScriptPath string `yaml:"script-path"`
}

// LuaProcessor runs user lint rules written in lua against the token sequence.
// Provided script MUST define a function `check_tokens(tokens, path)`.
// `tokens` is an array of tables with the fields kind, lexeme, value, line and column.
// The function returns an array whose items are either a message string or a table
// with `line` and `message` fields. Returning nil means no findings.
// Note that user can have access to JSON helper using `local json = require("json")`
type LuaProcessor struct {
	cfg   LuaProcessorConfig
	proto *lua.FunctionProto
	pool  *sync.Pool
}

func NewLuaProcessor(cfg LuaProcessorConfig) (*LuaProcessor, error) {
	proto, err := compileLua(cfg.ScriptPath)
	if err != nil {
		return nil, err
	}

	lp := &LuaProcessor{cfg: cfg, proto: proto}
	lp.pool = &sync.Pool{
		New: func() any {
			L, err := lp.newState()
			if err != nil {
				return err
			}
			return L
		},
	}

	// Load once up front so a broken script fails at startup rather than per file.
	L, err := lp.newState()
	if err != nil {
		return nil, err
	}
	if L.GetGlobal(luaCheckFunction).Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("lua script %s does not define %s", cfg.ScriptPath, luaCheckFunction)
	}
	lp.pool.Put(L)

	return lp, nil
}

func compileLua(path string) (*lua.FunctionProto, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open lua script: %w", err)
	}
	defer file.Close()

	chunk, err := parse.Parse(file, path)
	if err != nil {
		return nil, fmt.Errorf("cannot parse lua script: %w", err)
	}

	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, fmt.Errorf("cannot compile lua script: %w", err)
	}

	return proto, nil
}

func (lp *LuaProcessor) newState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // Don't load anything by default
	})

	// Manually open only the safe libraries
	// We skip 'os' and 'io' to prevent system commands/file access
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},  // Allows 'require'
		{lua.BaseLibName, lua.OpenBase},     // Allows 'print', 'pairs', etc.
		{lua.TabLibName, lua.OpenTable},     // Allows 'table.insert', etc.
		{lua.StringLibName, lua.OpenString}, // Allows string manipulation
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	luajson.Preload(L)

	L.Push(L.NewFunctionFromProto(lp.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("cannot load lua script: %w", err)
	}

	return L, nil
}

func (lp *LuaProcessor) Name() string {
	return lp.cfg.Name
}

func (lp *LuaProcessor) Process(report entity.Report) (entity.Report, error) {
	if report.Failed() {
		return report, nil
	}

	var L *lua.LState
	switch v := lp.pool.Get().(type) {
	case *lua.LState:
		L = v
	case error:
		return report, v
	}
	defer lp.pool.Put(L)

	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(luaCheckFunction),
		NRet:    1,
		Protect: true,
	}, tokensToLuaTable(L, report.Tokens), lua.LString(report.Path))
	if err != nil {
		return report, fmt.Errorf("lua script error: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	findings, err := luaFindings(ret)
	if err != nil {
		return report, err
	}

	report.AddError(entity.LintStage, errors.Join(findings...))
	return report, nil
}

func tokensToLuaTable(L *lua.LState, tokens []token.Token) *lua.LTable {
	tbl := L.CreateTable(len(tokens), 0)
	for _, tok := range tokens {
		t := L.CreateTable(0, 5)
		t.RawSetString("kind", lua.LString(tok.Kind.String()))
		t.RawSetString("lexeme", lua.LString(tok.Lexeme))
		t.RawSetString("value", lua.LNumber(tok.Value))
		t.RawSetString("line", lua.LNumber(tok.Line))
		t.RawSetString("column", lua.LNumber(tok.Column))
		tbl.Append(t)
	}
	return tbl
}

// luaFindings turns the value returned by the script into lint faults.
func luaFindings(value lua.LValue) ([]error, error) {
	if value == lua.LNil {
		return nil, nil
	}

	tbl, ok := value.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s must return a table, got %s", luaCheckFunction, value.Type())
	}

	var findings []error
	var convErr error
	tbl.ForEach(func(_, item lua.LValue) {
		switch v := item.(type) {
		case lua.LString:
			findings = append(findings, fault.New(fault.LintCode, string(v)))
		case *lua.LTable:
			f := fault.New(fault.LintCode, lua.LVAsString(v.RawGetString("message")))
			if line, ok := v.RawGetString("line").(lua.LNumber); ok {
				f = f.WithLine(int(line))
			}
			findings = append(findings, f)
		default:
			convErr = fmt.Errorf("unsupported finding of type %s", item.Type())
		}
	})
	if convErr != nil {
		return nil, convErr
	}

	return findings, nil
}
