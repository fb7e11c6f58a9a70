package hook

import (
	"fmt"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// Script variables visible to replacement scripts.
const (
	ScriptVarRecv     = "recv"
	ScriptVarArgs     = "args"
	ScriptVarOriginal = "original"
	ScriptVarResult   = "result"
	ScriptVarErr      = "err"
)

// ScriptModules lists the Tengo standard modules scripts may import.
var ScriptModules = []string{"fmt", "math", "text", "times", "json"}

// Script is a compiled Tengo replacement. Each call runs on a clone of the
// compiled program, so a Script is safe for concurrent use.
type Script struct {
	source   string
	compiled *tengo.Compiled
}

// CompileScript compiles src. The script reads recv, args and original and
// assigns its return value to result. Assigning a non-empty string or an
// error to err makes the call fail.
func CompileScript(src string) (*Script, error) {
	s := tengo.NewScript([]byte(src))
	s.SetImports(stdlib.GetModuleMap(ScriptModules...))

	for _, name := range []string{ScriptVarRecv, ScriptVarResult, ScriptVarErr} {
		if err := s.Add(name, nil); err != nil {
			return nil, errors.Wrap(errors.ErrHookScript, err.Error())
		}
	}
	if err := s.Add(ScriptVarArgs, []interface{}{}); err != nil {
		return nil, errors.Wrap(errors.ErrHookScript, err.Error())
	}
	if err := s.Add(ScriptVarOriginal, &tengo.UserFunction{Name: ScriptVarOriginal}); err != nil {
		return nil, errors.Wrap(errors.ErrHookScript, err.Error())
	}

	compiled, err := s.Compile()
	if err != nil {
		return nil, errors.Wrap(errors.ErrHookScript, err.Error())
	}

	return &Script{source: src, compiled: compiled}, nil
}

// ScriptReplacement compiles src and returns it as a Wrapper.
func ScriptReplacement(src string) (method.Wrapper, error) {
	s, err := CompileScript(src)
	if err != nil {
		return nil, err
	}
	return s.Wrapper(), nil
}

// Source returns the script text.
func (s *Script) Source() string {
	return s.source
}

// Wrapper returns a method.Wrapper running the script in place of the original.
func (s *Script) Wrapper() method.Wrapper {
	return func(original method.Impl) method.Impl {
		return func(recv any, args ...any) (any, error) {
			return s.call(original, recv, args)
		}
	}
}

func (s *Script) call(original method.Impl, recv any, args []any) (any, error) {
	c := s.compiled.Clone()

	if err := c.Set(ScriptVarRecv, toObject(recv)); err != nil {
		return nil, errors.Wrap(errors.ErrHookScript, err.Error())
	}

	argObjs := make([]tengo.Object, len(args))
	for i, a := range args {
		argObjs[i] = toObject(a)
	}
	if err := c.Set(ScriptVarArgs, &tengo.Array{Value: argObjs}); err != nil {
		return nil, errors.Wrap(errors.ErrHookScript, err.Error())
	}

	callOriginal := func(callArgs ...tengo.Object) (tengo.Object, error) {
		goArgs := make([]any, len(callArgs))
		for i, a := range callArgs {
			goArgs[i] = tengo.ToInterface(a)
		}
		if len(callArgs) == 0 {
			goArgs = args
		}
		out, err := original(recv, goArgs...)
		if err != nil {
			return &tengo.Error{Value: &tengo.String{Value: err.Error()}}, nil
		}
		return toObject(out), nil
	}
	if err := c.Set(ScriptVarOriginal, &tengo.UserFunction{Name: ScriptVarOriginal, Value: callOriginal}); err != nil {
		return nil, errors.Wrap(errors.ErrHookScript, err.Error())
	}

	if err := c.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrHookScript, err.Error())
	}

	// Check for any returned error
	if errVar := c.Get(ScriptVarErr); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return nil, errors.Wrap(errors.ErrHookScript, v.Error())
		case string:
			if v != "" {
				return nil, errors.Wrap(errors.ErrHookScript, v)
			}
		}
	}

	return c.Get(ScriptVarResult).Value(), nil
}

// toObject converts a Go value for the script, falling back to its printed
// form for types Tengo cannot represent.
func toObject(v any) tengo.Object {
	obj, err := tengo.FromInterface(v)
	if err != nil {
		return &tengo.String{Value: fmt.Sprint(v)}
	}
	return obj
}
