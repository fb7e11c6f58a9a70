package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/method"
)

// ScriptFileExtension is the extension of replacement script files.
const ScriptFileExtension = ".tengo"

// ScriptFileName returns the file name used for key's script, for example
// "Foo#bar.tengo" or "Foo.bar.tengo".
func ScriptFileName(key method.Key) string {
	return key.String() + ScriptFileExtension
}

// LoadScriptsFromDir reads every <key>.tengo file in dir. Files whose name is
// not a valid key are skipped. A missing directory yields an empty map.
func LoadScriptsFromDir(dir string) (map[method.Key]string, error) {
	scripts := make(map[method.Key]string)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return scripts, nil
		}
		return nil, errors.Wrapf(errors.ErrHookLoad, "failed to read scripts directory %s: %v", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ScriptFileExtension {
			continue
		}

		key, err := method.ParseKey(strings.TrimSuffix(entry.Name(), ScriptFileExtension))
		if err != nil {
			continue // Not a script for a method key
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrHookLoad, "error reading script file %s: %v", entry.Name(), err)
		}
		scripts[key] = string(content)
	}

	return scripts, nil
}

// ScriptTemplate generates a starter replacement script for key.
func ScriptTemplate(key method.Key) string {
	receiver := "recv - the receiver the method was called on"
	if key.Scope == method.Type {
		receiver = "recv - the class name"
	}

	return fmt.Sprintf(`// Replacement for %s
// Available variables:
// - %s
// - args: array - the call arguments
// - original: function - calls the original implementation;
//   without arguments it is called with the original args
//
// Assign the return value to result. Assigning an error or a
// non-empty string to err makes the call fail.

fmt := import("fmt")

out := original()
if is_error(out) {
    err = out
} else if is_string(out) {
    result = "tweaked: " + out
} else {
    result = fmt.sprintf("tweaked: %%v", out)
}
`, key, receiver)
}
