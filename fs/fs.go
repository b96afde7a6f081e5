// Package fs provides the file-system tools exposed to the model:
// read_file, list_files and edit_file.
//
// Paths are used exactly as the model supplies them, relative paths being
// resolved against the process working directory. There is no sandboxing.
// Every failure, including malformed arguments, is reported as an error
// [pilot.ToolResult] so the model can react to it; the Go error return is
// reserved for infrastructure failures and is currently always nil.
package fs

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/pilot"
)

// decodeArgs unmarshals tool arguments into v. An empty argument payload is
// treated as an empty object.
func decodeArgs(args json.RawMessage, v any) *pilot.ToolResult {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(args, v); err != nil {
		return pilot.ErrorResult(fmt.Sprintf("invalid arguments: %s", err))
	}
	return nil
}
