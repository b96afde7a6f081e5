package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/pilot"
)

type listArgs struct {
	Path    string `json:"path"`
	Pattern string `json:"pattern"`
}

// ListTool returns the tool definition for list_files.
func ListTool() pilot.Tool {
	return pilot.Tool{
		Name:        "list_files",
		Description: "List files and directories at a given path. If no path is provided, lists files in the current directory. Directories end with a slash. The listing is not recursive.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Optional relative path to list files from. Defaults to current directory if not provided."
				},
				"pattern": {
					"type": "string",
					"description": "Optional glob matched against entry names, e.g. *.go"
				}
			}
		}`),
	}
}

// ExecuteList lists the entries of a single directory as a JSON array of
// names sorted alphabetically, directories suffixed with "/". A path naming
// a regular file yields a one-element array holding that path.
func ExecuteList(_ context.Context, args json.RawMessage) (*pilot.ToolResult, error) {
	var a listArgs
	if res := decodeArgs(args, &a); res != nil {
		return res, nil
	}

	if a.Path == "" {
		a.Path = "."
	}

	if a.Pattern != "" && !doublestar.ValidatePattern(a.Pattern) {
		return pilot.ErrorResult(fmt.Sprintf("invalid glob pattern: %s", a.Pattern)), nil
	}

	info, err := os.Stat(a.Path)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return pilot.ErrorResult(fmt.Sprintf("path not found: %s", a.Path)), nil
	case err != nil:
		return pilot.ErrorResult(fmt.Sprintf("failed to access path: %s", err)), nil
	}

	if !info.IsDir() {
		return jsonResult([]string{a.Path})
	}

	// os.ReadDir returns entries sorted by filename.
	dirEntries, err := os.ReadDir(a.Path)
	if err != nil {
		return pilot.ErrorResult(fmt.Sprintf("failed to list directory: %s", err)), nil
	}

	entries := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		if a.Pattern != "" {
			// Pattern was validated above, so Match cannot fail.
			if ok, _ := doublestar.Match(a.Pattern, e.Name()); !ok {
				continue
			}
		}
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		entries = append(entries, name)
	}

	return jsonResult(entries)
}

func jsonResult(entries []string) (*pilot.ToolResult, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("fs: encode listing: %w", err)
	}
	return pilot.TextResult(string(data)), nil
}
