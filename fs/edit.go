package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/pilot"
)

type editArgs struct {
	Path       string `json:"path"`
	OldStr     string `json:"old_str"`
	NewStr     string `json:"new_str"`
	ReplaceAll bool   `json:"replace_all"`
}

// EditTool returns the tool definition for edit_file.
func EditTool() pilot.Tool {
	return pilot.Tool{
		Name: "edit_file",
		Description: `Make edits to a text file.
Replaces 'old_str' with 'new_str' in the given file. 'old_str' and 'new_str' MUST be different from each other.
'old_str' must match exactly once unless 'replace_all' is true.
If the file specified with path doesn't exist and 'old_str' is empty, it will be created with 'new_str' as its content.`,
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "The path to the file"
				},
				"old_str": {
					"type": "string",
					"description": "Text to search for - must match exactly"
				},
				"new_str": {
					"type": "string",
					"description": "Text to replace old_str with"
				},
				"replace_all": {
					"type": "boolean",
					"description": "Replace every occurrence instead of requiring a unique match"
				}
			},
			"required": ["path", "old_str", "new_str"]
		}`),
	}
}

// ExecuteEdit replaces text in a file, or creates the file when it does not
// exist and old_str is empty. On any failure the file is left untouched.
func ExecuteEdit(_ context.Context, args json.RawMessage) (*pilot.ToolResult, error) {
	var a editArgs
	if res := decodeArgs(args, &a); res != nil {
		return res, nil
	}

	if a.Path == "" {
		return pilot.ErrorResult("path is required"), nil
	}
	if a.OldStr == a.NewStr {
		return pilot.ErrorResult("old_str and new_str must be different"), nil
	}

	info, err := os.Stat(a.Path)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		if a.OldStr != "" {
			return pilot.ErrorResult(fmt.Sprintf("file not found: %s", a.Path)), nil
		}
		return createFile(a.Path, a.NewStr), nil
	case err != nil:
		return pilot.ErrorResult(fmt.Sprintf("failed to stat file: %s", err)), nil
	case info.IsDir():
		return pilot.ErrorResult(fmt.Sprintf("%s is a directory", a.Path)), nil
	}

	if a.OldStr == "" {
		return pilot.ErrorResult(fmt.Sprintf("old_str must not be empty: %s already exists", a.Path)), nil
	}

	data, err := os.ReadFile(a.Path)
	if err != nil {
		return pilot.ErrorResult(fmt.Sprintf("failed to read file: %s", err)), nil
	}

	content := string(data)
	count := strings.Count(content, a.OldStr)

	if count == 0 {
		return pilot.ErrorResult(fmt.Sprintf("old_str not found in %s", a.Path)), nil
	}
	if count > 1 && !a.ReplaceAll {
		return pilot.ErrorResult(fmt.Sprintf("old_str found %d times in %s; include more surrounding text to make it unique or set replace_all", count, a.Path)), nil
	}

	var updated string
	if a.ReplaceAll {
		updated = strings.ReplaceAll(content, a.OldStr, a.NewStr)
	} else {
		updated = strings.Replace(content, a.OldStr, a.NewStr, 1)
	}

	if err := os.WriteFile(a.Path, []byte(updated), info.Mode().Perm()); err != nil {
		return pilot.ErrorResult(fmt.Sprintf("failed to write file: %s", err)), nil
	}

	return pilot.TextResult(fmt.Sprintf("OK: replaced %d occurrence(s) in %s", count, a.Path)), nil
}

func createFile(path, content string) *pilot.ToolResult {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pilot.ErrorResult(fmt.Sprintf("failed to create directory: %s", err))
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return pilot.ErrorResult(fmt.Sprintf("failed to create file: %s", err))
	}
	return pilot.TextResult(fmt.Sprintf("Successfully created file %s", path))
}
