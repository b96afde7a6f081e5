package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"

	"github.com/fwojciec/pilot"
)

type readArgs struct {
	Path string `json:"path"`
}

// ReadTool returns the tool definition for read_file.
func ReadTool() pilot.Tool {
	return pilot.Tool{
		Name:        "read_file",
		Description: "Read the contents of a given relative file path. Use this when you want to see what's inside a file. Do not use this with directory names.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "The relative path of a file in the working directory."
				}
			},
			"required": ["path"]
		}`),
	}
}

// ExecuteRead returns the full contents of a file.
func ExecuteRead(_ context.Context, args json.RawMessage) (*pilot.ToolResult, error) {
	var a readArgs
	if res := decodeArgs(args, &a); res != nil {
		return res, nil
	}

	if a.Path == "" {
		return pilot.ErrorResult("path is required"), nil
	}

	info, err := os.Stat(a.Path)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return pilot.ErrorResult(fmt.Sprintf("file not found: %s", a.Path)), nil
	case err != nil:
		return pilot.ErrorResult(fmt.Sprintf("failed to stat file: %s", err)), nil
	case info.IsDir():
		return pilot.ErrorResult(fmt.Sprintf("%s is a directory; use list_files to see its entries", a.Path)), nil
	}

	data, err := os.ReadFile(a.Path)
	if err != nil {
		return pilot.ErrorResult(fmt.Sprintf("failed to read file: %s", err)), nil
	}

	return pilot.TextResult(string(data)), nil
}
