package builtin_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/pilot"
	"github.com/fwojciec/pilot/builtin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoDefinition(name string) builtin.Definition {
	return builtin.Definition{
		Tool: pilot.Tool{Name: name, Parameters: json.RawMessage(`{"type":"object"}`)},
		Func: func(_ context.Context, args json.RawMessage) (*pilot.ToolResult, error) {
			return pilot.TextResult(string(args)), nil
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("registers the file tools in order", func(t *testing.T) {
		t.Parallel()
		var names []string
		for _, tool := range builtin.New().Tools() {
			names = append(names, tool.Name)
			assert.NotEmpty(t, tool.Description, tool.Name)
			assert.True(t, json.Valid(tool.Parameters), tool.Name)
		}
		assert.Equal(t, []string{"read_file", "list_files", "edit_file"}, names)
	})

	t.Run("dispatches read_file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "hello.txt")
		require.NoError(t, os.WriteFile(path, []byte("hi there"), 0o644))

		args, err := json.Marshal(map[string]any{"path": path})
		require.NoError(t, err)
		result, err := builtin.New().Execute(context.Background(), "read_file", args)
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.Equal(t, "hi there", result.Text())
	})

	t.Run("dispatches list_files", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "x.txt"), nil, 0o644))

		args, err := json.Marshal(map[string]any{"path": dir})
		require.NoError(t, err)
		result, err := builtin.New().Execute(context.Background(), "list_files", args)
		require.NoError(t, err)
		assert.Equal(t, `["x.txt"]`, result.Text())
	})

	t.Run("dispatches edit_file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "created.txt")

		args, err := json.Marshal(map[string]any{"path": path, "old_str": "", "new_str": "made"})
		require.NoError(t, err)
		result, err := builtin.New().Execute(context.Background(), "edit_file", args)
		require.NoError(t, err)
		require.False(t, result.IsError, result.Text())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "made", string(data))
	})
}

func TestRegistry_Execute(t *testing.T) {
	t.Parallel()

	t.Run("unknown tool is an error result", func(t *testing.T) {
		t.Parallel()
		result, err := builtin.New().Execute(context.Background(), "delete_everything", json.RawMessage(`{}`))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, "unknown tool: delete_everything", result.Text())
	})

	t.Run("tool error becomes error result", func(t *testing.T) {
		t.Parallel()
		r := builtin.NewRegistry()
		require.NoError(t, r.Register(builtin.Definition{
			Tool: pilot.Tool{Name: "broken"},
			Func: func(context.Context, json.RawMessage) (*pilot.ToolResult, error) {
				return nil, errors.New("disk on fire")
			},
		}))

		result, err := r.Execute(context.Background(), "broken", nil)
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, "Error: disk on fire", result.Text())
	})

	t.Run("nil result becomes error result", func(t *testing.T) {
		t.Parallel()
		r := builtin.NewRegistry()
		require.NoError(t, r.Register(builtin.Definition{
			Tool: pilot.Tool{Name: "silent"},
			Func: func(context.Context, json.RawMessage) (*pilot.ToolResult, error) {
				return nil, nil
			},
		}))

		result, err := r.Execute(context.Background(), "silent", nil)
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, result.Text(), "silent returned no result")
	})

	t.Run("passes arguments through", func(t *testing.T) {
		t.Parallel()
		r := builtin.NewRegistry()
		require.NoError(t, r.Register(echoDefinition("echo")))

		result, err := r.Execute(context.Background(), "echo", json.RawMessage(`{"a":1}`))
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, result.Text())
	})
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()
		r := builtin.NewRegistry()
		require.NoError(t, r.Register(echoDefinition("echo")))
		err := r.Register(echoDefinition("echo"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate tool")
		assert.Len(t, r.Tools(), 1)
	})

	t.Run("rejects empty names", func(t *testing.T) {
		t.Parallel()
		err := builtin.NewRegistry().Register(echoDefinition(""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty name")
	})

	t.Run("rejects missing implementation", func(t *testing.T) {
		t.Parallel()
		err := builtin.NewRegistry().Register(builtin.Definition{Tool: pilot.Tool{Name: "x"}})
		require.Error(t, err)
	})

	t.Run("preserves registration order", func(t *testing.T) {
		t.Parallel()
		r := builtin.NewRegistry()
		for _, name := range []string{"c", "a", "b"} {
			require.NoError(t, r.Register(echoDefinition(name)))
		}
		var names []string
		for _, tool := range r.Tools() {
			names = append(names, tool.Name)
		}
		assert.Equal(t, []string{"c", "a", "b"}, names)
	})
}
