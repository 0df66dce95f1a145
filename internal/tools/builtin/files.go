// Package builtin provides the core tools every agent gets: virtual file
// operations, todo ledger operations, and the think reflection checkpoint.
package builtin

import (
	"context"
	"fmt"
	"strings"

	"scour/internal/state"
	"scour/internal/tools"
)

// LsTool returns a tool that lists all virtual files.
func LsTool() *tools.Tool {
	return &tools.Tool{
		Name:        "ls",
		Description: "List all files in the virtual filesystem",
		Schema: tools.Schema{
			Properties: map[string]tools.Property{},
		},
		Execute: func(ctx context.Context, session *state.Session, args map[string]any) (*tools.Result, error) {
			names := session.ListFiles()
			if len(names) == 0 {
				return &tools.Result{Text: "No files yet."}, nil
			}
			return &tools.Result{Text: strings.Join(names, "\n")}, nil
		},
	}
}

// ReadFileTool returns a tool that reads a virtual file, optionally paged.
func ReadFileTool() *tools.Tool {
	return &tools.Tool{
		Name:        "read_file",
		Description: "Read the contents of a file from the virtual filesystem",
		Schema: tools.Schema{
			Required: []string{"file_path"},
			Properties: map[string]tools.Property{
				"file_path": {
					Type:        "string",
					Description: "The file to read",
				},
				"offset": {
					Type:        "integer",
					Description: "Line number to start reading from (0-indexed, optional)",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of lines to read (optional)",
				},
			},
		},
		Execute: func(ctx context.Context, session *state.Session, args map[string]any) (*tools.Result, error) {
			name := tools.StringArg(args, "file_path")
			if name == "" {
				return nil, state.ErrEmptyFileName
			}

			offset := tools.IntArg(args, "offset", 0)
			limit := tools.IntArg(args, "limit", 0)

			content, err := session.ReadFileRange(name, offset, limit)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", err, name)
			}
			return &tools.Result{Text: content}, nil
		},
	}
}

// WriteFileTool returns a tool that writes a virtual file, overwriting any
// existing content.
func WriteFileTool() *tools.Tool {
	return &tools.Tool{
		Name:        "write_file",
		Description: "Write content to a file in the virtual filesystem, overwriting if it exists",
		Schema: tools.Schema{
			Required: []string{"file_path", "content"},
			Properties: map[string]tools.Property{
				"file_path": {
					Type:        "string",
					Description: "The file to write",
				},
				"content": {
					Type:        "string",
					Description: "The content to write",
				},
			},
		},
		Execute: func(ctx context.Context, session *state.Session, args map[string]any) (*tools.Result, error) {
			name := tools.StringArg(args, "file_path")
			if name == "" {
				return nil, state.ErrEmptyFileName
			}
			content := tools.StringArg(args, "content")

			return &tools.Result{
				Text:  fmt.Sprintf("Updated file %s", name),
				Files: map[string]string{name: content},
			}, nil
		},
	}
}
