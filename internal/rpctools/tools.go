// Package rpctools adapts the five reconciliation tools (§6.1) to
// pkg/task.Manager and internal/upload — each handler decodes a
// JSON-RawMessage argument payload and returns a JSON-serializable
// response, mirroring tools.py's handle_tool_call dispatch table.
package rpctools

import (
	"encoding/json"
	"fmt"

	"reconciled/internal/config"
	"reconciled/internal/upload"
	"reconciled/pkg/reconerr"
	"reconciled/pkg/task"
)

// Handler is one tool's entry in the registry.
type Handler func(json.RawMessage) (any, error)

// Registry builds the name -> Handler dispatch table for mgr and cfg.
func Registry(mgr *task.Manager, cfg config.Config) map[string]Handler {
	return map[string]Handler{
		"reconciliation_start":      startHandler(mgr),
		"reconciliation_status":     statusHandler(mgr),
		"reconciliation_result":     resultHandler(mgr),
		"reconciliation_list_tasks": listHandler(mgr),
		"file_upload":               uploadHandler(cfg),
	}
}

type startArgs struct {
	Schema      map[string]any `json:"schema"`
	Files       []string       `json:"files"`
	CallbackURL string         `json:"callback_url"`
}

func startHandler(mgr *task.Manager) Handler {
	return func(raw json.RawMessage) (any, error) {
		var args startArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, reconerr.Wrap(reconerr.SchemaInvalid, "decode reconciliation_start arguments", err)
		}
		id, err := mgr.Create(args.Schema, args.Files, args.CallbackURL)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"task_id": id,
			"status":  "pending",
			"message": "reconciliation task created",
		}, nil
	}
}

type taskIDArgs struct {
	TaskID string `json:"task_id"`
}

func statusHandler(mgr *task.Manager) Handler {
	return func(raw json.RawMessage) (any, error) {
		var args taskIDArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, reconerr.Wrap(reconerr.SchemaInvalid, "decode reconciliation_status arguments", err)
		}
		return mgr.Status(args.TaskID)
	}
}

func resultHandler(mgr *task.Manager) Handler {
	return func(raw json.RawMessage) (any, error) {
		var args taskIDArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, reconerr.Wrap(reconerr.SchemaInvalid, "decode reconciliation_result arguments", err)
		}
		return mgr.Result(args.TaskID)
	}
}

func listHandler(mgr *task.Manager) Handler {
	return func(raw json.RawMessage) (any, error) {
		return map[string]any{"tasks": mgr.List()}, nil
	}
}

// uploadItem is one file in a file_upload batch.
type uploadItem struct {
	Filename      string `json:"filename"`
	Content       string `json:"content"`
	DatePartition bool   `json:"date_partition"`
}

type uploadArgs struct {
	Files []uploadItem `json:"files"`
}

// uploadResult is one item's outcome in a file_upload batch response. A
// single item's failure is reported here, not returned as the handler
// error, so it never aborts its siblings.
type uploadResult struct {
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
	FilePath string `json:"file_path,omitempty"`
	Stored   string `json:"stored_name,omitempty"`
	Error    string `json:"error,omitempty"`
}

// uploadHandler stores every item in a file_upload batch independently
// (§6.1/§7): one item's DecodeFailed/UnsupportedType error is recorded on
// its own result entry, and every other item is still attempted.
func uploadHandler(cfg config.Config) Handler {
	return func(raw json.RawMessage) (any, error) {
		var args uploadArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, reconerr.Wrap(reconerr.SchemaInvalid, "decode file_upload arguments", err)
		}
		if len(args.Files) == 0 {
			return nil, reconerr.New(reconerr.SchemaInvalid, "files must not be empty")
		}

		results := make([]uploadResult, len(args.Files))
		for i, item := range args.Files {
			path, storedName, err := upload.Store(cfg, item.Filename, item.Content, item.DatePartition)
			if err != nil {
				results[i] = uploadResult{Filename: item.Filename, Error: err.Error()}
				continue
			}
			results[i] = uploadResult{Filename: item.Filename, Success: true, FilePath: path, Stored: storedName}
		}
		return map[string]any{"results": results}, nil
	}
}

// Dispatch decodes name/arguments and runs the matching handler, or
// returns an UnsupportedType error for an unknown tool name.
func Dispatch(registry map[string]Handler, name string, arguments json.RawMessage) (any, error) {
	h, ok := registry[name]
	if !ok {
		return nil, reconerr.New(reconerr.UnsupportedType, fmt.Sprintf("unknown tool %q", name))
	}
	return h(arguments)
}
