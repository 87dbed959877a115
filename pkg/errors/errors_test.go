package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "graph without cause",
			err:  New(ErrCodeInvalidGraph, "node %q has no id", "Vendor lock-in"),
			want: `INVALID_GRAPH: node "Vendor lock-in" has no id`,
		},
		{
			name: "config with cause",
			err:  Wrap(ErrCodeInvalidConfig, errors.New("toml: line 3: expected '='"), "parse %s", "intelgraph.toml"),
			want: "INVALID_CONFIG: parse intelgraph.toml: toml: line 3: expected '='",
		},
		{
			name: "missing input file",
			err:  Wrap(ErrCodeFileNotFound, fs.ErrNotExist, "input file %s", "graph.json"),
			want: "FILE_NOT_FOUND: input file graph.json: file does not exist",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(ErrCodeFileNotFound, fs.ErrNotExist, "config file %s", "custom.toml")

	if errors.Unwrap(err) != fs.ErrNotExist {
		t.Errorf("Unwrap() = %v, want fs.ErrNotExist", errors.Unwrap(err))
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is(err, fs.ErrNotExist) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeInvalidGraph, "empty id"), ErrCodeInvalidGraph, true},
		{"other code", New(ErrCodeInvalidGraph, "empty id"), ErrCodeInvalidConfig, false},
		{"behind fmt wrapping", fmt.Errorf("render graph.json: %w", New(ErrCodeInvalidFormat, "png")), ErrCodeInvalidFormat, true},
		{"outermost code wins", Wrap(ErrCodeInvalidConfig, New(ErrCodeInvalidGraph, "inner"), "outer"), ErrCodeInvalidConfig, true},
		{"inner code hidden", Wrap(ErrCodeInvalidConfig, New(ErrCodeInvalidGraph, "inner"), "outer"), ErrCodeInvalidGraph, false},
		{"plain error", errors.New("plain"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"graph", New(ErrCodeInvalidGraph, "bad json"), ErrCodeInvalidGraph},
		{"config behind fmt", fmt.Errorf("load: %w", New(ErrCodeInvalidConfig, "fps")), ErrCodeInvalidConfig},
		{"path", New(ErrCodeInvalidPath, "would overwrite input"), ErrCodeInvalidPath},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeNotFound, "node %q not found", "r9"), `node "r9" not found`},
		{"coded behind fmt", fmt.Errorf("handler: %w", New(ErrCodeInvalidConfig, "unknown cache backend")), "unknown cache backend"},
		{"plain", errors.New("connection refused"), "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
