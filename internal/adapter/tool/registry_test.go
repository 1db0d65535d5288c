package tool

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazel-mcp/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubTool is a minimal domain.Tool for registry tests.
type stubTool struct {
	name string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        s.name,
		Description: "stub",
		Parameters:  json.RawMessage(`{"type": "object"}`),
	}
}
func (s *stubTool) Execute(context.Context, json.RawMessage) (*domain.ToolResult, error) {
	return &domain.ToolResult{Content: s.name}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry(newTestLogger())

	require.NoError(t, r.Register(&stubTool{name: "bazel_build"}))

	got, err := r.Get("bazel_build")
	require.NoError(t, err)
	assert.Equal(t, "bazel_build", got.Name())

	_, err = r.Get("nope")
	assert.True(t, errors.Is(err, domain.ErrToolNotFound))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry(newTestLogger())

	require.NoError(t, r.Register(&stubTool{name: "bazel_build"}))
	err := r.Register(&stubTool{name: "bazel_build"})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
}

func TestRegistryListIsNameOrdered(t *testing.T) {
	r := NewRegistry(newTestLogger())
	r.MustRegister(
		&stubTool{name: "repo_setup"},
		&stubTool{name: "bazel_query"},
		&stubTool{name: "bazel_build"},
	)

	var names []string
	for _, tl := range r.List() {
		names = append(names, tl.Name())
	}
	assert.Equal(t, []string{"bazel_build", "bazel_query", "repo_setup"}, names)

	schemas := r.Schemas()
	require.Len(t, schemas, 3)
	assert.Equal(t, "bazel_build", schemas[0].Name)
}

func TestRegistryMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry(newTestLogger())
	assert.Panics(t, func() {
		r.MustRegister(&stubTool{name: "x"}, &stubTool{name: "x"})
	})
}
