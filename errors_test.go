package patchgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	base := errors.New("block not found")

	t.Run("formatting", func(t *testing.T) {
		err := NewNotFoundError("Store.Connect", base)
		assert.Equal(t, "patchgraph: Store.Connect (not_found): block not found", err.Error())

		bare := &Error{Op: "Store.Undo", Kind: KindInternal}
		assert.Equal(t, "patchgraph: Store.Undo: internal", bare.Error())
	})

	t.Run("formatting with context", func(t *testing.T) {
		err := NewNotFoundError("Store.Connect", base).
			WithContext(map[string]any{"block_id": "blk_1"})
		assert.Contains(t, err.Error(), "block not found")
		assert.Contains(t, err.Error(), "blk_1")
	})

	t.Run("unwrap preserves the cause", func(t *testing.T) {
		err := NewValidationError("Store.CreateBus", fmt.Errorf("wrapped: %w", base))
		assert.ErrorIs(t, err, base)
	})

	t.Run("is matches kind", func(t *testing.T) {
		err := NewConflictError("Registry.Register", base)
		assert.ErrorIs(t, err, &Error{Kind: KindConflict})
		assert.NotErrorIs(t, err, &Error{Kind: KindValidation})
		assert.ErrorIs(t, err, &Error{Kind: KindConflict, Op: "Registry.Register"})
		assert.NotErrorIs(t, err, &Error{Kind: KindConflict, Op: "Store.AddBlock"})
	})

	t.Run("with context does not mutate the original", func(t *testing.T) {
		err := NewDocumentError("patchdoc.Apply", base)
		clone := err.WithContext(map[string]any{"bus": "energy"})
		require.NotSame(t, err, clone)
		assert.Nil(t, err.Context)
		assert.Equal(t, "energy", clone.Context["bus"])
	})

	t.Run("constructors set kinds", func(t *testing.T) {
		assert.Equal(t, KindNotFound, NewNotFoundError("op", base).Kind)
		assert.Equal(t, KindValidation, NewValidationError("op", base).Kind)
		assert.Equal(t, KindConflict, NewConflictError("op", base).Kind)
		assert.Equal(t, KindDocument, NewDocumentError("op", base).Kind)
		assert.Equal(t, KindInternal, NewInternalError("op", base).Kind)
	})
}
