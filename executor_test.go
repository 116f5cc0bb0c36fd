package schemalane

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutorRegistryResolveMissing(t *testing.T) {
	registry := NewExecutorRegistry()

	_, ok := registry.Resolve("V1__missing.rs")

	assert.False(t, ok)
}

func TestExecutorRegistryRegisterPanicsOnDuplicate(t *testing.T) {
	registry := NewExecutorRegistry()
	noop := ExecutorFunc(func(ctx context.Context, conn ExecutorConn) error { return nil })
	registry.Register("V1__backfill.rs", noop)

	assert.Panics(t, func() {
		registry.Register("V1__backfill.rs", noop)
	})
}
