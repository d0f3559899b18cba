package commands

import (
	"context"

	"github.com/felixgeelhaar/nextup/internal/recommendation/infrastructure/cache"
)

// CacheInvalidator drops cached payloads for a user.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID string, variants ...cache.Variant)
}

// InvalidateCacheCommand names the user and, optionally, the variants to drop.
type InvalidateCacheCommand struct {
	UserID   string
	Variants []string
}

// InvalidateCacheHandler handles the InvalidateCacheCommand.
type InvalidateCacheHandler struct {
	invalidator CacheInvalidator
}

// NewInvalidateCacheHandler creates a new InvalidateCacheHandler.
func NewInvalidateCacheHandler(invalidator CacheInvalidator) *InvalidateCacheHandler {
	return &InvalidateCacheHandler{invalidator: invalidator}
}

// Handle executes the InvalidateCacheCommand.
func (h *InvalidateCacheHandler) Handle(ctx context.Context, cmd InvalidateCacheCommand) error {
	variants := make([]cache.Variant, 0, len(cmd.Variants))
	for _, v := range cmd.Variants {
		variant := cache.Variant(v)
		if variant != cache.VariantBasic && variant != cache.VariantAdvanced {
			return ErrUnknownVariant
		}
		variants = append(variants, variant)
	}
	h.invalidator.Invalidate(ctx, cmd.UserID, variants...)
	return nil
}
