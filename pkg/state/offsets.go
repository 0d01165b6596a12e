package state

import (
	"context"
	"fmt"
)

const offsetKeyPrefix = "offset:"

// Offsets tracks the next update ID to request per bot.
type Offsets struct {
	kv KV
}

// NewOffsets wraps kv.
func NewOffsets(kv KV) *Offsets {
	return &Offsets{kv: kv}
}

// Load returns the stored offset for bot, or 0.
func (o *Offsets) Load(ctx context.Context, bot string) (int, error) {
	n, _, err := o.kv.GetInt(ctx, offsetKeyPrefix+bot)
	if err != nil {
		return 0, fmt.Errorf("load offset for %s: %w", bot, err)
	}
	return n, nil
}

// Save stores the offset for bot.
func (o *Offsets) Save(ctx context.Context, bot string, offset int) error {
	if err := o.kv.Set(ctx, offsetKeyPrefix+bot, offset); err != nil {
		return fmt.Errorf("save offset for %s: %w", bot, err)
	}
	return nil
}

// Reset forgets the offset for bot.
func (o *Offsets) Reset(ctx context.Context, bot string) error {
	return o.kv.Delete(ctx, offsetKeyPrefix+bot)
}
