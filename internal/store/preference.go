package store

import (
	"context"
	"errors"
	"fmt"
)

// ForceErrorKey 强制错误开关的持久化 key（与前端 localStorage key 一致）
const ForceErrorKey = "contactFormForceError"

// PreferenceStore persists a single boolean UI preference.
type PreferenceStore interface {
	Load(ctx context.Context) (bool, error)
	Save(ctx context.Context, value bool) error
}

// KVPreference stores a boolean as "true"/"false" under a fixed key, without expiry.
type KVPreference struct {
	kv  KV
	key string
}

func NewKVPreference(kv KV, key string) *KVPreference {
	return &KVPreference{kv: kv, key: key}
}

// NewForceErrorPreference is the preference store for the force-error toggle.
func NewForceErrorPreference(kv KV) *KVPreference {
	return NewKVPreference(kv, ForceErrorKey)
}

// Load returns false when nothing has been saved yet. Any value other than "true"
// reads as false.
func (p *KVPreference) Load(ctx context.Context) (bool, error) {
	v, err := p.kv.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return false, nil
		}
		return false, fmt.Errorf("load preference %s: %w", p.key, err)
	}
	return v == "true", nil
}

func (p *KVPreference) Save(ctx context.Context, value bool) error {
	v := "false"
	if value {
		v = "true"
	}
	if err := p.kv.Set(ctx, p.key, v, 0); err != nil {
		return fmt.Errorf("save preference %s: %w", p.key, err)
	}
	return nil
}
