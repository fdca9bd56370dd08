// Package cache keeps serialized GET /imoveis responses. Keys carry the
// cache version, and every successful mutation bumps the version before it
// drops the keys under the imovel: prefix, so a response read before the
// mutation can never be stored where later reads look for it.
package cache

import (
	"context"
	"strconv"
)

const (
	keyPrefix  = "imovel:"
	versionKey = keyPrefix + "version"
)

func ListKey(version uint64) string {
	return keyPrefix + "v" + strconv.FormatUint(version, 10) + ":list"
}

func ItemKey(version uint64, id string) string {
	return keyPrefix + "v" + strconv.FormatUint(version, 10) + ":item:" + id
}

type Cache interface {
	// Get reports a miss with ok == false and a nil error.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte) error
	// Version changes on every Invalidate.
	Version(ctx context.Context) (uint64, error)
	Invalidate(ctx context.Context) error
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
func (Nop) Version(context.Context) (uint64, error)           { return 0, nil }
func (Nop) Invalidate(context.Context) error                  { return nil }
