// Package null is a provider that stores nothing. Useful for "no cache" setups
// and as a placeholder tier.
package null

import (
	"context"
	"time"

	pr "github.com/unkn0wn-root/layercache/provider"
)

type Provider struct{}

var (
	_ pr.Provider  = Provider{}
	_ pr.NativeTTL = Provider{}
)

func New() Provider { return Provider{} }

func (Provider) NativeTTL() bool { return true }

func (Provider) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Provider) Set(context.Context, string, []byte, int64, time.Duration) (bool, error) {
	return true, nil
}
func (Provider) Exists(context.Context, string) (bool, error) { return false, nil }
func (Provider) Del(context.Context, string) error            { return nil }
func (Provider) Clear(context.Context) error                  { return nil }
func (Provider) Close(context.Context) error                  { return nil }
