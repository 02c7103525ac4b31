// Package sloghooks writes layercache hook events to a *slog.Logger.
// Keys and tokens are redacted; high-volume events can be sampled.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/layercache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery   uint64
	BackfilledEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr   atomic.Uint64
	backfilledCtr atomic.Uint64
}

var _ layercache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SelfHeal(token, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("layercache.self_heal",
		"token", h.redact(token),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(token string) {
	if h.l == nil {
		return
	}
	h.l.Warn("layercache.provider_set_rejected",
		"token", h.redact(token))
}

func (h *Hooks) BackendError(op, token string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("layercache.backend_error",
		"op", op,
		"token", h.redact(token),
		"err", err)
}

func (h *Hooks) Backfilled(tier int, key string) {
	if h.l == nil || !sample(h.opts.BackfilledEvery, &h.backfilledCtr) {
		return
	}
	h.l.Debug("layercache.backfilled",
		"tier", tier,
		"key", h.redact(key))
}

func (h *Hooks) BackfillFailed(tier int, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("layercache.backfill_failed",
		"tier", tier,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) TierFailed(tier int, op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("layercache.tier_failed",
		"tier", tier,
		"op", op,
		"err", err)
}
