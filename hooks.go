package layercache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// An entry was deleted by the cache on read.
	// reason ∈ {"expired"}
	SelfHeal(token, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(token string)

	// A write-side provider call failed and was reported as a false result.
	// op ∈ {"set", "delete", "clear"}
	BackendError(op, token string, err error)

	// A tier that missed was repopulated from a slower tier.
	Backfilled(tier int, key string)

	// Repopulating a faster tier failed; the read still succeeded.
	BackfillFailed(tier int, key string, err error)

	// A tier failed or reported false during a fan-out write.
	// op ∈ {"set", "delete", "clear", "close"}
	TierFailed(tier int, op string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)            {}
func (NopHooks) ProviderSetRejected(string)         {}
func (NopHooks) BackendError(string, string, error) {}
func (NopHooks) Backfilled(int, string)             {}
func (NopHooks) BackfillFailed(int, string, error)  {}
func (NopHooks) TierFailed(int, string, error)      {}
