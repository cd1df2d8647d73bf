package invoke

// Tier identifies one of the three invocation mechanisms, ordered from
// cheapest to most general.
type Tier int32

const (
	// TierFast is the invoker prepared at registration time. It performs no
	// argument type inspection at call time.
	TierFast Tier = iota + 1
	// TierGeneric validates and lightly adapts arguments against the declared
	// signature on every call.
	TierGeneric
	// TierUniversal coerces each argument individually. It always succeeds
	// when a correct coercion exists, at the cost of per-argument work.
	TierUniversal
)

func (t Tier) String() string {
	switch t {
	case TierFast:
		return "fast"
	case TierGeneric:
		return "generic"
	case TierUniversal:
		return "universal"
	default:
		return "unset"
	}
}
