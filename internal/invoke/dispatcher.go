package invoke

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/keelproject/keel/internal/observability"
)

// callSite holds everything the dispatcher knows about one registered
// invocation point: the parsed signature, the prepared fast invoker, the
// current generic invoker and the advisory record of which tier last
// succeeded.
type callSite struct {
	id      string
	sig     *Signature
	fast    *fastInvoker
	generic atomic.Pointer[genericInvoker]
	// tier is advisory only. It is read without locking; a stale value costs
	// at worst a redundant attempt at a cheaper tier, never a wrong result.
	tier atomic.Int32
}

// Dispatcher routes invocations through the fast, generic and universal
// tiers, remembering per call-site which tier last succeeded so later calls
// start there.
type Dispatcher struct {
	observer observability.Observer
	sites    sync.Map // call-site id -> *callSite
}

// NewDispatcher creates a dispatcher emitting events to the given observer.
// A nil observer disables event emission.
func NewDispatcher(observer observability.Observer) *Dispatcher {
	if observer == nil {
		observer = observability.NewNoopObserver()
	}
	return &Dispatcher{observer: observer}
}

// Register parses the provider function and prepares the call-site's fast
// invoker. Registering the same call-site twice is a wiring bug and fails.
func (d *Dispatcher) Register(site string, fn any) (*Signature, error) {
	sig, err := ParseFunc(fn)
	if err != nil {
		return nil, fmt.Errorf("call-site %q: %w", site, err)
	}

	cs := &callSite{
		id:   site,
		sig:  sig,
		fast: newFastInvoker(sig, fn),
	}
	cs.generic.Store(newGenericInvoker(sig))

	if _, loaded := d.sites.LoadOrStore(site, cs); loaded {
		return nil, fmt.Errorf("call-site %q already registered", site)
	}
	return sig, nil
}

// Signature returns the parsed signature of a registered call-site.
func (d *Dispatcher) Signature(site string) (*Signature, bool) {
	v, ok := d.sites.Load(site)
	if !ok {
		return nil, false
	}
	return v.(*callSite).sig, true
}

// TierOf returns the advisory tier recorded for a call-site, or zero when no
// invocation has succeeded yet.
func (d *Dispatcher) TierOf(site string) Tier {
	v, ok := d.sites.Load(site)
	if !ok {
		return 0
	}
	return Tier(v.(*callSite).tier.Load())
}

// Invoke runs the call-site's provider with the given arguments. Tiers are
// tried cheapest-first starting from the advisory cached tier; a tier is
// skipped forward only on a type mismatch. Provider errors propagate
// unchanged from whichever tier reached the provider.
func (d *Dispatcher) Invoke(ctx context.Context, site string, args []any) (any, error) {
	v, ok := d.sites.Load(site)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCallSite, site)
	}
	cs := v.(*callSite)

	start := Tier(cs.tier.Load())
	if start == 0 {
		start = TierFast
	}

	var cause error
	for tier := start; tier <= TierUniversal; tier++ {
		out, err := d.invokeTier(ctx, cs, tier, args)
		if err == nil {
			d.emitInvoke(ctx, cs, tier)
			return out, nil
		}
		if !errors.Is(err, ErrTypeMismatch) {
			return nil, err
		}
		cause = err
		if tier < TierUniversal {
			d.emitFallback(ctx, cs, tier, tier+1)
		}
	}

	return nil, &InvocationError{Site: site, ArgTypes: typesOf(args), Cause: cause}
}

func (d *Dispatcher) invokeTier(ctx context.Context, cs *callSite, tier Tier, args []any) (any, error) {
	switch tier {
	case TierFast:
		out, err := cs.fast.invoke(ctx, args)
		if err == nil {
			cs.tier.Store(int32(TierFast))
		}
		return out, err

	case TierGeneric:
		out, err := cs.generic.Load().invoke(ctx, args)
		if err == nil {
			cs.tier.Store(int32(TierGeneric))
		}
		return out, err

	default:
		out, plan, err := newUniversalInvoker(cs.sig).invoke(ctx, args)
		if err != nil {
			return nil, err
		}
		// Adaptation step: bake the coercion plan into a generic invoker so
		// the next call with the same argument shapes skips the slow tier.
		cs.generic.Store(&genericInvoker{sig: cs.sig, plan: plan})
		cs.tier.Store(int32(TierGeneric))
		return out, nil
	}
}

func (d *Dispatcher) emitInvoke(ctx context.Context, cs *callSite, tier Tier) {
	eventType := observability.EventDispatchFast
	switch tier {
	case TierGeneric:
		eventType = observability.EventDispatchGeneric
	case TierUniversal:
		eventType = observability.EventDispatchUniversal
	}
	d.observer.OnEvent(ctx, observability.NewEvent(
		eventType,
		observability.LevelVerbose,
		cs.id,
		map[string]any{"tier": tier.String()},
	))
}

func (d *Dispatcher) emitFallback(ctx context.Context, cs *callSite, from, to Tier) {
	d.observer.OnEvent(ctx, observability.NewEvent(
		observability.EventDispatchFallback,
		observability.LevelVerbose,
		cs.id,
		map[string]any{"from": from.String(), "to": to.String()},
	))
}
