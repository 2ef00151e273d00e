package core

import (
	"testing"

	d "ldapcore/internal/domain"
)

// recordingInterceptor appends its own name to a shared trace on every
// call before forwarding, so tests can assert ordering without caring
// about the operation's actual result.
type recordingInterceptor struct {
	BaseInterceptor
	trace *[]string
}

func newRecorder(trace *[]string, name string) recordingInterceptor {
	return recordingInterceptor{BaseInterceptor: NewBaseInterceptor(name), trace: trace}
}

func (r recordingInterceptor) Add(ctx *AddContext, next func(*AddContext) error) error {
	*r.trace = append(*r.trace, r.Name())
	return next(ctx)
}

// terminalInterceptor stands in for the nexus at the end of the chain,
// recording that it was reached.
type terminalInterceptor struct {
	BaseInterceptor
	trace *[]string
}

func (t terminalInterceptor) Add(ctx *AddContext, next func(*AddContext) error) error {
	*t.trace = append(*t.trace, "terminal")
	return next(ctx)
}

func newTestChain(trace *[]string) *Chain {
	return NewChain(terminalInterceptor{BaseInterceptor: NewBaseInterceptor("terminal"), trace: trace})
}

func TestChainOrdersStagesAddFirstAddLast(t *testing.T) {
	var trace []string
	chain := newTestChain(&trace)

	chain.AddLast(newRecorder(&trace, "b"))
	chain.AddFirst(newRecorder(&trace, "a"))
	chain.AddLast(newRecorder(&trace, "c"))
	chain.Freeze()

	ctx := &AddContext{OpContext: newOpContext(nil), Entry: nil}
	if err := chain.Add(ctx); err != nil {
		t.Fatal(err)
	}

	exp := []string{"a", "b", "c", "terminal"}
	if len(trace) != len(exp) {
		t.Fatalf("trace %v did not match expected %v", trace, exp)
	}
	for i := range exp {
		if trace[i] != exp[i] {
			t.Fatalf("trace %v did not match expected %v", trace, exp)
		}
	}
}

func TestChainInsertBeforeAfter(t *testing.T) {
	var trace []string
	chain := newTestChain(&trace)

	chain.AddLast(newRecorder(&trace, "a"))
	chain.AddLast(newRecorder(&trace, "c"))
	chain.InsertBefore("c", newRecorder(&trace, "b"))
	chain.InsertAfter("c", newRecorder(&trace, "d"))
	chain.Freeze()

	ctx := &AddContext{OpContext: newOpContext(nil), Entry: nil}
	if err := chain.Add(ctx); err != nil {
		t.Fatal(err)
	}

	exp := []string{"a", "b", "c", "d", "terminal"}
	if len(trace) != len(exp) {
		t.Fatalf("trace %v did not match expected %v", trace, exp)
	}
	for i := range exp {
		if trace[i] != exp[i] {
			t.Fatalf("trace %v did not match expected %v", trace, exp)
		}
	}
}

func TestChainInsertBeforeUnknownNamePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected InsertBefore on an unknown stage name to panic")
		}
	}()

	var trace []string
	chain := newTestChain(&trace)
	chain.InsertBefore("nonexistent", newRecorder(&trace, "a"))
}

func TestChainMutationAfterFreezePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected AddLast on a frozen chain to panic")
		}
	}()

	var trace []string
	chain := newTestChain(&trace)
	chain.Freeze()
	chain.AddLast(newRecorder(&trace, "a"))
}

func TestChainBypassSkipsNamedStage(t *testing.T) {
	var trace []string
	chain := newTestChain(&trace)

	chain.AddLast(newRecorder(&trace, "a"))
	chain.AddLast(newRecorder(&trace, "b"))
	chain.Freeze()

	ctx := &AddContext{OpContext: newOpContext(nil), Entry: nil}
	ctx.WithBypass("a")

	if err := chain.Add(ctx); err != nil {
		t.Fatal(err)
	}

	exp := []string{"b", "terminal"}
	if len(trace) != len(exp) {
		t.Fatalf("trace %v did not match expected %v (stage %q should have been skipped)", trace, exp, "a")
	}
	for i := range exp {
		if trace[i] != exp[i] {
			t.Fatalf("trace %v did not match expected %v", trace, exp)
		}
	}
}

func TestChainBypassAllSkipsEveryStage(t *testing.T) {
	var trace []string
	chain := newTestChain(&trace)

	chain.AddLast(newRecorder(&trace, "a"))
	chain.AddLast(newRecorder(&trace, "b"))
	chain.Freeze()

	ctx := &AddContext{OpContext: newOpContext(nil), Entry: nil}
	ctx.WithBypass(BypassAll)

	if err := chain.Add(ctx); err != nil {
		t.Fatal(err)
	}

	exp := []string{"terminal"}
	if len(trace) != len(exp) {
		t.Fatalf("trace %v did not match expected %v", trace, exp)
	}
	if trace[0] != "terminal" {
		t.Fatalf("expected only the terminal stage to run, got %v", trace)
	}
}

func TestSessionIsAnonymous(t *testing.T) {
	s := NewSession()
	if !s.IsAnonymous() {
		t.Fatal("a fresh session should be anonymous")
	}

	s.BoundDN = &d.Entry{}
	if s.IsAnonymous() {
		t.Fatal("a session with a bound entry should not be anonymous")
	}
}
