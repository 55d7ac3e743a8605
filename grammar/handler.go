package grammar

// HandlerRef is the handler reference a production may carry: either an
// index into the owning builder's handler array, or a HandlerModifier tree
// synthesized by EBNF lowering, or neither, which means identity: a missing
// handler defaults to returning the argument vector unchanged.
type HandlerRef struct {
	HasIndex bool
	Index    int
	Modifier *HandlerModifier
}

// Handler builds a HandlerRef that calls the user handler at Index.
func Handler(index int) HandlerRef {
	return HandlerRef{HasIndex: true, Index: index}
}

// ModifierRef builds a HandlerRef wrapping a HandlerModifier adapter chain.
func ModifierRef(m *HandlerModifier) HandlerRef {
	return HandlerRef{Modifier: m}
}

// ModifierKind tags the shape of one frame transformation in a
// HandlerModifier chain, which compiles to a flat sequence of frame-shape
// transformations rather than a recursive tree walk at runtime.
type ModifierKind int

const (
	// ModIdentity calls the wrapped target with the argument vector
	// unchanged.
	ModIdentity ModifierKind = iota
	// ModEpsilon inserts `undefined` (nil) at argument slot At.
	ModEpsilon
	// ModMerge groups N consecutive arguments starting at slot At into a
	// single list argument.
	ModMerge
	// ModCollect starts the accumulator list used by repeat lowering: it
	// replaces the argument vector with a single empty list, or returns that
	// empty list as the value when it is the last modifier in the chain.
	ModCollect
	// ModAppend extends the in-progress collected list by the current
	// arguments.
	ModAppend
	// ModApply unpacks a collected (accumulator, list) pair at slot At back
	// into the user's argument list, flattening it.
	ModApply
)

// HandlerModifier is one node of the adapter chain: a small language of
// composable transforms applied at reduce time. The tree is finite and
// acyclic by construction (only emitted by EBNF
// lowering), so Next is either nil (call Target, a user handler index),
// another index (Target, call a user handler), or another *HandlerModifier
// (Next, keep transforming).
type HandlerModifier struct {
	Kind ModifierKind

	// At is the argument-vector slot used by ModEpsilon, ModMerge, and
	// ModApply.
	At int

	// N is the number of arguments ModMerge groups together.
	N int

	// Next is the next step in the chain: a nested modifier to apply after
	// this one, or nil if this is the last step before invoking Target.
	Next *HandlerModifier

	// Target is the user handler index to call once the chain bottoms out.
	// Only meaningful when Next == nil; -1 means "identity" (no user
	// handler, return the argument vector as-is).
	Target int
}

// Identity returns a HandlerModifier that performs no transformation and
// calls the user handler at targetIndex (or behaves as identity if
// targetIndex < 0).
func Identity(targetIndex int) *HandlerModifier {
	return &HandlerModifier{Kind: ModIdentity, Target: targetIndex, Next: nil}
}

// chain appends next as the continuation of m and returns m, for fluent
// construction by the lowering pass.
func (m *HandlerModifier) chain(next *HandlerModifier) *HandlerModifier {
	m.Next = next
	return m
}

// Epsilon wraps m with an epsilon-insertion step at slot i: the
// `epsilon @ position i` handler wrapper, inserting `undefined` in the
// argument list.
func Epsilon(i int, next *HandlerModifier) *HandlerModifier {
	return &HandlerModifier{Kind: ModEpsilon, At: i, Next: next}
}

// Merge wraps next with a merge-n-arguments-at-slot-i step: the
// `merge @ i, t` handler wrapper, collecting the t copies into a single
// array argument.
func Merge(i, n int, next *HandlerModifier) *HandlerModifier {
	return &HandlerModifier{Kind: ModMerge, At: i, N: n, Next: next}
}

// Collect starts a (accumulator, list) pair, used by repeat lowering's `pre
// -> ε` base case.
func Collect(next *HandlerModifier) *HandlerModifier {
	return &HandlerModifier{Kind: ModCollect, Next: next}
}

// Append extends the in-progress collected list, used by repeat lowering's
// `pre -> pre X` recursive case.
func Append(next *HandlerModifier) *HandlerModifier {
	return &HandlerModifier{Kind: ModAppend, Next: next}
}

// Apply unpacks the collected pair at slot i back into the user call,
// flattening it into the argument vector: the apply(slot) handler wrapper.
func Apply(i int, next *HandlerModifier) *HandlerModifier {
	return &HandlerModifier{Kind: ModApply, At: i, Next: next}
}

// UserHandler is a reduce-time callback: given the reduced body's values in
// left-to-right order plus an implementation-defined context, it computes
// the reduction's result.
type UserHandler func(ctx any, args []any) (any, error)

// Eval runs the modifier chain rooted at m over args, invoking callUser to
// resolve a leaf Target index into an actual handler call. It is a flat,
// iterative evaluator with no recursion at runtime: each node reshapes the
// argument vector and the loop advances to Next, except ModCollect/
// ModAppend, which are themselves the synthetic value of a
// repetition-lowering helper non-terminal and so return directly rather than
// dispatching to a user handler.
//
// A nil m means no handler was attached to this production, which defaults
// to identity, returning args as-is.
func Eval(m *HandlerModifier, args []any, callUser func(idx int, args []any) (any, error)) (any, error) {
	if m == nil {
		return append([]any(nil), args...), nil
	}

	cur := m
	for {
		switch cur.Kind {
		case ModEpsilon:
			args = insertAt(args, cur.At, nil)
		case ModMerge:
			args = mergeAt(args, cur.At, cur.N)
		case ModCollect:
			value := []any{}
			if cur.Next == nil {
				return value, nil
			}
			args = []any{value}
		case ModAppend:
			var acc []any
			if len(args) > 0 {
				if existing, ok := args[0].([]any); ok {
					acc = existing
				}
			}
			rest := args
			if len(rest) > 0 {
				rest = rest[1:]
			}
			value := append(append([]any(nil), acc...), rest...)
			if cur.Next == nil {
				return value, nil
			}
			args = []any{value}
		case ModApply:
			args = applyAt(args, cur.At)
		case ModIdentity:
			// no transform
		}

		if cur.Next != nil {
			cur = cur.Next
			continue
		}

		if cur.Target < 0 {
			return append([]any(nil), args...), nil
		}
		return callUser(cur.Target, args)
	}
}

// insertAt returns args with nil inserted at slot i.
func insertAt(args []any, i int, v any) []any {
	if i < 0 {
		i = 0
	}
	if i > len(args) {
		i = len(args)
	}
	out := make([]any, 0, len(args)+1)
	out = append(out, args[:i]...)
	out = append(out, v)
	out = append(out, args[i:]...)
	return out
}

// mergeAt groups the n arguments starting at slot i into a single []any
// argument occupying that slot.
func mergeAt(args []any, i, n int) []any {
	if i < 0 || i+n > len(args) {
		return args
	}
	group := append([]any(nil), args[i:i+n]...)
	out := make([]any, 0, len(args)-n+1)
	out = append(out, args[:i]...)
	out = append(out, group)
	out = append(out, args[i+n:]...)
	return out
}

// applyAt flattens a []any value sitting at slot i back into the argument
// vector in place, unpacking a collected repetition list.
func applyAt(args []any, i int) []any {
	if i < 0 || i >= len(args) {
		return args
	}
	group, ok := args[i].([]any)
	if !ok {
		return args
	}
	out := make([]any, 0, len(args)-1+len(group))
	out = append(out, args[:i]...)
	out = append(out, group...)
	out = append(out, args[i+1:]...)
	return out
}
