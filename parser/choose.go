package parser

import (
	"github.com/federatedsql/multidb/lexer"
	"github.com/federatedsql/multidb/perr"
)

// choose is the bounded-backtracking combinator (spec §4.3, C7): it snapshots
// lexer state once, then runs each alternative in turn starting from that
// snapshot. An alternative that raises a recoverable *perr.SyntaxError is
// discarded and the lexer restored; any other error (a *perr.FatalSyntaxError)
// propagates immediately, since a fatal error means no amount of
// backtracking can recover. Among the alternatives that succeed, the one
// that consumed the most input wins, ties broken by the lowest index in
// alts — the refinement spec.md calls for in place of the Python source's
// literal first-success-wins behavior.
func choose[T any](cl *lexer.CmpLexer, alts ...func() (T, error)) (T, error) {
	var zero T
	start := cl.Save()
	crashed := cl.Buf.IsCrashed()

	type candidate struct {
		idx      int
		val      T
		post     lexer.Snapshot
		frame    int
		consumed int
	}
	var winners []candidate
	var causes []error

	for i, alt := range alts {
		cl.Restore(start)
		cl.Buf.SetCrashed(crashed)
		frame := cl.Buf.Push()

		v, err := alt()
		if err != nil {
			if _, ok := err.(*perr.SyntaxError); ok {
				causes = append(causes, err)
				cl.Buf.Discard(frame)
				continue
			}
			// Fatal errors are not recoverable by trying the next alternative.
			cl.Buf.Discard(frame)
			return zero, err
		}

		consumed := cl.Pos() - start.Pos()
		winners = append(winners, candidate{idx: i, val: v, post: cl.Save(), frame: frame, consumed: consumed})
	}

	if len(winners) == 0 {
		return zero, &perr.FatalSyntaxError{
			Msg:    "no alternative matched",
			Pos:    start.Pos(),
			Causes: causes,
		}
	}

	best := winners[0]
	for _, w := range winners[1:] {
		if w.consumed > best.consumed {
			best = w
		}
	}
	for _, w := range winners {
		if w.frame == best.frame {
			cl.Buf.Flatten(w.frame)
		} else {
			cl.Buf.Discard(w.frame)
		}
	}
	cl.Restore(best.post)
	return best.val, nil
}
