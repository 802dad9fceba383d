package codegen

import "github.com/kristofer/mcc/pkg/ast"

// blockAlwaysReturns reports whether every control-flow path through b ends
// in a return statement. It intentionally over-approximates loop bodies: a
// while/for body that always returns is NOT treated as guaranteeing
// the loop itself always returns, since the loop's condition may be false on
// entry (while, for) and the analysis does not attempt to prove the
// condition is always true. This is a conservative approximation, not a
// soundness bug — it can only cause an extra, harmless fallback epilogue to
// be emitted, never a missing one.
func blockAlwaysReturns(b *ast.Block) bool {
	for _, item := range b.Items {
		stmt, ok := item.(*ast.StatementItem)
		if !ok {
			continue
		}
		if stmtAlwaysReturns(stmt.Stmt) {
			return true
		}
	}
	return false
}

func stmtAlwaysReturns(s ast.Statement) bool {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.BlockStmt:
		return blockAlwaysReturns(st.Body)
	case *ast.ConditionalStmt:
		if st.Else == nil {
			return false
		}
		return stmtAlwaysReturns(st.Then) && stmtAlwaysReturns(st.Else)
	case *ast.DoWhileStmt:
		// A do-while body runs at least once, so if it always returns the
		// loop always returns — this is the one loop form the analysis
		// does not need to over-approximate.
		return stmtAlwaysReturns(st.Body)
	default:
		// WhileStmt, ForStmt: conservatively assume they may not return,
		// even if their body always does, since the condition could be
		// false on entry. BreakStmt, ContinueStmt, ExpressionStmt,
		// NullStmt never return.
		return false
	}
}
