package memory

import "context"

type stagedCtxKey struct{}

// stagedSettlement collects store writes made during a release so they apply only if
// every settle step succeeds, mirroring the rollback the Postgres store gets from its tx.
type stagedSettlement struct {
	ops []func()
}

func withStaging(ctx context.Context, staged *stagedSettlement) context.Context {
	return context.WithValue(ctx, stagedCtxKey{}, staged)
}

// applyOrStage runs op now, or defers it when ctx belongs to an in-progress release.
func applyOrStage(ctx context.Context, op func()) {
	if staged, ok := ctx.Value(stagedCtxKey{}).(*stagedSettlement); ok {
		staged.ops = append(staged.ops, op)
		return
	}
	op()
}

func (s *stagedSettlement) commit() {
	for _, op := range s.ops {
		op()
	}
}
