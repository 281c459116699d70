// Package uow coordinates multi-step writes. The booking decrement plus
// ticket insert and the allowlist claim plus profile insert both run
// through here, so each pair commits or aborts as one unit.
package uow

import (
	"context"

	postgres "github.com/Maheshi13/UNIVISTA-Project/internal/repository/postgres"
)

// AfterCommit is a hook registered during a transaction that runs only
// after the commit lands. Hooks from aborted attempts are discarded.
type AfterCommit func(ctx context.Context)

// maxAttempts bounds retries of serializable transactions that lose a
// serialization race or deadlock.
const maxAttempts = 3

type UoW struct {
	store *postgres.Store
}

func NewUoW(store *postgres.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside a serializable transaction. Serialization failures are
// retried up to maxAttempts with a fresh transaction each time, so fn must
// be safe to re-run. Hooks fire once, after the attempt that committed.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx postgres.DB, after func(AfterCommit)) error,
) error {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var hooks []AfterCommit

		err := u.store.RunTx(ctx, func(ctx context.Context, tx postgres.DB) error {
			return fn(ctx, tx, func(h AfterCommit) {
				hooks = append(hooks, h)
			})
		})
		if err == nil {
			for _, h := range hooks {
				h(ctx)
			}
			return nil
		}

		if !postgres.IsRetryable(err) {
			return err
		}
		lastErr = err
	}

	return lastErr
}
