// Package retry provides the reconnect budget and backoff strategies used by
// the Parler client when the API answers with a transient failure.
//
// Features:
//   - Budget: counter of consecutive 429/502 responses with an abort threshold
//   - Constant (default), linear and exponential backoff with optional jitter
//   - Per-status strategies through StatusBackoff
//   - Context-aware Wait for cancellable sleeps
//
// Basic usage:
//
//	budget := retry.NewBudget(20)
//	backoff := retry.NewStatusBackoff(&retry.ConstantBackoff{Delay: 2 * time.Second})
//
//	if budget.Exhausted() {
//		return errs.NewFatalAbort(budget.Max())
//	}
//	attempt := budget.Spend()
//	if err := retry.Wait(ctx, backoff.For(status).NextDelay(attempt)); err != nil {
//		return err
//	}
//
// Strategies can also be selected by name, as the configuration file does:
//
//	strategy, err := retry.ParseStrategy("exponential", 2*time.Second)
package retry
