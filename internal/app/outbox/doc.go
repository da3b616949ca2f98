// Package outbox stages work produced while the quote library is locked and
// runs it once the lock is released.
//
// The collection manager emits events synchronously, in the middle of the
// mutation that caused them. Publishing from inside those listeners would
// call adapters while the service mutex is held. Instead the service gives
// every use case a fresh Outbox, its listeners Add one Action per event and
// publisher, and the service Commits the outbox after unlocking:
//
//	box := outbox.New()
//	s.mu.Lock()
//	s.pending = box
//	err := fn(ctx)
//	s.pending = nil
//	s.mu.Unlock()
//
//	if err := box.Commit(ctx); err != nil {
//	    logger.WarnContext(ctx, "publishing model events failed", slog.Any("error", err))
//	}
//
// Commit runs every action even when some fail and joins their errors.
// An Outbox commits once.
package outbox
