package chat

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/familymenu/nutrition-ai/internal/store/redisstore"
)

// Reconciler drains cache-resident session state into the durable store.
// Counters are overwritten with the cache value (cache increments first, so
// the cache is never behind); pending turns are inserted and unmarked only
// after the insert committed, so a mid-failure leaves the turn pending for a
// later pass. Duplicates on retry are tolerated, lost turns are not.
type Reconciler struct {
	repo     *Repo
	cache    *redisstore.Store
	interval time.Duration
	backoff  time.Duration
}

func NewReconciler(repo *Repo, cache *redisstore.Store, interval, backoff time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 300 * time.Second
	}
	if backoff <= 0 {
		backoff = 30 * time.Second
	}
	return &Reconciler{repo: repo, cache: cache, interval: interval, backoff: backoff}
}

// Run executes reconciliation passes until ctx is cancelled. A failed pass
// is retried after the shorter backoff instead of crashing the loop; a
// storage outage only degrades sync freshness.
func (r *Reconciler) Run(ctx context.Context) {
	log.Printf("reconciler: started interval=%s", r.interval)
	for {
		wait := r.interval
		if err := r.SyncCounters(ctx); err != nil {
			log.Printf("reconciler: counter pass failed: %v", err)
			wait = r.backoff
		} else if n, err := r.SyncNow(ctx); err != nil {
			log.Printf("reconciler: pending drain failed: %v", err)
			wait = r.backoff
		} else if n > 0 {
			log.Printf("reconciler: drained %d pending turns", n)
		}

		select {
		case <-ctx.Done():
			log.Printf("reconciler: stopped")
			return
		case <-time.After(wait):
		}
	}
}

// SyncCounters copies every live cache counter onto its durable row. A
// counter without a durable row signals a session created out-of-band; it is
// logged and skipped, never auto-created, to avoid inventing ownership data.
func (r *Reconciler) SyncCounters(ctx context.Context) error {
	ids, err := r.cache.CounterSessions(ctx)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		log.Printf("reconciler: syncing %d session counters", len(ids))
	}
	for _, id := range ids {
		count, ok, err := r.cache.Count(ctx, id)
		if err != nil {
			log.Printf("reconciler: read counter session_id=%s: %v", id, err)
			continue
		}
		if !ok {
			continue // expired between scan and read
		}
		if _, err := r.repo.GetSession(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("reconciler: session %s exists in cache but not in the database, skipping", id)
			} else {
				log.Printf("reconciler: load session_id=%s: %v", id, err)
			}
			continue
		}
		if err := r.repo.UpdateQuestionCount(ctx, id, count); err != nil {
			log.Printf("reconciler: update counter session_id=%s: %v", id, err)
		}
	}
	return nil
}

// SyncNow drains every pending turn into chat_messages and refreshes the
// durable counters of the affected sessions. It backs the /sync_now endpoint
// and the final flush at shutdown. A failure on one turn or one session does
// not abort the pass for the others. Returns the number of turns synced.
func (r *Reconciler) SyncNow(ctx context.Context) (int, error) {
	ids, err := r.cache.PendingSessions(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, id := range ids {
		keys, err := r.cache.PendingTurnKeys(ctx, id)
		if err != nil {
			log.Printf("reconciler: list pending session_id=%s: %v", id, err)
			continue
		}
		if len(keys) == 0 {
			continue
		}

		if count, ok, err := r.cache.Count(ctx, id); err != nil {
			log.Printf("reconciler: read counter session_id=%s: %v", id, err)
		} else if ok {
			if err := r.repo.UpdateQuestionCount(ctx, id, count); err != nil {
				log.Printf("reconciler: update counter session_id=%s: %v", id, err)
			}
		}

		for _, key := range keys {
			turn, ok, err := r.cache.Turn(ctx, key)
			if err != nil {
				log.Printf("reconciler: read turn %s: %v", key, err)
				continue
			}
			if !ok {
				continue // hash expired before the set entry
			}

			msg := &Message{
				SessionID: id,
				UserID:    turn.UserID,
				Question:  turn.Question,
				Answer:    turn.Answer,
			}
			if ts, err := time.Parse(time.RFC3339, turn.Timestamp); err == nil {
				msg.Timestamp = ts
			}

			if err := r.repo.InsertMessage(ctx, msg); err != nil {
				log.Printf("reconciler: insert turn %s: %v", key, err)
				continue
			}
			// only unmark after the durable write committed
			if err := r.cache.RemovePending(ctx, id, key); err != nil {
				log.Printf("reconciler: unmark turn %s: %v", key, err)
			}
			synced++
		}
	}
	return synced, nil
}
