// Package jobs runs periodic maintenance against the community store.
package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sujalbistaa/cleancook/internal/metrics"
)

// Reconciler rewrites likes_count and replies_count from the child rows they
// summarize.
type Reconciler struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewReconciler returns a Reconciler for db.
func NewReconciler(db *gorm.DB, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{db: db, log: log.WithField("job", "reconcile_counters")}
}

// Result reports how many rows were corrected.
type Result struct {
	Stories int64
	Threads int64
}

const (
	repairLikes = `
		UPDATE stories
		SET likes_count = (SELECT COUNT(*) FROM story_likes WHERE story_likes.story_id = stories.id)
		WHERE likes_count <> (SELECT COUNT(*) FROM story_likes WHERE story_likes.story_id = stories.id)`

	repairReplies = `
		UPDATE threads
		SET replies_count = (SELECT COUNT(*) FROM comments WHERE comments.thread_id = threads.id)
		WHERE replies_count <> (SELECT COUNT(*) FROM comments WHERE comments.thread_id = threads.id)`
)

// Run corrects every drifted counter.
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	var res Result
	db := r.db.WithContext(ctx)

	likes := db.Exec(repairLikes)
	if likes.Error != nil {
		return res, fmt.Errorf("reconcile likes_count: %w", likes.Error)
	}
	res.Stories = likes.RowsAffected

	replies := db.Exec(repairReplies)
	if replies.Error != nil {
		return res, fmt.Errorf("reconcile replies_count: %w", replies.Error)
	}
	res.Threads = replies.RowsAffected

	metrics.RecordRepaired("stories", res.Stories)
	metrics.RecordRepaired("threads", res.Threads)
	return res, nil
}

// Schedule registers Run on a new cron scheduler with the given spec
// (e.g. "@every 1h") and starts it. Stop the returned scheduler on shutdown.
func (r *Reconciler) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		res, err := r.Run(context.Background())
		if err != nil {
			r.log.WithError(err).Error("counter reconciliation failed")
			return
		}
		if res.Stories > 0 || res.Threads > 0 {
			r.log.WithFields(logrus.Fields{
				"stories": res.Stories,
				"threads": res.Threads,
			}).Warn("repaired drifted counters")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
