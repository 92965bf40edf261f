// Package syncd pushes recorded datasets to their siblings, once or on a
// cron schedule.
package syncd

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/zulandar/caravan/internal/gitrepo"
	"github.com/zulandar/caravan/internal/inventory"
	"github.com/zulandar/caravan/internal/notify"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Opts configures a sync run.
type Opts struct {
	DB        *gorm.DB
	Schedule  string   // 5-field cron expression, used by Run
	Siblings  []string // sibling names to push; empty means all recorded
	Notifiers []notify.Notifier
	Out       io.Writer
}

// Summary is the outcome of one sync pass.
type Summary struct {
	Pushed int
	Failed int
}

func (s Summary) String() string {
	return fmt.Sprintf("pushed %d sibling(s), %d failure(s)", s.Pushed, s.Failed)
}

// wanted reports whether a sibling name is selected by the filter.
func wanted(name string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == name {
			return true
		}
	}
	return false
}

// RunOnce pushes every recorded dataset to its selected siblings.
func RunOnce(ctx context.Context, opts Opts) (Summary, error) {
	var sum Summary
	datasets, err := inventory.Datasets(opts.DB)
	if err != nil {
		return sum, err
	}
	for _, ds := range datasets {
		siblings, err := inventory.Siblings(opts.DB, ds.UUID)
		if err != nil {
			return sum, err
		}
		for _, sib := range siblings {
			if !wanted(sib.Name, opts.Siblings) {
				continue
			}
			if err := gitrepo.Push(ctx, ds.Path, sib.Name); err != nil {
				log.Printf("sync: %s -> %s: %v", ds.Path, sib.Name, err)
				sum.Failed++
				continue
			}
			if opts.Out != nil {
				fmt.Fprintf(opts.Out, "pushed %s -> %s\n", ds.Path, sib.Name)
			}
			sum.Pushed++
		}
	}
	return sum, nil
}

// nextDuration parses the cron expression and returns the duration until
// the next fire time.
func nextDuration(expr string) (time.Duration, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0, fmt.Errorf("syncd: parse schedule %q: %w", expr, err)
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		d = 0
	}
	return d, nil
}

// Run executes sync passes on the configured schedule until ctx is
// cancelled. Each pass dispatches a summary through the notifiers.
func Run(ctx context.Context, opts Opts) error {
	if _, err := nextDuration(opts.Schedule); err != nil {
		return err
	}
	for {
		d, err := nextDuration(opts.Schedule)
		if err != nil {
			return err
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		sum, err := RunOnce(ctx, opts)
		if err != nil {
			log.Printf("sync: pass failed: %v", err)
			continue
		}
		if sum.Pushed > 0 || sum.Failed > 0 {
			notify.Send(opts.Notifiers, notify.Event{
				Summary: "caravan sync: " + sum.String(),
			})
		}
	}
}
