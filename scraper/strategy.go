package scraper

import (
	"context"
	"fmt"

	"github.com/use-agent/harvest/models"
)

// Decision is a termination strategy's verdict after one load cycle.
type Decision int

const (
	// Continue means more content may still load; run another cycle.
	Continue Decision = iota

	// Done means the feed is fully loaded (or the ceiling is reached);
	// the orchestrator takes its final snapshot.
	Done
)

// Strategy decides, one cycle at a time, whether a dynamic feed has
// finished loading. Step performs the cycle's driver actions itself; a
// non-nil error is fatal for the run (the orchestrator still releases
// the session).
type Strategy interface {
	Step(ctx context.Context, d Driver) (Decision, error)
}

// GrowthStrategy terminates an infinite-scroll feed when the document
// stops growing: measure, scroll, settle, measure again.
//
// With StableReadings = 1 (the default) a single pair of equal readings
// is treated as definitive completion. That is deliberately naive: a
// transient slow-network stall is indistinguishable from true completion
// and will terminate early. Raising StableReadings requires that many
// consecutive equal readings before declaring the feed done.
type GrowthStrategy struct {
	// StableReadings is the number of consecutive non-growing cycles
	// required before Done. Values below 1 are treated as 1.
	StableReadings int

	stable int
}

func (g *GrowthStrategy) Step(ctx context.Context, d Driver) (Decision, error) {
	before, err := d.MeasureGrowth(ctx)
	if err != nil {
		return Done, err
	}
	if err := d.ScrollToBottom(ctx); err != nil {
		return Done, err
	}
	if err := d.Settle(ctx); err != nil {
		return Done, err
	}
	after, err := d.MeasureGrowth(ctx)
	if err != nil {
		return Done, err
	}

	if after > before {
		g.stable = 0
		return Continue, nil
	}

	need := g.StableReadings
	if need < 1 {
		need = 1
	}
	g.stable++
	if g.stable >= need {
		return Done, nil
	}
	return Continue, nil
}

// ControlStrategy terminates a "load more" feed when the control
// disappears or stops being visible. The record-count ceiling is checked
// before each click so a full feed never pays for one more batch.
type ControlStrategy struct {
	// Selector locates the load-more control.
	Selector string

	// ContainerSelector counts currently rendered records for the
	// ceiling check.
	ContainerSelector string

	// MaxRecords is the record-count ceiling; zero means unlimited.
	MaxRecords int
}

func (c *ControlStrategy) Step(ctx context.Context, d Driver) (Decision, error) {
	if err := d.ScrollToBottom(ctx); err != nil {
		return Done, err
	}
	if err := d.Settle(ctx); err != nil {
		return Done, err
	}

	ctl, err := d.FindControl(ctx, c.Selector)
	if err != nil {
		return Done, err
	}
	if ctl == nil {
		// Absent control: everything is loaded.
		return Done, nil
	}
	visible, err := d.IsVisible(ctx, ctl)
	if err != nil {
		return Done, err
	}
	if !visible {
		return Done, nil
	}

	// Ceiling check happens before the click: if enough records are
	// already rendered, clicking again is wasted network and render time.
	if c.MaxRecords > 0 {
		n, err := d.CountElements(ctx, c.ContainerSelector)
		if err != nil {
			return Done, err
		}
		if n >= c.MaxRecords {
			return Done, nil
		}
	}

	decision, err := c.click(ctx, d, ctl)
	if err != nil || decision == Done {
		return decision, err
	}

	// The new batch must render before the next read; under-waiting here
	// loses records, it does not just duplicate them.
	if err := d.Settle(ctx); err != nil {
		return Done, err
	}
	if err := d.Settle(ctx); err != nil {
		return Done, err
	}
	return Continue, nil
}

// click clicks the control, retrying exactly once from a fresh lookup
// when the control went stale underneath us. A control that vanished
// between the failure and the retry means loading finished. A second
// consecutive click failure is fatal.
func (c *ControlStrategy) click(ctx context.Context, d Driver, ctl Control) (Decision, error) {
	err := d.Click(ctx, ctl)
	if err == nil {
		return Continue, nil
	}
	if !models.IsCode(err, models.ErrCodeInteraction) {
		return Done, err
	}

	fresh, ferr := d.FindControl(ctx, c.Selector)
	if ferr != nil {
		return Done, ferr
	}
	if fresh == nil {
		return Done, nil
	}
	if rerr := d.Click(ctx, fresh); rerr != nil {
		return Done, models.NewScrapeError(models.ErrCodeDriver,
			fmt.Sprintf("click on %q failed twice", c.Selector), rerr)
	}
	return Continue, nil
}
