package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
)

// StaleAfter returns how long a running workflow may go without a
// checkpoint write before the recovery daemon treats it as crashed rather
// than merely slow: the monitoring-cycle lock's TTL, after which the
// crashed Coordinator's lock has expired and Resume can acquire it.
func (c *Coordinator) StaleAfter() time.Duration {
	return c.cfg.MonitoringCycleLockTTL
}

// Resume implements the recovery daemon's "checkpoint" strategy (§4.5): a
// running Workflow with no fresh heartbeat is re-entered at
// Workflow.current_stage rather than restarted from collecting. Resuming
// summarising or alerting replays only the DB-querying handoff (the
// relevant FilterRecords / SummaryRecords already persisted by the crashed
// attempt), so nothing already scored or summarised is redone. Resuming
// collecting or filtering instead restarts the whole cycle: both stages
// are themselves idempotent at the item level (UpsertContentItem,
// InsertFilterRecord's unique constraint), so a full re-run is cheap and
// correct, and avoids reconstructing an in-memory item list the crashed
// process never persisted outside the content_items table.
func (c *Coordinator) Resume(ctx context.Context, workflowID string) error {
	wf, err := c.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("load workflow for resume: %w", err)
	}
	if wf.Status != store.WorkflowRunning {
		return nil
	}

	token, err := c.store.AcquireLock(ctx, lockName, c.cfg.MonitoringCycleLockTTL)
	if err != nil {
		if err == store.ErrLockHeld {
			return nil // a live Coordinator already owns the cycle; nothing to resume
		}
		return fmt.Errorf("acquire monitoring-cycle lock for resume: %w", err)
	}
	defer func() { _ = c.store.ReleaseLock(ctx, lockName, token) }()

	c.unavailableSince = make(map[config.Role]time.Time)
	cycleStart := c.clock.Now()

	switch wf.CurrentStage {
	case store.StageSummarising:
		relevant, err := c.store.RelevantSince(ctx, wf.CreatedAt)
		if err != nil {
			return c.fail(ctx, workflowID, cycleStart, "summarising-resume", err)
		}
		items, err := c.reconstructItems(ctx, relevant)
		if err != nil {
			return c.fail(ctx, workflowID, cycleStart, "summarising-resume", err)
		}
		summaryIDs, err := c.stageSummarise(ctx, workflowID, items, relevant)
		if err != nil {
			return c.fail(ctx, workflowID, cycleStart, "summarising", err)
		}
		return c.finishOrAlert(ctx, workflowID, cycleStart, summaryIDs)

	case store.StageAlerting:
		summaries, err := c.store.SummariesSince(ctx, wf.CreatedAt)
		if err != nil {
			return c.fail(ctx, workflowID, cycleStart, "alerting-resume", err)
		}
		ids := make([]int64, 0, len(summaries))
		for _, s := range summaries {
			ids = append(ids, s.ID)
		}
		return c.finishOrAlert(ctx, workflowID, cycleStart, ids)

	default:
		// collecting or filtering: restart the cycle under the same
		// workflow row rather than minting a new one.
		items, err := c.stageCollect(ctx, workflowID)
		if err != nil {
			return c.fail(ctx, workflowID, cycleStart, "collecting", err)
		}
		if len(items) == 0 {
			return c.finish(ctx, workflowID, cycleStart, store.WorkflowCompleted, map[string]any{"items": 0})
		}
		relevant, err := c.stageFilter(ctx, workflowID, items)
		if err != nil {
			return c.fail(ctx, workflowID, cycleStart, "filtering", err)
		}
		summaryIDs, err := c.stageSummarise(ctx, workflowID, items, relevant)
		if err != nil {
			return c.fail(ctx, workflowID, cycleStart, "summarising", err)
		}
		return c.finishOrAlert(ctx, workflowID, cycleStart, summaryIDs)
	}
}

func (c *Coordinator) finishOrAlert(ctx context.Context, workflowID string, cycleStart time.Time, summaryIDs []int64) error {
	if len(summaryIDs) == 0 {
		return c.finish(ctx, workflowID, cycleStart, store.WorkflowCompleted, map[string]any{"summaries": 0})
	}
	partial, err := c.stageAlert(ctx, workflowID, summaryIDs)
	if err != nil {
		return c.fail(ctx, workflowID, cycleStart, "alerting", err)
	}
	status := store.WorkflowCompleted
	if partial {
		status = store.WorkflowPartial
	}
	return c.finish(ctx, workflowID, cycleStart, status, map[string]any{"summaries": len(summaryIDs)})
}

// reconstructItems rebuilds the itemRef view a resumed summarising stage
// needs from the ContentItem rows backing each FilterRecord, since the
// crashed attempt's in-memory item list did not survive the crash.
func (c *Coordinator) reconstructItems(ctx context.Context, relevant []*store.FilterRecord) ([]itemRef, error) {
	out := make([]itemRef, 0, len(relevant))
	for _, r := range relevant {
		item, err := c.store.GetContentItem(ctx, r.ItemVariant, r.ItemID)
		if err != nil {
			return nil, fmt.Errorf("reload content item %d: %w", r.ItemID, err)
		}
		out = append(out, itemRef{Variant: string(item.Variant), ID: item.ID, Title: item.Title, Body: item.Body})
	}
	return out, nil
}
