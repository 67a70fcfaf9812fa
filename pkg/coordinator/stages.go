package coordinator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
)

// itemRef is the Coordinator's in-memory view of one collected ContentItem,
// enough to address it in the filtering and summarising stages without a
// round trip through the store.
type itemRef struct {
	Variant string
	ID      int64
	Title   string
	Body    string
}

func (r itemRef) key() string { return fmt.Sprintf("%s:%d", r.Variant, r.ID) }

// Wire shapes mirroring pkg/retrieval/skill.go's result types, decoded here
// on the calling side of the same message/send contract.
type postResult struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type fetchPostsResult struct {
	Posts []postResult `json:"posts"`
}

type commentResult struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

type fetchCommentsResult struct {
	Comments []commentResult `json:"comments"`
}

// stageCollect implements §4.6 step 3: fetch_posts for every configured
// topic, then fetch_comments for every post returned, fanned out over the
// bounded worker pool. A topic's failure is tolerated as long as at least
// one topic produced output; total failure across all topics is surfaced
// as a critical-stage error triggering rollback.
func (c *Coordinator) stageCollect(ctx context.Context, workflowID string) ([]itemRef, error) {
	topics := c.cfg.MonitoringTopics
	if len(topics) == 0 {
		return nil, fmt.Errorf("no monitoring topics configured")
	}

	type topicOutcome struct {
		posts []postResult
		err   error
	}
	outcomes, errs := mapConcurrent(ctx, topics, func(ctx context.Context, topic string) (topicOutcome, error) {
		var res fetchPostsResult
		err := c.sendSkill(ctx, config.RoleRetrieval, workflowID, "fetch_posts", map[string]any{
			"topic": topic, "limit": 100, "timeRange": "day",
		}, &res)
		return topicOutcome{posts: res.Posts}, err
	})

	var items []itemRef
	succeeded := 0
	for i, o := range outcomes {
		if errs[i] != nil {
			c.log.Warn(ctx, "fetch_posts failed for topic", "topic", topics[i], "error", errs[i])
			continue
		}
		succeeded++
		for _, p := range o.posts {
			id, convErr := strconv.ParseInt(p.ID, 10, 64)
			if convErr != nil {
				continue
			}
			items = append(items, itemRef{Variant: "post", ID: id, Title: p.Title, Body: p.Body})
		}
	}
	if succeeded == 0 {
		if c.budgetExceeded(config.RoleRetrieval) {
			return nil, fmt.Errorf("retrieval unavailable beyond budget: %w", errs[0])
		}
		return nil, fmt.Errorf("all %d topics failed to collect: %w", len(topics), errs[0])
	}

	posts := items
	commentOutcomes, commentErrs := mapConcurrent(ctx, posts, func(ctx context.Context, post itemRef) (fetchCommentsResult, error) {
		var res fetchCommentsResult
		err := c.sendSkill(ctx, config.RoleRetrieval, workflowID, "fetch_comments", map[string]any{
			"postId": strconv.FormatInt(post.ID, 10), "maxDepth": 10,
		}, &res)
		return res, err
	})
	for i, res := range commentOutcomes {
		if commentErrs[i] != nil {
			c.log.Warn(ctx, "fetch_comments failed", "postId", posts[i].ID, "error", commentErrs[i])
			continue
		}
		for _, cm := range res.Comments {
			id, convErr := strconv.ParseInt(cm.ID, 10, 64)
			if convErr != nil {
				continue
			}
			items = append(items, itemRef{Variant: "comment", ID: id, Body: cm.Body})
		}
	}

	if err := c.store.AdvanceStage(ctx, workflowID, store.StageFiltering, store.Checkpoint{
		Stage: store.StageCollecting, CompletedItems: len(items),
	}); err != nil {
		return nil, fmt.Errorf("checkpoint collecting: %w", err)
	}
	return items, nil
}

type filterContentResult struct {
	Records []struct {
		ItemRef    string `json:"itemRef"`
		IsRelevant bool   `json:"isRelevant"`
	} `json:"records"`
}

// stageFilter implements §4.6 step 4: batches items to the Filter agent's
// filter_content skill, then reads back the persisted relevant
// FilterRecords created during this stage as the handoff to summarising —
// the Filter skill is the system of record for its own scoring decision,
// the Coordinator does not recompute it.
func (c *Coordinator) stageFilter(ctx context.Context, workflowID string, items []itemRef) ([]*store.FilterRecord, error) {
	stageStart := c.clock.Now()

	const batchSize = 25
	var batches [][]itemRef
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}

	_, errs := mapConcurrent(ctx, batches, func(ctx context.Context, batch []itemRef) (struct{}, error) {
		wireItems := make([]map[string]any, 0, len(batch))
		for _, it := range batch {
			wireItems = append(wireItems, map[string]any{
				"variant": it.Variant, "id": it.ID, "title": it.Title, "body": it.Body,
			})
		}
		var res filterContentResult
		err := c.sendSkill(ctx, config.RoleFilter, workflowID, "filter_content", map[string]any{
			"items": wireItems, "topics": c.cfg.MonitoringTopics, "threshold": c.cfg.RelevanceThreshold,
			"weights": map[string]float64{"keyword": c.cfg.KeywordWeight, "semantic": c.cfg.SemanticWeight},
		}, &res)
		return struct{}{}, err
	})
	anyOK := false
	var lastErr error
	for _, err := range errs {
		if err == nil {
			anyOK = true
		} else {
			lastErr = err
		}
	}
	if !anyOK && len(batches) > 0 {
		return nil, fmt.Errorf("all filter batches failed: %w", lastErr)
	}

	relevant, err := c.store.RelevantSince(ctx, stageStart)
	if err != nil {
		return nil, fmt.Errorf("query relevant filter records: %w", err)
	}

	if err := c.store.AdvanceStage(ctx, workflowID, store.StageSummarising, store.Checkpoint{
		Stage: store.StageFiltering, CompletedItems: len(relevant), PendingItems: len(items) - len(relevant),
	}); err != nil {
		return nil, fmt.Errorf("checkpoint filtering: %w", err)
	}
	return relevant, nil
}

// stageSummarise implements §4.6 step 5: delegates summarise_content for
// every relevant FilterRecord, then reads back the SummaryRecords created
// during this stage as the handoff to alerting.
func (c *Coordinator) stageSummarise(ctx context.Context, workflowID string, items []itemRef, relevant []*store.FilterRecord) ([]int64, error) {
	stageStart := c.clock.Now()

	byKey := make(map[string]itemRef, len(items))
	for _, it := range items {
		byKey[it.key()] = it
	}

	_, errs := mapConcurrent(ctx, relevant, func(ctx context.Context, r *store.FilterRecord) (struct{}, error) {
		it, ok := byKey[fmt.Sprintf("%s:%d", r.ItemVariant, r.ItemID)]
		if !ok {
			return struct{}{}, fmt.Errorf("no item for filter record %d", r.ID)
		}
		content := it.Title
		if it.Body != "" {
			if content != "" {
				content += "\n\n"
			}
			content += it.Body
		}
		contentType := "post"
		if it.Variant == "comment" {
			contentType = "comment"
		}
		err := c.sendSkill(ctx, config.RoleSummarise, workflowID, "summarise_content", map[string]any{
			"filterId": r.ID, "content": content, "contentType": contentType, "maxLen": 500,
		}, nil)
		return struct{}{}, err
	})
	anyOK := false
	var lastErr error
	for _, err := range errs {
		if err == nil {
			anyOK = true
		} else {
			c.log.Warn(ctx, "summarise_content failed", "error", err)
			lastErr = err
		}
	}
	if !anyOK && len(relevant) > 0 {
		return nil, fmt.Errorf("all summarise calls failed: %w", lastErr)
	}

	summaries, err := c.store.SummariesSince(ctx, stageStart)
	if err != nil {
		return nil, fmt.Errorf("query new summaries: %w", err)
	}
	ids := make([]int64, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}

	if err := c.store.AdvanceStage(ctx, workflowID, store.StageAlerting, store.Checkpoint{
		Stage: store.StageSummarising, CompletedItems: len(ids), PendingItems: len(relevant) - len(ids),
	}); err != nil {
		return nil, fmt.Errorf("checkpoint summarising: %w", err)
	}
	return ids, nil
}

// stageAlert implements §4.6 step 6: groups summaries into AlertBatches no
// larger than BatchMaxItems, delegates send_slack and send_email per
// batch, and records each channel's delivery independently — a single
// channel failing on one batch makes the cycle "partial", not "failed"
// (Alert sub-channels are non-critical, §4.6 edge cases).
func (c *Coordinator) stageAlert(ctx context.Context, workflowID string, summaryIDs []int64) (bool, error) {
	batchSize := c.cfg.BatchMaxItems
	if batchSize <= 0 {
		batchSize = 20
	}

	partial := false
	for i := 0; i < len(summaryIDs); i += batchSize {
		end := i + batchSize
		if end > len(summaryIDs) {
			end = len(summaryIDs)
		}
		batch, err := c.store.CreateAlertBatch(ctx, summaryIDs[i:end], "normal")
		if err != nil {
			return partial, fmt.Errorf("create alert batch: %w", err)
		}

		if err := c.sendSkill(ctx, config.RoleAlert, workflowID, "send_slack", map[string]any{
			"batchRef": batch.ID,
		}, nil); err != nil {
			c.log.Warn(ctx, "send_slack failed", "batchRef", batch.ID, "error", err)
			partial = true
		}
		if len(c.cfg.AlertRecipients) > 0 {
			if err := c.sendSkill(ctx, config.RoleAlert, workflowID, "send_email", map[string]any{
				"batchRef": batch.ID, "recipients": c.cfg.AlertRecipients,
			}, nil); err != nil {
				c.log.Warn(ctx, "send_email failed", "batchRef", batch.ID, "error", err)
				partial = true
			}
		}

		finalStatus, err := c.store.FinishBatch(ctx, batch.ID)
		if err != nil {
			return partial, fmt.Errorf("finish alert batch: %w", err)
		}
		if finalStatus != store.BatchSent {
			partial = true
		}
	}

	if err := c.store.AdvanceStage(ctx, workflowID, store.StageCompleted, store.Checkpoint{
		Stage: store.StageAlerting, CompletedItems: len(summaryIDs),
	}); err != nil {
		return partial, fmt.Errorf("checkpoint alerting: %w", err)
	}
	return partial, nil
}
