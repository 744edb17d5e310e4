package ingestion

import (
	"context"

	"github.com/poiesic/pagewise/core"
)

// persist writes the successful results of one group with a single bulk
// insert and attaches the generated ids. A failed write is logged and
// recorded on the affected results; the results themselves are kept.
func (c *Coordinator) persist(ctx context.Context, origin core.Origin, owner core.Owner, batchID string, results []core.ExtractionResult) {
	var (
		indexes []int
		records []*core.SourceRecord
	)
	for i := range results {
		if results[i].Failed() {
			continue
		}
		indexes = append(indexes, i)
		records = append(records, core.NewSourceRecord(owner, batchID, &results[i]))
	}
	if len(records) == 0 {
		return
	}

	ids, err := c.sink.InsertMany(ctx, records...)
	if err == nil && len(ids) != len(records) {
		err = errShortInsert(len(ids), len(records))
	}
	if err != nil {
		c.logger.Error("failed to persist results", "batch_id", batchID, "origin", origin, "records", len(records), "error", err)
		for _, i := range indexes {
			results[i].PersistError = err.Error()
		}
		c.monitor.GroupPersisted(origin, 0, err)
		return
	}

	for k, i := range indexes {
		results[i].ID = ids[k]
	}
	c.logger.Debug("persisted results", "batch_id", batchID, "origin", origin, "records", len(records))
	c.monitor.GroupPersisted(origin, len(records), nil)
}
