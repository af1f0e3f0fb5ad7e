package api

import (
	"context"
	"errors"
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

// statsWorkers bounds the fan-out when summarizing many datasets at once.
const statsWorkers = 8

// StatsForDatasets fetches column statistics for several datasets in
// parallel through a bounded worker pool. Datasets that fail are logged
// and omitted from the result; a session expiry aborts the whole fan-out.
func (c *Client) StatsForDatasets(ctx context.Context, datasetIDs []string) (map[string]*DataStats, error) {
	results := make(map[string]*DataStats, len(datasetIDs))
	var mu sync.Mutex

	pool := pond.NewPool(statsWorkers)
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for _, id := range datasetIDs {
		group.SubmitErr(func() error {
			stats, err := c.Stats(groupCtx, id)
			if err != nil {
				if errors.Is(err, ErrUnauthorized) {
					return err // stop the group, the session is gone
				}
				c.logger.Warn("Skipping dataset in stats fan-out",
					zap.String("dataset_id", id),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			results[id] = stats
			mu.Unlock()
			return nil
		})
	}

	err := group.Wait()
	pool.StopAndWait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return results, err
	}
	return results, nil
}
