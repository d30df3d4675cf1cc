package testsnapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o644
)

// Run executes the complete snapshot test.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("test-snapshot")

	log.Info(ctx, "starting rollcall snapshot test",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("snapshotID", cfg.SnapshotID),
		logger.Int("members", cfg.Members),
		logger.Int("votes", cfg.Votes),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed))

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate the snapshot
	snap, err := Generate(ctx, cfg, stats)
	if err != nil {
		return fmt.Errorf("snapshot generation failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := SaveSnapshot(cfg.OutputFile, snap); err != nil {
			log.Warn(ctx, "failed to save snapshot to file", logger.Error(err))
		} else {
			log.Info(ctx, "snapshot saved to file", logger.String("filename", cfg.OutputFile))
		}
	}

	// Step 3: Upload
	info, err := client.Upload(ctx, cfg.SnapshotID, snap)
	if err != nil {
		return fmt.Errorf("snapshot upload failed: %w", err)
	}
	log.Info(ctx, "snapshot uploaded",
		logger.String("id", info.ID),
		logger.Any("version", info.Version),
		logger.Int("meetings", info.Meetings))

	if !cfg.Keep {
		defer func() {
			if err := client.Delete(context.WithoutCancel(ctx), info.ID); err != nil {
				log.Warn(ctx, "failed to delete snapshot", logger.Error(err))
			}
		}()
	}

	// Step 4: Fetch analytics
	res, err := fetchResults(ctx, client, cfg.Workers, info.ID, snap, stats)
	if err != nil {
		return fmt.Errorf("analytics retrieval failed: %w", err)
	}

	// Step 5: Verify
	if err := Verify(ctx, snap, res, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "test completed successfully")
	return nil
}

func fetchResults(ctx context.Context, c *Client, workers int, id string, snap model.Snapshot, stats *Stats) (Results, error) {
	var res Results
	var err error

	if res.Summary, err = c.Summary(ctx, id); err != nil {
		return res, err
	}
	if res.Alignment, err = c.Alignment(ctx, id); err != nil {
		return res, err
	}
	if res.Agenda, err = c.Agenda(ctx, id); err != nil {
		return res, err
	}
	stats.MeetingsRetrieved = len(res.Agenda)

	res.Profiles, err = fetchAll(ctx, workers, snap.MemberAnalysis.Names(), func(ctx context.Context, name string) (Profile, error) {
		return c.Profile(ctx, id, name)
	})
	if err != nil {
		return res, err
	}
	stats.ProfilesRetrieved = len(res.Profiles)

	itemIDs := make([]string, 0, len(snap.Votes))
	for _, rec := range snap.Votes {
		itemIDs = append(itemIDs, rec.ExampleID)
	}
	items, err := fetchAll(ctx, workers, itemIDs, func(ctx context.Context, itemID string) (AgendaItemDetail, error) {
		return c.AgendaItem(ctx, id, itemID)
	})
	if err != nil {
		return res, err
	}
	res.Items = make([]AgendaItemDetail, 0, len(items))
	for _, itemID := range itemIDs {
		res.Items = append(res.Items, items[itemID])
	}
	return res, nil
}

// fetchAll runs fn for every key on a bounded set of workers. The first
// error cancels the remaining fetches.
func fetchAll[T any](ctx context.Context, workers int, keys []string, fn func(context.Context, string) (T, error)) (map[string]T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if workers < 1 {
		workers = 1
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		out      = make(map[string]T, len(keys))
		jobs     = make(chan string)
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				v, err := fn(ctx, key)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("%s: %w", key, err)
						cancel()
					}
				} else {
					out[key] = v
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, key := range keys {
		select {
		case jobs <- key:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSnapshot writes snap as indented JSON, creating parent directories.
func SaveSnapshot(filename string, snap model.Snapshot) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("votesGenerated", stats.VotesGenerated),
		logger.Int("membersGenerated", stats.MembersGenerated),
		logger.Int("profilesRetrieved", stats.ProfilesRetrieved),
		logger.Int("meetingsRetrieved", stats.MeetingsRetrieved),
		logger.Int("checksPassed", stats.ChecksPassed),
		logger.String("duration", stats.Duration.String()))
}
