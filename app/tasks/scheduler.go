package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lysyi3m/news-hub/app/cfg"
	"github.com/lysyi3m/news-hub/app/database"
	"github.com/lysyi3m/news-hub/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	taskQueueSize     = 300
	taskTimeout       = 5 * time.Minute
	maxRetryDelay     = 30 * time.Second
	defaultInterval   = 30 * time.Second
	defaultWorkerSize = 1
)

// Dependencies are the collaborators shared by the ingestion tasks.
type Dependencies struct {
	FeedRepo         database.FeedRepository
	ArticleRepo      database.ArticleRepository
	HTTPClient       *http.Client
	Parser           *feed.Parser
	Filterer         *feed.Filterer
	Summarizer       *feed.Summarizer
	Scorer           *feed.Scorer
	ContentExtractor *feed.ContentExtractor
	UserAgent        string
	MinScore         float64
}

type Scheduler struct {
	configCache *feed.ConfigCache
	deps        Dependencies
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(configCache *feed.ConfigCache, deps Dependencies) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	interval := time.Duration(cfg.SchedulerInterval) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = defaultWorkerSize
	}

	if deps.UserAgent == "" {
		deps.UserAgent = cfg.UserAgent
	}

	return &Scheduler{
		configCache: configCache,
		deps:        deps,
		interval:    interval,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, taskQueueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueIngestAll queues a config sync followed by an ingest run for every
// enabled feed, regardless of its next fetch time.
func (s *Scheduler) EnqueueIngestAll() (int, error) {
	feedConfigs := s.configCache.GetEnabledConfigs()

	enqueued := 0
	for _, feedConfig := range feedConfigs {
		if err := s.EnqueueTask(NewSyncFeedConfigTask(feedConfig.Name, feedConfig, s.deps.FeedRepo)); err != nil {
			return enqueued, fmt.Errorf("failed to enqueue sync for feed '%s': %w", feedConfig.Name, err)
		}
		enqueued++

		if err := s.EnqueueTask(NewIngestFeedTask(feedConfig.Name, feedConfig, s.deps)); err != nil {
			return enqueued, fmt.Errorf("failed to enqueue ingest for feed '%s': %w", feedConfig.Name, err)
		}
		enqueued++
	}

	slog.Info("Ingestion requested", "feeds", len(feedConfigs), "tasks", enqueued)

	return enqueued, nil
}

func (s *Scheduler) enqueueStartupTasks() {
	feedConfigs := s.configCache.GetEnabledConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No enabled feed configurations found")
		return
	}

	slog.Debug("Processing feed configurations", "count", len(feedConfigs))

	for _, feedConfig := range feedConfigs {
		syncTask := NewSyncFeedConfigTask(feedConfig.Name, feedConfig, s.deps.FeedRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncFeedConfigTask", "feed", feedConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	feedConfigs := s.configCache.GetEnabledConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No enabled feed configurations found")
		return
	}

	for _, feedConfig := range feedConfigs {
		feedRow, err := s.deps.FeedRepo.GetFeed(s.ctx, feedConfig.Name)
		if err != nil {
			slog.Warn("Failed to get feed from database, skipping", "feed", feedConfig.Name, "error", err)
			continue
		}
		if feedRow == nil {
			slog.Debug("Feed not synced yet, skipping", "feed", feedConfig.Name)
			continue
		}

		now := time.Now().UTC()
		if feedRow.NextFetchAt != nil && feedRow.NextFetchAt.After(now) {
			slog.Debug("Feed not due for refresh yet", "feed", feedConfig.Name, "next_fetch_at", feedRow.NextFetchAt)
		} else {
			if err := s.EnqueueTask(NewIngestFeedTask(feedConfig.Name, feedConfig, s.deps)); err != nil {
				slog.Warn("Failed to enqueue IngestFeedTask", "feed", feedConfig.Name, "error", err)
			}
		}

		if feedConfig.Settings.ExtractContent {
			if err := s.EnqueueTask(NewExtractContentTask(feedConfig.Name, feedConfig, s.deps)); err != nil {
				slog.Warn("Failed to enqueue ExtractContentTask", "feed", feedConfig.Name, "error", err)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "feed", task.GetFeedName(), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := min(time.Duration(1<<uint(task.GetRetryCount()-1))*time.Second, maxRetryDelay)

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "feed", task.GetFeedName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-time.After(retryDelay):
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		}

		if retryErr := s.EnqueueTask(task); retryErr != nil {
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
		}
	}()
}
