package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// startScheduler runs the due-post processor on a fixed interval for as
// long as the bot is running.
func (s *Service) startScheduler(ctx context.Context) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cfg.Bot.ScheduleInterval),
		gocron.NewTask(func(ctx context.Context) {
			if err := s.ProcessDuePosts(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Scheduled post processing failed", "error", err)
			}
		}, ctx),
		gocron.WithName("process_due_posts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule due-post job: %w", err)
	}

	scheduler.Start()
	s.logger.Info("Scheduled post processor started", "interval", s.cfg.Bot.ScheduleInterval)
	return scheduler, nil
}

// ProcessDuePosts sends every pending post whose scheduled time has
// passed. Each post ends up sent or failed; a failing post never blocks
// the rest of the batch.
func (s *Service) ProcessDuePosts(ctx context.Context) error {
	posts, err := s.store.ListDueScheduledPosts(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to list due posts: %w", err)
	}

	for _, post := range posts {
		if _, err := s.PostToChannel(ctx, post.ChannelID, post.Content, post.MediaURL.String, post.MediaType.String); err != nil {
			s.logger.ErrorContext(ctx, "Failed to send scheduled post", "post_id", post.ID, "channel_id", post.ChannelID, "error", err)
			if markErr := s.store.MarkScheduledPostFailed(ctx, post.ID); markErr != nil {
				s.logger.ErrorContext(ctx, "Failed to mark scheduled post failed", "post_id", post.ID, "error", markErr)
			}
			continue
		}

		if markErr := s.store.MarkScheduledPostSent(ctx, post.ID, time.Now().UTC()); markErr != nil {
			s.logger.ErrorContext(ctx, "Failed to mark scheduled post sent", "post_id", post.ID, "error", markErr)
			continue
		}

		s.logger.InfoContext(ctx, "Scheduled post sent", "post_id", post.ID, "channel_id", post.ChannelID)
	}

	return nil
}
