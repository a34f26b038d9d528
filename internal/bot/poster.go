package bot

import (
	"context"
	"fmt"

	"github.com/edgard/botboard/internal/database"
)

// PostToChannel publishes content to a channel, choosing the send method
// from the media type. Channel ids are passed through verbatim, so both
// "@name" and numeric ids work.
func (s *Service) PostToChannel(ctx context.Context, channelID, content, mediaURL, mediaType string) (int, error) {
	client := s.currentClient()
	if client == nil {
		return 0, ErrNotRunning
	}

	if mediaURL != "" {
		switch mediaType {
		case database.MessageTypePhoto:
			return client.SendPhoto(ctx, channelID, mediaURL, content)
		case database.MessageTypeVideo:
			return client.SendVideo(ctx, channelID, mediaURL, content)
		case database.MessageTypeDocument:
			return client.SendDocument(ctx, channelID, mediaURL, content)
		}
		// Unknown media types fall through to a plain text post.
		s.logger.WarnContext(ctx, "Unknown media type, posting as text", "media_type", mediaType, "channel_id", channelID)
	}

	return client.SendText(ctx, channelID, content, nil)
}

// AddChannel verifies the bot can reach the chat and records it. Re-adding
// a known channel id is a no-op.
func (s *Service) AddChannel(ctx context.Context, channelID, channelName string) (*database.Channel, error) {
	client := s.currentClient()
	if client == nil {
		return nil, ErrNotRunning
	}

	info, err := client.GetChat(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify channel %s: %w", channelID, err)
	}

	channelType := database.ChannelTypePrivate
	if info.Type == "channel" {
		channelType = database.ChannelTypePublic
	}

	name := channelName
	if name == "" {
		name = info.Title
	}

	channel := &database.Channel{
		ChannelID:   channelID,
		ChannelName: name,
		ChannelType: channelType,
		IsActive:    true,
	}
	if err := s.store.CreateChannel(ctx, channel); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Channel added", "channel_id", channelID, "channel_type", channelType)
	return channel, nil
}
