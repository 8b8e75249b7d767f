// File: internal/infra/discord/noop.go
package discord

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"discord-membership-payments/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ChatPlatform = (*NoopAdapter)(nil)

// NoopAdapter logs every call instead of touching Discord. Used in dev mode
// when no bot token is configured.
type NoopAdapter struct {
	log *zerolog.Logger
}

func NewNoopAdapter(logger *zerolog.Logger) *NoopAdapter {
	return &NoopAdapter{log: logger}
}

func (a *NoopAdapter) GrantRole(_ context.Context, organizationID, subjectID, roleRef string) error {
	a.log.Info().Str("organization_id", organizationID).Str("subject_id", subjectID).Str("role", roleRef).Msg("noop: grant role")
	return nil
}

func (a *NoopAdapter) RevokeRole(_ context.Context, organizationID, subjectID, roleRef string) error {
	a.log.Info().Str("organization_id", organizationID).Str("subject_id", subjectID).Str("role", roleRef).Msg("noop: revoke role")
	return nil
}

func (a *NoopAdapter) SendDirectMessage(_ context.Context, subjectID, text string) error {
	a.log.Info().Str("subject_id", subjectID).Str("text", text).Msg("noop: direct message")
	return nil
}

func (a *NoopAdapter) PostToChannel(_ context.Context, channelRef string, content adapter.ChannelContent) (string, error) {
	a.log.Info().Str("channel", channelRef).Str("title", content.Title).Msg("noop: post to channel")
	return uuid.NewString(), nil
}

func (a *NoopAdapter) EditChannelMessage(_ context.Context, channelRef, messageRef string, content adapter.ChannelContent) error {
	a.log.Info().Str("channel", channelRef).Str("message", messageRef).Str("title", content.Title).Msg("noop: edit message")
	return nil
}

func (a *NoopAdapter) ListMembersWithRole(_ context.Context, organizationID, roleRef string) ([]adapter.Member, error) {
	return nil, nil
}
