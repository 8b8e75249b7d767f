// File: internal/infra/discord/adapter.go
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ChatPlatform = (*Adapter)(nil)

const embedColor = 0x5865F2

// Adapter implements the chat port on top of a discordgo session.
type Adapter struct {
	session *discordgo.Session
	log     *zerolog.Logger
}

func NewAdapter(token string, logger *zerolog.Logger) (*Adapter, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Adapter{session: s, log: logger}, nil
}

// Open connects the gateway websocket; required before member queries.
func (a *Adapter) Open() error {
	a.session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	return a.session.Open()
}

func (a *Adapter) Close() error {
	return a.session.Close()
}

func (a *Adapter) GrantRole(ctx context.Context, organizationID, subjectID, roleRef string) error {
	err := a.session.GuildMemberRoleAdd(organizationID, subjectID, roleRef, discordgo.WithContext(ctx))
	return mapErr(err)
}

func (a *Adapter) RevokeRole(ctx context.Context, organizationID, subjectID, roleRef string) error {
	err := a.session.GuildMemberRoleRemove(organizationID, subjectID, roleRef, discordgo.WithContext(ctx))
	return mapErr(err)
}

func (a *Adapter) SendDirectMessage(ctx context.Context, subjectID, text string) error {
	ch, err := a.session.UserChannelCreate(subjectID, discordgo.WithContext(ctx))
	if err != nil {
		return mapErr(err)
	}
	_, err = a.session.ChannelMessageSend(ch.ID, text, discordgo.WithContext(ctx))
	return mapErr(err)
}

func (a *Adapter) PostToChannel(ctx context.Context, channelRef string, content adapter.ChannelContent) (string, error) {
	msg, err := a.session.ChannelMessageSendEmbed(channelRef, toEmbed(content), discordgo.WithContext(ctx))
	if err != nil {
		return "", mapErr(err)
	}
	return msg.ID, nil
}

func (a *Adapter) EditChannelMessage(ctx context.Context, channelRef, messageRef string, content adapter.ChannelContent) error {
	_, err := a.session.ChannelMessageEditEmbed(channelRef, messageRef, toEmbed(content), discordgo.WithContext(ctx))
	return mapErr(err)
}

// ListMembersWithRole pages through the guild roster. Large guilds mean many
// round trips, so callers should treat this as a slow path.
func (a *Adapter) ListMembersWithRole(ctx context.Context, organizationID, roleRef string) ([]adapter.Member, error) {
	var out []adapter.Member
	after := ""
	for {
		batch, err := a.session.GuildMembers(organizationID, after, 1000, discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapErr(err)
		}
		if len(batch) == 0 {
			return out, nil
		}
		for _, m := range batch {
			for _, r := range m.Roles {
				if r == roleRef {
					out = append(out, adapter.Member{SubjectID: m.User.ID, Username: m.User.Username})
					break
				}
			}
		}
		after = batch[len(batch)-1].User.ID
	}
}

func toEmbed(content adapter.ChannelContent) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       content.Title,
		Description: content.Description,
		Color:       embedColor,
	}
	for _, f := range content.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if content.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: content.Footer}
	}
	return e
}

// mapErr translates REST errors so the dispatcher can distinguish permanent
// failures (gone member, missing permission) from transient ones.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
		}
	}
	return err
}
