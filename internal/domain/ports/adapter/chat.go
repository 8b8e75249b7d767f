package adapter

import "context"

// Member is one chat-platform user holding a role.
type Member struct {
	SubjectID string
	Username  string
}

// ReceiptField is one line of a receipt or dashboard embed.
type ReceiptField struct {
	Name   string
	Value  string
	Inline bool
}

// ChannelContent is a rendered embed-style message for a channel.
type ChannelContent struct {
	Title       string
	Description string
	Fields      []ReceiptField
	Footer      string
}

// ChatPlatform is the hex port for the chat collaborator. Implementations map
// platform errors onto domain.ErrNotFound / domain.ErrPermissionDenied so the
// dispatcher can tell permanent failures from transient ones.
type ChatPlatform interface {
	GrantRole(ctx context.Context, organizationID, subjectID, roleRef string) error
	RevokeRole(ctx context.Context, organizationID, subjectID, roleRef string) error
	SendDirectMessage(ctx context.Context, subjectID, text string) error
	// PostToChannel publishes content and returns the message reference.
	PostToChannel(ctx context.Context, channelRef string, content ChannelContent) (messageRef string, err error)
	// EditChannelMessage rewrites an existing message in place.
	EditChannelMessage(ctx context.Context, channelRef, messageRef string, content ChannelContent) error
	ListMembersWithRole(ctx context.Context, organizationID, roleRef string) ([]Member, error)
}
