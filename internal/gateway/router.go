package gateway

import (
	"fmt"

	inats "github.com/aiox-platform/shopassist/internal/nats"
	ixmpp "github.com/aiox-platform/shopassist/internal/xmpp"
)

// Route is the resolved addressing for one inbound chat message.
type Route struct {
	UserID    string
	Domain    string
	ReplyTo   string
	ReplyFrom string
}

// Router maps XMPP addresses onto assistant users. The bare sender JID is
// the user id, so every resource of an account shares one conversation.
type Router struct {
	componentName string
}

func NewRouter(componentName string) *Router {
	return &Router{componentName: componentName}
}

func (r *Router) Route(inbound inats.InboundMessage) (*Route, error) {
	userID := ixmpp.BareJID(inbound.FromJID)
	if ixmpp.LocalPart(userID) == "" {
		return nil, fmt.Errorf("sender %q is not a user JID", inbound.FromJID)
	}

	replyFrom := inbound.ToJID
	if replyFrom == "" {
		replyFrom = r.componentName
	}

	return &Route{
		UserID:    userID,
		Domain:    ixmpp.Domain(userID),
		ReplyTo:   inbound.FromJID,
		ReplyFrom: replyFrom,
	}, nil
}
