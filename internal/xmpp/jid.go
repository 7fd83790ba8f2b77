package xmpp

import "strings"

// BareJID strips the resource part and lowercases the result:
// "Alice@Shop.Local/phone" becomes "alice@shop.local".
func BareJID(jid string) string {
	bare := strings.TrimSpace(jid)
	if idx := strings.Index(bare, "/"); idx >= 0 {
		bare = bare[:idx]
	}
	return strings.ToLower(bare)
}

// Domain returns the domain part of a JID, without resource.
func Domain(jid string) string {
	bare := BareJID(jid)
	if idx := strings.Index(bare, "@"); idx >= 0 {
		return bare[idx+1:]
	}
	return bare
}

// LocalPart returns the node before "@", or "" for a domain-only JID.
func LocalPart(jid string) string {
	bare := BareJID(jid)
	if idx := strings.Index(bare, "@"); idx >= 0 {
		return bare[:idx]
	}
	return ""
}
