package subject

import "github.com/nats-io/nuid"

// DefaultInboxPrefix is the reserved subject prefix used for reply
// subjects when no inbox_prefix option overrides it.
const DefaultInboxPrefix = "_INBOX"

// NewInbox returns prefix + "." + a 22-character alphanumeric id. The id
// comes from nuid, the same collision-resistant generator the NATS
// ecosystem itself uses for inbox subjects and Msg-Id headers.
func NewInbox(prefix string) string {
	if prefix == "" {
		prefix = DefaultInboxPrefix
	}
	return prefix + "." + nuid.Next()
}

// NewReplySubject mints a per-request reply subject rooted at the
// connection's subscribed inbox, e.g. "_INBOX.<id>.<id>".
func NewReplySubject(inboxRoot string) string {
	return inboxRoot + "." + nuid.Next()
}
