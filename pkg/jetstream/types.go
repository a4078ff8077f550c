// Package jetstream implements the JetStream request layer (components
// J/K/L): API-subject construction and typed request/response (the
// Context), pull-based consumption and ack/nak/term (Consumer and
// Message), and stream/consumer administration.
package jetstream

import "time"

// RetentionPolicy selects how a stream decides what to keep.
type RetentionPolicy string

const (
	RetentionLimits    RetentionPolicy = "limits"
	RetentionInterest  RetentionPolicy = "interest"
	RetentionWorkQueue RetentionPolicy = "workqueue"
)

// StorageType selects a stream's backing store.
type StorageType string

const (
	StorageFile   StorageType = "file"
	StorageMemory StorageType = "memory"
)

// DiscardPolicy selects what happens once a stream's limits are hit.
type DiscardPolicy string

const (
	DiscardOld DiscardPolicy = "old"
	DiscardNew DiscardPolicy = "new"
)

// StreamConfig describes a stream to create or update.
type StreamConfig struct {
	Name             string          `json:"name"`
	Subjects         []string        `json:"subjects,omitempty"`
	Retention        RetentionPolicy `json:"retention,omitempty"`
	Storage          StorageType     `json:"storage,omitempty"`
	Discard          DiscardPolicy   `json:"discard,omitempty"`
	MaxConsumers     int             `json:"max_consumers,omitempty"`
	MaxMsgs          int64           `json:"max_msgs,omitempty"`
	MaxBytes         int64           `json:"max_bytes,omitempty"`
	MaxAge           time.Duration   `json:"max_age,omitempty"`
	MaxMsgSize       int32           `json:"max_msg_size,omitempty"`
	DuplicateWindow  time.Duration   `json:"duplicate_window,omitempty"`
	NumReplicas      int             `json:"num_replicas,omitempty"`
	NoAck            bool            `json:"no_ack,omitempty"`
}

// StreamState reports a stream's current occupancy.
type StreamState struct {
	Messages  uint64 `json:"messages"`
	Bytes     uint64 `json:"bytes"`
	FirstSeq  uint64 `json:"first_seq"`
	LastSeq   uint64 `json:"last_seq"`
	Consumers int    `json:"consumer_count"`
}

// StreamInfo is the full admin view of a stream.
type StreamInfo struct {
	Config  StreamConfig `json:"config"`
	State   StreamState  `json:"state"`
	Created time.Time    `json:"created"`
}

// DeliverPolicy selects where a new consumer starts reading from.
type DeliverPolicy string

const (
	DeliverAll            DeliverPolicy = "all"
	DeliverLast           DeliverPolicy = "last"
	DeliverNew            DeliverPolicy = "new"
	DeliverByStartSeq     DeliverPolicy = "by_start_sequence"
	DeliverByStartTime    DeliverPolicy = "by_start_time"
	DeliverLastPerSubject DeliverPolicy = "last_per_subject"
)

// AckPolicy selects how a consumer's deliveries must be acknowledged.
type AckPolicy string

const (
	AckNone     AckPolicy = "none"
	AckAll      AckPolicy = "all"
	AckExplicit AckPolicy = "explicit"
)

// ConsumerConfig describes a pull consumer to create.
type ConsumerConfig struct {
	Durable       string        `json:"durable_name,omitempty"`
	FilterSubject string        `json:"filter_subject,omitempty"`
	DeliverPolicy DeliverPolicy `json:"deliver_policy,omitempty"`
	AckPolicy     AckPolicy     `json:"ack_policy,omitempty"`
	AckWait       time.Duration `json:"ack_wait,omitempty"`
	MaxDeliver    int           `json:"max_deliver,omitempty"`
	MaxAckPending int           `json:"max_ack_pending,omitempty"`
	BackOff       []time.Duration `json:"backoff,omitempty"`
}

// ConsumerInfo is the full admin view of a consumer.
type ConsumerInfo struct {
	Stream         string         `json:"stream_name"`
	Name           string         `json:"name"`
	Config         ConsumerConfig `json:"config"`
	Delivered      SequencePair   `json:"delivered"`
	AckFloor       SequencePair   `json:"ack_floor"`
	NumAckPending  int            `json:"num_ack_pending"`
	NumRedelivered int            `json:"num_redelivered"`
	NumPending     uint64         `json:"num_pending"`
}

// SequencePair pairs a stream sequence with its matching consumer
// sequence.
type SequencePair struct {
	Consumer uint64 `json:"consumer_seq"`
	Stream   uint64 `json:"stream_seq"`
}

// PubAck is the server's acknowledgement of a JetStream-published
// message.
type PubAck struct {
	Stream    string `json:"stream"`
	Seq       uint64 `json:"seq"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Domain    string `json:"domain,omitempty"`
}

// NextMessageRequest is the pull-fetch request body posted to a
// consumer's MSG.NEXT subject.
type NextMessageRequest struct {
	Batch     int   `json:"batch"`
	ExpiresNs int64 `json:"expires,omitempty"`
	NoWait    bool  `json:"no_wait,omitempty"`
}

// ApiError is the error object a JetStream API response carries in
// its "error" field.
type ApiError struct {
	Code        int    `json:"code"`
	ErrCode     int    `json:"err_code"`
	Description string `json:"description"`
}

// apiEnvelope is the generic JetStream API response shape: either the
// typed payload fields (decoded separately) or an "error" object.
type apiEnvelope struct {
	Error *ApiError `json:"error,omitempty"`
}

// PublishOptions configures an at-least-once JetStream publish.
type PublishOptions struct {
	MsgID                   string
	ExpectedStream          string
	ExpectedLastMsgID       string
	ExpectedLastSequence    *uint64
	ExpectedLastSubjectSeq  *uint64
}
