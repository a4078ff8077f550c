// Package protocol implements the NATS text wire protocol: encoding of
// client operations and resumable decoding of server operations
// (component C).
package protocol

import "github.com/cpop/natscore/pkg/headers"

// ServerOp is the tag of a decoded server-to-client operation.
type ServerOp int

const (
	OpInfo ServerOp = iota
	OpMsg
	OpHMsg
	OpPing
	OpPong
	OpOK
	OpErr
)

// Info is the decoded payload of an INFO frame. Field names mirror the
// server's JSON wire names; unknown fields are ignored by
// encoding/json.
type Info struct {
	ServerID     string   `json:"server_id"`
	ServerName   string   `json:"server_name"`
	Version      string   `json:"version"`
	Proto        int      `json:"proto"`
	GitCommit    string   `json:"git_commit,omitempty"`
	GoVersion    string   `json:"go"`
	Host         string   `json:"host"`
	Port         int      `json:"port"`
	Headers      bool     `json:"headers"`
	MaxPayload   int64    `json:"max_payload"`
	ClientID     uint64   `json:"client_id,omitempty"`
	AuthRequired bool     `json:"auth_required,omitempty"`
	TLSRequired  bool     `json:"tls_required,omitempty"`
	TLSAvailable bool     `json:"tls_available,omitempty"`
	ConnectURLs  []string `json:"connect_urls,omitempty"`
	Nonce        string   `json:"nonce,omitempty"`
	JetStream    bool     `json:"jetstream,omitempty"`
	ClientIP     string   `json:"client_ip,omitempty"`
	Domain       string   `json:"domain,omitempty"`
}

// ConnectInfo is the outbound CONNECT payload.
type ConnectInfo struct {
	Verbose      bool   `json:"verbose"`
	Pedantic     bool   `json:"pedantic"`
	TLSRequired  bool   `json:"tls_required"`
	Echo         bool   `json:"echo"`
	Headers      bool   `json:"headers"`
	NoResponders bool   `json:"no_responders"`
	Protocol     int    `json:"protocol"`
	Name         string `json:"name,omitempty"`
	Lang         string `json:"lang"`
	Version      string `json:"version"`

	AuthToken string `json:"auth_token,omitempty"`
	User      string `json:"user,omitempty"`
	Pass      string `json:"pass,omitempty"`
	NKey      string `json:"nkey,omitempty"`
	JWT       string `json:"jwt,omitempty"`
	Sig       string `json:"sig,omitempty"`
}

// Msg is a decoded MSG operation (no headers).
type Msg struct {
	Subject string
	SID     string
	Reply   string
	Payload []byte
}

// HMsg is a decoded HMSG operation (headers + payload).
type HMsg struct {
	Subject string
	SID     string
	Reply   string
	Headers *headers.Headers
	Payload []byte
}

// Err is a decoded -ERR operation.
type Err struct {
	Message string
}

// Decoded wraps a single decoded server operation together with its tag.
type Decoded struct {
	Op   ServerOp
	Info *Info
	Msg  *Msg
	HMsg *HMsg
	Err  *Err
}
