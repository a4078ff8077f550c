package protocol

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cpop/natscore/pkg/headers"
)

// EncodeConnect renders a CONNECT frame.
func EncodeConnect(info ConnectInfo) ([]byte, error) {
	body, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("CONNECT ")
	b.Write(body)
	b.WriteString("\r\n")
	return []byte(b.String()), nil
}

// EncodePing renders a PING frame.
func EncodePing() []byte { return []byte("PING\r\n") }

// EncodePong renders a PONG frame.
func EncodePong() []byte { return []byte("PONG\r\n") }

// EncodeSub renders a SUB frame. queue may be empty.
func EncodeSub(subject, queue, sid string) []byte {
	var b strings.Builder
	b.WriteString("SUB ")
	b.WriteString(subject)
	b.WriteByte(' ')
	if queue != "" {
		b.WriteString(queue)
		b.WriteByte(' ')
	}
	b.WriteString(sid)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// EncodeUnsub renders an UNSUB frame. max <= 0 omits the optional
// max-messages field.
func EncodeUnsub(sid string, max int) []byte {
	var b strings.Builder
	b.WriteString("UNSUB ")
	b.WriteString(sid)
	if max > 0 {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(max))
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// EncodePub renders a PUB frame. reply may be empty.
func EncodePub(subject, reply string, payload []byte) []byte {
	var b strings.Builder
	b.WriteString("PUB ")
	b.WriteString(subject)
	b.WriteByte(' ')
	if reply != "" {
		b.WriteString(reply)
		b.WriteByte(' ')
	}
	b.WriteString(strconv.Itoa(len(payload)))
	b.WriteString("\r\n")
	b.Write(payload)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// EncodeHPub renders an HPUB frame. The header block is the literal
// "NATS/1.0\r\n" line, each name: value pair in insertion order, then a
// blank line, exactly as headers.Headers.Encode produces it.
func EncodeHPub(subject, reply string, hdr *headers.Headers, payload []byte) []byte {
	hdrBlock := hdr.Encode()
	hlen := len(hdrBlock)
	tlen := hlen + len(payload)

	var b strings.Builder
	b.WriteString("HPUB ")
	b.WriteString(subject)
	b.WriteByte(' ')
	if reply != "" {
		b.WriteString(reply)
		b.WriteByte(' ')
	}
	b.WriteString(strconv.Itoa(hlen))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(tlen))
	b.WriteString("\r\n")
	b.Write(hdrBlock)
	b.Write(payload)
	b.WriteString("\r\n")
	return []byte(b.String())
}
