package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	nerrors "github.com/cpop/natscore/pkg/errors"
	"github.com/cpop/natscore/pkg/headers"
)

var crlf = []byte("\r\n")

// Decoder incrementally parses server operations out of a byte stream.
// Feed appends newly read bytes; Next attempts to decode one operation.
// Every attempt that lacks sufficient bytes leaves the internal buffer
// untouched ("rewinds to the start of the frame") and returns (nil, nil)
// to signal "need more data" — callers feed more bytes and call Next
// again.
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends newly received bytes to the decode buffer.
func (d *Decoder) Feed(b []byte) {
	d.buf = append(d.buf, b...)
}

// Pending reports how many unconsumed bytes remain buffered.
func (d *Decoder) Pending() int {
	return len(d.buf)
}

// TakeBuffered returns a copy of any unconsumed bytes and clears the
// internal buffer, letting a caller hand them off to a different
// Decoder instance without losing already-read-ahead data.
func (d *Decoder) TakeBuffered() []byte {
	out := make([]byte, len(d.buf))
	copy(out, d.buf)
	d.buf = nil
	return out
}

// Next decodes at most one server operation. It returns (nil, nil) when
// the buffer does not yet contain a full frame; (decoded, nil) on
// success; and (nil, err) — always an *errors.Error of kind
// InvalidMessage — on a malformed frame.
func (d *Decoder) Next() (*Decoded, error) {
	idx := bytes.Index(d.buf, crlf)
	if idx < 0 {
		return nil, nil
	}
	line := string(d.buf[:idx])
	rest := idx + 2

	sp := strings.IndexByte(line, ' ')
	var cmd, argLine string
	if sp < 0 {
		cmd = line
	} else {
		cmd = line[:sp]
		argLine = strings.TrimSpace(line[sp+1:])
	}

	switch strings.ToUpper(cmd) {
	case "INFO":
		if argLine == "" {
			return nil, nerrors.New(nerrors.KindInvalidMessage, "INFO missing JSON payload", nil)
		}
		var info Info
		if err := json.Unmarshal([]byte(argLine), &info); err != nil {
			return nil, nerrors.New(nerrors.KindInvalidMessage, "INFO payload is not valid JSON", err)
		}
		d.consume(rest)
		return &Decoded{Op: OpInfo, Info: &info}, nil

	case "MSG":
		return d.decodeMsg(argLine, rest)

	case "HMSG":
		return d.decodeHMsg(argLine, rest)

	case "PING":
		d.consume(rest)
		return &Decoded{Op: OpPing}, nil

	case "PONG":
		d.consume(rest)
		return &Decoded{Op: OpPong}, nil

	case "+OK":
		d.consume(rest)
		return &Decoded{Op: OpOK}, nil

	case "-ERR":
		msg := strings.Trim(argLine, `'"`)
		d.consume(rest)
		return &Decoded{Op: OpErr, Err: &Err{Message: msg}}, nil

	default:
		return nil, nerrors.New(nerrors.KindInvalidMessage, "unknown command: "+cmd, nil)
	}
}

func (d *Decoder) decodeMsg(argLine string, rest int) (*Decoded, error) {
	fields := strings.Fields(argLine)
	var subject, sid, reply, sizeField string
	switch len(fields) {
	case 3:
		subject, sid, sizeField = fields[0], fields[1], fields[2]
	case 4:
		subject, sid, reply, sizeField = fields[0], fields[1], fields[2], fields[3]
	default:
		return nil, nerrors.New(nerrors.KindInvalidMessage, "malformed MSG line: "+argLine, nil)
	}

	n, err := parseSize(sizeField)
	if err != nil {
		return nil, err
	}

	if len(d.buf) < rest+int(n)+2 {
		return nil, nil
	}
	payload := d.buf[rest : rest+int(n)]
	if !bytes.Equal(d.buf[rest+int(n):rest+int(n)+2], crlf) {
		return nil, nerrors.New(nerrors.KindInvalidMessage, "MSG payload missing trailing CRLF", nil)
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	d.consume(rest + int(n) + 2)
	return &Decoded{Op: OpMsg, Msg: &Msg{Subject: subject, SID: sid, Reply: reply, Payload: out}}, nil
}

func (d *Decoder) decodeHMsg(argLine string, rest int) (*Decoded, error) {
	fields := strings.Fields(argLine)
	var subject, sid, reply, hlenField, tlenField string
	switch len(fields) {
	case 4:
		subject, sid, hlenField, tlenField = fields[0], fields[1], fields[2], fields[3]
	case 5:
		subject, sid, reply, hlenField, tlenField = fields[0], fields[1], fields[2], fields[3], fields[4]
	default:
		return nil, nerrors.New(nerrors.KindInvalidMessage, "malformed HMSG line: "+argLine, nil)
	}

	hlen, err := parseSize(hlenField)
	if err != nil {
		return nil, err
	}
	tlen, err := parseSize(tlenField)
	if err != nil {
		return nil, err
	}
	if tlen < hlen {
		return nil, nerrors.New(nerrors.KindInvalidMessage, "HMSG total length smaller than header length", nil)
	}

	if len(d.buf) < rest+int(tlen)+2 {
		return nil, nil
	}
	hdrBlock := d.buf[rest : rest+int(hlen)]
	payload := d.buf[rest+int(hlen) : rest+int(tlen)]
	if !bytes.Equal(d.buf[rest+int(tlen):rest+int(tlen)+2], crlf) {
		return nil, nerrors.New(nerrors.KindInvalidMessage, "HMSG payload missing trailing CRLF", nil)
	}

	hdr, err := headers.Decode(hdrBlock)
	if err != nil {
		return nil, nerrors.New(nerrors.KindInvalidMessage, "malformed HMSG header block", err)
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	d.consume(rest + int(tlen) + 2)
	return &Decoded{Op: OpHMsg, HMsg: &HMsg{Subject: subject, SID: sid, Reply: reply, Headers: hdr, Payload: out}}, nil
}

func parseSize(field string) (int64, error) {
	n, err := strconv.ParseInt(field, 10, 64)
	if err != nil || n < 0 {
		return 0, nerrors.New(nerrors.KindInvalidMessage, "invalid frame size: "+field, err)
	}
	return n, nil
}

func (d *Decoder) consume(n int) {
	d.buf = d.buf[n:]
}
