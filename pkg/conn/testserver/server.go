// Package testserver provides a minimal in-process fake NATS server for
// exercising the connection handler, subscription routing, and
// request/reply paths without a real nats-server binary.
package testserver

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
)

// Server is a tiny single-connection-aware fake NATS server. It
// understands CONNECT/PING/PONG/SUB/UNSUB/PUB/HPUB and re-delivers
// published messages to matching subscribers across all connected
// clients, closely enough to exercise a real client's wire path.
type Server struct {
	ln net.Listener

	mu    sync.Mutex
	conns []*clientConn
	subs  map[string][]*subEntry // subject -> subscribers across all conns

	TLSRequired bool
}

type subEntry struct {
	conn    *clientConn
	sid     string
	subject string
}

type clientConn struct {
	c  net.Conn
	mu sync.Mutex
}

func (c *clientConn) writeLine(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.c, format, args...)
}

// New starts a fake server listening on an ephemeral local port.
func New() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{ln: ln, subs: make(map[string][]*subEntry)}
	go s.acceptLoop()
	return s, nil
}

// Addr returns "nats://host:port" for this server.
func (s *Server) Addr() string {
	return "nats://" + s.ln.Addr().String()
}

// Close stops accepting and closes every connection.
func (s *Server) Close() {
	s.ln.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.c.Close()
	}
}

func (s *Server) acceptLoop() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		cc := &clientConn{c: c}
		s.mu.Lock()
		s.conns = append(s.conns, cc)
		s.mu.Unlock()
		go s.serve(cc)
	}
}

func (s *Server) serve(cc *clientConn) {
	defer cc.c.Close()

	tlsField := ""
	if s.TLSRequired {
		tlsField = `,"tls_required":true`
	}
	cc.writeLine("INFO {\"server_id\":\"testserver\",\"proto\":1,\"max_payload\":1048576,\"headers\":true%s}\r\n", tlsField)

	r := bufio.NewReader(cc.c)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		cmd := strings.ToUpper(fields[0])
		var arg string
		if len(fields) > 1 {
			arg = fields[1]
		}

		switch cmd {
		case "CONNECT":
			// no-op: this fake server accepts every CONNECT.
		case "PING":
			cc.writeLine("PONG\r\n")
		case "PONG":
			// no outstanding-ping bookkeeping needed server-side.
		case "SUB":
			s.handleSub(cc, arg)
		case "UNSUB":
			s.handleUnsub(cc, arg)
		case "PUB":
			s.handlePub(cc, r, arg, false)
		case "HPUB":
			s.handlePub(cc, r, arg, true)
		}
	}
}

func (s *Server) handleSub(cc *clientConn, arg string) {
	f := strings.Fields(arg)
	var subject, queue, sid string
	switch len(f) {
	case 2:
		subject, sid = f[0], f[1]
	case 3:
		subject, queue, sid = f[0], f[1], f[2]
	default:
		return
	}
	_ = queue

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[subject] = append(s.subs[subject], &subEntry{conn: cc, sid: sid, subject: subject})
}

func (s *Server) handleUnsub(cc *clientConn, arg string) {
	f := strings.Fields(arg)
	if len(f) == 0 {
		return
	}
	sid := f[0]

	s.mu.Lock()
	defer s.mu.Unlock()
	for subj, entries := range s.subs {
		kept := entries[:0]
		for _, e := range entries {
			if e.conn == cc && e.sid == sid {
				continue
			}
			kept = append(kept, e)
		}
		s.subs[subj] = kept
	}
}

func (s *Server) handlePub(cc *clientConn, r *bufio.Reader, arg string, hasHeaders bool) {
	f := strings.Fields(arg)
	var subject, reply string
	var size int

	if hasHeaders {
		var hlenS, tlenS string
		switch len(f) {
		case 3:
			subject, hlenS, tlenS = f[0], f[1], f[2]
		case 4:
			subject, reply, hlenS, tlenS = f[0], f[1], f[2], f[3]
		default:
			return
		}
		_ = hlenS
		tlen, _ := strconv.Atoi(tlenS)
		size = tlen
	} else {
		var sizeS string
		switch len(f) {
		case 2:
			subject, sizeS = f[0], f[1]
		case 3:
			subject, reply, sizeS = f[0], f[1], f[2]
		default:
			return
		}
		size, _ = strconv.Atoi(sizeS)
	}

	payload := make([]byte, size+2)
	_, err := readFull(r, payload)
	if err != nil {
		return
	}
	body := payload[:size]

	s.mu.Lock()
	var targets []*subEntry
	for subj, entries := range s.subs {
		if subjectMatches(subj, subject) {
			targets = append(targets, entries...)
		}
	}
	s.mu.Unlock()

	if len(targets) == 0 && reply != "" {
		// Mimic a real server's no-responders signal: a status-only
		// HMSG back to whoever is subscribed to the reply subject.
		s.mu.Lock()
		var replyTargets []*subEntry
		for subj, entries := range s.subs {
			if subjectMatches(subj, reply) {
				replyTargets = append(replyTargets, entries...)
			}
		}
		s.mu.Unlock()

		hdr := "NATS/1.0 503 No Responders\r\n\r\n"
		for _, e := range replyTargets {
			e.conn.writeLine("HMSG %s %s %d %d\r\n%s\r\n", reply, e.sid, len(hdr), len(hdr), hdr)
		}
		return
	}

	for _, e := range targets {
		// Re-frame as MSG for simplicity; header-carrying test traffic
		// is exercised at the protocol-package level.
		e.conn.writeLine("MSG %s %s %s%d\r\n%s\r\n", subject, e.sid, replyPrefix(reply), len(body), body)
	}
}

func replyPrefix(reply string) string {
	if reply == "" {
		return ""
	}
	return reply + " "
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// subjectMatches reports whether a published subject matches a
// subscription pattern that may contain * and > wildcards.
func subjectMatches(pattern, subject string) bool {
	pTok := strings.Split(pattern, ".")
	sTok := strings.Split(subject, ".")

	for i, p := range pTok {
		if p == ">" {
			return true
		}
		if i >= len(sTok) {
			return false
		}
		if p != "*" && p != sTok[i] {
			return false
		}
	}
	return len(pTok) == len(sTok)
}
