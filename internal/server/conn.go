package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"os"

	core "ldapcore/internal/core"
	"ldapcore/internal/util"
	"ldapcore/pkg/ber"
)

var logger = log.New(os.Stderr, "server: ", log.Lshortfile)

var UnbindError = errors.New("unbind request recieved")

// Handler serves one LDAP operation kind. It reads the chosen request
// out of msg, runs it against the session's directory service, and
// writes the response(s) to w itself - a search handler writes one
// SearchResultEntry per match before its final SearchResultDone.
type Handler interface {
	RequestTag() ber.Tag
	Handle(ctx context.Context, session *core.Session, w io.Writer, msg LdapMsg) error
}

// Mux dispatches decoded messages to the handler registered for their
// request tag, threading a single Session through every request on a
// connection so a bind's identity survives across subsequent requests.
type Mux struct {
	handlers map[ber.Tag]Handler
}

func NewMux() *Mux {
	return &Mux{handlers: map[ber.Tag]Handler{}}
}

func (m *Mux) AddHandler(h Handler) *Mux {
	m.handlers[h.RequestTag()] = h
	return m
}

func (m *Mux) Serve(c net.Conn) {
	defer c.Close()

	teeIn := io.TeeReader(c, util.NewHexLogger(logger, "in"))
	teeOut := io.MultiWriter(util.NewHexLogger(logger, "out"), c)

	ctx := context.Background()
	session := core.NewSession()

	for {
		logger.Print("recieving message...")
		var msg LdapMsg
		if err := ber.Decode(teeIn, &msg); err != nil {
			logger.Print(err)
			return
		}

		logger.Print("decoded message")

		tag, _, ok := msg.Request.Chosen()
		if !ok {
			logger.Print("no choice was made for incoming ldap message")
			return
		}

		handler, ok := m.handlers[tag]
		if !ok {
			logger.Printf("unknown ldap message tag %s", tag)
			return
		}

		if err := handler.Handle(ctx, session, teeOut, msg); err != nil {
			if errors.Is(err, UnbindError) {
				return
			}
			logger.Print(err)
			return
		}

		logger.Print("... sent response")
	}
}
