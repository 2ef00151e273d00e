package server

import (
	"context"
	"io"
	"reflect"

	"ldapcore/internal/app"
	core "ldapcore/internal/core"
	d "ldapcore/internal/domain"
	"ldapcore/pkg/ber"
)

type BindRequest struct {
	Ver  int
	Name string
	Auth *ber.Choice[BindReqChoice]
}

type BindReqChoice struct {
	Simple string   `ber:"class=context-specific,cons=constructed,val=0"`
	Sasl   SaslAuth `ber:"class=context-specific,cons=constructed,val=3"`
}

type SaslAuth struct {
	Mechanism   string
	Credentials string
}

func (br BindRequest) Version() int {
	return br.Ver
}

func (br BindRequest) Dn() string {
	return br.Name
}

func (br BindRequest) Simple() (string, bool) {
	if _, auth, ok := br.Auth.Chosen(); ok {
		if simple, ok := auth.(*string); ok {
			return *simple, true
		}
	}
	return "", false
}

func (br BindRequest) SaslMechanism() (string, bool) {
	if _, auth, ok := br.Auth.Chosen(); ok {
		if sasl, ok := auth.(*SaslAuth); ok {
			return sasl.Mechanism, true
		}
	}
	return "", false
}

func (br BindRequest) SaslCredentials() (string, bool) {
	if _, auth, ok := br.Auth.Chosen(); ok {
		if sasl, ok := auth.(*SaslAuth); ok {
			return sasl.Credentials, true
		}
	}
	return "", false
}

type BindHandler struct {
	bs app.BindService
}

func NewBindHandler(bs app.BindService) *BindHandler {
	return &BindHandler{bs}
}

func (h *BindHandler) RequestTag() ber.Tag {
	return BindRequestTag
}

func (h *BindHandler) Handle(ctx context.Context, session *core.Session, w io.Writer, msg LdapMsg) error {
	logger.Print("in bind request")

	_, req, ok := msg.Request.Chosen()
	if !ok {
		return writeResponse(w, NewResultMsg(BindResponseTag, msg.MessageId, d.ProtocolError, "", "could not get choice for bind request"))
	}

	br, ok := req.(*BindRequest)
	if !ok {
		return writeResponse(w, NewResultMsg(BindResponseTag, msg.MessageId, d.ProtocolError, "",
			"expected %s, got %s", reflect.TypeFor[BindRequest](), reflect.TypeOf(req)))
	}
	logger.Print("extracted bind request")

	entry, err := h.bs.Bind(session, br)
	if err != nil {
		rc, matched, diag := resultFromErr(err)
		return writeResponse(w, NewResultMsg(BindResponseTag, msg.MessageId, rc, matched, "%s", diag))
	}

	logger.Printf("bind succeeded for %s", entry.Dn())
	return writeResponse(w, NewResultMsg(BindResponseTag, msg.MessageId, d.Success, br.Name, "bind successful"))
}

type UnbindHandler struct{}

func NewUnbindHandler() *UnbindHandler {
	return &UnbindHandler{}
}

func (h *UnbindHandler) RequestTag() ber.Tag {
	return UnbindRequestTag
}

func (h *UnbindHandler) Handle(ctx context.Context, session *core.Session, w io.Writer, msg LdapMsg) error {
	return UnbindError
}
