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

// PartialAttribute is the wire shape shared by add requests, modify
// changes and search result entries: an attribute description with
// the set of values attached to it.
type PartialAttribute struct {
	AType string
	Vals  ber.Set[string]
}

func (a PartialAttribute) Values() []string {
	vals := make([]string, 0, len(a.Vals))
	for v := range a.Vals {
		vals = append(vals, v)
	}
	return vals
}

func newPartialAttribute(name string, vals ...string) PartialAttribute {
	set := ber.Set[string]{}
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return PartialAttribute{AType: name, Vals: set}
}

type AddRequest struct {
	Entry string
	Attrs []PartialAttribute
}

func (a AddRequest) Dn() string {
	return a.Entry
}

func (a AddRequest) Attributes() map[string][]string {
	m := map[string][]string{}
	for _, pa := range a.Attrs {
		m[pa.AType] = pa.Values()
	}
	return m
}

type AddHandler struct {
	as *app.AddService
}

func NewAddHandler(as *app.AddService) *AddHandler {
	return &AddHandler{as}
}

func (h *AddHandler) RequestTag() ber.Tag {
	return AddRequestTag
}

func (h *AddHandler) Handle(ctx context.Context, session *core.Session, w io.Writer, msg LdapMsg) error {
	logger.Print("in add request")

	_, req, ok := msg.Request.Chosen()
	if !ok {
		return writeResponse(w, NewResultMsg(AddResponseTag, msg.MessageId, d.ProtocolError, "", "could not get choice for add request"))
	}

	ar, ok := req.(*AddRequest)
	if !ok {
		return writeResponse(w, NewResultMsg(AddResponseTag, msg.MessageId, d.ProtocolError, "",
			"expected *AddRequest, got %s", reflect.TypeOf(req)))
	}

	entry, err := h.as.AddEntry(session, *ar)
	if err != nil {
		rc, matched, diag := resultFromErr(err)
		return writeResponse(w, NewResultMsg(AddResponseTag, msg.MessageId, rc, matched, "%s", diag))
	}

	logger.Printf("added entry: %s", entry.Dn())
	return writeResponse(w, NewResultMsg(AddResponseTag, msg.MessageId, d.Success, "", "added entry at %s", entry.Dn()))
}
