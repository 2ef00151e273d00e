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

type Change struct {
	Operation    int `ber:"class=universal,cons=primitive,val=10"` // enumerated
	Modification PartialAttribute
}

func (c Change) ModOp() app.ModifyOperation {
	return app.ModifyOperation(c.Operation)
}

func (c Change) Attribute() string {
	return c.Modification.AType
}

func (c Change) Vals() []string {
	return c.Modification.Values()
}

type ModifyRequest struct {
	Object  string
	Changes []Change
}

func (m ModifyRequest) Dn() string {
	return m.Object
}

func (m ModifyRequest) Modifications() []app.Modification {
	mods := make([]app.Modification, 0, len(m.Changes))
	for _, c := range m.Changes {
		mods = append(mods, c)
	}
	return mods
}

type ModifyHandler struct {
	ms *app.ModifyService
}

func NewModifyHandler(ms *app.ModifyService) *ModifyHandler {
	return &ModifyHandler{ms}
}

func (m *ModifyHandler) RequestTag() ber.Tag {
	return ModifyRequestTag
}

func (m *ModifyHandler) Handle(ctx context.Context, session *core.Session, w io.Writer, msg LdapMsg) error {
	logger.Print("in modify request")

	_, req, ok := msg.Request.Chosen()
	if !ok {
		return writeResponse(w, NewResultMsg(ModifyResponseTag, msg.MessageId, d.ProtocolError, "", "could not get modify req choice"))
	}

	mr, ok := req.(*ModifyRequest)
	if !ok {
		return writeResponse(w, NewResultMsg(ModifyResponseTag, msg.MessageId, d.ProtocolError, "",
			"expected *ModifyRequest, got %s", reflect.TypeOf(req)))
	}

	if err := m.ms.ModifyEntry(session, mr); err != nil {
		rc, matched, diag := resultFromErr(err)
		return writeResponse(w, NewResultMsg(ModifyResponseTag, msg.MessageId, rc, matched, "%s", diag))
	}

	logger.Printf("modified entry: %s", mr.Dn())
	return writeResponse(w, NewResultMsg(ModifyResponseTag, msg.MessageId, d.Success, "", "modified entry at: %s", mr.Dn()))
}

type ModifyDnRequest struct {
	Entry        string
	NewRdn       string
	DeleteOldRdn bool
	NewSuperior  *ber.Optional[string] `ber:"class=context-specific,cons=primitive,val=0"`
}

func (mr ModifyDnRequest) Dn() string {
	return mr.Entry
}

func (mr ModifyDnRequest) UpdatedRdn() string {
	return mr.NewRdn
}

func (mr ModifyDnRequest) RemoveExistingRdn() bool {
	return mr.DeleteOldRdn
}

func (mr ModifyDnRequest) NewParentDn() (string, bool) {
	return mr.NewSuperior.Get()
}

type ModifyDnHandler struct {
	ms *app.ModifyService
}

func NewModifyDnHandler(ms *app.ModifyService) *ModifyDnHandler {
	return &ModifyDnHandler{ms}
}

func (m *ModifyDnHandler) RequestTag() ber.Tag {
	return ModifyDnRequestTag
}

func (m *ModifyDnHandler) Handle(ctx context.Context, session *core.Session, w io.Writer, msg LdapMsg) error {
	logger.Print("in modify dn request")

	_, req, ok := msg.Request.Chosen()
	if !ok {
		return writeResponse(w, NewResultMsg(ModifyDnResponseTag, msg.MessageId, d.ProtocolError, "", "could not get modify dn req choice"))
	}

	mr, ok := req.(*ModifyDnRequest)
	if !ok {
		return writeResponse(w, NewResultMsg(ModifyDnResponseTag, msg.MessageId, d.ProtocolError, "",
			"expected *ModifyDnRequest, got %s", reflect.TypeOf(req)))
	}

	if err := m.ms.ModifyEntryDn(session, mr); err != nil {
		rc, matched, diag := resultFromErr(err)
		return writeResponse(w, NewResultMsg(ModifyDnResponseTag, msg.MessageId, rc, matched, "%s", diag))
	}

	logger.Printf("modified dn entry: %s", mr.Dn())
	return writeResponse(w, NewResultMsg(ModifyDnResponseTag, msg.MessageId, d.Success, "", "modified entry at %s", mr.Dn()))
}
