package server

import (
	"context"
	"io"
	"reflect"

	core "ldapcore/internal/core"
	d "ldapcore/internal/domain"
	"ldapcore/pkg/ber"
)

type AttributeValueAssertion struct {
	AttributeDesc  string
	AssertionValue string
}

type CompareRequest struct {
	Entry string
	Ava   AttributeValueAssertion
}

type CompareHandler struct {
	schema *d.Schema
	svc    *core.DirectoryService
}

func NewCompareHandler(schema *d.Schema, svc *core.DirectoryService) *CompareHandler {
	return &CompareHandler{schema, svc}
}

func (h *CompareHandler) RequestTag() ber.Tag {
	return CompareRequestTag
}

func (h *CompareHandler) Handle(ctx context.Context, session *core.Session, w io.Writer, msg LdapMsg) error {
	logger.Print("in compare request")

	_, req, ok := msg.Request.Chosen()
	if !ok {
		return writeResponse(w, NewResultMsg(CompareResponseTag, msg.MessageId, d.ProtocolError, "", "could not get choice for compare request"))
	}

	cr, ok := req.(*CompareRequest)
	if !ok {
		return writeResponse(w, NewResultMsg(CompareResponseTag, msg.MessageId, d.ProtocolError, "",
			"expected *CompareRequest, got %s", reflect.TypeOf(req)))
	}

	dn, err := d.NormaliseDN(h.schema, cr.Entry)
	if err != nil {
		rc, matched, diag := resultFromErr(err)
		return writeResponse(w, NewResultMsg(CompareResponseTag, msg.MessageId, rc, matched, "%s", diag))
	}

	attr, ok := h.schema.FindAttribute(cr.Ava.AttributeDesc)
	if !ok {
		return writeResponse(w, NewResultMsg(CompareResponseTag, msg.MessageId, d.UndefinedAttributeType, "", "unknown attribute %q", cr.Ava.AttributeDesc))
	}

	matched, err := h.svc.Compare(session, dn, attr, cr.Ava.AssertionValue)
	if err != nil {
		rc, matchedDn, diag := resultFromErr(err)
		return writeResponse(w, NewResultMsg(CompareResponseTag, msg.MessageId, rc, matchedDn, "%s", diag))
	}

	rc := d.CompareFalse
	if matched {
		rc = d.CompareTrue
	}
	return writeResponse(w, NewResultMsg(CompareResponseTag, msg.MessageId, rc, "", "compare result: %t", matched))
}
