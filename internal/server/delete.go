package server

import (
	"context"
	"io"

	core "ldapcore/internal/core"
	d "ldapcore/internal/domain"
	"ldapcore/pkg/ber"
)

// DeleteHandler implements the del operation. The request is a bare
// LDAPDN (an OCTET STRING tagged application 10), so there is no
// separate wire request type to decode into - the chosen value is
// already the string.
type DeleteHandler struct {
	schema *d.Schema
	svc    *core.DirectoryService
}

func NewDeleteHandler(schema *d.Schema, svc *core.DirectoryService) *DeleteHandler {
	return &DeleteHandler{schema, svc}
}

func (h *DeleteHandler) RequestTag() ber.Tag {
	return DelRequestTag
}

func (h *DeleteHandler) Handle(ctx context.Context, session *core.Session, w io.Writer, msg LdapMsg) error {
	logger.Print("in delete request")

	_, req, ok := msg.Request.Chosen()
	if !ok {
		return writeResponse(w, NewResultMsg(DelResponseTag, msg.MessageId, d.ProtocolError, "", "could not get choice for delete request"))
	}

	entryDn, ok := req.(*string)
	if !ok {
		return writeResponse(w, NewResultMsg(DelResponseTag, msg.MessageId, d.ProtocolError, "", "expected delete request to be a string dn"))
	}

	dn, err := d.NormaliseDN(h.schema, *entryDn)
	if err != nil {
		rc, matched, diag := resultFromErr(err)
		return writeResponse(w, NewResultMsg(DelResponseTag, msg.MessageId, rc, matched, "%s", diag))
	}

	if err := h.svc.Delete(session, dn); err != nil {
		rc, matched, diag := resultFromErr(err)
		return writeResponse(w, NewResultMsg(DelResponseTag, msg.MessageId, rc, matched, "%s", diag))
	}

	logger.Printf("deleted entry: %s", *entryDn)
	return writeResponse(w, NewResultMsg(DelResponseTag, msg.MessageId, d.Success, "", "deleted entry at %s", *entryDn))
}
