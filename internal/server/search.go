package server

import (
	"context"
	"io"
	"reflect"
	"strings"

	core "ldapcore/internal/core"
	d "ldapcore/internal/domain"
	"ldapcore/pkg/ber"
)

// FilterChoices covers the two search filter kinds the wire layer
// understands: presence and equality match. The domain's filter
// combinators (FilterAnd, FilterOr, FilterNot) are fully implemented
// and exercised against the partition directly, but composite filter
// CHOICEs (and/or/not/substrings) are not decoded off the wire - see
// DESIGN.md.
type FilterChoices struct {
	Equality AttributeValueAssertion `ber:"class=context-specific,cons=constructed,val=3"`
	Present  string                  `ber:"class=context-specific,cons=primitive,val=7"`
}

type SearchRequest struct {
	BaseObject   string
	Scope        int `ber:"class=universal,cons=primitive,val=10"` // enumerated
	DerefAliases int `ber:"class=universal,cons=primitive,val=10"` // enumerated
	SizeLimit    int
	TimeLimit    int
	TypesOnly    bool
	Filter       *ber.Choice[FilterChoices]
	Attributes   []string
}

func (r SearchRequest) scope() (d.SearchScope, error) {
	switch r.Scope {
	case 0:
		return d.BaseObject, nil
	case 1:
		return d.SingleLevel, nil
	case 2:
		return d.WholeSubtree, nil
	default:
		return 0, d.ErrUnknownScope
	}
}

func (r SearchRequest) filter(schema *d.Schema) (d.Filter, error) {
	if r.Filter == nil {
		return d.AnyFilter, nil
	}

	_, v, ok := r.Filter.Chosen()
	if !ok {
		return d.AnyFilter, nil
	}

	switch f := v.(type) {
	case *AttributeValueAssertion:
		attr, ok := schema.FindAttribute(f.AttributeDesc)
		if !ok {
			return nil, d.NewLdapError(d.UndefinedAttributeType, nil, "unknown attribute %q", f.AttributeDesc)
		}
		return d.NewEqualityFilter(attr, f.AssertionValue), nil
	case *string:
		attr, ok := schema.FindAttribute(*f)
		if !ok {
			return nil, d.NewLdapError(d.UndefinedAttributeType, nil, "unknown attribute %q", *f)
		}
		return d.NewPresenceFilter(attr), nil
	default:
		return nil, d.NewLdapError(d.ProtocolError, nil, "unsupported filter type %s", reflect.TypeOf(v))
	}
}

// SearchResultEntry is one match, encoded as its own message ahead of
// the terminal SearchResultDone.
type SearchResultEntry struct {
	ObjectName string
	Attributes []PartialAttribute
}

func newSearchResultEntry(entry *d.Entry, requested []string) SearchResultEntry {
	wanted := map[string]struct{}{}
	for _, name := range requested {
		wanted[strings.ToLower(name)] = struct{}{}
	}

	pas := make([]PartialAttribute, 0, len(entry.Attrs()))
	for attr, vals := range entry.Attrs() {
		if len(wanted) > 0 {
			if _, ok := wanted[strings.ToLower(attr.Name())]; !ok {
				continue
			}
		}
		pas = append(pas, newPartialAttribute(attr.Name(), vals...))
	}

	entryDN := entry.Dn()
	return SearchResultEntry{
		ObjectName: entryDN.String(),
		Attributes: pas,
	}
}

func newSearchResultEntryMsg(msgId int, entry *d.Entry, requested []string) LdapMsg {
	return LdapMsg{
		MessageId: msgId,
		Request:   ber.NewChosen[LdapMsgChoice](SearchResultEntryTag, newSearchResultEntry(entry, requested)),
	}
}

// newSearchResultReferenceMsg wraps a continuation reference's URLs per
// RFC 4511 section 4.5.2 - its own message kind, not a SearchResultEntry.
func newSearchResultReferenceMsg(msgId int, urls []string) LdapMsg {
	return LdapMsg{
		MessageId: msgId,
		Request:   ber.NewChosen[LdapMsgChoice](SearchResultReferenceTag, urls),
	}
}

type SearchHandler struct {
	schema *d.Schema
	svc    *core.DirectoryService
}

func NewSearchHandler(schema *d.Schema, svc *core.DirectoryService) *SearchHandler {
	return &SearchHandler{schema, svc}
}

func (h *SearchHandler) RequestTag() ber.Tag {
	return SearchRequestTag
}

func (h *SearchHandler) Handle(ctx context.Context, session *core.Session, w io.Writer, msg LdapMsg) error {
	logger.Print("in search request")

	_, req, ok := msg.Request.Chosen()
	if !ok {
		return writeResponse(w, NewResultMsg(SearchResultDoneTag, msg.MessageId, d.ProtocolError, "", "could not get choice for search request"))
	}

	sr, ok := req.(*SearchRequest)
	if !ok {
		return writeResponse(w, NewResultMsg(SearchResultDoneTag, msg.MessageId, d.ProtocolError, "",
			"expected *SearchRequest, got %s", reflect.TypeOf(req)))
	}

	base, err := d.NormaliseDN(h.schema, sr.BaseObject)
	if err != nil {
		rc, matched, diag := resultFromErr(err)
		return writeResponse(w, NewResultMsg(SearchResultDoneTag, msg.MessageId, rc, matched, "%s", diag))
	}

	scope, err := sr.scope()
	if err != nil {
		return writeResponse(w, NewResultMsg(SearchResultDoneTag, msg.MessageId, d.ProtocolError, "", "%s", err))
	}

	filter, err := sr.filter(h.schema)
	if err != nil {
		rc, matched, diag := resultFromErr(err)
		return writeResponse(w, NewResultMsg(SearchResultDoneTag, msg.MessageId, rc, matched, "%s", diag))
	}

	cur, err := h.svc.Search(session, base, scope, filter)
	if err != nil {
		rc, matched, diag := resultFromErr(err)
		return writeResponse(w, NewResultMsg(SearchResultDoneTag, msg.MessageId, rc, matched, "%s", diag))
	}
	defer cur.Close()

	count := 0
	for ok, err := cur.First(); ok; ok, err = cur.Next() {
		if err != nil {
			rc, matched, diag := resultFromErr(err)
			return writeResponse(w, NewResultMsg(SearchResultDoneTag, msg.MessageId, rc, matched, "%s", diag))
		}
		entry, err := cur.Get()
		if err != nil {
			rc, matched, diag := resultFromErr(err)
			return writeResponse(w, NewResultMsg(SearchResultDoneTag, msg.MessageId, rc, matched, "%s", diag))
		}
		if core.IsReferralEntry(h.schema, entry) {
			if refAttr, ok := h.schema.FindAttribute("ref"); ok {
				if err := writeResponse(w, newSearchResultReferenceMsg(msg.MessageId, entry.AttrValues(refAttr))); err != nil {
					return err
				}
				count++
				continue
			}
		}
		if err := writeResponse(w, newSearchResultEntryMsg(msg.MessageId, entry, sr.Attributes)); err != nil {
			return err
		}
		count++
	}

	logger.Printf("search returned %d entries", count)
	return writeResponse(w, NewResultMsg(SearchResultDoneTag, msg.MessageId, d.Success, "", "search complete"))
}
