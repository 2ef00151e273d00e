package server

import (
	d "ldapcore/internal/domain"
	"ldapcore/pkg/ber"
)

// Application-class LDAP message tags, per RFC 4511 section 4.1.1. The
// ber.Choice machinery only ever compares a tag's Value when picking a
// branch, so the Value alone has to be unique within LdapMsgChoice.
var (
	BindRequestTag       = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 0}
	BindResponseTag      = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 1}
	UnbindRequestTag     = ber.Tag{Class: ber.Application, Construct: ber.Primitive, Value: 2}
	SearchRequestTag     = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 3}
	SearchResultEntryTag = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 4}
	SearchResultDoneTag  = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 5}
	ModifyRequestTag     = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 6}
	ModifyResponseTag    = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 7}
	AddRequestTag        = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 8}
	AddResponseTag       = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 9}
	DelRequestTag        = ber.Tag{Class: ber.Application, Construct: ber.Primitive, Value: 10}
	DelResponseTag       = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 11}
	ModifyDnRequestTag   = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 12}
	ModifyDnResponseTag  = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 13}
	CompareRequestTag        = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 14}
	CompareResponseTag       = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 15}
	SearchResultReferenceTag = ber.Tag{Class: ber.Application, Construct: ber.Constructed, Value: 19}
)

// LdapMsgChoice enumerates every protocol operation this server speaks.
// Decoding picks a branch off the wire tag; encoding sets one explicitly
// with ber.NewChosen.
type LdapMsgChoice struct {
	BindRequest       BindRequest       `ber:"class=application,cons=constructed,val=0"`
	BindResponse      LdapResult        `ber:"class=application,cons=constructed,val=1"`
	UnbindRequest     string            `ber:"class=application,cons=primitive,val=2"`
	SearchRequest     SearchRequest     `ber:"class=application,cons=constructed,val=3"`
	SearchResultEntry SearchResultEntry `ber:"class=application,cons=constructed,val=4"`
	SearchResultDone  LdapResult        `ber:"class=application,cons=constructed,val=5"`
	ModifyRequest     ModifyRequest     `ber:"class=application,cons=constructed,val=6"`
	ModifyResponse    LdapResult        `ber:"class=application,cons=constructed,val=7"`
	AddRequest        AddRequest        `ber:"class=application,cons=constructed,val=8"`
	AddResponse       LdapResult        `ber:"class=application,cons=constructed,val=9"`
	DelRequest        string            `ber:"class=application,cons=primitive,val=10"`
	DelResponse       LdapResult        `ber:"class=application,cons=constructed,val=11"`
	ModifyDnRequest   ModifyDnRequest   `ber:"class=application,cons=constructed,val=12"`
	ModifyDnResponse  LdapResult        `ber:"class=application,cons=constructed,val=13"`
	CompareRequest        CompareRequest `ber:"class=application,cons=constructed,val=14"`
	CompareResponse       LdapResult     `ber:"class=application,cons=constructed,val=15"`
	SearchResultReference []string       `ber:"class=application,cons=constructed,val=19"`
}

type LdapMsg struct {
	MessageId int
	Request   *ber.Choice[LdapMsgChoice]
	Controls  *ber.Optional[[]byte] `ber:"class=context-specific,cons=constructed,val=0"`
}

// LdapResult is the common shape shared by every response PDU: a
// result code, the DN matched so far on a failure, a diagnostic
// message, and an optional set of referral URLs.
type LdapResult struct {
	ResultCode        d.ResultCode `ber:"class=universal,cons=primitive,val=10"` // enumerated
	MatchedDN         string
	DiagnosticMessage string
	Referral          *ber.Optional[[]string] `ber:"class=context-specific,cons=constructed,val=3"`
}
