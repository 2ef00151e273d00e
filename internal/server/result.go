package server

import (
	"errors"
	"fmt"
	"io"

	d "ldapcore/internal/domain"
	"ldapcore/pkg/ber"
)

// NewResultMsg builds a response LdapMsg carrying a single LdapResult,
// tagged as respTag, in reply to the request with the given message id.
func NewResultMsg(respTag ber.Tag, msgId int, rc d.ResultCode, matchedDn, format string, a ...any) LdapMsg {
	res := LdapResult{
		ResultCode:        rc,
		MatchedDN:         matchedDn,
		DiagnosticMessage: fmt.Sprintf(format, a...),
	}
	return LdapMsg{
		MessageId: msgId,
		Request:   ber.NewChosen[LdapMsgChoice](respTag, res),
	}
}

// NewReferralMsg builds a response carrying a referral result code and
// the URLs a client should follow instead.
func NewReferralMsg(respTag ber.Tag, msgId int, matchedDn string, urls []string) LdapMsg {
	res := LdapResult{
		ResultCode:        d.Referral,
		MatchedDN:         matchedDn,
		DiagnosticMessage: "",
		Referral:          ber.NewOptional(urls),
	}
	return LdapMsg{
		MessageId: msgId,
		Request:   ber.NewChosen[LdapMsgChoice](respTag, res),
	}
}

// resultFromErr converts an error returned by a core.DirectoryService
// call into the LdapResult a wire response should carry. It never
// widens a protocol-defined error to an opaque "other" - unrecognized
// errors become operationsError so the diagnostic message is still
// visible to the caller.
func resultFromErr(err error) (rc d.ResultCode, matchedDn, diag string) {
	var lerr d.LdapError
	if errors.As(err, &lerr) {
		return lerr.ResultCode, lerr.MatchedDN, lerr.DiagnosticMessage
	}

	var rerr d.ReferralError
	if errors.As(err, &rerr) {
		return d.Referral, rerr.MatchedDN, rerr.Error()
	}

	return d.OperationsError, "", err.Error()
}

func writeResponse(w io.Writer, msg LdapMsg) error {
	_, err := ber.Encode(w, msg)
	return err
}
