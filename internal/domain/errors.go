package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNodeNotLeaf  = errors.New("node is not a leaf node")
	ErrUnknownScope = errors.New("unknown scope")
)

type ResultCode int

const (
	Success                 ResultCode = 0
	OperationsError         ResultCode = 1
	ProtocolError           ResultCode = 2
	CompareFalse            ResultCode = 5
	CompareTrue             ResultCode = 6
	AuthMethodNotSupported  ResultCode = 7
	NoSuchAttribute         ResultCode = 16
	UndefinedAttributeType  ResultCode = 17
	InappropriateMatching   ResultCode = 18
	InvalidAttributeSyntax  ResultCode = 21
	NoSuchObject            ResultCode = 32
	AliasProblem            ResultCode = 33
	InvalidDnSyntax         ResultCode = 34
	IsLeaf                  ResultCode = 35
	InappropriateAuth       ResultCode = 48
	InvalidCredentials      ResultCode = 49
	InsufficientAccessRight ResultCode = 50
	Busy                    ResultCode = 51
	Unavailable             ResultCode = 52
	UnwillingToPerform      ResultCode = 53
	NamingViolation         ResultCode = 64
	ObjectClassViolation    ResultCode = 65
	NotAllowedOnNonLeaf     ResultCode = 66
	NotAllowedOnRDN         ResultCode = 67
	EntryAlreadyExists      ResultCode = 68
	AffectsMultipleDSAs     ResultCode = 71
	Referral                ResultCode = 10
)

func (rc ResultCode) String() string {
	switch rc {
	case Success:
		return "Success"
	case OperationsError:
		return "OperationsError"
	case ProtocolError:
		return "ProtocolError"
	case CompareFalse:
		return "CompareFalse"
	case CompareTrue:
		return "CompareTrue"
	case AuthMethodNotSupported:
		return "AuthMethodNotSupported"
	case NoSuchAttribute:
		return "NoSuchAttribute"
	case UndefinedAttributeType:
		return "UndefinedAttributeType"
	case InappropriateMatching:
		return "InappropriateMatching"
	case InvalidAttributeSyntax:
		return "InvalidAttributeSyntax"
	case NoSuchObject:
		return "NoSuchObject"
	case AliasProblem:
		return "AliasProblem"
	case InvalidDnSyntax:
		return "InvalidDnSyntax"
	case IsLeaf:
		return "IsLeaf"
	case InappropriateAuth:
		return "InappropriateAuthentication"
	case InvalidCredentials:
		return "InvalidCredentials"
	case InsufficientAccessRight:
		return "InsufficientAccessRights"
	case Busy:
		return "Busy"
	case Unavailable:
		return "Unavailable"
	case UnwillingToPerform:
		return "UnwillingToPerform"
	case NamingViolation:
		return "NamingViolation"
	case ObjectClassViolation:
		return "ObjectClassViolation"
	case NotAllowedOnNonLeaf:
		return "NotAllowedOnNonLeaf"
	case NotAllowedOnRDN:
		return "NotAllowedOnRDN"
	case EntryAlreadyExists:
		return "EntryAlreadyExists"
	case AffectsMultipleDSAs:
		return "AffectsMultipleDSAs"
	case Referral:
		return "Referral"
	default:
		return "unknown result code"
	}
}

// LdapError is the single error kind that crosses the interceptor chain
// boundary for protocol-defined failures. Stages must not widen it to a
// plain error - doing so loses the result code the wire adapter needs.
type LdapError struct {
	ResultCode        ResultCode
	MatchedDN         string
	DiagnosticMessage string
}

func NewLdapError(c ResultCode, matched *string, format string, a ...any) LdapError {
	m := ""
	if matched != nil {
		m = *matched
	}
	return LdapError{
		ResultCode:        c,
		MatchedDN:         m,
		DiagnosticMessage: fmt.Sprintf(format, a...),
	}
}

func (e LdapError) Error() string {
	return fmt.Sprintf("LdapError code: %s (%d), matched: %s, msg: %s", e.ResultCode, e.ResultCode, e.MatchedDN, e.DiagnosticMessage)
}

func (e LdapError) Is(target error) bool {
	lerr, ok := target.(LdapError)
	if !ok {
		return false
	}

	return e.ResultCode == lerr.ResultCode
}

// ReferralError carries the URL set a caller must follow instead of the
// requested operation. It is kept distinct from LdapError because a
// referral is a protocol-defined redirection, not a failure of the
// operation itself.
type ReferralError struct {
	URLs      []string
	MatchedDN string
}

func (e ReferralError) Error() string {
	return fmt.Sprintf("referral at %s: %v", e.MatchedDN, e.URLs)
}

type NodeNotFoundError struct {
	RequestedDN, MatchedDN DN
}

func (e NodeNotFoundError) Error() string {
	return fmt.Sprintf("requested DN: %s, matched up to: %s", e.RequestedDN, e.MatchedDN)
}

// PrependMatchedDN is called on the way back up the recursive node
// lookup, building the matched-DN portion of the error one RDN at a
// time as each enclosing level confirms the rdn it holds did match.
func (e *NodeNotFoundError) PrependMatchedDN(rdn RDN) {
	e.MatchedDN.rdns = append([]RDN{rdn}, e.MatchedDN.rdns...)
}

// Cursor-local failures, kept distinct from LdapError since they never
// cross the wire - only the Cursor contract sees them.
var (
	ErrInvalidCursorPosition = errors.New("invalid cursor position")
	ErrUnsupportedOperation  = errors.New("unsupported cursor operation")
	ErrCursorClosed          = errors.New("cursor closed")
)

// ErrUnrevertable is returned by the change-log when an intermediate
// operation did not record a reverse-op, so revert cannot restore the
// requested revision.
var ErrUnrevertable = errors.New("revision unrevertable")
