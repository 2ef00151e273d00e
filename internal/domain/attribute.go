package domain

import (
	"fmt"
	"strings"

	"ldapcore/internal/util"
)

var (
	ObjectClassAttribute = NewAttributeBuilder().
		SetOid("2.5.4.0").
		AddNames("objectClass").
		SetEqRule(*GetMatchingRuleUnchecked("objectIdentifierMatch")).
		SetSyntax(util.Unwrap(GetSyntax("1.3.6.1.4.1.1466.115.121.1.38")), 0).
		Build()
	// TODO
	// creatorsName
	// createTimestamp
	// modifiersName
	// modifyTimestamp
	// struturalObjectClass
	// governingStructureRule

	// altServer
	// namingContexts
	// supportedControl
	// supportedExtensions
	// supportedFeatures
	// supportedLDAPVersion
	// supportedSASLMechanism
)

type UsageType int

const (
	UserApplications UsageType = iota
	DirectoryOperations
	DistributedOperation
	DsaOperation
)

func NewUsage(usage string) (UsageType, error) {
	switch usage {
	case "userApplications":
		return UserApplications, nil
	case "directoryOperation":
		return DirectoryOperations, nil
	case "distributedOperation":
		return DistributedOperation, nil
	case "dSAOperation":
		return DsaOperation, nil
	}

	return UserApplications, fmt.Errorf("unknown usage type: %s", usage)
}

func (u UsageType) String() string {
	switch u {
	case UserApplications:
		return "userApplications"
	case DirectoryOperations:
		return "directoryOperation"
	case DistributedOperation:
		return "distributedOperation"
	case DsaOperation:
		return "dsaOperation"
	default:
		return "unknown usage"
	}
}

type Attribute struct {
	numericoid                       OID
	names                            map[string]struct{}
	friendlyName                     string
	desc                             string
	obsolete                         bool
	sup                              *Attribute
	eqRule, ordRule, subStrRule      MatchingRule
	syntax                           Syntax
	syntaxLen                        int // max length the value can contain
	singleVal, collective, noUserMod bool
	usage                            UsageType
	// TODO extensions
	// extensions                       string
}

type AttributeBuilder struct {
	a      Attribute
	supOid OID
}

func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		a: Attribute{
			names: map[string]struct{}{},
		},
	}
}

func (b *AttributeBuilder) SetOid(numericoid OID) *AttributeBuilder {
	b.a.numericoid = numericoid
	return b
}

func (b *AttributeBuilder) AddNames(name ...string) *AttributeBuilder {
	for _, n := range name {
		if b.a.friendlyName == "" || len(b.a.friendlyName) > len(n) {
			b.a.friendlyName = n
		}
		b.a.names[n] = struct{}{}
	}
	return b
}

func (b *AttributeBuilder) SetDesc(desc string) *AttributeBuilder {
	b.a.desc = desc
	return b
}

func (b *AttributeBuilder) SetObsolete(o bool) *AttributeBuilder {
	b.a.obsolete = o
	return b
}

func (b *AttributeBuilder) SetSupOid(supOid OID) *AttributeBuilder {
	b.supOid = supOid
	return b
}

func (b *AttributeBuilder) SetSup(sup *Attribute) *AttributeBuilder {
	b.a.sup = sup
	return b
}

func (b *AttributeBuilder) SetEqRule(rule MatchingRule) *AttributeBuilder {
	b.a.eqRule = rule
	return b
}

func (b *AttributeBuilder) SetOrdRule(rule MatchingRule) *AttributeBuilder {
	b.a.ordRule = rule
	return b
}

func (b *AttributeBuilder) SetSubStrRule(rule MatchingRule) *AttributeBuilder {
	b.a.subStrRule = rule
	return b
}

func (b *AttributeBuilder) SetSyntax(syntax Syntax, len int) *AttributeBuilder {
	b.a.syntax = syntax
	b.a.syntaxLen = len
	return b
}

func (b *AttributeBuilder) SetSyntaxLength(len int) *AttributeBuilder {
	b.a.syntaxLen = len
	return b
}

func (b *AttributeBuilder) SetSingleVal(s bool) *AttributeBuilder {
	b.a.singleVal = s
	return b
}

func (b *AttributeBuilder) SetCollective(c bool) *AttributeBuilder {
	b.a.collective = c
	return b
}

func (b *AttributeBuilder) SetNoUserMod(n bool) *AttributeBuilder {
	b.a.noUserMod = n
	return b
}

func (b *AttributeBuilder) SetUsage(usage UsageType) *AttributeBuilder {
	b.a.usage = usage
	return b
}

func (b *AttributeBuilder) Resolve(attrs map[OID]*Attribute) error {
	if b.supOid == "" {
		return nil
	}

	attr, ok := attrs[b.supOid]
	if ok {
		b.SetSup(attr)
		return nil
	}

	// TODO could speed this up, also could be oid but that case is not handled yet
	for _, attr := range attrs {
		if attr.HasName(string(b.supOid)) {
			b.SetSup(attr)
			return nil
		}
	}

	return fmt.Errorf("Unknown attribute oid %s", b.supOid)
}

func (b *AttributeBuilder) Build() *Attribute {
	return &b.a
}

func (a *Attribute) Oid() OID {
	return a.numericoid
}

func (a *Attribute) Name() string {
	if a.friendlyName != "" {
		return a.friendlyName
	}
	return string(a.numericoid)
}

func (a *Attribute) HasName(name string) bool {
	_, ok := a.names[name]
	return ok
}

func (a *Attribute) Syntax() (Syntax, int, bool) {
	var zero Syntax
	for a != nil {
		if !a.syntax.Eq(zero) {
			return a.syntax, a.syntaxLen, true
		}
		a = a.sup
	}

	return zero, 0, false
}

func (a *Attribute) EqRule() (MatchingRule, bool) {
	var zero MatchingRule
	// if the current attribute does not have an eq rule, the sup(s) might
	for a != nil {
		if !a.eqRule.Eq(zero) {
			return a.eqRule, true
		}
		a = a.sup
	}
	return zero, false
}

func (a *Attribute) SingleVal() bool {
	return a.singleVal
}

func (a *Attribute) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Numericoid: %q\n", string(a.numericoid))
	sb.WriteString("Names:")
	for n := range a.names {
		fmt.Fprintf(&sb, " %q", n)
	}
	fmt.Fprintf(&sb, "\nDesc: %q\n", a.desc)
	fmt.Fprintf(&sb, "Obsolete: %t\n", a.obsolete)
	sb.WriteString("Sup Oid: ")
	if a.sup != nil {
		fmt.Fprintf(&sb, " %q", string(a.sup.Oid()))
	}
	sb.WriteRune('\n')

	var zero MatchingRule
	sb.WriteString("Eq Rule: ")
	if !a.eqRule.Eq(zero) {
		fmt.Fprintf(&sb, " %q", string(a.eqRule.Syntax()))
	}
	sb.WriteRune('\n')

	sb.WriteString("Ord Rule: ")
	if !a.ordRule.Eq(zero) {
		fmt.Fprintf(&sb, " %q", string(a.ordRule.Syntax()))
	}
	sb.WriteRune('\n')

	sb.WriteString("Substr Rule: ")
	if !a.subStrRule.Eq(zero) {
		fmt.Fprintf(&sb, " %q", string(a.subStrRule.Syntax()))
	}
	sb.WriteRune('\n')

	fmt.Fprintf(&sb, "Syntax: %q\n", a.syntax.numericoid)
	fmt.Fprintf(&sb, "Syntax len: %d\n", a.syntaxLen)
	fmt.Fprintf(&sb, "Single val: %t\n", a.singleVal)
	fmt.Fprintf(&sb, "Collective: %t\n", a.collective)
	fmt.Fprintf(&sb, "NoUserMod: %t\n", a.noUserMod)
	fmt.Fprintf(&sb, "Usage: %q\n", a.usage)

	return sb.String()
}

func AttributesAreEqual(a1, a2 *Attribute) error {
	if a1 == nil && a2 == nil {
		return nil
	}

	if a1 == nil {
		return fmt.Errorf("first attribute is nil")
	}

	if a2 == nil {
		return fmt.Errorf("second attribute is nil")
	}

	switch {
	case a1.numericoid != a2.numericoid:
		return fmt.Errorf("numericoids do not match")
	case !util.CmpMapKeys(a1.names, a2.names):
		return fmt.Errorf("names dont match")
	case a1.desc != a2.desc:
		return fmt.Errorf("descs dont match")
	case a1.obsolete != a2.obsolete:
		return fmt.Errorf("obsoletes dont match")

	case a1.eqRule.numericoid != a2.eqRule.numericoid:
		return fmt.Errorf("eqRules dont match, %v\n%v", a1.eqRule, a2.eqRule)
	case a1.ordRule.numericoid != a2.ordRule.numericoid:
		return fmt.Errorf("ordRules dont match")
	case a1.subStrRule.numericoid != a2.subStrRule.numericoid:
		return fmt.Errorf("subStrRules dont match")
	case !a1.syntax.Eq(a2.syntax):
		return fmt.Errorf("syntaxes dont match")
	case a1.syntaxLen != a2.syntaxLen:
		return fmt.Errorf("syntaxe lens dont match")
	case a1.singleVal != a2.singleVal:
		return fmt.Errorf("single vals dont match")
	case a1.collective != a2.collective:
		return fmt.Errorf("collectives dont match")
	case a1.noUserMod != a2.noUserMod:
		return fmt.Errorf("noUserMods dont match")
	case a1.usage != a2.usage:
		return fmt.Errorf("usages dont match")
	}

	if a1.sup == nil && a2.sup == nil {
		return nil
	}

	if a1.sup == nil || a2.sup == nil {
		return fmt.Errorf("sups dont match")
	}

	if a1.sup.numericoid != a2.sup.numericoid { // TODO nil checking??
		return fmt.Errorf("sups dont match")
	}

	return nil
}

