package partition

import (
	d "ldapcore/internal/domain"
	"ldapcore/internal/util"
)

/*
Test DIT structure, rooted at dc=dev:

| dc=dev
--| dc=georgiboy
----| cn=Test1
----| ou=TestOu
------| cn=Test2
------| cn=Test3
*/
func NewTestPartition(schema *d.Schema) *MemoryPartition {
	attrs := map[string]*d.Attribute{}
	for _, name := range []string{"dc", "ou", "cn", "sn", "userPassword"} {
		a, ok := schema.FindAttribute(name)
		if !ok {
			logger.Panicf("could not find attribute %q in schema", name)
		}
		attrs[name] = a
	}

	objClasses := map[string]*d.ObjectClass{}
	for _, name := range []string{"dcObject", "person", "organizationalUnit"} {
		o, ok := schema.FindObjectClass(name)
		if !ok {
			logger.Panicf("could not find object class %q in schema", name)
		}
		objClasses[name] = o
	}

	dcDevDn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev").Build()
	dcDev := newNode(nil, util.Unwrap(d.NewEntry(schema, dcDevDn,
		d.WithStructural(objClasses["dcObject"]),
		d.WithEntryAttr(attrs["dc"], "dev"),
	)))

	dcGeorgiboyDn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev", "georgiboy").Build()
	dcGeorgiboy := newNode(dcDev, util.Unwrap(d.NewEntry(schema, dcGeorgiboyDn,
		d.WithStructural(objClasses["dcObject"]),
		d.WithEntryAttr(attrs["dc"], "georgiboy"),
	)))

	ouTestOuDn := d.NewDnBuilder().
		AddNamingContext(attrs["dc"], "dev", "georgiboy").
		AddAvaAsRdn(attrs["ou"], "TestOu").
		Build()
	ouTestOu := newNode(dcGeorgiboy, util.Unwrap(d.NewEntry(schema, ouTestOuDn,
		d.WithStructural(objClasses["organizationalUnit"]),
		d.WithEntryAttr(attrs["ou"], "TestOu"),
	)))

	cnTest1Dn := d.NewDnBuilder().
		AddNamingContext(attrs["dc"], "dev", "georgiboy").
		AddAvaAsRdn(attrs["cn"], "Test1").
		Build()
	cnTest1 := newNode(dcGeorgiboy, util.Unwrap(d.NewEntry(schema, cnTest1Dn,
		d.WithStructural(objClasses["person"]),
		d.WithEntryAttr(attrs["cn"], "Test1"),
		d.WithEntryAttr(attrs["sn"], "One"),
		d.WithEntryAttr(attrs["sn"], "One-Two"),
		d.WithEntryAttr(attrs["sn"], "Tester"),
		d.WithEntryAttr(attrs["userPassword"], "password123"),
	)))

	cnTest2Dn := d.NewDnBuilder().
		AddNamingContext(attrs["dc"], "dev", "georgiboy").
		AddAvaAsRdn(attrs["ou"], "TestOu").AddAvaAsRdn(attrs["cn"], "Test2").
		Build()
	cnTest2 := newNode(ouTestOu, util.Unwrap(d.NewEntry(schema, cnTest2Dn,
		d.WithStructural(objClasses["person"]),
		d.WithEntryAttr(attrs["cn"], "Test2"),
		d.WithEntryAttr(attrs["sn"], "Tester"),
	)))

	cnTest3Dn := d.NewDnBuilder().
		AddNamingContext(attrs["dc"], "dev", "georgiboy").
		AddAvaAsRdn(attrs["ou"], "TestOu").AddAvaAsRdn(attrs["cn"], "Test3").
		Build()
	cnTest3 := newNode(ouTestOu, util.Unwrap(d.NewEntry(schema, cnTest3Dn,
		d.WithStructural(objClasses["person"]),
		d.WithEntryAttr(attrs["cn"], "Test3"),
		d.WithEntryAttr(attrs["sn"], "Tester"),
	)))

	ouTestOu.addChildNode(cnTest2)
	ouTestOu.addChildNode(cnTest3)
	dcGeorgiboy.addChildNode(cnTest1)
	dcGeorgiboy.addChildNode(ouTestOu)
	dcDev.addChildNode(dcGeorgiboy)

	return &MemoryPartition{suffix: dcDevDn, schema: schema, root: dcDev, sched: NewScheduler()}
}
