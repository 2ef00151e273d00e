package domain

type OID string

type SchemaObject interface {
	Oid() OID
}

type Schema struct {
	attributes map[OID]*Attribute
	objClasses map[OID]*ObjectClass
}

func NewSchema(attrs map[OID]*Attribute, objClasses map[OID]*ObjectClass) *Schema {
	return &Schema{
		attributes: attrs,
		objClasses: objClasses,
	}
}

// TODO probably need name or oid
func (s *Schema) FindAttribute(name string) (*Attribute, bool) {
	if name == "objectClass" {
		return ObjectClassAttribute, true
	}

	for _, a := range s.attributes {
		if _, ok := a.names[name]; ok {
			return a, true
		}
	}

	return nil, false
}

func (s *Schema) FindObjectClass(name string) (*ObjectClass, bool) {
	if name == "top" {
		return TopObjectClass, true
	}

	for _, o := range s.objClasses {
		if _, ok := o.names[name]; ok {
			return o, true
		}
	}

	return nil, false
}

// gatherMustMay walks an object class's sup chain (including top) and
// collects every must/may attribute reachable from it.
func gatherMustMay(oc *ObjectClass, must, may map[OID]*Attribute) {
	for oid, a := range oc.mustAttrs {
		must[oid] = a
	}
	for oid, a := range oc.mayAttrs {
		may[oid] = a
	}
	for _, sup := range oc.sups {
		gatherMustMay(sup, must, may)
	}
}

// ValidateEntry checks that an entry has exactly one structural object
// class and that its attributes satisfy the must/may sets of its
// structural class, its auxiliary classes, and their sup chains.
func (s *Schema) ValidateEntry(e *Entry) error {
	if e.structural == nil {
		return NewLdapError(ObjectClassViolation, nil, "entry %s has no structural object class", e.dn)
	}

	must := map[OID]*Attribute{}
	may := map[OID]*Attribute{}
	gatherMustMay(e.structural, must, may)
	gatherMustMay(TopObjectClass, must, may)

	for oc := range e.auxiliary {
		gatherMustMay(oc, must, may)
	}

	for oid, attr := range must {
		if oid == ObjectClassAttribute.Oid() {
			// object classes are held in e.structural/e.auxiliary, checked above
			continue
		}
		if _, ok := e.attrs[attr]; !ok {
			return NewLdapError(ObjectClassViolation, nil, "entry %s is missing required attribute %s", e.dn, oid)
		}
	}

	for attr := range e.attrs {
		_, okMust := must[attr.numericoid]
		_, okMay := may[attr.numericoid]
		if !okMust && !okMay {
			return NewLdapError(ObjectClassViolation, nil, "attribute %s is not permitted by entry %s's object classes", attr.Oid(), e.dn)
		}
	}

	return nil
}
