package domain

type SearchScope int

const (
	BaseObject SearchScope = iota
	SingleLevel
	WholeSubtree
	SubordinateSubtree
)

// TODO Greater/Less or equal, Substring, Approx match, extensible match
type Filter func(*Entry) bool

func FilterAnd(f1, f2 Filter) Filter {
	return func(e *Entry) bool {
		return f1(e) && f2(e)
	}
}

func FilterOr(f1, f2 Filter) Filter {
	return func(e *Entry) bool {
		return f1(e) || f2(e)
	}
}

func FilterNot(f Filter) Filter {
	return func(e *Entry) bool {
		return !f(e)
	}
}

func NewPresenceFilter(target *Attribute) Filter {
	return func(e *Entry) bool {
		return e.HasAttr(target)
	}
}

func NewEqualityFilter(target *Attribute, matchVal string) Filter {
	return func(e *Entry) bool {
		ok, err := e.ContainsAttrVal(target, matchVal)
		return err == nil && ok
	}
}

var AnyFilter Filter = func(*Entry) bool { return true }
