package core

import d "ldapcore/internal/domain"

// Result is a sum type of a successful payload, a referral the caller
// must follow, or a typed LDAP failure. The interceptor chain does not
// use it: its stages return (T, error), with a referral reported as a
// d.ReferralError. Unwrap converts a Result into that same shape.
type Result[T any] struct {
	ok       T
	hasOk    bool
	referral *d.ReferralError
	err      *d.LdapError
}

func Ok[T any](v T) Result[T] {
	return Result[T]{ok: v, hasOk: true}
}

func Referral[T any](urls []string, matchedDN string) Result[T] {
	return Result[T]{referral: &d.ReferralError{URLs: urls, MatchedDN: matchedDN}}
}

func Err[T any](e d.LdapError) Result[T] {
	return Result[T]{err: &e}
}

func (r Result[T]) IsOk() bool {
	return r.hasOk
}

func (r Result[T]) IsReferral() bool {
	return r.referral != nil
}

func (r Result[T]) IsErr() bool {
	return r.err != nil
}

func (r Result[T]) Value() T {
	return r.ok
}

func (r Result[T]) ReferralError() *d.ReferralError {
	return r.referral
}

// Unwrap collapses the variant back into the (T, error) shape the rest
// of the codebase uses, for call sites that don't need to distinguish
// a referral from any other failure.
func (r Result[T]) Unwrap() (T, error) {
	if r.hasOk {
		return r.ok, nil
	}
	if r.referral != nil {
		var zero T
		return zero, *r.referral
	}
	var zero T
	return zero, *r.err
}
