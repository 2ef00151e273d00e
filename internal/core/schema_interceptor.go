package core

import d "ldapcore/internal/domain"

const SchemaInterceptorName = "schema"

// SchemaInterceptor validates an entry's attributes against its object
// classes' must/may lists before letting an Add or Modify reach the
// partition. Add validates the whole incoming entry; Modify validates
// the entry that would result from applying the op, fetched via lookup
// so a rejected change never touches the stored copy.
type SchemaInterceptor struct {
	BaseInterceptor
	schema *d.Schema
	lookup func(d.DN) (*d.Entry, error)
}

func NewSchemaInterceptor(schema *d.Schema, lookup func(d.DN) (*d.Entry, error)) *SchemaInterceptor {
	return &SchemaInterceptor{
		BaseInterceptor: NewBaseInterceptor(SchemaInterceptorName),
		schema:          schema,
		lookup:          lookup,
	}
}

func (s *SchemaInterceptor) Add(ctx *AddContext, next func(*AddContext) error) error {
	if err := s.schema.ValidateEntry(ctx.Entry); err != nil {
		return err
	}
	return next(ctx)
}

func (s *SchemaInterceptor) Modify(ctx *ModifyContext, next func(*ModifyContext) error) error {
	entry, err := s.lookup(ctx.DN)
	if err != nil {
		return err
	}

	preview := entry.Clone()
	for _, op := range ctx.Ops {
		if err := op(preview); err != nil {
			return err
		}
	}
	if err := s.schema.ValidateEntry(preview); err != nil {
		return err
	}

	return next(ctx)
}
