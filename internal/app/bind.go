package app

import (
	"log"
	"os"

	core "ldapcore/internal/core"
	d "ldapcore/internal/domain"
)

var bindLogger = log.New(os.Stderr, "bindService: ", log.Lshortfile)

type BindRequest interface {
	Dn() string
	Version() int
	Simple() (string, bool)
	SaslMechanism() (string, bool)
	SaslCredentials() (string, bool)
}

type BindService interface {
	Bind(session *core.Session, br BindRequest) (*d.Entry, error)
}

type bindService struct {
	schema *d.Schema
	svc    *core.DirectoryService
}

func NewBindService(schema *d.Schema, svc *core.DirectoryService) BindService {
	bindLogger.Print("creating new bind service")
	return &bindService{schema, svc}
}

func (b *bindService) Bind(session *core.Session, br BindRequest) (*d.Entry, error) {
	if br.Version() != 3 {
		return nil, d.NewLdapError(
			d.ProtocolError,
			nil,
			"expected bind request to be version 3, not %d", br.Version(),
		)
	}

	if simple, ok := br.Simple(); ok {
		return b.authenticateSimple(session, br.Dn(), simple)
	}

	return nil, d.NewLdapError(d.AuthMethodNotSupported, nil, "sasl or unknown method not supported")
}

func (b *bindService) authenticateSimple(session *core.Session, entryDn string, simple string) (*d.Entry, error) {
	dn, err := d.NormaliseDN(b.schema, entryDn)
	if err != nil {
		bindLogger.Print(err)
		return nil, err
	}

	entry, err := b.svc.Bind(session, dn, simple)
	if err != nil {
		return nil, err
	}

	return entry, nil
}
