package app

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	core "ldapcore/internal/core"
	d "ldapcore/internal/domain"
	"ldapcore/internal/ldif"
	"ldapcore/internal/partition"
	"ldapcore/internal/util"
)

var (
	rootDir  = projectRootDir()
	attrLdif = filepath.Join(rootDir, "ldif/attributes.ldif")
	ocsLdif  = filepath.Join(rootDir, "ldif/objClasses.ldif")
)

func projectRootDir() string {
	_, f, _, ok := runtime.Caller(0)
	if !ok {
		log.Panic("runtime.Caller(0) not ok")
	}

	return filepath.Join(filepath.Dir(f), "../..")
}

// opens attr ldif or panics
func attrLdifFile() *os.File {
	f, err := os.Open(attrLdif)
	if err != nil {
		log.Panicf("couldnt open attr ldif file: %s", attrLdif)
	}
	return f
}

// opens attr ldif or panics
func ocsLdifFile() *os.File {
	f, err := os.Open(ocsLdif)
	if err != nil {
		log.Panicf("couldnt open object class ldif file: %s", ocsLdif)
	}
	return f
}

var schema = util.Unwrap(ldif.LoadSchemaFromReaders(attrLdifFile(), ocsLdifFile()))

// newTestService wires a DirectoryService backed by a single
// registered test partition, returning both so tests can assert
// directly against the tree as well as through the service.
func newTestService(t *testing.T) (*core.DirectoryService, *partition.MemoryPartition) {
	t.Helper()
	p := partition.NewTestPartition(schema)
	svc := core.NewDirectoryService(schema)
	if err := svc.RegisterPartition(p); err != nil {
		t.Fatal(err)
	}
	return svc, p
}

type TestSimpleBindRequest struct {
	dn, simple string
}

func (r TestSimpleBindRequest) Dn() string {
	return r.dn
}

func (r TestSimpleBindRequest) Version() int {
	return 3
}

func (r TestSimpleBindRequest) Simple() (string, bool) {
	return r.simple, true
}

func (r TestSimpleBindRequest) SaslMechanism() (string, bool) {
	return "", false
}

func (r TestSimpleBindRequest) SaslCredentials() (string, bool) {
	return "", false
}

func TestBindService(t *testing.T) {
	svc, p := newTestService(t)
	bs := NewBindService(schema, svc)

	tests := []struct {
		req     BindRequest
		entryDn string
		err     error
	}{
		{
			req:     TestSimpleBindRequest{dn: "cn=Test1,dc=georgiboy,dc=dev", simple: "password123"},
			entryDn: "cn=Test1,dc=georgiboy,dc=dev",
			err:     nil,
		},
		{
			req:     TestSimpleBindRequest{dn: "cn=Test1,dc=georgiboy,dc=dev", simple: "wrong password"},
			entryDn: "cn=Test1,dc=georgiboy,dc=dev",
			err:     d.NewLdapError(d.InvalidCredentials, nil, ""),
		},
	}

	for _, test := range tests {
		session := core.NewSession()
		res, err := bs.Bind(session, test.req)
		if err != nil {
			if test.err == nil {
				t.Fatalf("Bind service returned unexpected error: %s", err)
			}

			if !errors.Is(err, test.err) {
				t.Fatalf("Bind service returned error: %q but expected: %q", err, test.err)
			}

			continue
		}

		if res == nil {
			t.Fatalf("Bind service returned nil entry but expected %q", test.entryDn)
		}

		normDn, err := d.NormaliseDN(schema, test.entryDn)
		if err != nil {
			t.Fatal(err)
		}
		testEntry, err := p.Lookup(normDn)
		if err != nil {
			t.Fatal(err)
		}

		if !testEntry.Dn().Equals(res.Dn()) {
			t.Fatalf("Bind service returned entry %s but expected %s", res.Dn(), testEntry.Dn())
		}
	}
}

type TestAddRequest struct {
	dn    string
	attrs map[string][]string
}

func (a TestAddRequest) Dn() string {
	return a.dn
}

func (a TestAddRequest) Attributes() map[string][]string {
	return a.attrs
}

func TestAddService(t *testing.T) {
	svc, p := newTestService(t)
	as := NewAddService(schema, svc)

	tests := []struct {
		req AddRequest
		err error
	}{
		{
			req: TestAddRequest{
				dn: "cn=New Entry,dc=georgiboy,dc=dev",
				attrs: map[string][]string{
					"objectClass": {"person"},
					"cn":          {"New Entry"},
					"sn":          {"Entry"},
				},
			},
			err: nil,
		},
	}

	for _, test := range tests {
		session := core.NewSession()
		res, err := as.AddEntry(session, test.req)
		if err != nil {
			if test.err == nil {
				t.Fatalf("Add service returned unexpected err: %s", err)
			}

			if !errors.Is(err, test.err) {
				t.Fatalf("Add service returned error: %q but expected: %q", err, test.err)
			}

			continue
		}

		if res == nil {
			t.Fatalf("Add service returned nil entry, expected %q", test.req.Dn())
		}

		// check that res was put in the expected place
		normDn, err := d.NormaliseDN(schema, test.req.Dn())
		if err != nil {
			t.Fatal(err)
		}
		newEntry, err := p.Lookup(normDn)
		if err != nil {
			t.Fatal(err)
		}

		if !res.Dn().Equals(newEntry.Dn()) {
			t.Fatalf("expected res (%s) and newEntry (%s) to be the same entry", res.Dn(), newEntry.Dn())
		}

		//  test the entry has the expected object classes
		ocs, ok := test.req.Attributes()["objectClass"]
		if !ok {
			t.Fatal("no objectclasses present in the add request")
		}
		for _, name := range ocs {
			oc, ok := schema.FindObjectClass(name)
			if !ok {
				t.Fatalf("unknown object class %q", name)
			}
			if !res.ConatinsObjectClass(oc) {
				t.Fatalf("entry is missing object class %q", name)
			}
		}
		// test the entry has the expected attrs
		for name, vals := range test.req.Attributes() {
			if name == "objectClass" {
				continue
			}
			attr, ok := schema.FindAttribute(name)
			if !ok {
				t.Fatalf("unknown attribute %q", name)
			}
			for _, v := range vals {
				ok, err := res.ContainsAttrVal(attr, v)
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatalf("added entry does not contain value %q", v)
				}
			}
		}
	}
}
