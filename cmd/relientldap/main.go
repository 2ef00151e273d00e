package main

import (
	"flag"
	"log"
	"net"
	"os"

	"ldapcore/internal/app"
	core "ldapcore/internal/core"
	d "ldapcore/internal/domain"
	"ldapcore/internal/ldif"
	"ldapcore/internal/partition"
	"ldapcore/internal/server"
)

var logger = log.New(os.Stderr, "main: ", log.Lshortfile)

func main() {
	addr := flag.String("addr", ":8000", "address to listen on")
	attrLdif := flag.String("attrs", "ldif/attributes.ldif", "path to the attribute type schema ldif")
	ocLdif := flag.String("objectclasses", "ldif/objClasses.ldif", "path to the object class schema ldif")
	suffix := flag.String("suffix", "dc=georgiboy,dc=dev", "DN suffix served by the in-memory partition")
	flag.Parse()

	schema, err := ldif.LoadSchmeaFromPaths(*attrLdif, *ocLdif)
	if err != nil {
		logger.Fatalf("could not load schema: %s", err)
	}

	suffixDn, err := d.NormaliseDN(schema, *suffix)
	if err != nil {
		logger.Fatalf("could not parse suffix %q: %s", *suffix, err)
	}

	p := partition.NewMemoryPartition(schema, suffixDn)

	svc := core.NewDirectoryService(schema)
	if err := svc.RegisterPartition(p); err != nil {
		logger.Fatalf("could not register partition: %s", err)
	}

	bs := app.NewBindService(schema, svc)
	as := app.NewAddService(schema, svc)
	ms := app.NewModifyService(schema, svc)

	mux := server.NewMux()
	mux.AddHandler(server.NewBindHandler(bs))
	mux.AddHandler(server.NewUnbindHandler())
	mux.AddHandler(server.NewAddHandler(as))
	mux.AddHandler(server.NewDeleteHandler(schema, svc))
	mux.AddHandler(server.NewModifyHandler(ms))
	mux.AddHandler(server.NewModifyDnHandler(ms))
	mux.AddHandler(server.NewCompareHandler(schema, svc))
	mux.AddHandler(server.NewSearchHandler(schema, svc))

	l, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Printf("listening on %s, serving %s", *addr, suffixDn.String())

	for {
		c, err := l.Accept()
		if err != nil {
			logger.Fatal(err)
		}

		go mux.Serve(c)
	}
}
