package partition

import (
	"log"
	"os"
	"path/filepath"
	"runtime"

	"ldapcore/internal/ldif"
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

func attrLdifFile() *os.File {
	f, err := os.Open(attrLdif)
	if err != nil {
		log.Panicf("couldnt open attr ldif file: %s", attrLdif)
	}
	return f
}

func ocsLdifFile() *os.File {
	f, err := os.Open(ocsLdif)
	if err != nil {
		log.Panicf("couldnt open object class ldif file: %s", ocsLdif)
	}
	return f
}

var schema = util.Unwrap(ldif.LoadSchemaFromReaders(attrLdifFile(), ocsLdifFile()))
