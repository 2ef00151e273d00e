package domain

import (
	"log"
	"os"
)

var logger = log.New(os.Stderr, "domain: ", log.Lshortfile)
