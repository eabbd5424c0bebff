package main

import "github.com/gematik/zero-lab/go/pkcs8"

const (
	exitOK          = 0
	exitUsage       = 1 // usage and I/O errors
	exitMalformed   = 2
	exitVersion     = 3
	exitUnsupported = 4
	exitCrypto      = 5
	exitPEM         = 6
	exitEncode      = 7
)

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch pkcs8.KindOf(err) {
	case pkcs8.KindMalformed:
		return exitMalformed
	case pkcs8.KindVersion:
		return exitVersion
	case pkcs8.KindUnsupportedAlgorithm:
		return exitUnsupported
	case pkcs8.KindCrypto:
		return exitCrypto
	case pkcs8.KindPEM:
		return exitPEM
	case pkcs8.KindCapacity, pkcs8.KindEncode:
		return exitEncode
	}
	return exitUsage
}
