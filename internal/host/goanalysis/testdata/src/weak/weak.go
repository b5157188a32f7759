package weak

import (
	"crypto/md5"
	"crypto/sha256"
)

func digest(b []byte) ([16]byte, [32]byte) {
	return md5.Sum(b), sha256.Sum256(b) // want `md5.Sum uses MD5, which is cryptographically broken`
}
