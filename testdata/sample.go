package testdata

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
)

type User struct {
	ID   int
	Name string
}

type Post struct {
	UserID int
	Title  string
}

// LegacyChecksum uses MD5 - should be detected
func LegacyChecksum(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}

// LegacyFingerprint uses SHA-1 - should be detected
func LegacyFingerprint(data []byte) []byte {
	h := sha1.New()
	h.Write(data)
	return h.Sum(nil)
}

// Checksum uses SHA-256 - should NOT be detected
func Checksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HasOwner negates a nil check - should be detected
func HasOwner(u *User) bool {
	return !(u == nil)
}

// HasAuthor compares directly - should NOT be detected
func HasAuthor(p *Post) bool {
	return p != nil
}

// BadNestedLoop demonstrates O(n²) complexity - should be detected
func BadNestedLoop(users []User, posts []Post) {
	for i := range users {
		for j := range posts {
			if posts[j].UserID == users[i].ID {
				fmt.Printf("User %s has post %s\n", users[i].Name, posts[j].Title)
			}
		}
	}
}

// BadStringConcat demonstrates inefficient string building - should be detected
func BadStringConcat(items []string) string {
	var result string
	for _, item := range items {
		result += item
	}
	return result
}

// GoodCounter adds integers in a loop - should NOT be detected
func GoodCounter(items []string) int {
	total := 0
	for _, item := range items {
		total += len(item)
	}
	return total
}

// Suppressions: only the first one lacks a justification
func Suppressions() {
	fmt.Println("a") //nolint:errcheck
	fmt.Println("b") //nolint:errcheck // output is best effort
	fmt.Println("c") //lint:ignore SA9003 kept for the demo
}
