package service

import "crypto/rand"

// Alphabet for shareable match codes. 0/O and 1/I are left out because
// players read these codes aloud or type them from a screen.
const matchCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const matchCodeLength = 6

// GenerateMatchCode returns a random 6-character match code. The alphabet
// has 32 characters so taking bytes modulo its length introduces no bias.
func GenerateMatchCode() string {
	buf := make([]byte, matchCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}

	for i, b := range buf {
		buf[i] = matchCodeAlphabet[int(b)%len(matchCodeAlphabet)]
	}

	return string(buf)
}
