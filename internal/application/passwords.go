package application

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword checks plain against a stored value. bcrypt hashes and the
// werkzeug "pbkdf2:<digest>[:<iterations>]$salt$hex" and
// "scrypt:<n>:<r>:<p>$salt$hex" formats are verified as hashes; any other
// stored value is a legacy plaintext password.
func verifyPassword(stored, plain string) bool {
	switch {
	case stored == "":
		return false
	case strings.HasPrefix(stored, "$2a$"), strings.HasPrefix(stored, "$2b$"), strings.HasPrefix(stored, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	case strings.HasPrefix(stored, "pbkdf2:"):
		return verifyPBKDF2(stored, plain)
	case strings.HasPrefix(stored, "scrypt:"):
		return verifyScrypt(stored, plain)
	default:
		return subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) == 1
	}
}

func splitWerkzeug(stored string) (method []string, salt string, digest []byte, ok bool) {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 {
		return nil, "", nil, false
	}
	sum, err := hex.DecodeString(parts[2])
	if err != nil || len(sum) == 0 {
		return nil, "", nil, false
	}
	return strings.Split(parts[0], ":"), parts[1], sum, true
}

func verifyPBKDF2(stored, plain string) bool {
	method, salt, want, ok := splitWerkzeug(stored)
	if !ok || len(method) < 2 || len(method) > 3 {
		return false
	}
	var newHash func() hash.Hash
	switch method[1] {
	case "sha1":
		newHash = sha1.New
	case "sha256":
		newHash = sha256.New
	case "sha512":
		newHash = sha512.New
	default:
		return false
	}
	iterations := 260000
	if len(method) == 3 {
		n, err := strconv.Atoi(method[2])
		if err != nil || n <= 0 {
			return false
		}
		iterations = n
	}
	got := pbkdf2.Key([]byte(plain), []byte(salt), iterations, len(want), newHash)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func verifyScrypt(stored, plain string) bool {
	method, salt, want, ok := splitWerkzeug(stored)
	if !ok {
		return false
	}
	n, r, p := 1<<15, 8, 1
	if len(method) == 4 {
		var err error
		if n, err = strconv.Atoi(method[1]); err != nil {
			return false
		}
		if r, err = strconv.Atoi(method[2]); err != nil {
			return false
		}
		if p, err = strconv.Atoi(method[3]); err != nil {
			return false
		}
	} else if len(method) != 1 {
		return false
	}
	got, err := scrypt.Key([]byte(plain), []byte(salt), n, r, p, len(want))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}
