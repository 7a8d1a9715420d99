// HTTP basic auth for the status server, reading a username:password-per-line password file.
// Adapted from go-utils/auth/auth.go's Authenticator; reimplemented against bufio.Scanner since
// this module doesn't carry go-utils/filesys's FileLines helper.

package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Authenticator checks username:password credentials against a password file.
type Authenticator struct {
	lock       sync.RWMutex
	path       string
	identities map[string]string
}

// ReadPasswords loads path, one "username:password" per line; blank lines are ignored.
func ReadPasswords(path string) (*Authenticator, error) {
	identities, err := readPasswords(path)
	if err != nil {
		return nil, err
	}
	return &Authenticator{path: path, identities: identities}, nil
}

func readPasswords(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	identities := make(map[string]string)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			continue
		}
		parts := strings.SplitN(s, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("password file %s has the wrong format (line %d)", path, line)
		}
		if _, found := identities[parts[0]]; found {
			return nil, fmt.Errorf("password file %s has a duplicated user name (line %d)", path, line)
		}
		identities[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return identities, nil
}

// Authenticate reports whether user/pass is a valid credential pair.
func (a *Authenticator) Authenticate(user, pass string) bool {
	a.lock.RLock()
	defer a.lock.RUnlock()
	probe, found := a.identities[user]
	return found && probe == pass
}
