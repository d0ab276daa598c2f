package cpm

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/deploymenttheory/go-judim/internal/types"
)

// AnyUser selects files of every user in a FileName
const AnyUser = -1

// FileName is a parsed "[N:]NAME.EXT" reference
type FileName struct {
	// User is 0-15, or AnyUser when no prefix was given
	User      int
	Name      [types.FileNameLength]byte
	Extension [types.FileExtLength]byte
}

// validNameChar reports whether c may appear in a name or extension
func validNameChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'()-@^_{}~", c) >= 0
}

// ParseFileName parses a user supplied name. Names are upper-cased the way
// the CP/M command processor does.
func ParseFileName(s string) (FileName, error) {
	fn := FileName{User: AnyUser}
	for i := range fn.Name {
		fn.Name[i] = ' '
	}
	for i := range fn.Extension {
		fn.Extension[i] = ' '
	}

	rest := s
	if prefix, name, ok := strings.Cut(s, ":"); ok {
		user, err := strconv.Atoi(prefix)
		if err != nil || user < 0 || user > int(types.MaxUser) {
			return fn, fmt.Errorf("%w: bad user prefix in %q", ErrInvalidFileName, s)
		}
		fn.User = user
		rest = name
	}

	name, ext, _ := strings.Cut(rest, ".")
	switch {
	case name == "":
		return fn, fmt.Errorf("%w: empty name in %q", ErrInvalidFileName, s)
	case len(name) > types.FileNameLength:
		return fn, fmt.Errorf("%w: name %q longer than %d characters", ErrInvalidFileName, name, types.FileNameLength)
	case len(ext) > types.FileExtLength:
		return fn, fmt.Errorf("%w: extension %q longer than %d characters", ErrInvalidFileName, ext, types.FileExtLength)
	}

	for i := 0; i < len(name); i++ {
		if !validNameChar(name[i]) {
			return fn, fmt.Errorf("%w: character %q not allowed in %q", ErrInvalidFileName, name[i], s)
		}
	}
	for i := 0; i < len(ext); i++ {
		if !validNameChar(ext[i]) {
			return fn, fmt.Errorf("%w: character %q not allowed in %q", ErrInvalidFileName, ext[i], s)
		}
	}

	copy(fn.Name[:], strings.ToUpper(name))
	copy(fn.Extension[:], strings.ToUpper(ext))
	return fn, nil
}

// Key returns the directory identity for the given user
func (fn FileName) Key(user uint8) types.FileKey {
	return types.FileKey{User: user, Name: fn.Name, Extension: fn.Extension}
}

// Matches reports whether a directory key names this file, ignoring case,
// attribute bits and, for AnyUser, the owner.
func (fn FileName) Matches(key types.FileKey) bool {
	if fn.User != AnyUser && int(key.User) != fn.User {
		return false
	}
	for i, c := range key.Name {
		if upper(c&0x7F) != fn.Name[i] {
			return false
		}
	}
	for i, c := range key.Extension {
		if upper(c&0x7F) != fn.Extension[i] {
			return false
		}
	}
	return true
}

func (fn FileName) String() string {
	s := FormatName(fn.Name, fn.Extension)
	if fn.User != AnyUser {
		s = strconv.Itoa(fn.User) + ":" + s
	}
	return s
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// FormatName renders a padded name and extension as NAME.EXT, or NAME when the extension is blank
func FormatName(name [types.FileNameLength]byte, ext [types.FileExtLength]byte) string {
	n := make([]byte, len(name))
	for i, c := range name {
		n[i] = c & 0x7F
	}
	e := make([]byte, len(ext))
	for i, c := range ext {
		e[i] = c & 0x7F
	}

	n = bytes.TrimRight(n, " ")
	e = bytes.TrimRight(e, " ")
	if len(e) == 0 {
		return string(n)
	}
	return string(n) + "." + string(e)
}

// KeyString renders a file key as it is shown in listings
func KeyString(key types.FileKey) string {
	return FormatName(key.Name, key.Extension)
}

// validStoredName checks a name field read from disk: valid characters
// followed only by space padding, and at least one character.
func validStoredName(field []byte, allowEmpty bool) bool {
	end := len(field)
	for end > 0 && field[end-1]&0x7F == ' ' {
		end--
	}
	if end == 0 {
		return allowEmpty
	}
	for _, c := range field[:end] {
		if !validNameChar(c & 0x7F) {
			return false
		}
	}
	return true
}
