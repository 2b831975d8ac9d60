// Package user reads the GBBS Pro USERS file. Mail databases identify a
// recipient only by user ID, so the USERS file is what turns an ID into a name.
package user

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/stlalpha/gbbsmsg/internal/gbbs"
)

// RecordSize is the size of one USERS record. Record N holds user ID N;
// record 0 is normally unused.
const RecordSize = 128

// User is the part of a USERS record needed to label mail.
//
// Record layout (stock GBBS Pro; sysops sometimes modified it):
//
//	FIRST,LAST\r    upper case
//	Full Name\r     proper case, preferred for display
//	City,State\r
//	... padding, password at 70, phone number at 78
type User struct {
	ID        int
	Handle    string // first line, "FIRST,LAST"
	FullName  string
	CityState string
}

// Directory maps user IDs to users.
type Directory map[int]User

// Load reads and parses a USERS file.
func Load(path string) (Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read USERS file %s: %w", path, err)
	}
	return Parse(data), nil
}

// Parse decodes every complete record of a USERS file. Records without a
// full name are skipped.
func Parse(data []byte) Directory {
	users := make(Directory)
	for id := 0; (id+1)*RecordSize <= len(data); id++ {
		record := data[id*RecordSize : (id+1)*RecordSize]
		if u, ok := parseRecord(id, record); ok {
			users[id] = u
		}
	}
	return users
}

func parseRecord(id int, record []byte) (User, bool) {
	first := bytes.IndexByte(record, '\r')
	if first <= 0 {
		return User{}, false
	}
	rest := record[first+1:]
	second := bytes.IndexByte(rest, '\r')
	if second < 0 {
		return User{}, false
	}
	u := User{
		ID:       id,
		Handle:   field(record[:first]),
		FullName: field(rest[:second]),
	}
	if u.FullName == "" {
		return User{}, false
	}
	rest = rest[second+1:]
	if third := bytes.IndexByte(rest, '\r'); third >= 0 {
		u.CityState = field(rest[:third])
	}
	return u, true
}

func field(b []byte) string {
	return strings.TrimSpace(gbbs.Render(b))
}

// Recipient formats the "To:" value for a mail message.
func (d Directory) Recipient(id int) string {
	if u, ok := d[id]; ok {
		return fmt.Sprintf("%s (#%d)", u.FullName, id)
	}
	return fmt.Sprintf("User ID %d (#%d)", id, id)
}

// Name returns the full name of user id.
func (d Directory) Name(id int) (string, bool) {
	u, ok := d[id]
	return u.FullName, ok
}
