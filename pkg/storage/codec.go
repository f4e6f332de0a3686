package storage

import (
	"bytes"
	"regexp"
	"sort"
	"strings"

	"github.com/fagongzi/log"
	"github.com/infinivision/buildlocks/pkg/meta"
)

const (
	fieldSep   = "\t"
	emptyValue = " "
)

var lineSep = regexp.MustCompile(`\r?\n`)

// encodeLocks serializes the taken locks one per line: `name\ttype\tvalue`.
// Lines are sorted to keep the record stable for the same input.
func encodeLocks(taken map[meta.Lock]string) []byte {
	lines := make([]string, 0, len(taken))
	for lock, value := range taken {
		if value == "" {
			value = emptyValue
		}
		lines = append(lines, strings.Join([]string{lock.Name, lock.Type.Name(), value}, fieldSep))
	}
	sort.Strings(lines)

	var buf bytes.Buffer
	for i, line := range lines {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
	}
	return buf.Bytes()
}

// decodeLocks parses the record, malformed lines are skipped
func decodeLocks(buildID uint64, data []byte) map[string]meta.Lock {
	result := make(map[string]meta.Lock)
	for _, line := range lineSep.Split(string(data), -1) {
		lock, ok := decodeLock(line)
		if !ok {
			log.Debugf("[build-%d]: wrong taken locks record format, line %q",
				buildID,
				line)
			continue
		}
		result[lock.Name] = lock
	}
	return result
}

func decodeLock(line string) (meta.Lock, bool) {
	fields := strings.Split(line, fieldSep)
	if len(fields) != 3 {
		return meta.Lock{}, false
	}

	lockType, ok := meta.ParseLockType(fields[1])
	if !ok {
		return meta.Lock{}, false
	}

	return meta.Lock{
		Name:  fields[0],
		Type:  lockType,
		Value: strings.TrimSpace(fields[2]),
	}, true
}
