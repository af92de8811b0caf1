// internal/domain/models/uid.go
package models

import "strings"

// UID prefixes used by Triton. A full uid looks like "Team_abc123"; the
// part after the first underscore is the short id used in navigation paths.
const (
	PrefixTeam        = "Team"
	PrefixCycle       = "Cycle"
	PrefixClassroom   = "Classroom"
	PrefixParticipant = "Participant"
	PrefixResponse    = "Response"
	PrefixReport      = "Report"
	PrefixUser        = "User"
	PrefixProgram     = "Program"
)

// Entity is implemented by every record kept in the entity cache.
type Entity interface {
	Key() string
}

// TeamScoped is implemented by records that belong to one team.
type TeamScoped interface {
	TeamKey() string
}

// ShortUID strips the type prefix from a uid. Ids without a prefix are
// returned unchanged.
func ShortUID(uid string) string {
	if i := strings.Index(uid, "_"); i >= 0 {
		return uid[i+1:]
	}
	return uid
}

// LongUID expands a short id into a full uid for the given prefix. A value
// that already carries the prefix is returned as is.
func LongUID(prefix, short string) string {
	if short == "" {
		return ""
	}
	if strings.HasPrefix(short, prefix+"_") {
		return short
	}
	return prefix + "_" + short
}
