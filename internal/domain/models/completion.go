// internal/domain/models/completion.go
package models

// CompletionValue marks a fully completed survey instance.
const CompletionValue = "100"

// CompletionRow is one participant's survey progress for a cycle and
// classroom, as reported by Neptune. It is not a cached entity.
type CompletionRow struct {
	ParticipantID string `json:"participant_id"`
	Value         string `json:"value"`
}

// Complete reports whether the row records a finished survey.
func (r CompletionRow) Complete() bool { return r.Value == CompletionValue }
