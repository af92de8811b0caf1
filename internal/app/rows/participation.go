package rows

import "github.com/dalemusser/copilot/internal/domain/models"

const (
	CompleteYes = "Yes"
	CompleteNo  = "No"
)

// ParticipationRow is one participant's survey status in one classroom.
type ParticipationRow struct {
	ParticipantID string `json:"participant_id"`
	StudentID     string `json:"student_id"`
	ClassroomID   string `json:"classroom_id"`
	ClassroomName string `json:"classroom_name"`
	Complete      string `json:"complete"`
}

// ParticipationRows crosses each participant with the classrooms it shares
// with classrooms, in participant then classroom order. A row is complete
// when any completion row for the participant has the finished value.
// Participants outside every given classroom produce no rows.
func ParticipationRows(participants []models.Participant, classrooms []models.Classroom, completion []models.CompletionRow) []ParticipationRow {
	done := make(map[string]bool, len(completion))
	for _, c := range completion {
		if c.Complete() {
			done[c.ParticipantID] = true
		}
	}

	var out []ParticipationRow
	for _, p := range participants {
		status := CompleteNo
		if done[p.UID] {
			status = CompleteYes
		}
		for _, c := range classrooms {
			if !p.InClassroom(c.UID) {
				continue
			}
			out = append(out, ParticipationRow{
				ParticipantID: p.UID,
				StudentID:     p.StudentID,
				ClassroomID:   c.UID,
				ClassroomName: c.Name,
				Complete:      status,
			})
		}
	}
	return out
}
