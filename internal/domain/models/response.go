// internal/domain/models/response.go
package models

import "encoding/json"

// ResponseOwner says who a response belongs to: one user, or the team as a
// whole. Triton encodes the team owner as an empty user_id.
type ResponseOwner struct {
	userID string
}

// TeamOwner is the owner of a team-level response.
func TeamOwner() ResponseOwner { return ResponseOwner{} }

// UserOwner is the owner of a response belonging to userID. An empty id
// yields the team owner.
func UserOwner(userID string) ResponseOwner { return ResponseOwner{userID: userID} }

// IsTeam reports whether the response is team-level.
func (o ResponseOwner) IsTeam() bool { return o.userID == "" }

// UserID returns the owning user's id and true for user-level responses.
func (o ResponseOwner) UserID() (string, bool) {
	return o.userID, o.userID != ""
}

// IsUser reports whether the response belongs to userID.
func (o ResponseOwner) IsUser(userID string) bool {
	return userID != "" && o.userID == userID
}

func (o ResponseOwner) String() string {
	if o.IsTeam() {
		return "team"
	}
	return "user:" + o.userID
}

// FieldValue is one answer in a response body.
type FieldValue struct {
	Value    json.RawMessage `json:"value"`
	Modified string          `json:"modified,omitempty"`
}

// Response is a stored answer set for a module. ParentID is a cycle uid or
// a step label.
type Response struct {
	UID         string                `json:"uid"`
	Owner       ResponseOwner         `json:"-"`
	TeamID      string                `json:"team_id"`
	ParentID    string                `json:"parent_id"`
	ModuleLabel string                `json:"module_label"`
	Progress    int                   `json:"progress"`
	Body        map[string]FieldValue `json:"body"`
	Private     bool                  `json:"private,omitempty"`
}

func (r Response) Key() string     { return r.UID }
func (r Response) TeamKey() string { return r.TeamID }

// Complete reports whether the response is fully filled out.
func (r Response) Complete() bool { return r.Progress == 100 }

type responseAlias Response

type responseWire struct {
	responseAlias
	UserID *string `json:"user_id"`
}

// MarshalJSON writes the owner back as user_id, "" for the team.
func (r Response) MarshalJSON() ([]byte, error) {
	uid, _ := r.Owner.UserID()
	return json.Marshal(responseWire{responseAlias: responseAlias(r), UserID: &uid})
}

// UnmarshalJSON maps an absent or empty user_id to the team owner.
func (r *Response) UnmarshalJSON(b []byte) error {
	var w responseWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = Response(w.responseAlias)
	if w.UserID != nil {
		r.Owner = UserOwner(*w.UserID)
	} else {
		r.Owner = TeamOwner()
	}
	return nil
}
