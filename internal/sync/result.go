package sync

// Actions recorded per external record.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionError   = "error"
)

// RecordOutcome is the per-record entry in a sync summary.
type RecordOutcome struct {
	ExternalID int64  `json:"externalId"`
	Action     string `json:"action"`
	Error      string `json:"error,omitempty"`
}

// Result is the uniform summary every reconciler returns. A run that fails
// wholesale (cannot list the top-level page set at all) returns an error
// instead; record-level failures land in Errors/Records and never abort the
// batch.
type Result struct {
	Created int             `json:"created"`
	Updated int             `json:"updated"`
	Linked  int             `json:"linked,omitempty"`
	Errors  int             `json:"errors"`
	Records []RecordOutcome `json:"records"`
}

func (r *Result) record(externalID int64, action string) {
	switch action {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	}
	r.Records = append(r.Records, RecordOutcome{ExternalID: externalID, Action: action})
}

func (r *Result) fail(externalID int64, err error) {
	r.Errors++
	r.Records = append(r.Records, RecordOutcome{ExternalID: externalID, Action: ActionError, Error: err.Error()})
}
