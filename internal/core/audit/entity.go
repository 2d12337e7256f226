package audit

import "time"

// Action tags recorded in the audit trail.
const (
	ActionLogin                = "login"
	ActionChangePassword       = "change_password"
	ActionCreateUser           = "create_user"
	ActionConfirmUpload        = "confirm_upload"
	ActionRollbackUpload       = "rollback_upload"
	ActionCreateJobDescription = "create_job_description"
	ActionUploadJobDescription = "upload_job_description"
)

// Target tables referenced by entries.
const (
	TargetUser           = "User"
	TargetEmployee       = "Employee"
	TargetUpload         = "Upload"
	TargetJobDescription = "JobDescription"
)

// Entry is one append-only audit record.
type Entry struct {
	ID          string
	UserID      string
	Action      string
	TargetTable string
	TargetID    string
	Details     map[string]any
	Timestamp   time.Time
}

// LogView is an entry joined with its actor for the admin listing.
type LogView struct {
	Entry
	UserNome      string
	UserMatricula string
}
