package rollback

import "errors"

var (
	// ErrInvalidUploadID is returned when the upload id is blank.
	ErrInvalidUploadID = errors.New("rollback: upload id is required")
	// ErrAlreadyReverted is returned when the upload was already rolled back.
	ErrAlreadyReverted = errors.New("rollback: upload already reverted")
	// ErrMissingBackup is returned when the upload carries no backup artifact.
	ErrMissingBackup = errors.New("rollback: upload has no backup artifact")
	// ErrBackupRead is returned when the backup artifact cannot be read.
	ErrBackupRead = errors.New("rollback: backup artifact could not be read")
	// ErrBackupParse is returned when the backup artifact is malformed.
	ErrBackupParse = errors.New("rollback: backup artifact is malformed")
	// ErrStorageReplace is returned when restoring the roster fails.
	ErrStorageReplace = errors.New("rollback: roster restore failed")
)
