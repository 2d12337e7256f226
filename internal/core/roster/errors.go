package roster

import "errors"

var (
	// ErrEmployeeNotFound is returned when no employee has the matricula.
	ErrEmployeeNotFound = errors.New("roster: employee not found")
	// ErrUploadNotFound is returned when the upload record does not exist.
	ErrUploadNotFound = errors.New("roster: upload not found")
	// ErrInvalidMatricula is returned for a blank matricula.
	ErrInvalidMatricula = errors.New("roster: invalid matricula")
	// ErrBackupMalformed is wrapped by BackupStore.Read when the artifact cannot be decoded.
	ErrBackupMalformed = errors.New("roster: malformed backup artifact")
)
