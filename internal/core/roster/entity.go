package roster

import (
	"time"

	"github.com/shopspring/decimal"
)

// Placeholder values applied to rows missing optional fields.
const (
	UnknownValue = "N/A"
)

// PlaceholderBirthDate is used when a row carries no birth date.
var PlaceholderBirthDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Employee is one roster row, identified by Matricula.
type Employee struct {
	Matricula      string
	Nome           string
	DataNascimento time.Time
	DataAdmissao   time.Time
	FuncaoCodigo   string
	FuncaoDesc     string
	Setor          string
	Jornada        int
	SalarioAtual   decimal.Decimal
	SalarioHora    *decimal.Decimal
	Escolaridade   string
	Status         string
}

// UploadStatus is the lifecycle state of an UploadRecord.
type UploadStatus string

const (
	UploadStatusActive   UploadStatus = "active"
	UploadStatusReverted UploadStatus = "reverted"
)

// UploadRecord tracks one confirmed ingest and the backup taken before it.
type UploadRecord struct {
	ID           string
	UploadedBy   string
	UploaderNome string
	FileName     string
	RowCount     int
	UploadedAt   time.Time
	Status       UploadStatus
	BackupPath   string
	RevertedAt   *time.Time
	RevertedBy   string
}

// EmployeeView is the single-employee screen with derived fields.
type EmployeeView struct {
	Nome               string
	DataNascimento     string
	FuncaoAtual        string
	DataAdmissao       string
	SalarioHora        *decimal.Decimal
	Jornada            int
	SalarioAtual       decimal.Decimal
	SetorAtual         string
	Escolaridade       string
	Devedor            string
	TempoNaFuncaoAtual string
	Idade              int
	TempoDeCasa        string
}
