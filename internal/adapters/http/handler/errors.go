package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ogurasousui/headcount-clean-arch/internal/adapters/filestore"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/audit"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/auth"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/headcount"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/ingest"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/jobdescription"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/rollback"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
)

const msgInternal = "Erro interno do servidor."

// toHTTPError maps domain errors to a status code and a client-facing message.
func toHTTPError(err error) (int, string) {
	var (
		reqErr   *requestError
		missing  *ingest.MissingColumnsError
		tooLarge *http.MaxBytesError
	)

	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, reqErr.msg

	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Matrícula ou senha inválida."
	case errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, "Token não fornecido. Acesso negado."
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Token inválido ou expirado."
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "Acesso negado. Você não tem permissão para esta ação."
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound, "Usuário não encontrado."
	case errors.Is(err, auth.ErrDuplicateUser):
		return http.StatusConflict, "Matrícula ou e-mail já cadastrado."
	case errors.Is(err, auth.ErrRoleNotFound):
		return http.StatusBadRequest, "Role não encontrada."
	case errors.Is(err, auth.ErrPasswordTooShort):
		return http.StatusBadRequest, "A senha não atende ao tamanho mínimo."
	case errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusBadRequest, "E-mail inválido."
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest, "Todos os campos são obrigatórios."

	case errors.As(err, &missing):
		return http.StatusBadRequest, "Colunas obrigatórias ausentes na planilha: " + strings.Join(missing.Columns, ", ")
	case errors.Is(err, ingest.ErrInvalidFilePath):
		return http.StatusBadRequest, "Caminho de arquivo inválido ou expirado."
	case errors.Is(err, ingest.ErrEmptyWorkbook):
		return http.StatusBadRequest, "Planilha está vazia ou em formato irreconhecível."
	case errors.Is(err, ingest.ErrUnreadableSheet):
		return http.StatusBadRequest, "A planilha não pôde ser lida."
	case errors.Is(err, ingest.ErrEmptyData):
		return http.StatusBadRequest, "A planilha não contém linhas de dados."
	case errors.Is(err, ingest.ErrNoValidRows):
		return http.StatusBadRequest, "Nenhuma linha válida (com matrícula) foi encontrada."
	case errors.Is(err, ingest.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType, "Tipo de arquivo inválido. Apenas Excel (.xls, .xlsx) ou .csv são permitidos."
	case errors.Is(err, filestore.ErrTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "Arquivo excede o tamanho máximo permitido."
	case errors.Is(err, ingest.ErrBackupWrite):
		return http.StatusInternalServerError, "Falha ao criar backup. Nenhuma alteração foi feita."
	case errors.Is(err, ingest.ErrStorageReplace):
		return http.StatusInternalServerError, "Erro ao atualizar o banco de dados. Nenhuma alteração foi feita."

	case errors.Is(err, rollback.ErrInvalidUploadID):
		return http.StatusBadRequest, "O ID do upload é obrigatório."
	case errors.Is(err, roster.ErrUploadNotFound):
		return http.StatusNotFound, "Registro de upload não encontrado."
	case errors.Is(err, rollback.ErrAlreadyReverted):
		return http.StatusConflict, "Este upload já foi revertido anteriormente."
	case errors.Is(err, rollback.ErrMissingBackup):
		return http.StatusConflict, "Registro de upload não possui um arquivo de backup associado."
	case errors.Is(err, rollback.ErrBackupRead), errors.Is(err, rollback.ErrBackupParse):
		return http.StatusInternalServerError, "Falha ao ler o arquivo de backup."
	case errors.Is(err, rollback.ErrStorageReplace):
		return http.StatusInternalServerError, "Erro ao restaurar o banco de dados. Nenhuma alteração foi feita."

	case errors.Is(err, roster.ErrInvalidMatricula):
		return http.StatusBadRequest, "Matrícula é obrigatória."
	case errors.Is(err, roster.ErrEmployeeNotFound):
		return http.StatusNotFound, "Funcionário não encontrado."

	case errors.Is(err, headcount.ErrInvalidPage),
		errors.Is(err, headcount.ErrInvalidPageSize),
		errors.Is(err, headcount.ErrInvalidPeriod),
		errors.Is(err, audit.ErrInvalidPage),
		errors.Is(err, audit.ErrInvalidPageSize):
		return http.StatusBadRequest, "Parâmetros de paginação inválidos."

	case errors.Is(err, jobdescription.ErrNotFound):
		return http.StatusNotFound, "Descrição de cargo não encontrada."
	case errors.Is(err, jobdescription.ErrDuplicateCode):
		return http.StatusConflict, "Já existe uma descrição para este código de função."
	case errors.Is(err, jobdescription.ErrInvalidInput):
		return http.StatusBadRequest, "Código da função e título são obrigatórios."
	case errors.Is(err, jobdescription.ErrNotPDF):
		return http.StatusUnsupportedMediaType, "Apenas arquivos PDF são permitidos."

	default:
		return http.StatusInternalServerError, msgInternal
	}
}
