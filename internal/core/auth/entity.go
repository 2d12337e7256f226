package auth

import "time"

// Capability is a named permission flag checked by the Gate.
type Capability string

const (
	CapViewTable   Capability = "ver_tabela"
	CapEditTable   Capability = "editar_tabela"
	CapUpload      Capability = "upload"
	CapExport      Capability = "exportar"
	CapPrint       Capability = "imprimir"
	CapDownload    Capability = "baixar"
	CapCreateUsers Capability = "criar_usuarios"
	CapAdmin       Capability = "admin_geral"
)

// Capabilities lists every recognised capability.
var Capabilities = []Capability{
	CapViewTable, CapEditTable, CapUpload, CapExport,
	CapPrint, CapDownload, CapCreateUsers, CapAdmin,
}

// Permissions is the flag set attached to a role. Keys outside the known
// capabilities are ignored when decoding.
type Permissions struct {
	VerTabela     bool `json:"ver_tabela,omitempty"`
	EditarTabela  bool `json:"editar_tabela,omitempty"`
	Upload        bool `json:"upload,omitempty"`
	Exportar      bool `json:"exportar,omitempty"`
	Imprimir      bool `json:"imprimir,omitempty"`
	Baixar        bool `json:"baixar,omitempty"`
	CriarUsuarios bool `json:"criar_usuarios,omitempty"`
	AdminGeral    bool `json:"admin_geral,omitempty"`
}

// Has reports whether c is granted.
func (p Permissions) Has(c Capability) bool {
	switch c {
	case CapViewTable:
		return p.VerTabela
	case CapEditTable:
		return p.EditarTabela
	case CapUpload:
		return p.Upload
	case CapExport:
		return p.Exportar
	case CapPrint:
		return p.Imprimir
	case CapDownload:
		return p.Baixar
	case CapCreateUsers:
		return p.CriarUsuarios
	case CapAdmin:
		return p.AdminGeral
	default:
		return false
	}
}

// Role groups users under a permission set.
type Role struct {
	ID          string
	Name        string
	Permissions Permissions
}

// User is an account able to log in.
type User struct {
	ID                 string
	Matricula          string
	Nome               string
	Email              string
	PasswordHash       string
	RoleID             string
	Role               *Role
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RoleName returns the role name or an empty string.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// Principal is the identity carried by a session token.
type Principal struct {
	UserID      string
	Matricula   string
	Role        string
	Permissions Permissions
}
