package domain

import (
	"context"
	"strings"
)

// E-mails reservados pelo próprio serviço.
const (
	GuestEmail        = "guest@sokofresh.dev" // sessão de convidado, nunca gravada no conjunto durável
	ExternalDemoEmail = "demo@sokofresh.dev"  // conta de demonstração do login externo (Google)
)

// UserRecord representa a entidade durável do usuário (uma por pessoa registrada).
type UserRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	County       string `json:"county"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	RatingSum    int    `json:"ratingSum"`
	RatingCount  int    `json:"ratingCount"`
	PasswordHash string `json:"passwordHash"` // hash bcrypt; nunca sai do serviço
}

// PublicProfile é a projeção pública do usuário: sem ID e sem credencial.
// É o valor guardado nos escopos de sessão e devolvido a todos os chamadores.
type PublicProfile struct {
	Name        string `json:"name"`
	County      string `json:"county"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	RatingSum   int    `json:"ratingSum"`
	RatingCount int    `json:"ratingCount"`
}

// Profile devolve a projeção pública do registro.
func (u UserRecord) Profile() PublicProfile {
	return PublicProfile{
		Name:        u.Name,
		County:      u.County,
		Phone:       u.Phone,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		RatingSum:   u.RatingSum,
		RatingCount: u.RatingCount,
	}
}

// HasEmail compara e-mails sem diferenciar maiúsculas/minúsculas.
func (u UserRecord) HasEmail(email string) bool {
	return strings.EqualFold(u.Email, email)
}

// AverageRating é RatingSum / RatingCount, ou 0 sem avaliações.
func (p PublicProfile) AverageRating() float64 {
	if p.RatingCount <= 0 {
		return 0
	}
	return float64(p.RatingSum) / float64(p.RatingCount)
}

// IsGuest informa se a projeção é a sessão transitória de convidado.
func (p PublicProfile) IsGuest() bool {
	return strings.EqualFold(p.Email, GuestEmail)
}

// GuestProfile é a sessão de convidado (não ligada a nenhum registro durável).
func GuestProfile() PublicProfile {
	return PublicProfile{
		Name:      "Guest User",
		County:    "Nairobi",
		Phone:     "N/A",
		Email:     GuestEmail,
		AvatarURL: "https://ui-avatars.com/api/?name=Guest&background=90A4AE&color=fff&size=128",
	}
}

// UserRole é o papel gravado no token de acesso.
type UserRole string

const (
	RoleMember UserRole = "member"
	RoleGuest  UserRole = "guest"
)

// Role devolve o papel da sessão: convidado ou membro registrado.
func (p PublicProfile) Role() UserRole {
	if p.IsGuest() {
		return RoleGuest
	}
	return RoleMember
}

// PersistenceMode indica em qual escopo a sessão atual está gravada.
type PersistenceMode string

const (
	PersistenceNone       PersistenceMode = "none"
	PersistenceShortLived PersistenceMode = "short-lived" // apagada quando o contexto de navegação termina
	PersistenceLongLived  PersistenceMode = "long-lived"  // sobrevive a reinícios
)

// Registration representa o payload de entrada para o registro.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	County   string `json:"county"`
	Password string `json:"password"`
}

// ProfileChanges são os campos que o próprio usuário pode editar.
// Avaliações ficam de fora: só RateUser mexe nelas.
type ProfileChanges struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	County    string `json:"county"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Apply devolve p com os campos preenchidos de c. Campo vazio mantém o valor atual.
func (c ProfileChanges) Apply(p PublicProfile) PublicProfile {
	if v := strings.TrimSpace(c.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(c.Phone); v != "" {
		p.Phone = v
	}
	if v := strings.TrimSpace(c.County); v != "" {
		p.County = v
	}
	if v := strings.TrimSpace(c.AvatarURL); v != "" {
		p.AvatarURL = v
	}
	return p
}

// UserRepository define o contrato de persistência do conjunto durável de usuários.
// O conjunto é lido e gravado inteiro (um único valor no armazenamento chave-valor).
type UserRepository interface {
	LoadAll(ctx context.Context) ([]UserRecord, error)
	SaveAll(ctx context.Context, users []UserRecord) error
	// Update relê o conjunto, aplica fn e grava o resultado numa única etapa.
	Update(ctx context.Context, fn func(users []UserRecord) ([]UserRecord, error)) ([]UserRecord, error)
}

// SessionRepository define o contrato dos dois escopos de sessão.
type SessionRepository interface {
	Get(ctx context.Context, mode PersistenceMode) (*PublicProfile, error)
	Put(ctx context.Context, mode PersistenceMode, profile PublicProfile) error
	Remove(ctx context.Context, mode PersistenceMode) error
	Clear(ctx context.Context) error
	ActiveMode(ctx context.Context) (PersistenceMode, error)
}

// UserService define o contrato de lógica de negócio do armazenamento de sessão e credenciais.
type UserService interface {
	Initialize(ctx context.Context) error
	Login(ctx context.Context, identifier, password string, persist bool) (PublicProfile, error)
	LoginWithExternalIdentity(ctx context.Context) (PublicProfile, error)
	LoginAsGuest(ctx context.Context) (PublicProfile, error)
	Register(ctx context.Context, registration Registration) (PublicProfile, error)
	Logout(ctx context.Context) error
	GetCurrentSession(ctx context.Context) (*PublicProfile, error)
	UpdateProfile(ctx context.Context, profile PublicProfile) error
	EditProfile(ctx context.Context, email string, changes ProfileChanges) (PublicProfile, error)
	RateUser(ctx context.Context, email string, rating int) error
	Subscribe(listener func(*PublicProfile)) (unsubscribe func())
	ListUsers(ctx context.Context) ([]PublicProfile, error)
}
