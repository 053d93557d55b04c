package userservice

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"sokofresh/internal/domain"
	apperror "sokofresh/internal/errors"
	"sokofresh/internal/pkg/logger"
)

// Limites da avaliação aceita por RateUser.
const (
	MinRating = 1
	MaxRating = 5
)

const (
	externalDemoID     = "user_google_demo"
	externalDemoPhone  = "0799999999"
	seedPasswordSuffix = "123"
)

// ListingSource entrega o dataset de semente (ver pacote seed).
type ListingSource interface {
	Listings() ([]domain.ProduceListing, error)
}

// Recorder recebe os eventos de negócio para métricas. Pode ser nil.
type Recorder interface {
	LoginAttempt(method string, success bool)
	Registration(success bool)
	Rating(success bool)
	ProfileUpdate(success bool)
}

type nopRecorder struct{}

func (nopRecorder) LoginAttempt(string, bool) {}
func (nopRecorder) Registration(bool)         {}
func (nopRecorder) Rating(bool)               {}
func (nopRecorder) ProfileUpdate(bool)        {}

// Listener é chamado com a sessão atual (nil = sem sessão) após cada mudança confirmada.
type Listener func(session *domain.PublicProfile)

// UserService é o armazenamento de sessão e credenciais de um contexto de navegação.
// A sessão atual é só dele; o conjunto durável é compartilhado e toda escrita
// passa por UserRepo.Update, partindo do valor gravado agora.
// As operações de uma instância passam pelo mesmo mutex, uma de cada vez.
type UserService struct {
	UserRepo    domain.UserRepository
	SessionRepo domain.SessionRepository

	listings ListingSource
	hasher   PasswordHasher
	metrics  Recorder
	logger   logger.Logger
	newID    func() string

	mu      sync.Mutex
	users   []domain.UserRecord
	loaded  bool
	current *domain.PublicProfile
	mode    domain.PersistenceMode

	listeners    map[uint64]Listener
	nextListener uint64
}

var _ domain.UserService = (*UserService)(nil)

// NewService cria uma nova instância do UserService, injetando os Repositórios.
// Uma instância por contexto de navegação (ver Registry).
func NewService(userRepo domain.UserRepository, sessionRepo domain.SessionRepository, listings ListingSource, hasher PasswordHasher, metrics Recorder, log logger.Logger) *UserService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &UserService{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		listings:    listings,
		hasher:      hasher,
		metrics:     metrics,
		logger:      log,
		newID:       func() string { return "user_" + uuid.NewString() },
		mode:        domain.PersistenceNone,
		listeners:   make(map[uint64]Listener),
	}
}

// --- Notificação ---

// change é um retrato tirado sob o lock e entregue depois de soltá-lo,
// para que um listener possa chamar o serviço de volta.
type change struct {
	session   *domain.PublicProfile
	listeners []Listener
}

func (s *UserService) changeLocked() *change {
	c := &change{listeners: make([]Listener, 0, len(s.listeners))}
	if s.current != nil {
		cp := *s.current
		c.session = &cp
	}
	for _, l := range s.listeners {
		c.listeners = append(c.listeners, l)
	}
	return c
}

func (c *change) deliver() {
	if c == nil {
		return
	}
	for _, l := range c.listeners {
		var arg *domain.PublicProfile
		if c.session != nil {
			cp := *c.session
			arg = &cp
		}
		l(arg)
	}
}

// Subscribe registra um observador e devolve a função para cancelá-lo.
func (s *UserService) Subscribe(listener func(*domain.PublicProfile)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = listener
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *UserService) listenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// --- Conjunto durável ---

// Initialize carrega o conjunto durável; vazio => semente a partir dos anúncios.
// Valor corrompido é registrado em log e tratado como conjunto vazio.
func (s *UserService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializeLocked(ctx)
}

func (s *UserService) initializeLocked(ctx context.Context) error {
	// 1. Carregar o conjunto gravado
	users, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}

	// 2. Semear na primeira execução
	if len(users) == 0 {
		seeded, err := s.seedUsers()
		if err != nil {
			return err
		}
		if len(seeded) > 0 {
			users, err = s.UserRepo.Update(ctx, func(stored []domain.UserRecord) ([]domain.UserRecord, error) {
				if len(stored) > 0 {
					return stored, nil
				}
				return seeded, nil
			})
			if err != nil {
				return err
			}
			s.logger.Info("Contas padrão de agricultores criadas.", map[string]interface{}{"count": len(users)})
		}
	}

	s.users = users
	s.loaded = true
	return nil
}

// loadLocked lê o conjunto gravado; corrompido vira vazio (com log).
func (s *UserService) loadLocked(ctx context.Context) ([]domain.UserRecord, error) {
	users, err := s.UserRepo.LoadAll(ctx)
	if err == nil {
		return users, nil
	}
	if !apperror.HasCode(err, apperror.CodeCorruptData) {
		return nil, err
	}
	s.logger.Error("Conjunto de usuários corrompido; tratado como vazio.", err)
	return []domain.UserRecord{}, nil
}

func (s *UserService) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.initializeLocked(ctx)
}

// refreshLocked relê o conjunto antes de uma leitura: outra instância
// (ou o sokoctl) pode ter gravado desde a última vez.
func (s *UserService) refreshLocked(ctx context.Context) error {
	if !s.loaded {
		return s.initializeLocked(ctx)
	}
	users, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	s.users = users
	return nil
}

// updateLocked aplica fn sobre o conjunto gravado e adota o resultado em memória.
// Se fn ou a gravação falharem, nada muda.
func (s *UserService) updateLocked(ctx context.Context, fn func(users []domain.UserRecord) ([]domain.UserRecord, error)) error {
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}
	next, err := s.UserRepo.Update(ctx, fn)
	if err != nil {
		return err
	}
	s.users = next
	return nil
}

// seedUsers cria uma conta por e-mail distinto de agricultor, na ordem do dataset.
// Credencial padrão = primeiro nome em minúsculas + "123".
func (s *UserService) seedUsers() ([]domain.UserRecord, error) {
	if s.listings == nil {
		return []domain.UserRecord{}, nil
	}
	listings, err := s.listings.Listings()
	if err != nil {
		return nil, apperror.NewInternalError("Falha ao ler o dataset de semente.", err)
	}

	seen := make(map[string]bool)
	users := make([]domain.UserRecord, 0, len(listings))
	for _, l := range listings {
		if l.FarmerEmail == "" || seen[l.FarmerEmail] {
			continue
		}
		seen[l.FarmerEmail] = true

		hash, err := s.hasher.Hash(strings.ToLower(l.FirstName()) + seedPasswordSuffix)
		if err != nil {
			return nil, apperror.NewInternalError("Falha ao gerar hash da senha padrão.", err)
		}

		users = append(users, domain.UserRecord{
			ID:           "user_farmer_" + strconv.Itoa(len(users)+1),
			Name:         l.FarmerName,
			Email:        l.FarmerEmail,
			Phone:        l.FarmerContact,
			County:       l.County(),
			AvatarURL:    "https://picsum.photos/seed/" + url.PathEscape(l.FarmerName) + "/200/200",
			PasswordHash: hash,
		})
	}
	return users, nil
}

func indexByEmail(users []domain.UserRecord, email string) int {
	for i, u := range users {
		if u.HasEmail(email) {
			return i
		}
	}
	return -1
}

func phoneTaken(users []domain.UserRecord, phone string, except int) bool {
	for i, u := range users {
		if i != except && u.Phone == phone {
			return true
		}
	}
	return false
}

// ListUsers devolve a projeção pública de todo o conjunto durável.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.PublicProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.PublicProfile, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Profile())
	}
	return out, nil
}

// --- Sessão ---

// activateLocked limpa os dois escopos e grava a sessão no escopo escolhido.
func (s *UserService) activateLocked(ctx context.Context, profile domain.PublicProfile, mode domain.PersistenceMode) error {
	if err := s.SessionRepo.Clear(ctx); err != nil {
		return err
	}
	if err := s.SessionRepo.Put(ctx, mode, profile); err != nil {
		return err
	}
	s.current = &profile
	s.mode = mode
	return nil
}

// mirrorLocked reflete a sessão atualizada no escopo que a guarda hoje.
func (s *UserService) mirrorLocked(ctx context.Context, profile domain.PublicProfile) error {
	mode, err := s.SessionRepo.ActiveMode(ctx)
	if err != nil {
		return err
	}
	if mode != domain.PersistenceNone {
		if err := s.SessionRepo.Put(ctx, mode, profile); err != nil {
			return err
		}
	}
	s.current = &profile
	s.mode = mode
	return nil
}

func (s *UserService) isCurrent(email string) bool {
	return s.current != nil && strings.EqualFold(s.current.Email, email)
}

// Login autentica por e-mail (sem diferenciar maiúsculas) ou telefone (exato).
// persist=true grava a sessão no escopo de longa duração.
func (s *UserService) Login(ctx context.Context, identifier, password string, persist bool) (domain.PublicProfile, error) {
	s.mu.Lock()
	profile, err := s.loginLocked(ctx, identifier, password, persist)
	var c *change
	if err == nil {
		c = s.changeLocked()
	}
	s.mu.Unlock()

	s.metrics.LoginAttempt("password", err == nil)
	if err != nil {
		return domain.PublicProfile{}, err
	}
	c.deliver()
	return profile, nil
}

func (s *UserService) loginLocked(ctx context.Context, identifier, password string, persist bool) (domain.PublicProfile, error) {
	// 1. Validação Básica
	if identifier == "" || password == "" {
		return domain.PublicProfile{}, apperror.NewInvalidCredentialsError()
	}
	if err := s.refreshLocked(ctx); err != nil {
		return domain.PublicProfile{}, err
	}

	// 2. Buscar Usuário por e-mail ou telefone
	idx := -1
	for i, u := range s.users {
		if u.HasEmail(identifier) || u.Phone == identifier {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.logger.Info("Login recusado: identificador desconhecido.", nil)
		return domain.PublicProfile{}, apperror.NewInvalidCredentialsError()
	}

	// 3. Comparar a credencial
	user := s.users[idx]
	ok, needsRehash := s.hasher.Compare(user.PasswordHash, password)
	if !ok {
		s.logger.Info("Login recusado: senha incorreta.", map[string]interface{}{"email": user.Email})
		return domain.PublicProfile{}, apperror.NewInvalidCredentialsError()
	}
	if needsRehash {
		s.upgradeCredentialLocked(ctx, user, password)
	}

	// 4. Ativar a sessão no escopo escolhido
	mode := domain.PersistenceShortLived
	if persist {
		mode = domain.PersistenceLongLived
	}
	profile := user.Profile()
	if err := s.activateLocked(ctx, profile, mode); err != nil {
		return domain.PublicProfile{}, err
	}

	s.logger.Info("Login realizado.", map[string]interface{}{"email": profile.Email, "mode": string(mode)})
	return profile, nil
}

// upgradeCredentialLocked troca uma senha legada em texto puro por um hash.
// Falhas não impedem o login; a troca é tentada de novo no próximo.
func (s *UserService) upgradeCredentialLocked(ctx context.Context, user domain.UserRecord, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("Falha ao gerar hash para credencial legada.", err)
		return
	}
	err = s.updateLocked(ctx, func(users []domain.UserRecord) ([]domain.UserRecord, error) {
		// Só troca se ninguém mudou a credencial desde a leitura.
		if idx := indexByEmail(users, user.Email); idx != -1 && users[idx].PasswordHash == user.PasswordHash {
			users[idx].PasswordHash = hash
		}
		return users, nil
	})
	if err != nil {
		s.logger.Error("Falha ao gravar credencial atualizada.", err)
		return
	}
	s.logger.Info("Credencial legada convertida para bcrypt.", map[string]interface{}{"email": user.Email})
}

// LoginWithExternalIdentity entra com a conta de demonstração do provedor externo,
// criando-a se não existir. A identidade já foi verificada antes de chegar aqui.
func (s *UserService) LoginWithExternalIdentity(ctx context.Context) (domain.PublicProfile, error) {
	s.mu.Lock()
	profile, err := s.externalLoginLocked(ctx)
	var c *change
	if err == nil {
		c = s.changeLocked()
	}
	s.mu.Unlock()

	s.metrics.LoginAttempt("external", err == nil)
	if err != nil {
		return domain.PublicProfile{}, err
	}
	c.deliver()
	return profile, nil
}

func (s *UserService) externalLoginLocked(ctx context.Context) (domain.PublicProfile, error) {
	if err := s.refreshLocked(ctx); err != nil {
		return domain.PublicProfile{}, err
	}

	if indexByEmail(s.users, domain.ExternalDemoEmail) == -1 {
		// Credencial aleatória: a conta não é usável por senha.
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			return domain.PublicProfile{}, apperror.NewInternalError("Falha ao gerar credencial da conta externa.", err)
		}
		demo := domain.UserRecord{
			ID:           externalDemoID,
			Name:         "Demo User",
			Email:        domain.ExternalDemoEmail,
			Phone:        externalDemoPhone,
			County:       "Nairobi",
			AvatarURL:    "https://ui-avatars.com/api/?name=Demo+User&background=4285F4&color=fff&size=128",
			RatingSum:    5,
			RatingCount:  1,
			PasswordHash: hash,
		}

		err = s.updateLocked(ctx, func(users []domain.UserRecord) ([]domain.UserRecord, error) {
			if indexByEmail(users, demo.Email) != -1 {
				return users, nil
			}
			if phoneTaken(users, demo.Phone, -1) {
				s.logger.Warn("Telefone da conta de demonstração já usado; criando sem telefone.", map[string]interface{}{"phone": demo.Phone})
				demo.Phone = ""
			}
			s.logger.Info("Conta de demonstração externa criada.", nil)
			return append(users, demo), nil
		})
		if err != nil {
			return domain.PublicProfile{}, err
		}
	}

	profile := s.users[indexByEmail(s.users, domain.ExternalDemoEmail)].Profile()
	if err := s.activateLocked(ctx, profile, domain.PersistenceLongLived); err != nil {
		return domain.PublicProfile{}, err
	}
	return profile, nil
}

// LoginAsGuest abre a sessão transitória de convidado (curta duração).
func (s *UserService) LoginAsGuest(ctx context.Context) (domain.PublicProfile, error) {
	s.mu.Lock()
	guest := domain.GuestProfile()
	err := s.activateLocked(ctx, guest, domain.PersistenceShortLived)
	var c *change
	if err == nil {
		c = s.changeLocked()
	}
	s.mu.Unlock()

	s.metrics.LoginAttempt("guest", err == nil)
	if err != nil {
		return domain.PublicProfile{}, err
	}
	c.deliver()
	return guest, nil
}

// Register cria um novo usuário e já o deixa logado (curta duração).
// E-mail duplicado é verificado antes do telefone.
func (s *UserService) Register(ctx context.Context, registration domain.Registration) (domain.PublicProfile, error) {
	s.mu.Lock()
	profile, err := s.registerLocked(ctx, registration)
	var c *change
	if err == nil {
		c = s.changeLocked()
	}
	s.mu.Unlock()

	s.metrics.Registration(err == nil)
	if err != nil {
		return domain.PublicProfile{}, err
	}
	c.deliver()
	return profile, nil
}

func (s *UserService) registerLocked(ctx context.Context, reg domain.Registration) (domain.PublicProfile, error) {
	// 1. Validação Básica
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Phone = strings.TrimSpace(reg.Phone)
	reg.Name = strings.TrimSpace(reg.Name)
	if reg.Name == "" || reg.Email == "" || reg.Phone == "" || reg.Password == "" {
		return domain.PublicProfile{}, apperror.NewValidationError("Nome, email, telefone e senha são obrigatórios.")
	}
	if strings.EqualFold(reg.Email, domain.GuestEmail) {
		return domain.PublicProfile{}, apperror.NewEmailInUseError(reg.Email)
	}

	// 2. Hashing da Senha
	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return domain.PublicProfile{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}
	user := domain.UserRecord{
		ID:           s.newID(),
		Name:         reg.Name,
		Email:        reg.Email,
		Phone:        reg.Phone,
		County:       reg.County,
		PasswordHash: hash,
	}

	// 3. Unicidade (e-mail primeiro) contra o conjunto gravado, e persistir
	err = s.updateLocked(ctx, func(users []domain.UserRecord) ([]domain.UserRecord, error) {
		if indexByEmail(users, user.Email) != -1 {
			return nil, apperror.NewEmailInUseError(user.Email)
		}
		if phoneTaken(users, user.Phone, -1) {
			return nil, apperror.NewPhoneInUseError(user.Phone)
		}
		return append(users, user), nil
	})
	if err != nil {
		return domain.PublicProfile{}, err
	}

	// 4. Só então ativar a sessão
	profile := user.Profile()
	if err := s.activateLocked(ctx, profile, domain.PersistenceShortLived); err != nil {
		return domain.PublicProfile{}, err
	}

	s.logger.Info("Usuário registrado.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
	return profile, nil
}

// Logout limpa a sessão em memória e nos dois escopos, incondicionalmente.
func (s *UserService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mode = domain.PersistenceNone
	err := s.SessionRepo.Clear(ctx)
	c := s.changeLocked()
	s.mu.Unlock()

	c.deliver()
	return err
}

// GetCurrentSession lê a sessão dos escopos (longa duração primeiro).
// Só atualiza o cache em memória; serve para checar "estou logado?" após reinício.
func (s *UserService) GetCurrentSession(ctx context.Context) (*domain.PublicProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, mode := range []domain.PersistenceMode{domain.PersistenceLongLived, domain.PersistenceShortLived} {
		profile, err := s.SessionRepo.Get(ctx, mode)
		if err != nil {
			if apperror.HasCode(err, apperror.CodeCorruptData) {
				s.logger.Error("Sessão gravada ilegível; tratada como ausente.", err)
				continue
			}
			return nil, err
		}
		if profile != nil {
			s.current = profile
			s.mode = mode
			cp := *profile
			return &cp, nil
		}
	}

	s.current = nil
	s.mode = domain.PersistenceNone
	return nil, nil
}

// CurrentMode informa em qual escopo a sessão em memória está.
func (s *UserService) CurrentMode() domain.PersistenceMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// UpdateProfile mescla o perfil no registro com o mesmo e-mail, preservando ID e credencial.
// Os acumuladores de avaliação vêm do chamador; para edição pelo próprio usuário use EditProfile.
func (s *UserService) UpdateProfile(ctx context.Context, updated domain.PublicProfile) error {
	s.mu.Lock()
	var (
		changed bool
		err     error
	)
	if !updated.IsGuest() && (updated.RatingSum < 0 || updated.RatingCount < 0) {
		err = apperror.NewValidationError("Acumuladores de avaliação não podem ser negativos.")
	} else {
		_, changed, err = s.editLocked(ctx, updated.Email, func(domain.PublicProfile) domain.PublicProfile { return updated })
	}
	var c *change
	if err == nil && changed {
		c = s.changeLocked()
	}
	s.mu.Unlock()

	s.metrics.ProfileUpdate(err == nil)
	c.deliver()
	return err
}

// EditProfile aplica as alterações ao registro gravado e devolve a projeção resultante.
// Avaliações ficam como estão no armazenamento.
func (s *UserService) EditProfile(ctx context.Context, email string, changes domain.ProfileChanges) (domain.PublicProfile, error) {
	s.mu.Lock()
	profile, changed, err := s.editLocked(ctx, email, changes.Apply)
	if err == nil && profile == nil {
		err = apperror.NewUnauthorizedError("Nenhuma sessão de convidado ativa.")
	}
	var c *change
	if err == nil && changed {
		c = s.changeLocked()
	}
	s.mu.Unlock()

	s.metrics.ProfileUpdate(err == nil)
	if err != nil {
		return domain.PublicProfile{}, err
	}
	c.deliver()
	return *profile, nil
}

// editLocked é o caminho comum de UpdateProfile e EditProfile.
// apply recebe a projeção atual e devolve a nova. Devolve a projeção gravada,
// se a sessão mudou, e nil quando um convidado edita sem sessão de convidado.
func (s *UserService) editLocked(ctx context.Context, email string, apply func(domain.PublicProfile) domain.PublicProfile) (*domain.PublicProfile, bool, error) {
	// 1. Convidado: só a sessão, nunca o conjunto durável
	if strings.EqualFold(email, domain.GuestEmail) {
		if s.current == nil || !s.current.IsGuest() {
			return nil, false, nil
		}
		next := apply(*s.current)
		if err := s.SessionRepo.Put(ctx, domain.PersistenceShortLived, next); err != nil {
			return nil, false, err
		}
		s.current = &next
		s.mode = domain.PersistenceShortLived
		return &next, true, nil
	}

	// 2. Mesclar contra o registro gravado agora
	var stored domain.UserRecord
	err := s.updateLocked(ctx, func(users []domain.UserRecord) ([]domain.UserRecord, error) {
		idx := indexByEmail(users, email)
		if idx == -1 {
			return nil, apperror.NewUserNotFoundError(email)
		}
		next := apply(users[idx].Profile())
		if next.Phone != "" && phoneTaken(users, next.Phone, idx) {
			return nil, apperror.NewPhoneInUseError(next.Phone)
		}
		users[idx] = mergeProfile(users[idx], next)
		stored = users[idx]
		return users, nil
	})
	if err != nil {
		return nil, false, err
	}
	profile := stored.Profile()

	// 3. Espelhar na sessão, se for o usuário ativo
	if !s.isCurrent(email) {
		return &profile, false, nil
	}
	if err := s.mirrorLocked(ctx, profile); err != nil {
		return nil, false, err
	}
	return &profile, true, nil
}

// mergeProfile sobrescreve os campos públicos e preserva ID e PasswordHash.
func mergeProfile(existing domain.UserRecord, p domain.PublicProfile) domain.UserRecord {
	existing.Name = p.Name
	existing.Email = p.Email
	existing.Phone = p.Phone
	existing.County = p.County
	existing.AvatarURL = p.AvatarURL
	existing.RatingSum = p.RatingSum
	existing.RatingCount = p.RatingCount
	return existing
}

// RateUser acumula uma avaliação (1 a 5) no usuário com o e-mail informado.
func (s *UserService) RateUser(ctx context.Context, email string, rating int) error {
	s.mu.Lock()
	changed, err := s.rateLocked(ctx, email, rating)
	var c *change
	if err == nil && changed {
		c = s.changeLocked()
	}
	s.mu.Unlock()

	s.metrics.Rating(err == nil)
	c.deliver()
	return err
}

func (s *UserService) rateLocked(ctx context.Context, email string, rating int) (bool, error) {
	if rating < MinRating || rating > MaxRating {
		return false, apperror.NewValidationError("A avaliação deve estar entre 1 e 5.")
	}

	var rated domain.UserRecord
	err := s.updateLocked(ctx, func(users []domain.UserRecord) ([]domain.UserRecord, error) {
		idx := indexByEmail(users, email)
		if idx == -1 {
			s.logger.Warn("Tentativa de avaliar usuário inexistente.", map[string]interface{}{"email": email})
			return nil, apperror.NewUserNotFoundError(email)
		}
		users[idx].RatingSum += rating
		users[idx].RatingCount++
		rated = users[idx]
		return users, nil
	})
	if err != nil {
		return false, err
	}

	if !s.isCurrent(email) {
		return false, nil
	}
	session := *s.current
	session.RatingSum = rated.RatingSum
	session.RatingCount = rated.RatingCount
	if err := s.mirrorLocked(ctx, session); err != nil {
		return false, err
	}
	return true, nil
}
