package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do SokoFresh.
// Ela permite que o código externo (Handler, CLI) acesse a Categoria, o Código e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION", "NOT_FOUND", "INTERNAL")
	Code() string     // Código estável para o front-end escolher a mensagem traduzida
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// Códigos estáveis da taxonomia de autenticação/sessão.
const (
	CodeValidation         = "VALIDATION"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeEmailInUse         = "EMAIL_IN_USE"
	CodePhoneInUse         = "PHONE_IN_USE"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeCorruptData        = "CORRUPT_DATA"
	CodeInternal           = "INTERNAL"
)

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) Code() string     { return CodeValidation }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }                   // Não encapsula erro subjacente

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg    string
	Reason string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

func (e *NotFoundError) Code() string {
	if e.Reason != "" {
		return e.Reason
	}
	return CodeNotFound
}

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// NewUserNotFoundError cria o erro retornado por UpdateProfile/RateUser quando o e-mail não existe.
func NewUserNotFoundError(email string) AppError {
	return &NotFoundError{Msg: fmt.Sprintf("Usuário com email '%s' não encontrado", email), Reason: CodeUserNotFound}
}

// ConflictError representa um conflito na regra de negócio (e.g., recurso duplicado).
type ConflictError struct {
	Msg    string
	Reason string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

func (e *ConflictError) Code() string {
	if e.Reason != "" {
		return e.Reason
	}
	return CodeConflict
}

// NewConflictError cria um novo erro de conflito genérico.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// NewEmailInUseError sinaliza que o e-mail já pertence a outro registro.
func NewEmailInUseError(email string) AppError {
	return &ConflictError{Msg: fmt.Sprintf("O email '%s' já está em uso.", email), Reason: CodeEmailInUse}
}

// NewPhoneInUseError sinaliza que o telefone já pertence a outro registro.
func NewPhoneInUseError(phone string) AppError {
	return &ConflictError{Msg: fmt.Sprintf("O telefone '%s' já está em uso.", phone), Reason: CodePhoneInUse}
}

// UnauthorizedError representa falha de autenticação (credenciais ou token).
type UnauthorizedError struct {
	Msg    string
	Reason string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

func (e *UnauthorizedError) Code() string {
	if e.Reason != "" {
		return e.Reason
	}
	return CodeUnauthorized
}

// NewUnauthorizedError cria um erro genérico de autorização (token ausente, expirado...).
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// NewInvalidCredentialsError é o único erro devolvido por Login, sem dizer qual parte falhou.
func NewInvalidCredentialsError() AppError {
	return &UnauthorizedError{Msg: "Credenciais inválidas.", Reason: CodeInvalidCredentials}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL, Redis)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) Code() string     { return CodeInternal }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewStorageError é um atalho para criar um InternalError específico de falhas no armazenamento chave-valor.
func NewStorageError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (storage): %s", msg, err.Error()), err)
}

// CorruptDataError indica um valor armazenado que não pôde ser desserializado.
// O serviço recupera-se dele (reset) em vez de propagá-lo ao chamador.
type CorruptDataError struct {
	Key string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("Dados corrompidos na chave '%s': %v", e.Key, e.Err)
}
func (e *CorruptDataError) Category() string { return "INTERNAL_ERROR" }
func (e *CorruptDataError) Code() string     { return CodeCorruptData }
func (e *CorruptDataError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *CorruptDataError) Unwrap() error    { return e.Err }

// NewCorruptDataError cria um erro de dados corrompidos para a chave informada.
func NewCorruptDataError(key string, err error) AppError {
	return &CorruptDataError{Key: key, Err: err}
}

// --- Helpers ---

// CodeOf devolve o código estável do erro, ou CodeInternal para erros não tipados.
func CodeOf(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return CodeInternal
}

// HasCode informa se o erro (ou algum erro encapsulado) carrega o código informado.
func HasCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP, a categoria e a mensagem.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if errors.As(err, &appErr) {
		// O erro é tipado (ValidationError, NotFoundError, etc.)
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado (e.g., erro simples de pacote Go que não implementa AppError)
	// Tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
