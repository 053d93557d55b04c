package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int    `json:"code" example:"409"`
	Category string `json:"category" example:"CONFLICT_ERROR"`
	Reason   string `json:"reason" example:"EMAIL_IN_USE"`
	Message  string `json:"message" example:"O email 'a@x.com' já está em uso."`
}
