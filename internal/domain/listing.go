package domain

import "strings"

// ProduceListing representa um anúncio de produto agrícola do marketplace.
// Aqui ele só é usado como dataset de semente para as contas padrão de agricultores.
type ProduceListing struct {
	ID            int     `json:"id" yaml:"id"`
	FarmerName    string  `json:"farmerName" yaml:"farmerName"`
	FarmerContact string  `json:"farmerContact" yaml:"farmerContact"`
	FarmerEmail   string  `json:"farmerEmail" yaml:"farmerEmail"`
	Crop          string  `json:"crop" yaml:"crop"`
	Quantity      string  `json:"quantity" yaml:"quantity"`
	PriceValue    float64 `json:"priceValue" yaml:"priceValue"`
	PriceUnit     string  `json:"priceUnit" yaml:"priceUnit"`
	Location      string  `json:"location" yaml:"location"` // "Cidade, Condado"
	ImageURL      string  `json:"imageUrl" yaml:"imageUrl"`
	AvailableFrom string  `json:"availabilityDate" yaml:"availabilityDate"`
	BuyerCompany  string  `json:"buyerCompanyName,omitempty" yaml:"buyerCompanyName,omitempty"`
}

// County extrai o condado de Location ("Thika, Kiambu" -> "Kiambu").
func (l ProduceListing) County() string {
	parts := strings.Split(l.Location, ", ")
	if len(parts) < 2 || parts[1] == "" {
		return "Unknown"
	}
	return parts[1]
}

// FirstName devolve o primeiro nome do agricultor.
func (l ProduceListing) FirstName() string {
	parts := strings.Split(l.FarmerName, " ")
	return parts[0]
}
