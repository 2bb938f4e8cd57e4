package entity

import (
	"errors"
	"time"
	// IMPORTANTE: NÃO adicione imports de usecase ou infra aqui!
)

// Status do ciclo de vida do lead.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusProcessed  = "PROCESSED"
	StatusError      = "ERROR"
)

// Value Object: Address
type Address struct {
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	ZipCode    string `json:"zip_code,omitempty"`
}

// Entidade: Lead
//
// ID e timestamps pertencem ao Store, nunca ao caller. Os campos de potencial
// (score/level/factors) e as coordenadas são calculados por serviços externos;
// aqui são carga opaca que apenas persistimos.
type Lead struct {
	ID          string `json:"id"`
	CNPJ        string `json:"cnpj,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	TradeName   string `json:"trade_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Industry    string `json:"industry,omitempty"`

	Status  string  `json:"status"`
	Address Address `json:"address"`

	// Preenchidos pelo serviço de validação de endereço
	AddressValidated bool     `json:"address_validated,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`

	// Preenchidos pelo motor de potencial
	PotentialScore   int      `json:"potential_score,omitempty"`
	PotentialLevel   string   `json:"potential_level,omitempty"`
	PotentialFactors []string `json:"potential_factors,omitempty"`

	Source string `json:"source,omitempty"`
	Notes  string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Lead) Validate() error {
	if l.CompanyName == "" && l.CNPJ == "" {
		return errors.New("company_name or cnpj is required")
	}
	if l.Status == "" {
		return errors.New("status is required")
	}
	return nil
}

// Region devolve a macro-região do lead a partir da UF do endereço.
func (l *Lead) Region() string {
	return RegionForState(l.Address.State)
}
