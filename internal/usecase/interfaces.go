package usecase

import (
	"context"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
)

type LeadStoreInterface interface {
	Create(ctx context.Context, lead *entity.Lead) (*entity.Lead, error)
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
	FindByCNPJ(ctx context.Context, cnpj string) (*entity.Lead, error)
	Update(ctx context.Context, id string, upd storage.LeadUpdate) (*entity.Lead, error)
	Checkpoint(ctx context.Context) error
}

type QueueProducerInterface interface {
	PublishLeadEvent(ctx context.Context, payload queue.LeadEventPayload) error
}

type EmailService interface {
	SendImportReport(to, jobID string, total, created, updated, skipped, failed int) error
}

// LeadCandidate é a linha crua que o pipeline de planilha entrega. O CNPJ é
// esperado quando conhecido; o resto é carga que o store guarda como veio.
type LeadCandidate struct {
	CNPJ        string         `json:"cnpj"`
	CompanyName string         `json:"company_name"`
	TradeName   string         `json:"trade_name,omitempty"`
	Email       string         `json:"email,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Industry    string         `json:"industry,omitempty"`
	Status      string         `json:"status,omitempty"`
	Address     entity.Address `json:"address"`
	Source      string         `json:"source,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

func (c LeadCandidate) toLead() *entity.Lead {
	return &entity.Lead{
		CNPJ:        c.CNPJ,
		CompanyName: c.CompanyName,
		TradeName:   c.TradeName,
		Email:       c.Email,
		Phone:       c.Phone,
		Industry:    c.Industry,
		Status:      c.Status,
		Address:     c.Address,
		Source:      c.Source,
		Notes:       c.Notes,
	}
}

// toFullUpdate monta a substituição completa usada pelo upsert: tudo que o
// candidato representa é sobrescrito (id e createdAt ficam com o store). Os
// campos de potencial voltam a zero porque a carga nova os invalida; as
// coordenadas geocodificadas são a exceção: LeadUpdate não tem como anular
// um ponteiro, então elas sobrevivem até a próxima validação de endereço.
func (c LeadCandidate) toFullUpdate() storage.LeadUpdate {
	status := c.Status
	if status == "" {
		status = entity.StatusPending
	}
	falseVal := false
	zero := 0
	empty := ""
	return storage.LeadUpdate{
		CNPJ:             &c.CNPJ,
		CompanyName:      &c.CompanyName,
		TradeName:        &c.TradeName,
		Email:            &c.Email,
		Phone:            &c.Phone,
		Industry:         &c.Industry,
		Status:           &status,
		Address:          &c.Address,
		AddressValidated: &falseVal,
		PotentialScore:   &zero,
		PotentialLevel:   &empty,
		PotentialFactors: []string{},
		Source:           &c.Source,
		Notes:            &c.Notes,
	}
}
