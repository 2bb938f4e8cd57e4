package storage

import (
	"errors"
	"fmt"
)

var ErrLeadNotFound = errors.New("lead not found")

// DuplicateCNPJError indica colisão com o índice de unicidade.
// Carrega o CNPJ e o lead que já é dono dele para o caller poder reportar.
type DuplicateCNPJError struct {
	CNPJ       string
	ExistingID string
}

func (e *DuplicateCNPJError) Error() string {
	return fmt.Sprintf("cnpj duplicado: %s (já pertence ao lead %s)", e.CNPJ, e.ExistingID)
}

func IsDuplicateCNPJ(err error) bool {
	var dup *DuplicateCNPJError
	return errors.As(err, &dup)
}
