package ports

import (
	"context"

	"github.com/alejandrodnm/hivebot/internal/domain"
)

// Notifier presenta el estado del sistema al operador.
type Notifier interface {
	// Status imprime el snapshot completo del blackboard.
	Status(ctx context.Context, b *domain.Blackboard) error

	// CycleReport imprime el resumen compacto de un ciclo secuencial.
	CycleReport(ctx context.Context, b *domain.Blackboard) error
}
