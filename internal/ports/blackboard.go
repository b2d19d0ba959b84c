package ports

import "github.com/alejandrodnm/hivebot/internal/domain"

// BlackboardStore es la fachada sobre el documento compartido.
//
// Todas las mutaciones pasan por Update, que serializa a los escritores:
// el load→mutate→save de cada agente es atómico respecto al resto del
// proceso. Load devuelve siempre un documento usable (esqueleto por
// defecto si el persistido falta o está corrupto).
type BlackboardStore interface {
	Load() *domain.Blackboard
	Save(b *domain.Blackboard) error
	Update(fn func(b *domain.Blackboard) error) error
	View(fn func(b *domain.Blackboard))
}
