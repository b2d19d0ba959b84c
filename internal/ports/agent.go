package ports

import "context"

// Agent es cualquier proceso autónomo planificable por el orquestador.
//
// Los agentes externos (analyst, sniper, sentiment) cumplen esta misma
// interfaz y se inyectan desde cmd/; sus internals no forman parte del core.
type Agent interface {
	Name() string

	// RunOnce ejecuta un tick del agente. Un error no es fatal: el
	// orquestador lo loguea y el agente vuelve a intentarlo al siguiente tick.
	RunOnce(ctx context.Context) error
}
