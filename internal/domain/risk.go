package domain

// RiskState es el flag de gobernanza que decide si se despliega capital.
//
// HALTED solo es alcanzable por el comando de halt manual y solo se limpia
// con el resume explícito — el scan periódico del guardian nunca lo toca.
type RiskState string

const (
	RiskHealthy  RiskState = "HEALTHY"
	RiskWarning  RiskState = "WARNING"
	RiskCritical RiskState = "CRITICAL"
	RiskHalted   RiskState = "HALTED"
)

// Severity ordena los estados de menor a mayor gravedad.
// Un estado desconocido (documento viejo o corrupto) puntúa como HEALTHY.
func (r RiskState) Severity() int {
	switch r {
	case RiskWarning:
		return 1
	case RiskCritical:
		return 2
	case RiskHalted:
		return 3
	default:
		return 0
	}
}

// Valid devuelve true si el estado es uno de los cuatro conocidos.
func (r RiskState) Valid() bool {
	switch r {
	case RiskHealthy, RiskWarning, RiskCritical, RiskHalted:
		return true
	}
	return false
}
