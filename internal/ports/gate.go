package ports

// OrderGate es la guarda síncrona que todo agente de ejecución debe
// consultar inmediatamente antes de enviar una orden. La implementa la
// puerta de seguridad de application/safety; el sniper externo la recibe
// inyectada desde cmd/ igual que el resto de sus dependencias.
type OrderGate interface {
	// PreOrderCheck evalúa todos los límites pre-orden. Devuelve false
	// y el motivo en el primer límite violado.
	PreOrderCheck(orderAmount, portfolioBalance, totalExposure float64) (ok bool, reason string)

	// RecordTradePnL acumula el P&L de un trade cerrado en el tally diario.
	RecordTradePnL(pnl float64)

	// DailyPnL devuelve el P&L acumulado del día UTC en curso.
	DailyPnL() float64

	// KillSwitchActive informa de si el kill switch manual está presente.
	KillSwitchActive() bool
}
