package domain

// blackboard.go — el documento compartido a través del cual los agentes
// publican y consumen estado. Es la única fuente de verdad del sistema:
// ningún componente mantiene una copia privada más allá de un ciclo de scan.

import (
	"encoding/json"
	"time"
)

// MaxOpportunities limita la lista de oportunidades del blackboard.
// Al superarlo se descartan las más antiguas (no las de menor score).
const MaxOpportunities = 50

// OpportunityStatus es el estado de vida de una oportunidad en el blackboard.
type OpportunityStatus string

const (
	StatusPending OpportunityStatus = "PENDING"
	StatusVetted  OpportunityStatus = "VETTED"
	StatusDone    OpportunityStatus = "EXECUTED"
)

// Opportunity es una anomalía detectada pendiente de vetting.
type Opportunity struct {
	ConditionID   string            `json:"condition_id"`
	Question      string            `json:"question"`
	AnomalyType   AnomalyType       `json:"anomaly_type"`
	Score         float64           `json:"score"`
	BestBid       float64           `json:"best_bid"`
	BestAsk       float64           `json:"best_ask"`
	SpreadPct     float64           `json:"spread_pct"`
	Volume24h     float64           `json:"volume_24h"`
	PriceChange1d float64           `json:"price_change_1d,omitempty"`
	Liquidity     float64           `json:"liquidity"`
	DiscoveredAt  time.Time         `json:"discovered_at"`
	Status        OpportunityStatus `json:"status"`

	// Campos específicos de DUAL_SIDE_ARB.
	YesPrice  float64 `json:"yes_price,omitempty"`
	NoPrice   float64 `json:"no_price,omitempty"`
	TotalCost float64 `json:"total_cost,omitempty"`
	ProfitPct float64 `json:"profit_pct,omitempty"`
}

// Position es una posición abierta. La crea el sniper al confirmar un fill
// y la retira el guardian cuando observa el mercado cerrado.
type Position struct {
	ConditionID string    `json:"condition_id"`
	Question    string    `json:"question"`
	EntryPrice  float64   `json:"entry_price"`
	Size        float64   `json:"size"`
	Strategy    string    `json:"strategy"`
	OpenedAt    time.Time `json:"opened_at,omitempty"`
}

// PnLResult es el mark-to-market de una posición a un precio dado.
type PnLResult struct {
	PnL          float64
	PnLPct       float64
	CurrentValue float64
}

// PnL calcula el P&L de la posición al precio actual.
// Con entry price 0 no hay base de cálculo y devuelve ceros.
func (p Position) PnL(currentPrice float64) PnLResult {
	if p.EntryPrice == 0 {
		return PnLResult{}
	}
	currentValue := p.Size * currentPrice
	entryValue := p.Size * p.EntryPrice
	return PnLResult{
		PnL:          currentValue - entryValue,
		PnLPct:       (currentPrice - p.EntryPrice) / p.EntryPrice * 100,
		CurrentValue: currentValue,
	}
}

// WalletBalances son los balances de la wallet: settlement token y gas.
type WalletBalances struct {
	USDC float64 `json:"usdc"`
	POL  float64 `json:"pol"`
}

// Blackboard es el agregado completo. Sin campo de versión de schema:
// los consumidores toleran keys ausentes (decodifican a zero values).
type Blackboard struct {
	Opportunities   []Opportunity     `json:"opportunities"`
	VettedTrades    []json.RawMessage `json:"vetted_trades"`
	ActivePositions []Position        `json:"active_positions"`
	RiskState       RiskState         `json:"risk_state"`
	Alerts          []string          `json:"alerts"`
	WalletBalances  WalletBalances    `json:"wallet_balances"`
	TotalExposure   float64           `json:"total_exposure"`

	ScanCount        int        `json:"scan_count"`
	LastScan         *time.Time `json:"last_scan,omitempty"`
	LastAnalysis     *time.Time `json:"last_analysis,omitempty"`
	LastExecution    *time.Time `json:"last_execution,omitempty"`
	LastGuardianScan *time.Time `json:"last_guardian_scan,omitempty"`

	// Señal transitoria: el guardian la activa al liberar capital de
	// posiciones resueltas para que el scout busque oportunidades frescas.
	CapitalFreed bool `json:"capital_freed,omitempty"`

	HaltReason string     `json:"halt_reason,omitempty"`
	HaltedAt   *time.Time `json:"halted_at,omitempty"`
}

// NewBlackboard devuelve el esqueleto por defecto, usado cuando el documento
// persistido no existe o está corrupto.
func NewBlackboard() *Blackboard {
	return &Blackboard{
		Opportunities:   []Opportunity{},
		VettedTrades:    []json.RawMessage{},
		ActivePositions: []Position{},
		RiskState:       RiskHealthy,
		Alerts:          []string{},
	}
}

// MergeOpportunities integra un batch de oportunidades recién detectadas:
// descarta las que ya existen por condition_id, añade el resto al final y
// trunca a las últimas MaxOpportunities (las más antiguas salen primero).
// Devuelve cuántas entraron nuevas.
func (b *Blackboard) MergeOpportunities(opps []Opportunity, now time.Time) int {
	existing := make(map[string]bool, len(b.Opportunities))
	for _, o := range b.Opportunities {
		existing[o.ConditionID] = true
	}

	added := 0
	for _, o := range opps {
		if existing[o.ConditionID] {
			continue
		}
		b.Opportunities = append(b.Opportunities, o)
		existing[o.ConditionID] = true
		added++
	}

	if len(b.Opportunities) > MaxOpportunities {
		b.Opportunities = b.Opportunities[len(b.Opportunities)-MaxOpportunities:]
	}

	ts := now.UTC()
	b.LastScan = &ts
	b.ScanCount++
	return added
}

// RemovePositions elimina de active_positions las posiciones cuyos
// condition_id aparecen en resolved. Devuelve cuántas quitó.
func (b *Blackboard) RemovePositions(resolved []Position) int {
	if len(resolved) == 0 {
		return 0
	}
	ids := make(map[string]bool, len(resolved))
	for _, p := range resolved {
		ids[p.ConditionID] = true
	}
	kept := b.ActivePositions[:0]
	removed := 0
	for _, p := range b.ActivePositions {
		if ids[p.ConditionID] {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	b.ActivePositions = kept
	return removed
}
