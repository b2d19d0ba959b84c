package notify

// console.go — presentación del estado del hive en la terminal.
//
// Dos vistas: el report compacto de una línea tras cada ciclo secuencial, y
// el status completo en tablas (oportunidades, posiciones, alertas) para el
// modo -status y el reporter periódico del modo concurrente.

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/hivebot/internal/domain"
	"github.com/alejandrodnm/hivebot/internal/ports"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool            // tablas completas también en el report de ciclo
	gate  ports.OrderGate // opcional: estado de la puerta pre-orden
}

// NewConsole crea un notificador que escribe a stdout. gate puede ser nil.
func NewConsole(table bool, gate ports.OrderGate) *Console {
	return &Console{out: os.Stdout, table: table, gate: gate}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool, gate ports.OrderGate) *Console {
	return &Console{out: w, table: table, gate: gate}
}

// CycleReport imprime el resumen compacto de un ciclo.
func (c *Console) CycleReport(ctx context.Context, b *domain.Blackboard) error {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] risk:%s opps:%d vetted:%d pos:%d exposure:$%.2f",
		now, b.RiskState, len(b.Opportunities), len(b.VettedTrades),
		len(b.ActivePositions), b.TotalExposure)

	if len(b.Alerts) > 0 {
		fmt.Fprintf(&sb, " alerts:%d", len(b.Alerts))
	}
	if b.CapitalFreed {
		sb.WriteString(" capital-freed")
	}
	fmt.Fprintln(c.out, sb.String())

	if c.table {
		return c.Status(ctx, b)
	}
	return nil
}

// Status imprime el snapshot completo del blackboard.
func (c *Console) Status(ctx context.Context, b *domain.Blackboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n=== HIVE STATUS — %s ===\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(c.out, "Risk state: %s", b.RiskState)
	if b.RiskState == domain.RiskHalted && b.HaltReason != "" {
		fmt.Fprintf(c.out, " (%s)", b.HaltReason)
	}
	fmt.Fprintln(c.out)

	fmt.Fprintf(c.out, "Wallet: $%.2f USDC.e | %.4f POL\n", b.WalletBalances.USDC, b.WalletBalances.POL)
	fmt.Fprintf(c.out, "Exposure: $%.2f | Scans: %d\n", b.TotalExposure, b.ScanCount)

	if c.gate != nil {
		ks := "off"
		if c.gate.KillSwitchActive() {
			ks = "ACTIVE"
		}
		fmt.Fprintf(c.out, "Safety gate: kill-switch %s | daily P&L $%.2f\n", ks, c.gate.DailyPnL())
	}

	c.printOpportunities(b.Opportunities)
	c.printPositions(b.ActivePositions)
	c.printAlerts(b.Alerts)
	c.printTimestamps(b)
	return nil
}

func (c *Console) printOpportunities(opps []domain.Opportunity) {
	fmt.Fprintf(c.out, "\nOpportunities: %d\n", len(opps))
	if len(opps) == 0 {
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Type", "Market", "Score", "Bid", "Ask", "Spread", "Liquidity")

	shown := 0
	for i, opp := range opps {
		if shown >= 10 {
			break
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(opp.AnomalyType),
			compactName(opp.Question, 40),
			fmt.Sprintf("%.2f", opp.Score),
			fmt.Sprintf("$%.3f", opp.BestBid),
			fmt.Sprintf("$%.3f", opp.BestAsk),
			fmt.Sprintf("%.1f%%", opp.SpreadPct),
			fmt.Sprintf("$%.0f", opp.Liquidity),
		)
		shown++
	}
	table.Render()
}

func (c *Console) printPositions(positions []domain.Position) {
	fmt.Fprintf(c.out, "\nActive positions: %d\n", len(positions))
	if len(positions) == 0 {
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Market", "Strategy", "Entry", "Size")
	for _, p := range positions {
		table.Append(
			compactName(p.Question, 40),
			p.Strategy,
			fmt.Sprintf("$%.3f", p.EntryPrice),
			fmt.Sprintf("%.2f", p.Size),
		)
	}
	table.Render()
}

func (c *Console) printAlerts(alerts []string) {
	if len(alerts) == 0 {
		fmt.Fprintln(c.out, "\nAll systems healthy")
		return
	}
	fmt.Fprintf(c.out, "\nALERTS: %d\n", len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(c.out, "  ! %s\n", a)
	}
}

func (c *Console) printTimestamps(b *domain.Blackboard) {
	fmt.Fprintf(c.out, "\nLast scan: %s | Last guardian scan: %s\n",
		formatTime(b.LastScan), formatTime(b.LastGuardianScan))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

// compactName trunca el nombre del mercado para que quepa en la tabla.
func compactName(question string, maxLen int) string {
	if question == "" {
		return "?"
	}
	if len(question) <= maxLen {
		return question
	}
	return question[:maxLen-3] + "..."
}
