package ports

import (
	"context"

	"github.com/alejandrodnm/hivebot/internal/domain"
)

// WalletProvider consulta los balances on-chain de la wallet operativa.
type WalletProvider interface {
	// Balances devuelve USDC y POL de la wallet. Ante cualquier fallo
	// devuelve balances a cero (fail-safe: sin datos no se despliega capital).
	Balances(ctx context.Context) domain.WalletBalances
}
