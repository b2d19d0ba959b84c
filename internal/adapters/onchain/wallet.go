package onchain

// wallet.go — lector de balances on-chain en Polygon.
//
// El guardian necesita dos números por scan: USDC.e (ERC20, 6 decimales)
// y POL nativo (18 decimales). Cualquier fallo de RPC se degrada a {0,0}:
// sin datos de balance no se despliega capital, nunca se crashea.

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alejandrodnm/hivebot/internal/domain"
)

const (
	defaultRPCURL = "https://polygon-rpc.com"

	// USDC.e collateral en Polygon
	usdcEAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

	usdcDecimals = 1e6
	polDecimals  = 1e18

	rpcTimeout = 10 * time.Second
)

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "balanceOf",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "account", "type": "address"}],
			"outputs": [{"name": "", "type": "uint256"}]
		}
	]`))
	if err != nil {
		panic(fmt.Sprintf("onchain: invalid erc20 ABI: %v", err))
	}
}

// WalletReader implementa ports.WalletProvider contra un nodo Polygon.
type WalletReader struct {
	client *ethclient.Client
	wallet common.Address
	usdc   common.Address
}

// NewWalletReader conecta al RPC y valida la dirección de la wallet.
// rpcURL vacío usa el RPC público de Polygon.
func NewWalletReader(rpcURL, walletAddress string) (*WalletReader, error) {
	if rpcURL == "" {
		rpcURL = defaultRPCURL
	}
	if !common.IsHexAddress(walletAddress) {
		return nil, fmt.Errorf("onchain.NewWalletReader: invalid wallet address %q", walletAddress)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("onchain.NewWalletReader: dial %q: %w", rpcURL, err)
	}

	return &WalletReader{
		client: client,
		wallet: common.HexToAddress(walletAddress),
		usdc:   common.HexToAddress(usdcEAddress),
	}, nil
}

// Balances devuelve USDC y POL de la wallet. Fail-safe: ante cualquier
// error devuelve balances a cero y lo deja logueado.
func (w *WalletReader) Balances(ctx context.Context) domain.WalletBalances {
	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	usdc, err := w.usdcBalance(ctx)
	if err != nil {
		slog.Warn("usdc balance query failed", "err", err)
		return domain.WalletBalances{}
	}

	pol, err := w.polBalance(ctx)
	if err != nil {
		slog.Warn("pol balance query failed", "err", err)
		return domain.WalletBalances{}
	}

	return domain.WalletBalances{USDC: usdc, POL: pol}
}

// usdcBalance llama a balanceOf(wallet) en el contrato de USDC.e.
func (w *WalletReader) usdcBalance(ctx context.Context) (float64, error) {
	input, err := erc20ABI.Pack("balanceOf", w.wallet)
	if err != nil {
		return 0, fmt.Errorf("pack balanceOf: %w", err)
	}

	out, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &w.usdc, Data: input}, nil)
	if err != nil {
		return 0, fmt.Errorf("call balanceOf: %w", err)
	}

	results, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return 0, fmt.Errorf("unpack balanceOf: %w", err)
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("unexpected balanceOf output: %d values", len(results))
	}
	raw, ok := results[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected balanceOf type %T", results[0])
	}

	return toFloat(raw, usdcDecimals), nil
}

// polBalance consulta el balance nativo de la wallet.
func (w *WalletReader) polBalance(ctx context.Context) (float64, error) {
	raw, err := w.client.BalanceAt(ctx, w.wallet, nil)
	if err != nil {
		return 0, fmt.Errorf("balance at: %w", err)
	}
	return toFloat(raw, polDecimals), nil
}

// toFloat convierte un balance en unidades mínimas a float64 con decimales.
// La precisión de float64 sobra para balances operativos de dos dígitos.
func toFloat(raw *big.Int, decimals float64) float64 {
	f, _ := new(big.Float).SetInt(raw).Float64()
	return f / decimals
}

// Close libera la conexión RPC.
func (w *WalletReader) Close() {
	w.client.Close()
}
