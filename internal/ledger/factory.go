package ledger

import (
	"fmt"
	"strings"

	"github.com/koperasichain/backend/internal/config"
)

func NewWriterFromConfig(cfg config.Config, rpc SendClient) (Writer, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.ChainWriterMode))
	if mode == "" || mode == "stub" {
		return NewStubWriter(), nil
	}
	if mode != "real" {
		return nil, fmt.Errorf("invalid CHAIN_WRITER_MODE: %s", cfg.ChainWriterMode)
	}
	return NewRPCWriter(rpc, cfg.CooperativeContract, cfg.TokenContract, cfg.ChainTxGasLimit)
}
