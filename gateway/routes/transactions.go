package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"vinechain/core"
	"vinechain/core/types"
	"vinechain/crypto"
	"vinechain/observability/logging"
)

const maxTxBodyBytes = 1 << 20

type receiptResponse struct {
	ReceiptID string         `json:"receiptId"`
	TxHash    hexutil.Bytes  `json:"txHash"`
	Type      string         `json:"type"`
	Sender    string         `json:"sender"`
	Root      string         `json:"root"`
	Height    uint64         `json:"height"`
	ID        uint64         `json:"id,omitempty"`
	Amount    string         `json:"amount,omitempty"`
	Events    []*types.Event `json:"events"`
}

func newReceiptResponse(receipt *core.Receipt) receiptResponse {
	resp := receiptResponse{
		ReceiptID: uuid.NewString(),
		TxHash:    receipt.TxHash,
		Type:      receipt.Type,
		Sender:    crypto.FormatAddress(receipt.Sender),
		Root:      receipt.Root.Hex(),
		Height:    receipt.Height,
		ID:        receipt.ID,
		Events:    receipt.Events,
	}
	if receipt.Amount != nil {
		resp.Amount = receipt.Amount.String()
	}
	if resp.Events == nil {
		resp.Events = []*types.Event{}
	}
	return resp
}

func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTxBodyBytes+1))
	if err != nil {
		writeBadRequest(w, "read body")
		return
	}
	if len(body) > maxTxBodyBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "transaction too large", Kind: "validation", Code: "TOO_LARGE"})
		return
	}
	var tx types.Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		writeBadRequest(w, fmt.Sprintf("decode transaction: %v", err))
		return
	}
	receipt, err := s.node.SubmitTransaction(r.Context(), &tx)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := newReceiptResponse(receipt)
	s.logger.Info("transaction accepted",
		logging.MaskField("receiptId", resp.ReceiptID),
		logging.MaskField("txHash", resp.TxHash.String()),
		logging.MaskField("type", resp.Type),
		logging.MaskField("apiKey", r.Header.Get("X-API-Key")),
		slog.Uint64("height", resp.Height))
	writeJSON(w, http.StatusOK, resp)
}
