package routes

import (
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"vinechain/core/types"
	"vinechain/crypto"
	"vinechain/native/content"
	"vinechain/native/curve"
	"vinechain/native/identity"
	"vinechain/native/issuance"
)

type assetResponse struct {
	ID             uint64 `json:"id"`
	CurveID        uint64 `json:"curveId"`
	Curve          string `json:"curve"`
	Creator        string `json:"creator"`
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	Decimals       uint8  `json:"decimals"`
	MaxSupply      string `json:"maxSupply"`
	Supply         string `json:"supply"`
	ExistenceUnits uint64 `json:"existenceUnits"`
	SpotPrice      string `json:"spotPrice,omitempty"`
	Reserve        string `json:"reserveAccount"`
	CreatedAt      uint64 `json:"createdAt"`
}

type userResponse struct {
	ID           uint64   `json:"id"`
	Name         string   `json:"name"`
	ProfileImage string   `json:"profileImage,omitempty"`
	Accounts     []string `json:"accounts"`
	AssetID      uint64   `json:"assetId,omitempty"`
	ContentCount uint64   `json:"contentCount"`
	CreatedAt    uint64   `json:"createdAt"`
}

type contentResponse struct {
	ID           uint64 `json:"id"`
	Creator      string `json:"creator"`
	CollectionID uint64 `json:"collectionId"`
	ViewCount    uint64 `json:"viewCount"`
	MetadataHash string `json:"metadataHash"`
	Metadata     string `json:"metadata"`
	CreatedAt    uint64 `json:"createdAt"`
}

func parseUintParam(r *http.Request, name string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(chi.URLParam(r, name)), 10, 64)
	return v, err == nil
}

func parseAddrParam(r *http.Request) ([20]byte, bool) {
	addr, err := crypto.ParseAccount(strings.TrimSpace(chi.URLParam(r, "addr")))
	return addr, err == nil
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"root":   s.node.Root().Hex(),
		"height": s.node.Height(),
	})
}

func (s *server) handleAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(r, "id")
	if !ok {
		writeBadRequest(w, "invalid asset id")
		return
	}
	asset, found, err := s.node.Asset(types.AssetID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeNotFound(w, "asset not found")
		return
	}
	supply, err := s.node.Supply(types.AssetID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := assetResponse{
		ID:             asset.ID,
		CurveID:        asset.CurveID,
		Curve:          curve.Variant(asset.Curve).String(),
		Creator:        crypto.FormatAddress(asset.Creator),
		Name:           asset.Name,
		Symbol:         asset.Symbol,
		Decimals:       asset.Decimals,
		MaxSupply:      asset.MaxSupply.String(),
		Supply:         supply.String(),
		ExistenceUnits: asset.ExistenceUnits,
		Reserve:        crypto.FormatAddress(issuance.ReserveAccount(asset)),
		CreatedAt:      asset.CreatedAt,
	}
	if asset.HasSpotPrice && asset.SpotPrice != nil {
		resp.SpotPrice = asset.SpotPrice.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(r, "id")
	if !ok {
		writeBadRequest(w, "invalid asset id")
		return
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(r.URL.Query().Get("amount")), 10)
	if !ok {
		writeBadRequest(w, "amount must be an integer")
		return
	}
	side := issuance.SideBuy
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("side"))) {
	case "", "buy":
	case "sell":
		side = issuance.SideSell
	default:
		writeBadRequest(w, "side must be buy or sell")
		return
	}
	price, err := s.node.Quote(types.AssetID(id), amount, side)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"assetId": strconv.FormatUint(id, 10),
		"amount":  amount.String(),
		"side":    side.String(),
		"price":   price.String(),
	})
}

func (s *server) handleContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(r, "id")
	if !ok {
		writeBadRequest(w, "invalid content id")
		return
	}
	item, found, err := s.node.Content(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeNotFound(w, "content not found")
		return
	}
	writeJSON(w, http.StatusOK, newContentResponse(item))
}

func newContentResponse(item *content.Content) contentResponse {
	return contentResponse{
		ID:           item.ID,
		Creator:      crypto.FormatAddress(item.Creator),
		CollectionID: item.CollectionID,
		ViewCount:    item.ViewCount,
		MetadataHash: hexutil.Encode(item.MetadataHash[:]),
		Metadata:     string(item.Metadata),
		CreatedAt:    item.CreatedAt,
	}
}

func newUserResponse(user *identity.User) userResponse {
	resp := userResponse{
		ID:           user.ID,
		Name:         user.Name,
		ProfileImage: user.ProfileImage,
		ContentCount: user.ContentCount,
		CreatedAt:    user.CreatedAt,
	}
	for _, acct := range user.Accounts {
		resp.Accounts = append(resp.Accounts, crypto.FormatAddress(acct))
	}
	if user.HasAsset {
		resp.AssetID = user.AssetID
	}
	return resp
}

func (s *server) handleUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(r, "id")
	if !ok {
		writeBadRequest(w, "invalid user id")
		return
	}
	user, found, err := s.node.User(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeNotFound(w, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (s *server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddrParam(r)
	if !ok {
		writeBadRequest(w, "invalid address")
		return
	}
	nonce, err := s.node.Nonce(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := s.node.Balance(types.NativeAsset, addr)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]interface{}{
		"address":  crypto.FormatAddress(addr),
		"nonce":    nonce,
		"free":     balance.Free.String(),
		"reserved": balance.Reserved.String(),
	}
	user, found, err := s.node.ResolveUser(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	if found {
		resp["user"] = newUserResponse(user)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleNonce(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddrParam(r)
	if !ok {
		writeBadRequest(w, "invalid address")
		return
	}
	nonce, err := s.node.Nonce(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"nonce": nonce})
}

func (s *server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddrParam(r)
	if !ok {
		writeBadRequest(w, "invalid address")
		return
	}
	asset, err := types.ParseAssetID(chi.URLParam(r, "asset"))
	if err != nil {
		writeBadRequest(w, "invalid asset id")
		return
	}
	balance, err := s.node.Balance(asset, addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"asset":    asset.String(),
		"free":     balance.Free.String(),
		"reserved": balance.Reserved.String(),
	})
}

func (s *server) handleRewards(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddrParam(r)
	if !ok {
		writeBadRequest(w, "invalid address")
		return
	}
	totals, err := s.node.Rewards(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"creation": amountString(totals.CreationRewards),
		"view":     amountString(totals.ViewRewards),
		"total":    totals.Total().String(),
	})
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
