package main

import (
	"flag"
	"fmt"
	"math/big"
	"strings"

	"vinechain/config"
	"vinechain/core/types"
	"vinechain/crypto"
	"vinechain/native/curve"
)

// txFlags holds every flag any transaction type accepts; buildPayload picks
// the ones its type needs.
type txFlags struct {
	asset         uint64
	curve         string
	maxSupply     string
	name          string
	symbol        string
	decimals      uint
	image         string
	amount        string
	beneficiaries string
	content       uint64
	metadata      string
}

var txTypes = map[string]types.TxType{
	"register":     types.TxTypeRegisterUser,
	"create-asset": types.TxTypeCreateAsset,
	"buy":          types.TxTypeBuy,
	"sell":         types.TxTypeSell,
	"spot-price":   types.TxTypeSpotPrice,
	"airdrop":      types.TxTypeAirdrop,
	"post":         types.TxTypePostContent,
	"view":         types.TxTypeViewContent,
}

func positiveAmount(raw string) (*big.Int, error) {
	v, err := config.ParseAmount(raw)
	if err != nil {
		return nil, err
	}
	if v.Sign() == 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return v, nil
}

func buildPayload(kind string, f txFlags) (types.TxType, interface{}, error) {
	txType, ok := txTypes[kind]
	if !ok {
		return 0, nil, fmt.Errorf("unknown transaction type %q", kind)
	}
	switch txType {
	case types.TxTypeRegisterUser:
		if strings.TrimSpace(f.name) == "" {
			return 0, nil, fmt.Errorf("-name is required")
		}
		return txType, types.RegisterUserPayload{Name: f.name, ProfileImage: f.image}, nil
	case types.TxTypeCreateAsset:
		variant, err := curve.ParseVariant(f.curve)
		if err != nil {
			return 0, nil, err
		}
		maxSupply, err := positiveAmount(f.maxSupply)
		if err != nil {
			return 0, nil, fmt.Errorf("-max-supply: %w", err)
		}
		if f.decimals > 255 {
			return 0, nil, fmt.Errorf("-decimals must fit in a byte")
		}
		return txType, types.CreateAssetPayload{
			AssetID:   f.asset,
			Curve:     uint8(variant),
			MaxSupply: maxSupply,
			Name:      f.name,
			Symbol:    f.symbol,
			Decimals:  uint8(f.decimals),
		}, nil
	case types.TxTypeBuy, types.TxTypeSell:
		amount, err := positiveAmount(f.amount)
		if err != nil {
			return 0, nil, fmt.Errorf("-amount: %w", err)
		}
		return txType, types.TradePayload{AssetID: f.asset, Amount: amount}, nil
	case types.TxTypeSpotPrice:
		return txType, types.SpotPricePayload{AssetID: f.asset}, nil
	case types.TxTypeAirdrop:
		amount, err := positiveAmount(f.amount)
		if err != nil {
			return 0, nil, fmt.Errorf("-amount: %w", err)
		}
		var recipients [][20]byte
		for _, raw := range strings.Split(f.beneficiaries, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			addr, err := crypto.ParseAccount(raw)
			if err != nil {
				return 0, nil, fmt.Errorf("beneficiary %q: %w", raw, err)
			}
			recipients = append(recipients, addr)
		}
		if len(recipients) == 0 {
			return 0, nil, fmt.Errorf("-to needs at least one beneficiary")
		}
		return txType, types.AirdropPayload{AssetID: f.asset, Amount: amount, Beneficiaries: recipients}, nil
	case types.TxTypePostContent:
		return txType, types.PostContentPayload{ContentID: f.content, Metadata: f.metadata}, nil
	default:
		if f.content == 0 {
			return 0, nil, fmt.Errorf("-content is required")
		}
		return txType, types.ViewContentPayload{ContentID: f.content}, nil
	}
}

func runTx(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("tx needs a transaction type")
	}
	kind := args[0]
	fs := flag.NewFlagSet("tx "+kind, flag.ExitOnError)
	keystorePath := fs.String("keystore", defaultKeystore, "Path to the signing keystore")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	gateway := fs.String("gateway", defaultGateway, "Gateway base URL")
	var f txFlags
	fs.Uint64Var(&f.asset, "asset", 0, "Asset id")
	fs.StringVar(&f.curve, "curve", "linear", "Bonding curve: linear, exponential, flat or logarithmic")
	fs.StringVar(&f.maxSupply, "max-supply", "", "Maximum circulating supply")
	fs.StringVar(&f.name, "name", "", "User or token name")
	fs.StringVar(&f.symbol, "symbol", "", "Token symbol")
	fs.UintVar(&f.decimals, "decimals", 0, "Token decimals")
	fs.StringVar(&f.image, "image", "", "Profile image URL")
	fs.StringVar(&f.amount, "amount", "", "Token amount")
	fs.StringVar(&f.beneficiaries, "to", "", "Comma separated airdrop beneficiaries")
	fs.Uint64Var(&f.content, "content", 0, "Content id")
	fs.StringVar(&f.metadata, "metadata", "", "Content metadata")
	_ = fs.Parse(args[1:])

	txType, payload, err := buildPayload(kind, f)
	if err != nil {
		return err
	}
	key, err := loadKey(*keystorePath, *passEnv)
	if err != nil {
		return err
	}
	client := newClient(*gateway)
	sender := key.PubKey().Address().String()
	nonce, err := client.nonce(sender)
	if err != nil {
		return fmt.Errorf("fetch nonce: %w", err)
	}
	tx, err := types.NewTransaction(txType, nonce, payload)
	if err != nil {
		return err
	}
	if err := tx.Sign(key.PrivateKey); err != nil {
		return err
	}
	out, err := client.submit(tx)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	gateway := fs.String("gateway", defaultGateway, "Gateway base URL")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("get needs exactly one path")
	}
	out, err := newClient(*gateway).get(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
