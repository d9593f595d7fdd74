package main

import (
	"flag"
	"fmt"
	"os"

	"vinechain/cmd/internal/passphrase"
	"vinechain/crypto"
)

func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	keystorePath := fs.String("keystore", defaultKeystore, "Output path for the keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	force := fs.Bool("force", false, "Overwrite an existing keystore file")
	_ = fs.Parse(args)

	if _, err := os.Stat(*keystorePath); err == nil && !*force {
		return fmt.Errorf("keystore file %s already exists (use --force to overwrite)", *keystorePath)
	}
	pass, err := passphrase.NewSource(*passEnv).
		WithPrompt("Choose keystore passphrase: ").
		WithConfirmation().
		Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	addr, err := crypto.SaveToKeystore(*keystorePath, key, pass, crypto.SaveOptions{Overwrite: *force})
	if err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	fmt.Println(addr.String())
	return nil
}

func runAddress(args []string) error {
	fs := flag.NewFlagSet("address", flag.ExitOnError)
	keystorePath := fs.String("keystore", defaultKeystore, "Path to the keystore file")
	_ = fs.Parse(args)

	addr, err := crypto.KeystoreAddress(*keystorePath)
	if err != nil {
		return err
	}
	fmt.Println(addr.String())
	return nil
}

func loadKey(path, passEnv string) (*crypto.PrivateKey, error) {
	pass, err := passphrase.NewSource(passEnv).Get()
	if err != nil {
		return nil, err
	}
	key, err := crypto.LoadFromKeystore(path, pass)
	if err != nil {
		return nil, fmt.Errorf("unlock keystore: %w", err)
	}
	return key, nil
}
