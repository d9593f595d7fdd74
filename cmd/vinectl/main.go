package main

import (
	"fmt"
	"os"
)

const (
	defaultPassEnv  = "VINE_KEY_PASS"
	defaultGateway  = "http://127.0.0.1:8080"
	defaultKeystore = "vine.keystore"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "keygen":
		err = runKeygen(os.Args[2:])
	case "address":
		err = runAddress(os.Args[2:])
	case "tx":
		err = runTx(os.Args[2:])
	case "get":
		err = runGet(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: vinectl <command> [flags]

Commands:
  keygen   generate a key and write it to an encrypted keystore
  address  print the address of a keystore
  tx       sign and submit a transaction:
             register | create-asset | buy | sell | spot-price |
             airdrop | post | view
  get      query the gateway, e.g. "get /v1/assets/7"`)
}
