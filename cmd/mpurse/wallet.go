package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var status = cli.Command{
	Name:  "status",
	Usage: "show whether the wallet exists and is unlocked",
	Action: func(ctx *cli.Context) error {
		return call(http.MethodGet, "/status", nil)
	},
}

var genseed = cli.Command{
	Name:  "genseed",
	Usage: "generate a mnemonic seed",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "seed_version",
			Usage: "the kind of mnemonic, either Bip39 or Electrum1",
			Value: "Bip39",
		},
		&cli.StringFlag{
			Name:  "lang",
			Usage: "the language of the Bip39 word list",
			Value: "ENGLISH",
		},
	},
	Action: genSeedAction,
}

var initwallet = cli.Command{
	Name:  "init",
	Usage: "create the wallet from the given mnemonic, encrypted with password",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "seed",
			Usage:    "the mnemonic of the wallet",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Usage:    "the password used to encrypt the mnemonic",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "seed_version",
			Usage: "the kind of mnemonic, either Bip39 or Electrum1",
			Value: "Bip39",
		},
		&cli.StringFlag{
			Name:  "base_path",
			Usage: "the derivation path of the accounts",
		},
		&cli.StringFlag{
			Name:  "base_name",
			Usage: "the prefix of the account names",
		},
	},
	Action: initWalletAction,
}

var unlockwallet = cli.Command{
	Name:  "unlock",
	Usage: "unlock the daemon wallet with the given password",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "password",
			Usage: "the password used to encrypt the mnemonic",
			Value: "",
		},
	},
	Action: unlockWalletAction,
}

var lockwallet = cli.Command{
	Name:  "lock",
	Usage: "lock the daemon wallet",
	Action: func(ctx *cli.Context) error {
		if err := call(http.MethodPost, "/lock", nil); err != nil {
			return err
		}
		fmt.Println("Wallet is locked")
		return nil
	},
}

var purge = cli.Command{
	Name:  "purge",
	Usage: "delete the wallet from the daemon, the mnemonic can't be recovered",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "force",
			Usage: "confirm the deletion",
		},
	},
	Action: func(ctx *cli.Context) error {
		if !ctx.Bool("force") {
			return fmt.Errorf("add --force to confirm the wallet deletion")
		}
		return call(http.MethodPost, "/purge", nil)
	},
}

func genSeedAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("seedVersion", ctx.String("seed_version"))
	query.Set("lang", ctx.String("lang"))
	resp, err := c.get("/mnemonic?" + query.Encode())
	if err != nil {
		return err
	}

	res := struct {
		Mnemonic string `json:"mnemonic"`
	}{}
	if err := json.Unmarshal(resp, &res); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(res.Mnemonic)
	return nil
}

func initWalletAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	if _, err := c.post("/unlock", map[string]string{
		"password": ctx.String("password"),
	}); err != nil {
		return err
	}

	resp, err := c.post("/passphrase", map[string]string{
		"passphrase":  ctx.String("seed"),
		"seedVersion": ctx.String("seed_version"),
		"basePath":    ctx.String("base_path"),
		"baseName":    ctx.String("base_name"),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	fmt.Println()
	fmt.Println("Wallet is initialized and unlocked")
	return nil
}

func unlockWalletAction(ctx *cli.Context) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	if _, err := c.post("/unlock", map[string]string{
		"password": ctx.String("password"),
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Wallet is unlocked")
	return nil
}
