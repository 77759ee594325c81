package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
)

var txFlag = cli.StringFlag{
	Name:     "tx",
	Usage:    "the hex encoded unsigned transaction",
	Required: true,
}

var signtx = cli.Command{
	Name:  "signtx",
	Usage: "sign a transaction with the selected account",
	Flags: []cli.Flag{&txFlag},
	Action: func(ctx *cli.Context) error {
		return call(http.MethodPost, "/tx/sign", map[string]string{
			"tx": ctx.String("tx"),
		})
	},
}

var sendtx = cli.Command{
	Name:  "sendtx",
	Usage: "sign a transaction with the selected account and broadcast it",
	Flags: []cli.Flag{&txFlag},
	Action: func(ctx *cli.Context) error {
		return call(http.MethodPost, "/tx/send", map[string]string{
			"tx": ctx.String("tx"),
		})
	},
}

var signmessage = cli.Command{
	Name:      "signmessage",
	Usage:     "sign a message with the selected account",
	ArgsUsage: "<message>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() < 1 {
			return &invalidUsageError{ctx, "signmessage"}
		}
		return call(http.MethodPost, "/message/sign", map[string]string{
			"message": ctx.Args().First(),
		})
	},
}

var verifymessage = cli.Command{
	Name:      "verifymessage",
	Usage:     "verify the signature of a message",
	ArgsUsage: "<address> <message> <signature>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() < 3 {
			return &invalidUsageError{ctx, "verifymessage"}
		}
		return call(http.MethodPost, "/message/verify", map[string]string{
			"address":   ctx.Args().Get(0),
			"message":   ctx.Args().Get(1),
			"signature": ctx.Args().Get(2),
		})
	},
}

func stringField(resp json.RawMessage, key string) (string, error) {
	fields := make(map[string]interface{})
	if err := json.Unmarshal(resp, &fields); err != nil {
		return "", err
	}
	value, ok := fields[key].(string)
	if !ok {
		return "", fmt.Errorf("missing %s in response", key)
	}
	return value, nil
}
