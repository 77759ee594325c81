package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var accounts = cli.Command{
	Name:  "accounts",
	Usage: "list and manage the accounts of the wallet",
	Action: func(ctx *cli.Context) error {
		return call(http.MethodGet, "/identities", nil)
	},
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "derive a new account and select it",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Usage:    "the name of the account",
					Required: true,
				},
			},
			Action: func(ctx *cli.Context) error {
				return call(http.MethodPost, "/accounts", map[string]string{
					"name": ctx.String("name"),
				})
			},
		},
		{
			Name:  "import",
			Usage: "import an account from its private key in WIF format",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "privatekey",
					Usage:    "the private key in WIF format",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "name",
					Usage:    "the name of the account",
					Required: true,
				},
			},
			Action: func(ctx *cli.Context) error {
				return call(http.MethodPost, "/accounts/import", map[string]string{
					"privatekey": ctx.String("privatekey"),
					"name":       ctx.String("name"),
				})
			},
		},
		{
			Name:      "remove",
			Usage:     "remove the account with the given address",
			ArgsUsage: "<address>",
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() < 1 {
					return &invalidUsageError{ctx, "remove"}
				}
				route := "/accounts/" + url.PathEscape(ctx.Args().First())
				return call(http.MethodDelete, route, nil)
			},
		},
		{
			Name:      "rename",
			Usage:     "change the name of the account with the given address",
			ArgsUsage: "<address> <name>",
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() < 2 {
					return &invalidUsageError{ctx, "rename"}
				}
				route := fmt.Sprintf(
					"/identities/%s/name", url.PathEscape(ctx.Args().Get(0)),
				)
				return call(http.MethodPut, route, map[string]string{
					"name": ctx.Args().Get(1),
				})
			},
		},
		{
			Name:      "select",
			Usage:     "select the account used by the pages",
			ArgsUsage: "<address>",
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() < 1 {
					return &invalidUsageError{ctx, "select"}
				}
				return call(http.MethodPut, "/address", map[string]string{
					"address": ctx.Args().First(),
				})
			},
		},
		{
			Name:  "summary",
			Usage: "show the balance of the selected account",
			Action: func(ctx *cli.Context) error {
				c, err := getClient()
				if err != nil {
					return err
				}
				resp, err := c.get("/address")
				if err != nil {
					return err
				}
				address, err := stringField(resp, "address")
				if err != nil {
					return err
				}
				return call(http.MethodGet, "/explorer/summary/"+url.PathEscape(address), nil)
			},
		},
	},
}
