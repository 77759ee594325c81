package main

import (
	"net/http"
	"strconv"

	"github.com/urfave/cli/v2"
)

var preferences = cli.Command{
	Name:  "preferences",
	Usage: "show and change the wallet preferences",
	Subcommands: []*cli.Command{
		{
			Name:      "lang",
			Usage:     "show or set the language of the UI",
			ArgsUsage: "[lang]",
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() < 1 {
					return call(http.MethodGet, "/preferences/lang", nil)
				}
				return call(http.MethodPut, "/preferences/lang", map[string]string{
					"lang": ctx.Args().First(),
				})
			},
		},
		{
			Name:      "advanced",
			Usage:     "show or toggle the advanced mode",
			ArgsUsage: "[true|false]",
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() < 1 {
					return call(http.MethodGet, "/preferences/advanced", nil)
				}
				enabled, err := strconv.ParseBool(ctx.Args().First())
				if err != nil {
					return &invalidUsageError{ctx, "advanced"}
				}
				return call(http.MethodPut, "/preferences/advanced", map[string]bool{
					"enabled": enabled,
				})
			},
		},
	},
}
