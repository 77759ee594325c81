package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var requests = cli.Command{
	Name:  "requests",
	Usage: "show and resolve the requests sent by web pages",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Usage: "the id of the request, the most recent one is shown if omitted",
		},
	},
	Action: func(ctx *cli.Context) error {
		route := "/requests/pending"
		if id := ctx.String("id"); id != "" {
			route += "?id=" + url.QueryEscape(id)
		}
		return call(http.MethodGet, route, nil)
	},
	Subcommands: []*cli.Command{
		{
			Name:      "approve-origin",
			Usage:     "let the web page of the given origin read the selected address",
			ArgsUsage: "<origin> <id>",
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() < 2 {
					return &invalidUsageError{ctx, "approve-origin"}
				}
				return call(http.MethodPost, "/origins/approve", map[string]string{
					"origin": ctx.Args().Get(0),
					"id":     ctx.Args().Get(1),
				})
			},
		},
		{
			Name:      "reject",
			Usage:     "reject the request with the given id",
			ArgsUsage: "<id>",
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() < 1 {
					return &invalidUsageError{ctx, "reject"}
				}
				return call(http.MethodPost, "/requests/shift", map[string]interface{}{
					"isSuccessful": false,
					"id":           ctx.Args().First(),
				})
			},
		},
		{
			Name:      "resolve",
			Usage:     "resolve the request with the given id with a JSON result",
			ArgsUsage: "<id> <result>",
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() < 2 {
					return &invalidUsageError{ctx, "resolve"}
				}
				result := json.RawMessage(ctx.Args().Get(1))
				if !json.Valid(result) {
					return fmt.Errorf("result must be valid JSON")
				}
				return call(http.MethodPost, "/requests/shift", map[string]interface{}{
					"isSuccessful": true,
					"id":           ctx.Args().Get(0),
					"result":       result,
				})
			},
		},
	},
}
