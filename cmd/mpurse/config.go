package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
)

var (
	rpcFlag = cli.StringFlag{
		Name:  "rpcserver",
		Usage: "mpursed control interface url",
		Value: defaultRPCServer,
	}

	datadirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "mpursed data directory, where the auth token is read from",
		Value: defaultDaemonDatadir,
	}

	noAuthFlag = cli.BoolFlag{
		Name:  "no_auth",
		Usage: "don't send the auth token, use if mpursed runs with auth disabled",
	}
)

var config = cli.Command{
	Name:   "config",
	Usage:  "Print local configuration of the mpurse CLI",
	Action: configAction,
	Subcommands: []*cli.Command{
		{
			Name:   "set",
			Usage:  "set a <key> <value> in the local state",
			Action: configSetAction,
		},
		{
			Name:   "init",
			Usage:  "initialize the local state with flags",
			Action: configInitAction,
			Flags: []cli.Flag{
				&rpcFlag,
				&datadirFlag,
				&noAuthFlag,
			},
		},
	},
}

func configAction(ctx *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}

	for key, value := range state {
		fmt.Println(key + ": " + value)
	}

	return nil
}

func configInitAction(c *cli.Context) error {
	return setState(map[string]string{
		"rpcserver": c.String("rpcserver"),
		"datadir":   c.String("datadir"),
		"no_auth":   fmt.Sprintf("%t", c.Bool("no_auth")),
	})
}

func configSetAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("key and value are missing")
	}

	key := c.Args().Get(0)
	value := c.Args().Get(1)

	if err := setState(map[string]string{key: value}); err != nil {
		return err
	}

	fmt.Printf("%s %s has been set\n", key, value)

	return nil
}
