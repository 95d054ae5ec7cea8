package main

import (
	"github.com/urfave/cli/v2"
)

var search = cli.Command{
	Name:      "search",
	Usage:     "search pairs matching a free-form query",
	ArgsUsage: "<query>",
	Action:    searchAction,
}

func searchAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "search")
	}

	client := getScreenerClient(ctx)
	reply, err := client.SearchPairs(ctx.Args().First())
	if err != nil {
		return err
	}

	printRespJSON(reply)

	return nil
}
