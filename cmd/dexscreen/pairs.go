package main

import (
	"github.com/urfave/cli/v2"
)

var pairs = cli.Command{
	Name:      "pairs",
	Usage:     "fetch one or more pairs of a chain by their addresses",
	ArgsUsage: "<chainId> <pairAddress> [<pairAddress>...]",
	Action:    pairsAction,
}

func pairsAction(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		return cli.ShowCommandHelp(ctx, "pairs")
	}

	chainID := ctx.Args().First()
	addresses := ctx.Args().Slice()[1:]

	client := getScreenerClient(ctx)
	reply, err := client.GetPairsByPairAddresses(chainID, addresses)
	if err != nil {
		return err
	}

	printRespJSON(reply)

	return nil
}
