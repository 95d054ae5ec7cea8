package main

import (
	"github.com/urfave/cli/v2"
)

var token = cli.Command{
	Name:      "token",
	Usage:     "fetch all pairs of a token on a chain",
	ArgsUsage: "<chainId> <tokenAddress>",
	Action:    tokenAction,
}

func tokenAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.ShowCommandHelp(ctx, "token")
	}

	chainID := ctx.Args().Get(0)
	tokenAddress := ctx.Args().Get(1)

	client := getScreenerClient(ctx)
	reply, err := client.GetPairsByTokenAddress(chainID, tokenAddress)
	if err != nil {
		return err
	}

	printRespJSON(reply)

	return nil
}
