package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dexscreen-network/dexscreend/pkg/screener"
	"github.com/dexscreen-network/dexscreend/pkg/screener/dexscreener"
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "dexscreen CLI"
	app.Usage = "Command line interface for the Dexscreener API"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "the address of the Dexscreener REST API",
			Value: "https://api.dexscreener.com",
		},
		&cli.IntFlag{
			Name:  "timeout",
			Usage: "milliseconds to wait for HTTP responses before timing out",
			Value: 15000,
		},
	}
	app.Commands = append(
		app.Commands,
		&pairs,
		&token,
		&search,
		&watch,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func getScreenerClient(ctx *cli.Context) screener.Service {
	return dexscreener.NewService(
		ctx.String("endpoint"), ctx.Int("timeout"),
	)
}

func printRespJSON(resp interface{}) {
	jsonStr, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Println(string(jsonStr))
}

func fatal(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "[dexscreen] %v\n", err)
	os.Exit(1)
}
