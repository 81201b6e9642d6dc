package cmd

import (
	"github.com/spf13/cobra"

	"github.com/quartzlab/tradedesk/market"
	"github.com/quartzlab/tradedesk/trading"
)

// windowArg parses the optional trailing window argument, defaulting to total.
func windowArg(args []string) (market.Window, error) {
	if len(args) == 0 {
		return market.Total, nil
	}
	return market.ParseWindow(args[0])
}

func runReport(cmd *cobra.Command, build func(market.Window) trading.Request, args []string) error {
	window, err := windowArg(args)
	if err != nil {
		return err
	}

	desk, closer, err := buildDesk()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	resp, err := desk.Dispatch(cmd.Context(), build(window))
	if err != nil {
		return err
	}
	printResponse(resp)
	return nil
}

var pnlCmd = &cobra.Command{
	Use:   "pnl [daily|weekly|monthly|total]",
	Short: "Reconstruct the running PnL series from order history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(w market.Window) trading.Request {
			return trading.GetPnlRequest{Window: w}
		}, args)
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders [daily|weekly|monthly|total]",
	Short: "List this broker's filled orders",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(w market.Window) trading.Request {
			return trading.GetOrdersRequest{Window: w}
		}, args)
	},
}

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Show open positions marked to the latest quotes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		desk, closer, err := buildDesk()
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}

		resp, err := desk.Dispatch(cmd.Context(), trading.GetPositionsRequest{})
		if err != nil {
			return err
		}
		printResponse(resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pnlCmd, ordersCmd, positionsCmd)
}
