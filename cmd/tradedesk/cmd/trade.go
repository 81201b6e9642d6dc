package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quartzlab/tradedesk/broker"
	"github.com/quartzlab/tradedesk/trading"
)

var tradeLimit bool

var tradeCmd = &cobra.Command{
	Use:   "trade <buy|sell> <symbol> <qty>",
	Short: "Submit a trade and wait for its terminal outcome",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		side, err := broker.ParseSide(args[0])
		if err != nil {
			return err
		}
		qty, err := strconv.ParseFloat(args[2], 64)
		if err != nil || qty <= 0 {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		typ := broker.Market
		if tradeLimit {
			typ = broker.Limit
		}

		desk, closer, err := buildDesk()
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}

		resp, err := desk.Dispatch(cmd.Context(), trading.SubmitTradeRequest{
			Symbol: args[1],
			Qty:    qty,
			Side:   side,
			Type:   typ,
		})
		if err != nil {
			return err
		}
		printResponse(resp)
		if !resp.Success {
			return errors.New("trade was not filled")
		}
		return nil
	},
}

func init() {
	tradeCmd.Flags().BoolVar(&tradeLimit, "limit", false, "submit as a limit order (rejected by validation; market orders only)")
	rootCmd.AddCommand(tradeCmd)
}
