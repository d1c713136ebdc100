package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vulpemventures/coinvault/internal/core/domain"
)

var (
	coinOwner      string
	coinCurrency   string
	coinAmount     string
	coinCount      uint64
	coinAmounts    []string
	coinRecipients []string
	coinRecipient  string

	coinGetCmd = &cobra.Command{
		Use:   "get <coin-id>",
		Short: "get coin info",
		Long:  "this command returns info about the given coin",
		Args:  cobra.ExactArgs(1),
		RunE:  coinGet,
	}
	coinListCmd = &cobra.Command{
		Use:   "list",
		Short: "list coins",
		Long: "this command returns the list of coins of the given owner, or of " +
			"all owners if none is given, optionally filtered by currency",
		RunE: coinList,
	}
	coinBalanceCmd = &cobra.Command{
		Use:   "balance",
		Short: "get owner balance",
		Long:  "this command returns the total value by currency of the coins of the given owner",
		RunE:  coinBalance,
	}
	coinJoinCmd = &cobra.Command{
		Use:   "join <coin-id> <coin-id>...",
		Short: "merge coins",
		Long: "this command lets you merge all the given coins into the first " +
			"one, which keeps its identity",
		Args: cobra.MinimumNArgs(1),
		RunE: coinJoin,
	}
	coinSplitCmd = &cobra.Command{
		Use:   "split <coin-id>",
		Short: "split a coin",
		Long:  "this command lets you move the given amount out of a coin into a new one",
		Args:  cobra.ExactArgs(1),
		RunE:  coinSplit,
	}
	coinDivideCmd = &cobra.Command{
		Use:   "divide <coin-id>",
		Short: "divide a coin into n coins",
		Long: "this command lets you divide a coin into n coins of equal value, " +
			"the original coin keeping the remainder",
		Args: cobra.ExactArgs(1),
		RunE: coinDivide,
	}
	coinSplitAmountsCmd = &cobra.Command{
		Use:   "split-amounts <coin-id>",
		Short: "split a coin into many",
		Long:  "this command lets you split a new coin off a coin for every given amount",
		Args:  cobra.ExactArgs(1),
		RunE:  coinSplitAmounts,
	}
	coinTransformCmd = &cobra.Command{
		Use:   "transform [coin-id...]",
		Short: "reshape coins into requested amounts",
		Long: "this command lets you reshape the given coins, or a covering " +
			"subset of the coins of the given owner, into coins of the requested " +
			"amounts, followed by the surplus ones. The smallest coins are spent " +
			"first",
		RunE: coinTransform,
	}
	coinSendCmd = &cobra.Command{
		Use:   "send <coin-id>...",
		Short: "reshape coins and send them",
		Long: "this command lets you reshape the given coins into coins of the " +
			"requested amounts and send each of them to the recipient at the " +
			"same position. Surplus coins stay with their owner",
		Args: cobra.MinimumNArgs(1),
		RunE: coinSend,
	}
	coinTransferCmd = &cobra.Command{
		Use:   "transfer <coin-id>",
		Short: "transfer a coin",
		Long:  "this command lets you change the owner of a coin",
		Args:  cobra.ExactArgs(1),
		RunE:  coinTransfer,
	}
	coinCmd = &cobra.Command{
		Use:   "coin",
		Short: "interact with coins",
		Long: "this command lets you list coins and balances, merge, split " +
			"and reshape coins, and transfer them",
	}
)

func init() {
	coinListCmd.Flags().StringVarP(&coinOwner, "owner", "o", "", "coin owner")
	coinListCmd.Flags().StringVarP(&coinCurrency, "currency", "c", "", "coin currency")

	coinBalanceCmd.Flags().StringVarP(&coinOwner, "owner", "o", "", "coin owner")
	coinBalanceCmd.MarkFlagRequired("owner")

	coinSplitCmd.Flags().StringVarP(
		&coinAmount, "amount", "a", "", "amount to split off the coin",
	)
	coinSplitCmd.MarkFlagRequired("amount")

	coinDivideCmd.Flags().Uint64VarP(
		&coinCount, "num-coins", "n", 0, "number of resulting coins",
	)
	coinDivideCmd.MarkFlagRequired("num-coins")

	coinSplitAmountsCmd.Flags().StringSliceVarP(
		&coinAmounts, "amounts", "a", nil, "list of amounts to split off the coin",
	)
	coinSplitAmountsCmd.MarkFlagRequired("amounts")

	coinTransformCmd.Flags().StringSliceVarP(
		&coinAmounts, "amounts", "a", nil, "list of requested amounts",
	)
	coinTransformCmd.Flags().StringVarP(
		&coinOwner, "owner", "o", "",
		"owner whose coins are selected, if no coin is given",
	)
	coinTransformCmd.Flags().StringVarP(
		&coinCurrency, "currency", "c", "",
		"currency of the selected coins, if no coin is given",
	)

	coinSendCmd.Flags().StringSliceVarP(
		&coinAmounts, "amounts", "a", nil, "list of amounts to send",
	)
	coinSendCmd.Flags().StringSliceVarP(
		&coinRecipients, "recipients", "r", nil,
		"list of recipients, one per amount",
	)
	coinSendCmd.MarkFlagRequired("amounts")
	coinSendCmd.MarkFlagRequired("recipients")

	coinTransferCmd.Flags().StringVarP(
		&coinRecipient, "to", "t", "", "new owner of the coin",
	)
	coinTransferCmd.MarkFlagRequired("to")

	coinCmd.AddCommand(
		coinGetCmd, coinListCmd, coinBalanceCmd, coinJoinCmd, coinSplitCmd,
		coinDivideCmd, coinSplitAmountsCmd, coinTransformCmd, coinSendCmd,
		coinTransferCmd,
	)
}

func coinGet(_ *cobra.Command, args []string) error {
	id, err := parseCoinID(args[0])
	if err != nil {
		return err
	}

	coin, err := appConfig.CoinService().GetCoin(context.Background(), id)
	if err != nil {
		return err
	}
	return printJSON(coin)
}

func coinList(_ *cobra.Command, _ []string) error {
	coins, err := appConfig.CoinService().ListCoins(
		context.Background(), coinOwner, domain.Currency(coinCurrency),
	)
	if err != nil {
		return err
	}
	return printJSON(coins)
}

func coinBalance(_ *cobra.Command, _ []string) error {
	balance, err := appConfig.CoinService().GetBalance(
		context.Background(), coinOwner,
	)
	if err != nil {
		return err
	}
	return printJSON(balance)
}

func coinJoin(_ *cobra.Command, args []string) error {
	ids, err := parseCoinIDs(args)
	if err != nil {
		return err
	}

	coins, err := appConfig.CoinService().JoinAll(context.Background(), ids)
	if err != nil {
		return err
	}
	return printJSON(coins)
}

func coinSplit(_ *cobra.Command, args []string) error {
	id, err := parseCoinID(args[0])
	if err != nil {
		return err
	}
	amount, err := parseAmount(coinAmount)
	if err != nil {
		return err
	}

	coins, err := appConfig.CoinService().Split(context.Background(), id, amount)
	if err != nil {
		return err
	}
	return printJSON(coins)
}

func coinDivide(_ *cobra.Command, args []string) error {
	id, err := parseCoinID(args[0])
	if err != nil {
		return err
	}

	coins, err := appConfig.CoinService().DivideIntoN(
		context.Background(), id, coinCount,
	)
	if err != nil {
		return err
	}
	return printJSON(coins)
}

func coinSplitAmounts(_ *cobra.Command, args []string) error {
	id, err := parseCoinID(args[0])
	if err != nil {
		return err
	}
	amounts, err := parseAmounts(coinAmounts)
	if err != nil {
		return err
	}

	coins, err := appConfig.CoinService().SplitAmounts(
		context.Background(), id, amounts,
	)
	if err != nil {
		return err
	}
	return printJSON(coins)
}

func coinTransform(_ *cobra.Command, args []string) error {
	amounts, err := parseAmounts(coinAmounts)
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc := appConfig.CoinService()

	if len(args) == 0 {
		if len(coinOwner) == 0 {
			return fmt.Errorf("either coin ids or owner must be given")
		}
		res, err := svc.TransformForOwner(
			ctx, coinOwner, domain.Currency(coinCurrency), amounts,
		)
		if err != nil {
			return err
		}
		return printJSON(res)
	}

	ids, err := parseCoinIDs(args)
	if err != nil {
		return err
	}
	res, err := svc.Transform(ctx, ids, amounts)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func coinSend(_ *cobra.Command, args []string) error {
	ids, err := parseCoinIDs(args)
	if err != nil {
		return err
	}
	amounts, err := parseAmounts(coinAmounts)
	if err != nil {
		return err
	}

	res, err := appConfig.CoinService().TransformAndSend(
		context.Background(), ids, amounts, coinRecipients,
	)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func coinTransfer(_ *cobra.Command, args []string) error {
	id, err := parseCoinID(args[0])
	if err != nil {
		return err
	}

	coin, err := appConfig.CoinService().Transfer(
		context.Background(), id, coinRecipient,
	)
	if err != nil {
		return err
	}
	return printJSON(coin)
}
