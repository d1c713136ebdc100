package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vulpemventures/coinvault/internal/core/domain"
)

var (
	mintCurrency string
	mintOwner    string
	mintAmount   string

	currencyRegisterCmd = &cobra.Command{
		Use:   "register <currency>",
		Short: "register a new currency",
		Long: "this command lets you register a new currency and create its " +
			"treasury cap. A currency can be registered only once",
		Args: cobra.ExactArgs(1),
		RunE: currencyRegister,
	}
	currencyMintCmd = &cobra.Command{
		Use:   "mint",
		Short: "mint a new coin",
		Long: "this command lets you mint a new coin of the given amount for " +
			"the given owner, increasing the currency supply",
		RunE: currencyMint,
	}
	currencyBurnCmd = &cobra.Command{
		Use:   "burn <coin-id>",
		Short: "burn a coin",
		Long: "this command lets you destroy a coin and decrease the supply of " +
			"its currency by its value",
		Args: cobra.ExactArgs(1),
		RunE: currencyBurn,
	}
	currencyDissolveCmd = &cobra.Command{
		Use:   "dissolve <currency>",
		Short: "dissolve a treasury cap",
		Long: "this command lets you irreversibly dissolve the treasury cap of " +
			"the given currency. No coin can be minted or burned afterwards",
		Args: cobra.ExactArgs(1),
		RunE: currencyDissolve,
	}
	currencySupplyCmd = &cobra.Command{
		Use:   "supply <currency>",
		Short: "get currency supply",
		Long:  "this command returns the total supply of the given currency",
		Args:  cobra.ExactArgs(1),
		RunE:  currencySupply,
	}
	currencyListCmd = &cobra.Command{
		Use:   "list",
		Short: "list registered currencies",
		Long:  "this command returns the supply of every registered currency",
		RunE:  currencyList,
	}
	currencyCmd = &cobra.Command{
		Use:   "currency",
		Short: "interact with currency treasury",
		Long: "this command lets you register currencies, mint and burn coins, " +
			"and get info about their supply",
	}
)

func init() {
	currencyMintCmd.Flags().StringVarP(
		&mintCurrency, "currency", "c", "", "currency of the coin to mint",
	)
	currencyMintCmd.Flags().StringVarP(
		&mintOwner, "owner", "o", "", "owner of the minted coin",
	)
	currencyMintCmd.Flags().StringVarP(
		&mintAmount, "amount", "a", "", "value of the minted coin",
	)
	currencyMintCmd.MarkFlagRequired("currency")
	currencyMintCmd.MarkFlagRequired("owner")
	currencyMintCmd.MarkFlagRequired("amount")

	currencyCmd.AddCommand(
		currencyRegisterCmd, currencyMintCmd, currencyBurnCmd,
		currencyDissolveCmd, currencySupplyCmd, currencyListCmd,
	)
}

func currencyRegister(_ *cobra.Command, args []string) error {
	info, err := appConfig.TreasuryService().RegisterCurrency(
		context.Background(), domain.Currency(args[0]),
	)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func currencyMint(_ *cobra.Command, _ []string) error {
	amount, err := parseAmount(mintAmount)
	if err != nil {
		return err
	}

	coin, err := appConfig.TreasuryService().Mint(
		context.Background(), domain.Currency(mintCurrency), mintOwner, amount,
	)
	if err != nil {
		return err
	}
	return printJSON(coin)
}

func currencyBurn(_ *cobra.Command, args []string) error {
	id, err := parseCoinID(args[0])
	if err != nil {
		return err
	}

	amount, err := appConfig.TreasuryService().Burn(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Printf("burned %d\n", amount)
	return nil
}

func currencyDissolve(_ *cobra.Command, args []string) error {
	info, err := appConfig.TreasuryService().Dissolve(
		context.Background(), domain.Currency(args[0]),
	)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func currencySupply(_ *cobra.Command, args []string) error {
	info, err := appConfig.TreasuryService().GetSupply(
		context.Background(), domain.Currency(args[0]),
	)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func currencyList(_ *cobra.Command, _ []string) error {
	list, err := appConfig.TreasuryService().ListCurrencies(context.Background())
	if err != nil {
		return err
	}
	return printJSON(list)
}
