package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/clients/go/unitypay"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/ledger"
)

// raw makes amount arguments and output use base units instead of tokens.
var raw bool

func amountArg(s string) (string, error) {
	if raw {
		v, err := ledger.ParseAmount(s)
		if err != nil {
			return "", err
		}
		return v.Dec(), nil
	}
	return toBaseUnits(s)
}

func showAmount(base string) string {
	if raw {
		return base
	}
	return formatTokens(base) + " " + ledger.Symbol
}

// LedgerCmd groups the token ledger commands.
func LedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Query and operate the UPX token ledger",
		Long: `Query balances and events, or submit signed ledger operations with the local wallet.
Amounts are in whole tokens (decimals allowed) unless --raw is set.`,
	}

	cmd.PersistentFlags().BoolVar(&raw, "raw", false, "Use base units for amounts")

	cmd.AddCommand(ledgerInfoCmd())
	cmd.AddCommand(ledgerBalanceCmd())
	cmd.AddCommand(ledgerAllowanceCmd())
	cmd.AddCommand(ledgerEventsCmd())
	cmd.AddCommand(ledgerWriteCmd("mint <to> <amount>", "Mint tokens to an address (owner only)", 2,
		func(c *unitypay.Client, args []string) (*ledger.Event, error) {
			amount, err := amountArg(args[1])
			if err != nil {
				return nil, err
			}
			return c.Mint(args[0], amount)
		}))
	cmd.AddCommand(ledgerWriteCmd("burn <amount>", "Burn tokens from the wallet", 1,
		func(c *unitypay.Client, args []string) (*ledger.Event, error) {
			amount, err := amountArg(args[0])
			if err != nil {
				return nil, err
			}
			return c.Burn(amount)
		}))
	cmd.AddCommand(ledgerWriteCmd("transfer <to> <amount>", "Transfer tokens from the wallet", 2,
		func(c *unitypay.Client, args []string) (*ledger.Event, error) {
			amount, err := amountArg(args[1])
			if err != nil {
				return nil, err
			}
			return c.Transfer(args[0], amount)
		}))
	cmd.AddCommand(ledgerWriteCmd("approve <spender> <amount>", "Set a spender's allowance", 2,
		func(c *unitypay.Client, args []string) (*ledger.Event, error) {
			amount, err := amountArg(args[1])
			if err != nil {
				return nil, err
			}
			return c.Approve(args[0], amount)
		}))
	cmd.AddCommand(ledgerWriteCmd("transfer-from <from> <to> <amount>", "Spend an allowance", 3,
		func(c *unitypay.Client, args []string) (*ledger.Event, error) {
			amount, err := amountArg(args[2])
			if err != nil {
				return nil, err
			}
			return c.TransferFrom(args[0], args[1], amount)
		}))
	cmd.AddCommand(ledgerWriteCmd("pause", "Halt transfers (owner only)", 0,
		func(c *unitypay.Client, _ []string) (*ledger.Event, error) {
			return c.Pause()
		}))
	cmd.AddCommand(ledgerWriteCmd("unpause", "Resume transfers (owner only)", 0,
		func(c *unitypay.Client, _ []string) (*ledger.Event, error) {
			return c.Unpause()
		}))

	return cmd
}

func ledgerInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show token supply and state",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := newClient().LedgerInfo()
			if err != nil {
				return err
			}
			state := okMark + " active"
			if info.Paused {
				state = failMark + " paused"
			}
			fmt.Printf("%s (%s)  %s\n", info.Name, info.Symbol, state)
			fmt.Printf("  total supply:    %s\n", showAmount(info.TotalSupply))
			fmt.Printf("  max supply:      %s\n", showAmount(info.MaxSupply))
			fmt.Printf("  mintable:        %s\n", showAmount(info.MintableSupply))
			fmt.Printf("  owner:           %s\n", info.Owner)
			fmt.Printf("  holders:         %d\n", info.Holders)
			fmt.Printf("  last seq:        %d\n", info.LastSeq)
			return nil
		},
	}
}

func ledgerBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Show a balance (defaults to the wallet address)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var address string
			if len(args) == 1 {
				address = args[0]
			} else {
				c, err := walletClient()
				if err != nil {
					return err
				}
				address = c.Address()
			}
			balance, err := newClient().Balance(address)
			if err != nil {
				return err
			}
			fmt.Println(showAmount(balance))
			return nil
		},
	}
}

func ledgerAllowanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allowance <owner> <spender>",
		Short: "Show how much a spender may move for an owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			allowance, err := newClient().Allowance(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(showAmount(allowance))
			return nil
		},
	}
}

func ledgerEventsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recent ledger events",
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := newClient().LedgerEvents(limit)
			if err != nil {
				return err
			}
			for _, ev := range events {
				printEvent(ev)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of events to list")
	return cmd
}

func printEvent(ev ledger.Event) {
	amount := ""
	if ev.Amount != nil {
		amount = showAmount(ev.Amount.Dec())
	}
	fmt.Printf("#%-5d %-9s %s -> %s  %s  %s\n",
		ev.Seq, accent.Sprint(ev.Kind), shortAddr(ev.From), shortAddr(ev.To), amount,
		dim.Sprint(ev.Time.Local().Format("2006-01-02 15:04:05")))
}

func shortAddr(a ledger.Address) string {
	if a.IsZero() {
		return "-"
	}
	s := string(a)
	if len(s) < 12 {
		return s
	}
	return s[:8] + "…" + s[len(s)-4:]
}

type ledgerOp func(c *unitypay.Client, args []string) (*ledger.Event, error)

func ledgerWriteCmd(use, short string, nargs int, op ledgerOp) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := walletClient()
			if err != nil {
				return err
			}
			ev, err := op(c, args)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s committed\n", okMark, ev.Kind)
			printEvent(*ev)
			return nil
		},
	}
}
