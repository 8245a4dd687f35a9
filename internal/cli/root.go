// Package cli implements the upx command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/clients/go/unitypay"
)

var (
	baseURL string

	okMark   = color.New(color.FgGreen).Sprint("✓")
	failMark = color.New(color.FgRed).Sprint("✗")
	dim      = color.New(color.Faint)
	accent   = color.New(color.FgCyan)
)

// RootCmd returns the upx command with every subcommand attached.
func RootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "upx",
		Short:   "UPX - UnityPay Prime Brain operator CLI",
		Version: version,
		Long: `upx talks to a UnityPay server: it reads boardroom reports, chats with the
agents, runs audits and signs ledger operations with a local wallet.

Environment:
  UNITYPAY_URL         Server URL (default http://localhost:8080)
  UNITYPAY_CONFIG      Wallet directory (default ~/.unitypay)
  UNITYPAY_PASSPHRASE  Wallet passphrase, if the key is encrypted`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", os.Getenv("UNITYPAY_URL"), "server URL")

	rootCmd.AddCommand(KeygenCmd())
	rootCmd.AddCommand(AddressCmd())
	rootCmd.AddCommand(SignCmd())
	rootCmd.AddCommand(HealthCmd())
	rootCmd.AddCommand(AgentsCmd())
	rootCmd.AddCommand(MeetingCmd())
	rootCmd.AddCommand(AskCmd())
	rootCmd.AddCommand(HistoryCmd())
	rootCmd.AddCommand(AuditCmd())
	rootCmd.AddCommand(LedgerCmd())

	return rootCmd
}

func newClient() *unitypay.Client {
	return unitypay.NewClient(baseURL)
}

// walletClient returns a client with the local wallet loaded.
func walletClient() (*unitypay.Client, error) {
	c := newClient()
	if err := c.LoadKey(os.Getenv("UNITYPAY_PASSPHRASE")); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no wallet at %s: run `upx keygen` first", c.KeyPath())
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	return c, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
