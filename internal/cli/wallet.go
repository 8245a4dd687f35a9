package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// KeygenCmd creates and stores a wallet key.
func KeygenCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a wallet key",
		Long: `Generate an Ed25519 wallet key and store it in the wallet directory.
Set UNITYPAY_PASSPHRASE to encrypt the key at rest.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			if _, err := os.Stat(c.KeyPath()); err == nil && !force {
				return fmt.Errorf("wallet already exists at %s (use --force to replace it)", c.KeyPath())
			}
			if err := c.GenerateKey(); err != nil {
				return fmt.Errorf("failed to generate key: %w", err)
			}
			passphrase := os.Getenv("UNITYPAY_PASSPHRASE")
			if err := c.SaveKey(passphrase); err != nil {
				return fmt.Errorf("failed to save key: %w", err)
			}

			fmt.Printf("%s Wallet created\n", okMark)
			fmt.Printf("  address: %s\n", accent.Sprint(c.Address()))
			fmt.Printf("  file:    %s\n", c.KeyPath())
			if passphrase == "" {
				dim.Println("  key is stored unencrypted; set UNITYPAY_PASSPHRASE to encrypt it")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing wallet")
	return cmd
}

// AddressCmd prints the wallet's ledger address.
func AddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the wallet address",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := walletClient()
			if err != nil {
				return err
			}
			fmt.Println(c.Address())
			return nil
		},
	}
}

// SignCmd prints signature headers for a request body, for use with curl.
func SignCmd() *cobra.Command {
	var bodyFile string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print signature headers for a request body",
		Long:  `Sign a request body with the wallet key. Reads the body from stdin unless --body is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := walletClient()
			if err != nil {
				return err
			}

			var body []byte
			if bodyFile != "" {
				body, err = os.ReadFile(bodyFile)
			} else {
				body, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read body: %w", err)
			}

			headers, err := c.SignHeaders(body)
			if err != nil {
				return err
			}
			for _, h := range []string{"X-UPX-Key", "X-UPX-Nonce", "X-UPX-Timestamp", "X-UPX-Signature"} {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", h, headers.Get(h))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bodyFile, "body", "", "File containing the request body")
	return cmd
}
