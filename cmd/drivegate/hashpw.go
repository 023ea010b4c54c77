package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"drivegate/password"
)

var hashpwCmd = &cobra.Command{
	Use:   "hashpw",
	Short: "Hash a password for the ACL file",
	Long: `Prompt for a password and print its argon2id hash, ready to paste
into the users section of the policy file.`,
	Args: cobra.NoArgs,
	RunE: runHashpw,
}

func init() {
	rootCmd.AddCommand(hashpwCmd)
}

func runHashpw(cmd *cobra.Command, args []string) error {
	pw, err := readPassword()
	if err != nil {
		return err
	}
	if pw == "" {
		return errors.New("empty password")
	}
	hash, err := password.Hash(pw, password.DefaultParams())
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// Piped input: first line is the password.
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Again: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
