package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/taskpad/taskpad/internal/config"
	"github.com/taskpad/taskpad/internal/session"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Manage authentication with the taskpad server.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the taskpad server",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from the taskpad server",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account on the taskpad server",
	RunE:  runRegister,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
}

func newSessionClient() (*session.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return session.NewClient(cfg.ServerURL)
}

func promptLine(label string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(label string) string {
	fmt.Print(label)
	passwordBytes, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(passwordBytes)
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, err := newSessionClient()
	if err != nil {
		return err
	}

	email := promptLine("Email: ")
	password := promptPassword("Password: ")

	fmt.Println("Logging in...")
	if err := client.Login(email, password); err != nil {
		return err
	}

	fmt.Println("Logged in successfully.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	client, err := newSessionClient()
	if err != nil {
		return err
	}

	if !client.IsLoggedIn() {
		fmt.Println("Not logged in.")
		return nil
	}

	if err := client.Logout(); err != nil {
		return err
	}

	fmt.Println("Logged out.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	client, err := newSessionClient()
	if err != nil {
		return err
	}

	email := promptLine("Email: ")
	password := promptPassword("Password: ")
	confirm := promptPassword("Confirm Password: ")

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	fmt.Println("Creating account...")
	if err := client.Register(email, password); err != nil {
		return err
	}

	fmt.Println("Account created and logged in.")
	return nil
}
