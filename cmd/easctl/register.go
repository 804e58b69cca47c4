package main

import (
	"context"
	"fmt"
	"log"

	"github.com/airsyncd/airsyncd/models"
	"github.com/spf13/cobra"
)

const (
	FlagDeviceID = "device-id"
	FlagLogin    = "login"
	FlagPassword = "password"
)

// GetRegisterCmd returns the device registration command.
func GetRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new device account and print its bearer token",
		Run: func(cmd *cobra.Command, args []string) {
			credentials := credentialsFromFlags(cmd)

			token, err := adapterFromFlags(cmd).Register(context.Background(), credentials)
			if err != nil {
				log.Fatalf("register failed: %v", err)
			}

			fmt.Println(token)
		},
	}
	addCredentialFlags(cmd)

	return cmd
}

// GetLoginCmd returns the login command.
func GetLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate an existing account and print its bearer token",
		Run: func(cmd *cobra.Command, args []string) {
			credentials := credentialsFromFlags(cmd)

			token, err := adapterFromFlags(cmd).Login(context.Background(), credentials)
			if err != nil {
				log.Fatalf("login failed: %v", err)
			}

			fmt.Println(token)
		},
	}
	addCredentialFlags(cmd)

	return cmd
}

func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().String(FlagDeviceID, "", "stable device identity")
	cmd.Flags().String(FlagLogin, "", "account login")
	cmd.Flags().String(FlagPassword, "", "account password")
}

func credentialsFromFlags(cmd *cobra.Command) models.Credentials {
	deviceID, err := cmd.Flags().GetString(FlagDeviceID)
	if err != nil {
		log.Fatalf("%s flag: %v", FlagDeviceID, err)
	}
	login, err := cmd.Flags().GetString(FlagLogin)
	if err != nil {
		log.Fatalf("%s flag: %v", FlagLogin, err)
	}
	password, err := cmd.Flags().GetString(FlagPassword)
	if err != nil {
		log.Fatalf("%s flag: %v", FlagPassword, err)
	}

	return models.Credentials{DeviceID: deviceID, Login: login, Password: password}
}

func init() {
	rootCmd.AddCommand(GetRegisterCmd())
	rootCmd.AddCommand(GetLoginCmd())
}
