/*
Copyright 2025 Grand Hotel Checkin Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	checkin "github.com/grandhotel/checkin"
	"github.com/grandhotel/checkin/config"
	"github.com/grandhotel/checkin/internal/notification"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CheckinCLI represents the CLI application, encapsulating the root Cobra command.
type CheckinCLI struct {
	cmd *cobra.Command
}

// checkinInstance holds the service instance and its configuration for the
// lifetime of one command invocation.
type checkinInstance struct {
	service *checkin.CheckIn
	cnf     *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the check-in service
// before running any command.
func preRun(app *checkinInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		service, err := checkin.NewCheckIn()
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.service = service
		app.cnf = cnf

		return nil
	}
}

// NewCLI creates the command-line interface for the check-in application.
func NewCLI() *CheckinCLI {
	var configFile string
	b := &checkinInstance{}

	var rootCmd = &cobra.Command{
		Use:   "checkin",
		Short: "Hotel digital-identity check-in service",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./checkin.json", "Configuration file for the check-in service")

	rootCmd.PersistentPreRunE = preRun(b, &configFile)

	rootCmd.AddCommand(serverCommands(b))

	return &CheckinCLI{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w CheckinCLI) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// main is the entry point for the application. It recovers from any panic,
// initializes the CLI, and executes it.
func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
