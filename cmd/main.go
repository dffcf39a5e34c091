/*
Copyright 2026 Meridian Bank Authors.

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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/meridian-bank/meridian"
	"github.com/meridian-bank/meridian/config"
	"github.com/meridian-bank/meridian/database"
	"github.com/meridian-bank/meridian/internal/notification"
)

// Meridian represents the CLI application, encapsulating the root command.
type Meridian struct {
	cmd *cobra.Command
}

// meridianInstance holds the service and its configuration for the lifetime of
// a command invocation.
type meridianInstance struct {
	service *meridian.Meridian
	cnf     *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the service before any
// command runs.
func preRun(app *meridianInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("meridian.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newService, err := setupMeridian(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.service = newService
		app.cnf = cnf

		return nil
	}
}

// setupMeridian connects the data source and builds the service on top of it.
func setupMeridian(cfg *config.Configuration) (*meridian.Meridian, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newService, err := meridian.NewMeridian(db)
	if err != nil {
		return nil, fmt.Errorf("error creating meridian: %v", err)
	}
	return newService, nil
}

// NewCLI assembles the root command and its subcommands.
func NewCLI() *Meridian {
	var configFile string
	m := &meridianInstance{}

	var rootCmd = &cobra.Command{
		Use:   "meridian",
		Short: "Banking core with step-up transfer authorization",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./meridian.json", "Configuration file for meridian")

	rootCmd.PersistentPreRunE = preRun(m)

	rootCmd.AddCommand(serverCommands(m))
	rootCmd.AddCommand(migrateCommands(m))
	rootCmd.AddCommand(configCommands())

	return &Meridian{cmd: rootCmd}
}

func (m Meridian) executeCLI() {
	if err := m.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
