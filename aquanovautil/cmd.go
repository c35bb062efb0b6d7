/*
Copyright © 2026 the AquaNova authors.
This file is part of AquaNova.

AquaNova is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AquaNova is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AquaNova.  If not, see <http://www.gnu.org/licenses/>.
*/

package aquanovautil

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aquanova/aquanova"
	"github.com/aquanova/aquanova/catalog"
	"github.com/aquanova/aquanova/science/hrro/hrroxlsx"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to AquaNova.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "log_level",
			usage: `
              log_level is the minimum level of log messages to print.
              It can be one of debug, info, warn or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "scenario",
			usage: `
              scenario is the path to the scenario file describing the
              feed water and the treatment train. Files ending in .json
              are read as JSON; all others are read as TOML. The path
              can include environment variables.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "output_file",
			usage: `
              output_file is the path where the simulation result should
              be written. Files ending in .xlsx are written as
              spreadsheets; all others as JSON. If empty, the JSON result
              is printed to standard output.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "units.flow",
			usage: `
              units.flow is the unit of flow rates in the scenario and the
              result: m3/h, m3/d, gpm, gpd or mgd.`,
			defaultVal: "m3/h",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "units.pressure",
			usage: `
              units.pressure is the unit of pressures: bar, kPa or psi.`,
			defaultVal: "bar",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "units.temperature",
			usage: `
              units.temperature is the unit of temperatures: C or F.`,
			defaultVal: "C",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "units.flux",
			usage: `
              units.flux is the unit of permeate flux: LMH or gfd.`,
			defaultVal: "LMH",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "hrro.engine",
			usage: `
              hrro.engine is the engine used for HRRO stages that do not
              specify one: excel_only or excel_physics.`,
			defaultVal: "excel_only",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "catalog.cache_size",
			usage: `
              catalog.cache_size is the number of membrane specifications
              kept in memory.`,
			defaultVal: 128,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "catalog.family",
			usage: `
              catalog.family restricts the listed membranes to one family:
              RO, BWRO, SWRO, HRRO, NF, UF or MF.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{catalogListCmd.Flags()},
		},
		{
			name: "workbook",
			usage: `
              workbook is the path to a CCRO reference workbook whose cover
              sheet is compared with the HRRO baseline formulas.`,
			shorthand:  "w",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{hrroCheckCmd.Flags()},
		},
		{
			name: "workbook_sheet",
			usage: `
              workbook_sheet is the name of the cover sheet of the
              reference workbook.`,
			defaultVal: hrroxlsx.DefaultSheet,
			flagsets:   []*pflag.FlagSet{hrroCheckCmd.Flags()},
		},
		{
			name: "tolerance",
			usage: `
              tolerance is the largest absolute difference between a
              workbook cell and the computed value that is not reported
              as a mismatch.`,
			defaultVal: 1e-6,
			flagsets:   []*pflag.FlagSet{hrroCheckCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("AQUANOVA")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd)
	Root.AddCommand(hrroCmd)
	hrroCmd.AddCommand(hrroCheckCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("aquanova: problem reading configuration file: %v", err)
		}
	}
	return setLogging(Cfg.GetString("log_level"))
}

// setLogging configures the standard logger.
func setLogging(level string) error {
	if level == "" {
		level = "info"
	}
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("aquanova: invalid log_level: %v", err)
	}
	logrus.SetLevel(l)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})
	return nil
}

// cacheSize reads the catalog.cache_size option.
func cacheSize() (int, error) {
	n, err := cast.ToIntE(Cfg.Get("catalog.cache_size"))
	if err != nil {
		return 0, fmt.Errorf("aquanova: reading 'catalog.cache_size': %v", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("aquanova: 'catalog.cache_size' must not be negative, got %d", n)
	}
	return n, nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "aquanova",
	Short: "A membrane water-treatment train simulator.",
	Long: `AquaNova simulates multi-stage membrane water-treatment trains made of
reverse osmosis, nanofiltration, ultrafiltration, microfiltration and
closed-circuit (HRRO) stages. Use the subcommands specified below to access
the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'AQUANOVA_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of AquaNova.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "AquaNova v%s (result schema %d)\n", aquanova.Version, aquanova.SchemaVersion)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that runs a simulation.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation.",
	Long: `run simulates the treatment train described in the scenario file
and writes the system and per-stage results to output_file. Flows,
pressures, temperatures and fluxes in the scenario are read in the
units given by the units.* options, and the result is reported in
the same units.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario := Cfg.GetString("scenario")
		if scenario == "" && len(args) > 0 {
			scenario = args[0]
		}
		n, err := cacheSize()
		if err != nil {
			return err
		}
		return Run(cmd.OutOrStdout(), scenario, Cfg.GetString("output_file"),
			unitSystem(Cfg), Cfg.GetString("hrro.engine"), catalog.New(n), logrus.StandardLogger())
	},
	DisableAutoGenTag: true,
}

var catalogCmd = &cobra.Command{
	Use:               "catalog",
	Short:             "Query the membrane catalog.",
	Long:              `catalog gives access to the built-in membrane element catalog.`,
	DisableAutoGenTag: true,
}

// catalogListCmd lists catalog membranes.
var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog membranes.",
	Long: `list prints the membranes of the catalog with their area and
transport coefficients. The catalog.family option restricts the list
to one membrane family.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ListMembranes(cmd.OutOrStdout(), Cfg.GetString("catalog.family"))
	},
	DisableAutoGenTag: true,
}

var hrroCmd = &cobra.Command{
	Use:               "hrro",
	Short:             "HRRO (closed-circuit RO) tools.",
	Long:              `hrro holds tools for closed-circuit RO design.`,
	DisableAutoGenTag: true,
}

// hrroCheckCmd compares a reference workbook with the baseline formulas.
var hrroCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a reference workbook.",
	Long: `check reads the inputs on the cover sheet of a CCRO reference
workbook, evaluates the HRRO baseline formulas with them and reports
every output cell that differs from the computed value by more than
the tolerance. It returns an error if any cell differs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := Cfg.GetString("workbook")
		if path == "" && len(args) > 0 {
			path = args[0]
		}
		return CheckWorkbook(context.Background(), cmd.OutOrStdout(), os.ExpandEnv(path),
			Cfg.GetString("workbook_sheet"), Cfg.GetFloat64("tolerance"), logrus.StandardLogger())
	},
	DisableAutoGenTag: true,
}
