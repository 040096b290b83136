package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/arthur-debert/genlink/pkg/config"
	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/generations"
	"github.com/arthur-debert/genlink/pkg/linkops"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/arthur-debert/genlink/pkg/store"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	skipValidation bool
	forceDelete    bool
)

func init() {
	applyCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")
	applyCmd.Flags().BoolVar(&skipValidation, "skip-validation", false,
		"Skip source validation and overwrite existing targets (dangerous)")
	deleteCmd.Flags().BoolVarP(&forceDelete, "force", "f", false, "Delete without confirmation")
}

// newService builds the lifecycle service rooted at the given state dir
func newService(stateDir string) (*generations.Service, error) {
	st, err := store.New(stateDir)
	if err != nil {
		return nil, err
	}
	return generations.New(st, linkops.NewOS()), nil
}

// resolveConfigPath returns the explicit -c path or the first config
// file found on the search path.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	if found := paths.FindConfig(); found != "" {
		return found, nil
	}
	return "", errors.Newf(errors.ErrConfigLoad, MsgNoConfigFound,
		strings.Join(paths.ConfigSearchPaths(), ", "))
}

// stateDirForReads returns the state directory for read-only commands:
// the configured one when a config file is present, the default
// otherwise. An unreadable config is ignored so inspection commands
// keep working against the default location.
func stateDirForReads() string {
	logger := logging.GetLogger("cli")
	if found := paths.FindConfig(); found != "" {
		doc, err := config.Load(found)
		if err == nil {
			return doc.StateDir
		}
		logger.Debug().Err(err).Str("path", found).Msg("ignoring unreadable config for read command")
	}
	return paths.DefaultStateDir()
}

// stateDirForWrites resolves the state directory for mutating commands.
// Unlike reads, an unreadable config is an error: silently falling back
// to the default could mutate the wrong state record.
func stateDirForWrites() (string, error) {
	if found := paths.FindConfig(); found != "" {
		doc, err := config.Load(found)
		if err != nil {
			return "", err
		}
		return doc.StateDir, nil
	}
	return paths.DefaultStateDir(), nil
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: MsgApplyShort,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		doc, err := config.Load(path)
		if err != nil {
			return err
		}
		svc, err := newService(doc.StateDir)
		if err != nil {
			return err
		}

		report, err := svc.Apply(doc, path, skipValidation)
		if err != nil {
			return err
		}

		fmt.Printf(MsgApplied, report.GenerationID, len(report.Entries))
		for _, entry := range report.Entries {
			if entry.Overwrote {
				fmt.Printf(MsgEntryOverwrote, entry.Entry.Target)
			}
			if entry.BackupPath != "" {
				fmt.Printf(MsgEntryBackedUp, entry.Entry.Target, entry.BackupPath)
			}
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: MsgListShort,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(stateDirForReads())
		if err != nil {
			return err
		}
		state, err := svc.List()
		if err != nil {
			return err
		}

		if len(state.Generations) == 0 {
			fmt.Println(MsgNoGenerations)
			return nil
		}
		fmt.Println(MsgGenerationsHead)
		for _, gen := range state.Generations {
			active := state.Active != nil && *state.Active == gen.ID
			fmt.Println(formatGenerationLine(gen, active))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: MsgShowShort,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		svc, err := newService(stateDirForReads())
		if err != nil {
			return err
		}
		gen, active, err := svc.Show(id)
		if err != nil {
			return err
		}
		fmt.Print(formatGeneration(gen, active))
		return nil
	},
}

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: MsgCurrentShort,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(stateDirForReads())
		if err != nil {
			return err
		}
		gen, err := svc.Current()
		if err != nil {
			return err
		}
		if gen == nil {
			fmt.Println(MsgNoActive)
			return nil
		}
		fmt.Printf("Current generation: %d\n", gen.ID)
		fmt.Printf("  Created at: %s\n", gen.CreatedAt.Local().Format(timestampFormat))
		fmt.Printf("  Config: %s\n", gen.ConfigSource)
		fmt.Printf("  Links: %d\n", len(gen.Links))
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: MsgVerifyShort,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(stateDirForReads())
		if err != nil {
			return err
		}
		results, err := svc.Verify()
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println(MsgVerifyEmpty)
			return nil
		}

		problems := 0
		for _, result := range results {
			if result.Status != types.StatusOk {
				problems++
			}
		}
		if problems == 0 {
			fmt.Printf(MsgVerifyAllOk, len(results))
		} else {
			fmt.Printf(MsgVerifyProblems, problems)
		}
		for _, result := range results {
			fmt.Println(formatVerifyResult(result))
		}
		return nil
	},
}

var switchCmd = &cobra.Command{
	Use:   "switch <id>",
	Short: MsgSwitchShort,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		stateDir, err := stateDirForWrites()
		if err != nil {
			return err
		}
		svc, err := newService(stateDir)
		if err != nil {
			return err
		}
		gen, err := svc.Switch(id)
		if err != nil {
			return err
		}
		fmt.Printf(MsgSwitched, gen.ID)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: MsgDeleteShort,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		if !forceDelete {
			fmt.Printf(MsgDeleteConfirm, id)
			reader := bufio.NewReader(cmd.InOrStdin())
			answer, _ := reader.ReadString('\n')
			if !strings.EqualFold(strings.TrimSpace(answer), "y") {
				fmt.Println(MsgDeleteAborted)
				return nil
			}
		}

		stateDir, err := stateDirForWrites()
		if err != nil {
			return err
		}
		svc, err := newService(stateDir)
		if err != nil {
			return err
		}
		if err := svc.Delete(id); err != nil {
			return err
		}
		fmt.Printf(MsgDeleted, id)
		return nil
	},
}

var genconfigCmd = &cobra.Command{
	Use:   "genconfig",
	Short: MsgGenconfigShort,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		starter, err := config.Starter()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), starter)
		return nil
	},
}

func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, errors.Newf(errors.ErrNotFound, "invalid generation id %q", arg)
	}
	return id, nil
}
