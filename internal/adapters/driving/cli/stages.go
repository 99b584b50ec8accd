package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Manage stages",
	Long: `Stages group files and control whether they are searchable.
Files in an inactive stage are hidden from search. Files without a
stage are always visible.`,
}

var stagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stages",
	Args:  cobra.NoArgs,
	RunE:  runStagesList,
}

var stagesAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a stage",
	Args:  cobra.ExactArgs(1),
	RunE:  runStagesAdd,
}

var stagesEnableCmd = &cobra.Command{
	Use:   "enable [stage-id]",
	Short: "Make a stage searchable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStageActive(cmd, args[0], true)
	},
}

var stagesDisableCmd = &cobra.Command{
	Use:   "disable [stage-id]",
	Short: "Hide a stage from search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStageActive(cmd, args[0], false)
	},
}

var stagesRenameCmd = &cobra.Command{
	Use:   "rename [stage-id] [name]",
	Short: "Rename a stage",
	Args:  cobra.ExactArgs(2),
	RunE:  runStagesRename,
}

var stagesDeleteCmd = &cobra.Command{
	Use:   "delete [stage-id]",
	Short: "Delete a stage",
	Long:  `Deletes a stage. Files assigned to it become unstaged and always visible.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStagesDelete,
}

var stagesImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Create or update stages from a YAML file",
	Long: `Reads a YAML document of the form:

  stages:
    - name: onboarding
      active: true
    - name: drafts
      active: false

Stages are matched by name. Existing stages are updated, others are created.`,
	Args: cobra.ExactArgs(1),
	RunE: runStagesImport,
}

func init() {
	stagesCmd.AddCommand(stagesListCmd)
	stagesCmd.AddCommand(stagesAddCmd)
	stagesCmd.AddCommand(stagesEnableCmd)
	stagesCmd.AddCommand(stagesDisableCmd)
	stagesCmd.AddCommand(stagesRenameCmd)
	stagesCmd.AddCommand(stagesDeleteCmd)
	stagesCmd.AddCommand(stagesImportCmd)
	rootCmd.AddCommand(stagesCmd)
}

func runStagesList(cmd *cobra.Command, _ []string) error {
	if stageService == nil {
		return errors.New("stage service not configured")
	}

	stages, err := stageService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list stages: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, stages)
	}

	if len(stages) == 0 {
		cmd.Println("No stages configured.")
		return nil
	}

	for i := range stages {
		printStageLine(cmd, &stages[i])
	}
	return nil
}

func runStagesAdd(cmd *cobra.Command, args []string) error {
	if stageService == nil {
		return errors.New("stage service not configured")
	}

	stage, err := stageService.Create(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to create stage: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, stage)
	}

	cmd.Printf("Created stage %s (%s).\n", stage.Name, stage.ID)
	return nil
}

func setStageActive(cmd *cobra.Command, id string, active bool) error {
	if stageService == nil {
		return errors.New("stage service not configured")
	}

	stage, err := stageService.SetActive(cmd.Context(), id, active)
	if err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, stage)
	}

	if stage.IsActive {
		cmd.Printf("Stage %s is now searchable.\n", stage.Name)
	} else {
		cmd.Printf("Stage %s is now hidden from search.\n", stage.Name)
	}
	return nil
}

func runStagesRename(cmd *cobra.Command, args []string) error {
	if stageService == nil {
		return errors.New("stage service not configured")
	}

	stage, err := stageService.Rename(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to rename stage: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, stage)
	}

	cmd.Printf("Stage %s renamed to %s.\n", stage.ID, stage.Name)
	return nil
}

func runStagesDelete(cmd *cobra.Command, args []string) error {
	if stageService == nil {
		return errors.New("stage service not configured")
	}

	if err := stageService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete stage: %w", err)
	}

	cmd.Printf("Stage %s deleted.\n", args[0])
	return nil
}

func runStagesImport(cmd *cobra.Command, args []string) error {
	if stageService == nil {
		return errors.New("stage service not configured")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	stages, err := stageService.Import(cmd.Context(), data)
	if err != nil {
		return fmt.Errorf("failed to import stages: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, stages)
	}

	cmd.Printf("Imported %d stages:\n", len(stages))
	for i := range stages {
		printStageLine(cmd, &stages[i])
	}
	return nil
}

func printStageLine(cmd *cobra.Command, s *domain.Stage) {
	mark := " "
	if s.IsActive {
		mark = "x"
	}
	cmd.Printf("  [%s] %s  %s\n", mark, s.Name, s.ID)
}
