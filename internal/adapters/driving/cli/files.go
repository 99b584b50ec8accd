package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [path]",
	Short: "Upload a file into the knowledge base",
	Long: `Reads a file from disk, extracts its text, splits it into chunks
and adds it to the knowledge base.

Supported extensions: .txt .md .csv .json .html .htm .pdf .docx`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage uploaded files",
	Long:  `List, inspect, delete, re-chunk or move uploaded files between stages.`,
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded files",
	Args:  cobra.NoArgs,
	RunE:  runFilesList,
}

var filesGetCmd = &cobra.Command{
	Use:   "get [file-id]",
	Short: "Show file info",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesGet,
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete [file-id]",
	Short: "Delete a file and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesDelete,
}

var filesRechunkCmd = &cobra.Command{
	Use:   "rechunk [file-id]",
	Short: "Re-extract chunks from the stored original",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesRechunk,
}

var filesAssignCmd = &cobra.Command{
	Use:   "assign [file-id]",
	Short: "Move a file to a stage",
	Long: `Moves a file to the stage given by --stage. Pass --stage none to
remove the stage, which makes the file always searchable.`,
	Args: cobra.ExactArgs(1),
	RunE: runFilesAssign,
}

var filesChunksCmd = &cobra.Command{
	Use:   "chunks [file-id]",
	Short: "Print the chunks of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesChunks,
}

var (
	uploadStage string
	uploadType  string
	assignStage string
)

func init() {
	uploadCmd.Flags().StringVarP(&uploadStage, "stage", "s", "", "stage ID to assign the file to")
	uploadCmd.Flags().StringVarP(&uploadType, "type", "t", "", "declared file type (text or document)")

	filesAssignCmd.Flags().StringVarP(&assignStage, "stage", "s", "", "target stage ID, or none")
	_ = filesAssignCmd.MarkFlagRequired("stage")

	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesGetCmd)
	filesCmd.AddCommand(filesDeleteCmd)
	filesCmd.AddCommand(filesRechunkCmd)
	filesCmd.AddCommand(filesAssignCmd)
	filesCmd.AddCommand(filesChunksCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(filesCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	req := domain.UploadRequest{
		Name:         filepath.Base(path),
		Content:      content,
		DeclaredType: domain.FileType(uploadType),
	}
	if uploadStage != "" {
		stage := uploadStage
		req.StageID = &stage
	}

	rec, err := documentService.Add(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, rec)
	}

	cmd.Printf("Uploaded %s\n", rec.OriginalName)
	cmd.Printf("  ID:     %s\n", rec.ID)
	cmd.Printf("  Chunks: %d\n", rec.ChunkCount)
	if rec.HasStage() {
		cmd.Printf("  Stage:  %s\n", *rec.StageID)
	}
	return nil
}

func runFilesList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	files, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, files)
	}

	if len(files) == 0 {
		cmd.Println("No files uploaded.")
		return nil
	}

	for i := range files {
		f := &files[i]
		cmd.Printf("  %s\n", f.ID)
		cmd.Printf("    Name:   %s\n", f.OriginalName)
		cmd.Printf("    Chunks: %d\n", f.ChunkCount)
		cmd.Printf("    Stage:  %s\n", stageLabel(f))
		cmd.Println()
	}

	cmd.Printf("Total: %d files\n", len(files))
	return nil
}

func runFilesGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	rec, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, rec)
	}

	cmd.Printf("File: %s\n\n", rec.ID)
	cmd.Printf("  Name:      %s\n", rec.OriginalName)
	cmd.Printf("  Type:      %s (%s)\n", rec.Type, rec.Extension)
	cmd.Printf("  Size:      %d bytes\n", rec.Size)
	cmd.Printf("  Chunks:    %d\n", rec.ChunkCount)
	cmd.Printf("  Stage:     %s\n", stageLabel(rec))
	cmd.Printf("  Uploaded:  %s\n", rec.UploadedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Checksum:  %s\n", rec.Checksum)
	return nil
}

func runFilesDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	deleted, err := documentService.Delete(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, map[string]bool{"deleted": deleted})
	}

	if !deleted {
		cmd.Printf("File %s not found, nothing deleted.\n", args[0])
		return nil
	}
	cmd.Printf("File %s deleted.\n", args[0])
	return nil
}

func runFilesRechunk(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	rec, err := documentService.Rechunk(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to rechunk file: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, rec)
	}

	cmd.Printf("Rechunked %s into %d chunks.\n", rec.OriginalName, rec.ChunkCount)
	return nil
}

func runFilesAssign(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	var stageID *string
	if s := strings.TrimSpace(assignStage); s != "" && !strings.EqualFold(s, "none") {
		stageID = &s
	}

	rec, err := documentService.AssignStage(cmd.Context(), args[0], stageID)
	if err != nil {
		return fmt.Errorf("failed to assign stage: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, rec)
	}

	cmd.Printf("File %s is now in stage %s.\n", rec.OriginalName, stageLabel(rec))
	return nil
}

func runFilesChunks(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	chunks, err := documentService.Chunks(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, chunks)
	}

	if len(chunks) == 0 {
		cmd.Println("File has no chunks.")
		return nil
	}

	for i := range chunks {
		c := &chunks[i]
		tags := []string{fmt.Sprintf("#%d", c.Position)}
		if c.IsQuestionAnswer {
			tags = append(tags, "q&a")
		}
		if c.HasEmbedding() {
			tags = append(tags, "embedded")
		}
		cmd.Printf("[%s] %s\n", strings.Join(tags, " "), c.ID)
		cmd.Printf("%s\n\n", c.Text)
	}
	return nil
}

func stageLabel(f *domain.FileRecord) string {
	if !f.HasStage() {
		return "(none)"
	}
	return *f.StageID
}
