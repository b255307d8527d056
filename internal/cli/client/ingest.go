package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// IngestResponse represents the document ingestion API response.
type IngestResponse struct {
	DocumentID    string   `json:"document_id"`
	ChunksIndexed int      `json:"chunks_indexed"`
	ChunkIDs      []string `json:"chunk_ids"`
}

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	var documentID string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Upload and index a document",
		Long:  "Uploads a .txt, .csv, or .pdf file and indexes it for question answering. Re-ingesting the same document id replaces its previous chunks.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIngest(cmd, args[0], documentID, outputJSON)
		},
	}

	cmd.Flags().StringVar(&documentID, "id", "", "Document id (defaults to the filename)")

	return cmd
}

func runIngest(cmd *cobra.Command, filePath, documentID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.UploadDocument(filePath, documentID, "")
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	var ingestResp IngestResponse
	if err := json.Unmarshal(resp.Data, &ingestResp); err != nil {
		return fmt.Errorf("failed to parse ingest response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(ingestResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Indexed %s: %d chunks\n", ingestResp.DocumentID, ingestResp.ChunksIndexed)
	return nil
}
