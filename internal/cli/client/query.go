package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// QueryRequest represents the query API request.
type QueryRequest struct {
	Query    string `json:"query"`
	Language string `json:"lang,omitempty"`
}

// QueryResponse represents the query API response.
type QueryResponse struct {
	Answer               string   `json:"answer"`
	Sources              []string `json:"sources"`
	Confidence           float64  `json:"confidence"`
	InsufficientEvidence bool     `json:"insufficient_evidence"`
}

// QueryCmd creates the query command.
func QueryCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question about the indexed documents",
		Long:  "Answers a natural-language question grounded in the indexed documents, with source attribution and a confidence score.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runQuery(cmd, args[0], language, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "en", "Answer language code")

	return cmd
}

func runQuery(cmd *cobra.Command, question, language string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/query", QueryRequest{Query: question, Language: language})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	var queryResp QueryResponse
	if err := json.Unmarshal(resp.Data, &queryResp); err != nil {
		return fmt.Errorf("failed to parse query response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(queryResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(queryResp.Answer)
	fmt.Println()
	if queryResp.InsufficientEvidence {
		fmt.Println("(no matching documents)")
		return nil
	}
	fmt.Printf("Confidence: %.2f\n", queryResp.Confidence)
	if len(queryResp.Sources) > 0 {
		fmt.Printf("Sources: %s\n", strings.Join(queryResp.Sources, ", "))
	}
	return nil
}
