// test-model-outputs tests LLM response parsing across multiple models.
// It sends the KPI proposal prompt to each model and verifies the JSON
// extraction produces the expected array structure.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/llm"
)

// Model defines a model endpoint to test
type Model struct {
	Name     string
	Endpoint string
	Model    string
	APIKey   string
}

var defaultModels = []Model{
	{
		Name:     "Qwen3-30B-A3B",
		Endpoint: "http://localhost:30000/v1",
		Model:    "Qwen3-30B-A3B",
		APIKey:   "",
	},
	{
		Name:     "gpt-4o-mini",
		Endpoint: "https://api.openai.com/v1",
		Model:    "gpt-4o-mini",
		APIKey:   os.Getenv("AI_API_KEY"),
	},
}

const sampleSystemMessage = `You are an expert analytics assistant. You suggest KPIs that are aligned with business goals, measurable with the available data, actionable, and clearly defined. Respond with JSON only.`

// Sample KPI proposal prompt, matching what the proposal service renders for
// a small sales table.
const samplePrompt = `Given the dataset schema below:

Identifier fields:
 - order_id (text, e.g. ord-1001, ord-1002)

Metric fields:
 - amount (numeric, e.g. 129.99, 54.50)
 - quantity (numeric, e.g. 2, 1)

Dimension fields:
 - region (categorical, e.g. west, east)
 - sold_at (datetime, e.g. 2025-01-03, 2025-01-04)

And the user question:

"How is revenue developing across regions?"

Suggest up to 5 KPIs that address the user's business goals.
For each KPI provide the following keys in a JSON array:
- "KPI": the KPI name as a string
- "Description": a brief explanation or formula of the KPI
- "Fields": a list of the schema fields used to compute this KPI

Example response:

[
  {"KPI": "Total Sales", "Description": "Sum of sales amount over the period", "Fields": ["sales_amount"]},
  {"KPI": "Customer Count", "Description": "Number of unique customers", "Fields": ["customer_id"]}
]

Your response must be ONLY a valid JSON array matching the example format.
`

func main() {
	// Parse flags
	timeout := flag.Duration("timeout", 120*time.Second, "Timeout for each model call")
	flag.Parse()

	// Create logger
	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := logConfig.Build()
	defer logger.Sync()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("LLM Response Format Test")
	fmt.Println("Testing KPI proposal JSON extraction across multiple models")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	ctx := context.Background()

	results := make(map[string]TestResult)
	for _, model := range defaultModels {
		fmt.Printf("\n%s\n", strings.Repeat("-", 80))
		fmt.Printf("Testing: %s\n", model.Name)
		fmt.Printf("Endpoint: %s\n", model.Endpoint)
		fmt.Printf("%s\n\n", strings.Repeat("-", 80))

		result := testModel(ctx, model, logger, *timeout)
		results[model.Name] = result

		printResult(result)
	}

	// Print summary
	fmt.Printf("\n%s\n", strings.Repeat("=", 80))
	fmt.Println("SUMMARY")
	fmt.Printf("%s\n\n", strings.Repeat("=", 80))

	allPassed := true
	for name, result := range results {
		status := "✓ PASS"
		if !result.Success {
			status = "✗ FAIL"
			allPassed = false
		}
		fmt.Printf("%s: %s\n", status, name)
		if result.Error != "" {
			fmt.Printf("  Error: %s\n", result.Error)
		}
	}

	if allPassed {
		fmt.Println("\nAll models passed!")
		os.Exit(0)
	} else {
		fmt.Println("\nSome models failed.")
		os.Exit(1)
	}
}

type TestResult struct {
	Success       bool
	Error         string
	RawResponse   string
	ExtractedJSON string
	ProposalCount int
	ValidCount    int
	DurationMs    int64
	TokensPerSec  float64
}

func testModel(ctx context.Context, model Model, logger *zap.Logger, timeout time.Duration) TestResult {
	result := TestResult{}
	start := time.Now()

	// Create context with timeout
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Create client
	client, err := llm.NewClient(&llm.Config{
		Endpoint: model.Endpoint,
		Model:    model.Model,
		APIKey:   model.APIKey,
	}, logger)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to create client: %v", err)
		return result
	}

	// Call model
	fmt.Println("Sending prompt...")
	resp, err := client.GenerateResponse(ctx, samplePrompt, sampleSystemMessage, 0.0)
	if err != nil {
		result.Error = fmt.Sprintf("API call failed: %v", err)
		return result
	}

	result.DurationMs = time.Since(start).Milliseconds()
	result.RawResponse = resp.Content

	// Calculate tokens/sec
	if result.DurationMs > 0 && resp.CompletionTokens > 0 {
		result.TokensPerSec = float64(resp.CompletionTokens) / (float64(result.DurationMs) / 1000.0)
	}

	// Print raw response (truncated)
	fmt.Println("\n--- Raw Response (first 800 chars) ---")
	truncated := resp.Content
	if len(truncated) > 800 {
		truncated = truncated[:800] + "..."
	}
	fmt.Println(truncated)
	fmt.Println("--- End Raw Response ---")
	fmt.Printf("\nTokens: prompt=%d, completion=%d, total=%d\n",
		resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)
	fmt.Printf("Duration: %dms, Throughput: %.1f tok/s\n", result.DurationMs, result.TokensPerSec)

	// Try to extract JSON
	fmt.Println("\n--- JSON Extraction ---")
	jsonStr, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		result.Error = fmt.Sprintf("JSON extraction failed: %v", err)
		fmt.Printf("ERROR: %s\n", result.Error)
		return result
	}
	result.ExtractedJSON = jsonStr
	fmt.Println("JSON extraction: SUCCESS")

	// Parse and validate structure
	var proposals []map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &proposals); err != nil {
		result.Error = fmt.Sprintf("JSON parse failed (expected array): %v", err)
		return result
	}
	result.ProposalCount = len(proposals)
	fmt.Printf("proposals: %d items\n", len(proposals))

	// Check each proposal carries the three expected keys
	knownColumns := map[string]bool{
		"order_id": true, "amount": true, "quantity": true, "region": true, "sold_at": true,
	}
	for i, proposal := range proposals {
		name, _ := proposal["KPI"].(string)
		if name == "" {
			fmt.Printf("  [%d] KPI: MISSING or EMPTY\n", i)
			continue
		}
		fmt.Printf("  [%d] KPI: %q\n", i, truncateString(name, 50))

		if desc, ok := proposal["Description"].(string); ok && desc != "" {
			fmt.Printf("      Description: %q\n", truncateString(desc, 60))
		} else {
			fmt.Printf("      Description: MISSING or EMPTY\n")
		}

		fields, ok := proposal["Fields"].([]interface{})
		if !ok {
			fmt.Printf("      Fields: MISSING or not an array\n")
			continue
		}
		unknown := 0
		for _, f := range fields {
			if s, ok := f.(string); !ok || !knownColumns[s] {
				unknown++
			}
		}
		fmt.Printf("      Fields: %d (%d unknown)\n", len(fields), unknown)

		if len(fields) > 0 && unknown == 0 {
			result.ValidCount++
		}
	}

	// Determine success: at least one proposal references only real columns
	result.Success = result.ProposalCount > 0 && result.ValidCount > 0
	return result
}

func printResult(result TestResult) {
	fmt.Println("\n--- Test Result ---")
	if result.Success {
		fmt.Printf("Status: ✓ PASS (%d/%d proposals usable)\n", result.ValidCount, result.ProposalCount)
	} else {
		fmt.Println("Status: ✗ FAIL")
		if result.Error != "" {
			fmt.Printf("Error: %s\n", result.Error)
		}
	}
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
