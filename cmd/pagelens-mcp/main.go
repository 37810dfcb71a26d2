package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// auditRequest mirrors the Pagelens API request model.
type auditRequest struct {
	URL          string          `json:"url"`
	AuditOptions json.RawMessage `json:"audit_options,omitempty"`
	Model        string          `json:"model,omitempty"`
	Timeout      int             `json:"timeout,omitempty"`
}

// auditResponse mirrors the Pagelens API response model.
type auditResponse struct {
	Success bool `json:"success"`
	Report  *struct {
		Categories []struct {
			Title string `json:"title"`
			Items []struct {
				Label           string   `json:"label"`
				Status          string   `json:"status"`
				Findings        string   `json:"findings"`
				Issues          []string `json:"issues"`
				Recommendations []string `json:"recommendations"`
			} `json:"items"`
		} `json:"categories"`
	} `json:"report"`
	Backend     string `json:"backend"`
	FetchMethod string `json:"fetch_method"`
	Error       *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// snapshotResponse mirrors the Pagelens snapshot API response.
type snapshotResponse struct {
	Success  bool            `json:"success"`
	Snapshot json.RawMessage `json:"snapshot"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("PAGELENS_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("PAGELENS_API_KEY")

	s := server.NewMCPServer(
		"pagelens",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	auditURLTool := mcp.NewTool("audit_url",
		mcp.WithDescription("Audit a web page for accessibility, usability, performance, SEO, and mobile issues. Renders the page in a headless browser, gathers evidence, and returns a structured report."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to audit"),
		),
		mcp.WithString("audit_options",
			mcp.Description("JSON checklist selecting what to audit, e.g. '[{\"key\":\"accessibility\",\"items\":[{\"id\":\"contrast\",\"label\":\"Contrast\",\"selected\":true}]}]'. Omit to let the backend audit everything it finds evidence for."),
		),
		mcp.WithString("model",
			mcp.Description("Preferred generation backend; the server's defaults are used as fallbacks"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Maximum snapshot capture time in seconds (default: 60, max: 180)"),
		),
	)
	s.AddTool(auditURLTool, handleAuditURL(apiURL, apiKey))

	snapshotURLTool := mcp.NewTool("snapshot_url",
		mcp.WithDescription("Capture a page snapshot (structured content, style facts, reflow/zoom results, mobile data) without generating a report. Useful for inspecting what evidence an audit would see."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to capture"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Maximum capture time in seconds (default: 60, max: 180)"),
		),
	)
	s.AddTool(snapshotURLTool, handleSnapshotURL(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Pagelens API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleAuditURL(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := auditRequest{
			URL:     url,
			Model:   request.GetString("model", ""),
			Timeout: request.GetInt("timeout", 0),
		}

		if opts := request.GetString("audit_options", ""); opts != "" {
			var raw json.RawMessage
			if err := json.Unmarshal([]byte(opts), &raw); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("audit_options must be valid JSON: %v", err)), nil
			}
			reqBody.AuditOptions = raw
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/audit", reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("audit request failed: %v", err)), nil
		}

		var auditResp auditResponse
		if err := json.Unmarshal(respBody, &auditResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !auditResp.Success {
			errMsg := "audit failed"
			if auditResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", auditResp.Error.Code, auditResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatReport(&auditResp)), nil
	}
}

func handleSnapshotURL(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]interface{}{"url": url}
		if timeout := request.GetInt("timeout", 0); timeout > 0 {
			payload["timeout"] = timeout
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/snapshot", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshot request failed: %v", err)), nil
		}

		var snapResp snapshotResponse
		if err := json.Unmarshal(respBody, &snapResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !snapResp.Success {
			errMsg := "snapshot failed"
			if snapResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", snapResp.Error.Code, snapResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, snapResp.Snapshot, "", "  "); err != nil {
			pretty.Write(snapResp.Snapshot)
		}

		return mcp.NewToolResultText(pretty.String()), nil
	}
}

// formatReport renders the report as readable text with one block per item.
func formatReport(resp *auditResponse) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Audit report (backend: %s, fetch: %s)\n\n", resp.Backend, resp.FetchMethod))

	if resp.Report == nil {
		sb.WriteString("No report returned.\n")
		return sb.String()
	}

	for _, cat := range resp.Report.Categories {
		sb.WriteString("## " + cat.Title + "\n\n")
		for _, item := range cat.Items {
			sb.WriteString(fmt.Sprintf("- %s [%s]\n", item.Label, strings.ToUpper(item.Status)))
			if item.Findings != "" {
				sb.WriteString("  " + item.Findings + "\n")
			}
			for _, issue := range item.Issues {
				sb.WriteString("  Issue: " + issue + "\n")
			}
			for _, rec := range item.Recommendations {
				sb.WriteString("  Fix: " + rec + "\n")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
