package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://api.anthropic.com"
	apiVersion        = "2023-06-01"
	defaultModel      = "claude-sonnet-4-20250514"
	responseMaxTokens = 4096
)

// APIClient reviews artifacts through a direct request/response API call
// expecting a fixed-schema JSON response (implementation A).
type APIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	sink       RecordSink
	logger     *slog.Logger
}

// NewAPIClient creates the API-backed review provider. apiKey may be empty;
// Available reports the provider unusable in that case.
func NewAPIClient(apiKey, model string, sink RecordSink, logger *slog.Logger) *APIClient {
	if model == "" {
		model = defaultModel
	}
	return &APIClient{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
		sink:       sink,
		logger:     logger,
	}
}

// SetBaseURL overrides the API endpoint (used by tests)
func (c *APIClient) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// Name returns the source tag for history entries
func (c *APIClient) Name() string { return "review-api" }

// Available reports whether the provider can run at all
func (c *APIClient) Available() error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: missing API key", ErrProviderUnavailable)
	}
	return nil
}

// apiReview is the strict response schema. A response that fails to decode
// into it, or that omits the verdict boolean or summary, is a provider
// failure rather than a default-valued pass.
type apiReview struct {
	HasMajorIssues *bool    `json:"hasMajorIssues"`
	Summary        string   `json:"summary"`
	MajorIssues    []string `json:"majorIssues"`
	MinorIssues    []string `json:"minorIssues"`

	// Type-specific item lists
	MissingRequirements []string `json:"missingRequirements,omitempty"`
	SecurityRisks       []string `json:"securityRisks,omitempty"`
	MissingPlanSteps    []string `json:"missingPlanSteps,omitempty"`
	MissingFromPlan     []string `json:"missingFromPlan,omitempty"`
	TestingSuggestions  []string `json:"testingSuggestions,omitempty"`
}

func (r *apiReview) validate() error {
	if r.HasMajorIssues == nil {
		return fmt.Errorf("response missing hasMajorIssues")
	}
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("response missing summary")
	}
	return nil
}

// Review issues a single structured request and derives the classification
// from the response schema. The rendered report is persisted before return.
func (c *APIClient) Review(ctx context.Context, req Request) Outcome {
	if err := c.Available(); err != nil {
		return failure(err.Error())
	}
	if strings.TrimSpace(req.Artifact) == "" {
		return failure("nothing to review: empty artifact")
	}

	parsed, err := c.requestReview(ctx, req)
	if err != nil {
		c.logger.Warn("api review failed",
			"feature", req.FeatureID,
			"type", req.Type,
			"error", err)
		return failure(err.Error())
	}

	report := renderReport(req, parsed)
	classification := SeverityNone
	if *parsed.HasMajorIssues {
		classification = SeverityMajor
	} else if len(parsed.MinorIssues) > 0 {
		classification = SeverityMinor
	}

	if c.sink != nil && req.RecordName != "" {
		if err := c.sink.WriteReview(req.FeatureID, req.RecordName, []byte(report)); err != nil {
			c.logger.Warn("failed to persist review record", "error", err)
		}
	}

	c.logger.Info("api review completed",
		"feature", req.FeatureID,
		"type", req.Type,
		"classification", classification)

	return Outcome{
		Classification: classification,
		Summary:        parsed.Summary,
		Report:         report,
		Succeeded:      true,
	}
}

// Wire types for the messages endpoint
type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *APIClient) requestReview(ctx context.Context, req Request) (*apiReview, error) {
	payload := apiRequest{
		Model:     c.model,
		MaxTokens: responseMaxTokens,
		System:    systemInstruction(req.Type),
		Messages:  []apiMessage{{Role: "user", Content: reviewBody(req)}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("review request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("review request returned %d: %s",
			resp.StatusCode, truncate(string(respBody), 200))
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}

	var text strings.Builder
	for _, block := range envelope.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	raw := stripCodeFence(text.String())
	var parsed apiReview
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("response is not valid review JSON: %w", err)
	}
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("response failed schema validation: %w", err)
	}

	return &parsed, nil
}

func systemInstruction(t Type) string {
	common := `You are an exacting software reviewer. Respond with a single JSON object and nothing else. Required fields: "hasMajorIssues" (boolean), "summary" (string), "majorIssues" (array of strings), "minorIssues" (array of strings).`

	switch t {
	case TypeSpec:
		return common + ` Also include "missingRequirements" and "securityRisks" arrays. You are reviewing a feature specification for completeness, clarity and testability.`
	case TypePlan:
		return common + ` Also include "missingPlanSteps" (array of strings). You are reviewing an implementation plan for ordering, completeness and feasibility.`
	default:
		return common + ` Also include "missingFromPlan" and "testingSuggestions" arrays. You are reviewing a code change (unified diff) against its specification and plan.`
	}
}

func reviewBody(req Request) string {
	var b strings.Builder
	switch req.Type {
	case TypeCode:
		fmt.Fprintf(&b, "## Specification\n\n%s\n\n## Plan\n\n%s\n\n", req.Spec, req.Plan)
		if req.IntentSummary != "" {
			fmt.Fprintf(&b, "## Builder Intent\n\n%s\n\n", req.IntentSummary)
		}
		fmt.Fprintf(&b, "## Diff (phase %d)\n\n```diff\n%s\n```\n", req.Phase, req.Artifact)
	default:
		b.WriteString(req.Artifact)
	}
	return b.String()
}

// renderReport converts the schema response into the canonical markdown
// review record.
func renderReport(req Request, r *apiReview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s review: %s (iteration %d)\n\n", req.Type, req.FeatureID, req.Iteration)
	fmt.Fprintf(&b, "%s\n", r.Summary)

	section := func(heading string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n## %s\n\n", heading)
		for _, item := range items {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}

	section("Major Issues", r.MajorIssues)
	section("Minor Issues", r.MinorIssues)
	section("Missing Requirements", r.MissingRequirements)
	section("Security Risks", r.SecurityRisks)
	section("Missing Plan Steps", r.MissingPlanSteps)
	section("Missing From Plan", r.MissingFromPlan)
	section("Testing Suggestions", r.TestingSuggestions)

	action := SeverityNone
	mustFix := "NO"
	if r.HasMajorIssues != nil && *r.HasMajorIssues {
		action = SeverityMajor
		mustFix = "YES"
	} else if len(r.MinorIssues) > 0 {
		action = SeverityMinor
	}
	fmt.Fprintf(&b, "\n---\n## VERDICT\n**Action Required**: %s\n**Builder Must Fix**: %s\n---\n", action, mustFix)

	return b.String()
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func failure(detail string) Outcome {
	return Outcome{
		Classification: SeverityMajor,
		Succeeded:      false,
		ErrorDetail:    detail,
	}
}
