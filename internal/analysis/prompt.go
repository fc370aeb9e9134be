package analysis

import (
	"encoding/json"
	"fmt"
	"forensiai/backend/internal/models"
	"strings"
)

const systemInstruction = `You are ForensiAI, a digital forensic assistant helping investigators analyze UFDR extraction data.
Rules:
1. Use neutral terminology. Say "anomaly", "inconsistency", "unusual pattern" or "outlier" rather than "threat", "risk" or "danger".
2. Base every answer strictly on the provided JSON context.
3. Keep an objective tone suitable for a legal report.
4. Format all responses as Markdown.`

var reportSections = []string{
	"Executive Summary",
	"Key Entities (Persons of Interest)",
	"Timeline of Significant Events",
	"Communication Analysis (who talks to whom)",
	"Potential Anomalies or Inconsistencies (gaps in time, foreign numbers)",
}

// caseContext renders the evidence of c as JSON. Media URLs and team chat
// are left out; the former can be megabytes of inline data.
func caseContext(c *models.Case) (string, error) {
	view := c.Clone()
	for i := range view.Media {
		view.Media[i].URL = ""
	}
	view.TeamMessages = nil
	view.ActivityLog = nil
	data, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("encode case %s context: %w", c.ID, err)
	}
	return string(data), nil
}

func analysisPrompt(c *models.Case, query string) (string, error) {
	ctx, err := caseContext(c)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("CONTEXT (UFDR DATA):\n")
	b.WriteString(ctx)
	b.WriteString("\n\nUSER QUERY:\n")
	b.WriteString(query)
	b.WriteString("\n\nAnalyze the data and answer the query.\n")
	return b.String(), nil
}

func reportPrompt(c *models.Case) (string, error) {
	ctx, err := caseContext(c)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("CONTEXT (UFDR DATA):\n")
	b.WriteString(ctx)
	b.WriteString("\n\nTASK:\nGenerate a comprehensive investigator-ready case summary report.\nInclude:\n")
	for i, s := range reportSections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nFormat as clean Markdown.\n")
	return b.String(), nil
}
