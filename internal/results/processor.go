package results

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scoutpost/backend/internal/audit"
	"scoutpost/backend/internal/llm"
	"scoutpost/backend/internal/payment"
)

// maxToolSteps bounds the tool-use loop so a confused model cannot spin.
const maxToolSteps = 5

// Processor turns a completed task's raw output plus the user's free-text
// result action into a final report. The model gets one tool: a send_email
// call that is itself paid for by the vault wallet through the gate.
//
// Errors propagate to the caller; the lifecycle engine applies the
// raw-output fallback, not this package.
type Processor struct {
	llm      llm.Client
	gate     *payment.Client
	emailURL string
}

// NewProcessor builds a processor. gate may be nil when no vault secret is
// configured; the email tool then fails loudly on use.
func NewProcessor(client llm.Client, gate *payment.Client, emailURL string) *Processor {
	return &Processor{llm: client, gate: gate, emailURL: emailURL}
}

func (p *Processor) Process(ctx context.Context, rawOutput, resultAction string) (string, error) {
	prompt := fmt.Sprintf(`A web automation task has completed. Its raw output is below.

Raw output:
%s

The user asked for this follow-up action: %s

Fulfill the action using the raw output as context. If the action requires
sending an email, use the send_email tool. Reply with a short summary of
what you did and the key information from the output.`, rawOutput, resultAction)

	tools := []llm.ToolDef{{
		Name:        "send_email",
		Description: "Send an email. Use this when the user's action asks for an email.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"to":      map[string]any{"type": "string", "description": "Recipient email address"},
				"subject": map[string]any{"type": "string"},
				"html":    map[string]any{"type": "string", "description": "HTML body of the email"},
			},
			"required": []string{"to", "subject", "html"},
		},
	}}
	handlers := map[string]llm.ToolHandler{
		"send_email": p.sendEmail,
	}

	final, err := p.llm.GenerateWithTools(ctx, prompt, tools, handlers, maxToolSteps)
	if err != nil {
		return "", err
	}

	// Keep both halves: downstream consumers need the raw output as well
	// as the model's report.
	return fmt.Sprintf("Task Output:\n%s\n\n---\n\nResult Action:\n%s", rawOutput, final), nil
}

func (p *Processor) sendEmail(ctx context.Context, inputs map[string]any) (string, error) {
	if p.gate == nil {
		return "", errors.New("vault wallet not configured; cannot pay for email send")
	}

	to, _ := inputs["to"].(string)
	subject, _ := inputs["subject"].(string)
	html, _ := inputs["html"].(string)
	if strings.TrimSpace(to) == "" || strings.TrimSpace(subject) == "" {
		return "", errors.New("send_email requires to and subject")
	}

	err := p.gate.PostJSON(ctx, p.emailURL, nil, map[string]string{
		"to":      to,
		"subject": subject,
		"html":    html,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("email send failed: %w", err)
	}

	audit.Log(audit.EventEmailSent, p.gate.Wallet.PublicKey(), to, nil)
	return "email sent to " + to, nil
}
