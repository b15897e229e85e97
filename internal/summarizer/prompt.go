package summarizer

import "fmt"

const summaryPrompt = `
You are a clinical assistant summarizing a medical interaction between a nurse and a patient.

Conversation:
---
%s
---

Instructions:
1. Identify symptoms, medications, actions taken, and any responses or concerns.
2. Focus on key medical terms like "pain", "medication", "blood pressure", "vomiting", "history", "follow-up", etc.
3. Start with a concise and clinically useful section headed **Summary:**
4. Follow it with a structured section headed **Nursing Chart:** using exactly these bold headings, in this order:

**Assessment:**
**Diagnosis:**
**Plan:**
**Interventions:**
**Evaluation:**

Ensure accuracy and clarity in professional tone.
`

// Prompt builds the summarization prompt for a transcript.
func Prompt(transcript string) string {
	return fmt.Sprintf(summaryPrompt, transcript)
}
