package llm

import (
	"fmt"
	"strings"
)

const lessonSystemPrompt = `You are an expert medical educator creating high-yield, exam-focused content for medical students preparing for USMLE, PLAB, and similar exams.

Your content must be:
- Clinically accurate and evidence-based
- Concise and focused on high-yield information
- Exam-oriented with realistic clinical scenarios
- Memorable with effective mnemonics

Format your response as valid JSON with the exact structure requested.`

const topicsSystemPrompt = "You are an expert medical educator creating curriculum content."

func buildLessonPrompt(topic, subtopic string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate medical educational content for:\n**Topic**: %s\n**Subtopic**: %s\n\n", topic, subtopic)
	sb.WriteString("Create the following in JSON format:\n\n")
	sb.WriteString("1. **Clinical Case** (1-2 sentences): A brief, realistic clinical scenario that hooks the learner. Include key presenting symptoms, relevant history, and physical exam findings.\n\n")
	sb.WriteString("2. **Case-Based MCQs** (3 questions): Create 3 multiple-choice questions directly related to the clinical case. Each should test different aspects (diagnosis, management, complications, etc.). Each question must have 4 options (A, B, C, D).\n\n")
	sb.WriteString("3. **Independent MCQs** (2 questions): Create 2 additional MCQs on the same topic/subtopic but NOT directly related to the case. These should test core concepts, mechanisms, or clinical pearls. Each must have 4 options (A, B, C, D).\n\n")
	sb.WriteString("4. **Answers**: Provide correct answers for all 5 questions (format: {\"1\": \"B\", \"2\": \"A\", \"3\": \"D\", \"4\": \"C\", \"5\": \"A\"})\n\n")
	sb.WriteString("5. **Mnemonic** (1 short mnemonic): Create a memorable, easy-to-recall mnemonic for a key concept related to this topic. Keep it under 10 words.\n\n")
	sb.WriteString("**Output Format (JSON)**:\n")
	sb.WriteString(`{
  "case_text": "Brief 1-2 sentence clinical case here",
  "case_based_mcqs": [
    {"question": "Question 1 text?", "options": {"A": "...", "B": "...", "C": "...", "D": "..."}},
    {"question": "Question 2 text?", "options": {"A": "...", "B": "...", "C": "...", "D": "..."}},
    {"question": "Question 3 text?", "options": {"A": "...", "B": "...", "C": "...", "D": "..."}}
  ],
  "independent_mcqs": [
    {"question": "Question 4 text?", "options": {"A": "...", "B": "...", "C": "...", "D": "..."}},
    {"question": "Question 5 text?", "options": {"A": "...", "B": "...", "C": "...", "D": "..."}}
  ],
  "answers": {"1": "B", "2": "A", "3": "D", "4": "C", "5": "A"},
  "mnemonic": "Short memorable mnemonic here"
}`)
	sb.WriteString("\n\nReturn ONLY the JSON object, no additional text.\n")
	return sb.String()
}

func buildTopicsPrompt(subject string, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d new medical education topics for the subject: %s\n\n", count, subject)
	sb.WriteString("Each topic should include:\n")
	sb.WriteString("1. A main topic category\n")
	sb.WriteString("2. A specific subtopic\n\n")
	sb.WriteString("The topics should be:\n")
	sb.WriteString("- Clinically relevant and high-yield for medical exams\n")
	sb.WriteString("- Not too basic, not too advanced (appropriate for medical students)\n")
	fmt.Fprintf(&sb, "- Diverse and covering different aspects of %s\n", subject)
	sb.WriteString("- Exam-focused (USMLE, PLAB style)\n\n")
	sb.WriteString("Return as JSON array:\n")
	sb.WriteString(`[
  {"topic": "Main Topic", "subtopic": "Specific Subtopic"},
  ...
]`)
	sb.WriteString("\n\nReturn ONLY the JSON array, no additional text.\n")
	return sb.String()
}
