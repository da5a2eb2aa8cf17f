package service

import (
	"fmt"
	"strings"

	"exam_center_backend/internal/model"
)

// buildScoringPrompt composes the system prompt for one free-text answer.
// The rubric differs by question type; both prompts demand a strict JSON
// reply so the response can be parsed without post-processing.
func buildScoringPrompt(req ScoreRequest) string {
	var sb strings.Builder
	sb.WriteString("You are a strict but fair exam grader. Grade the student's answer that follows in the next message.\n\n")
	sb.WriteString("QUESTION: " + req.QuestionTitle + "\n")
	if req.QuestionContent != "" {
		sb.WriteString(req.QuestionContent + "\n")
	}
	sb.WriteString("\n")
	if req.SubjectName != "" {
		sb.WriteString("SUBJECT: " + req.SubjectName + "\n")
	}
	if req.Difficulty != "" {
		sb.WriteString("DIFFICULTY: " + req.Difficulty + "\n")
	}
	sb.WriteString(fmt.Sprintf("MAX MARKS: %g\n\n", req.MaxMarks))

	if req.ModelAnswer != "" {
		sb.WriteString("MODEL ANSWER (not shown to the student):\n" + req.ModelAnswer + "\n\n")
	}

	if req.QuestionType == model.QuestionLongAnswer {
		writeLongAnswerRubric(&sb, req.MaxMarks)
	} else {
		writeShortAnswerRubric(&sb, req.MaxMarks)
	}

	return sb.String()
}

func writeShortAnswerRubric(sb *strings.Builder, maxMarks float64) {
	sb.WriteString("GRADING RUBRIC (weights):\n")
	sb.WriteString("- Accuracy of the answer: 40%\n")
	sb.WriteString("- Completeness: 30%\n")
	sb.WriteString("- Clarity of expression: 20%\n")
	sb.WriteString("- Correct use of terminology: 10%\n\n")
	sb.WriteString("Set confidence to how certain you are of the score, from 0.0 to 1.0.\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(fmt.Sprintf(`{"marks_awarded": <number 0 to %g>, "feedback": "<brief feedback for the student>", "confidence": <number 0.0 to 1.0>}`, maxMarks))
	sb.WriteString("\n")
}

func writeLongAnswerRubric(sb *strings.Builder, maxMarks float64) {
	sb.WriteString("GRADING RUBRIC (weights):\n")
	sb.WriteString("- Content knowledge: 30%\n")
	sb.WriteString("- Analysis and reasoning: 25%\n")
	sb.WriteString("- Completeness: 20%\n")
	sb.WriteString("- Structure and organisation: 15%\n")
	sb.WriteString("- Language: 10%\n\n")
	sb.WriteString("Score every criterion separately; the criterion scores MUST sum to marks_awarded.\n")
	sb.WriteString("Set confidence to how certain you are of the score, from 0.0 to 1.0.\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(fmt.Sprintf(`{"marks_awarded": <number 0 to %g>, "feedback": "<overall comment>", "confidence": <number 0.0 to 1.0>, "criterion_breakdown": [{"criterion": "<name>", "score": <number>, "max_score": <number>, "comment": "<short note>"}], "strengths": ["<strength>"], "improvements": ["<suggestion>"]}`, maxMarks))
	sb.WriteString("\n")
}

// composeLongAnswerFeedback flattens the structured evaluation into the
// feedback text stored on the grade row.
func composeLongAnswerFeedback(resp *ScoreResponse) string {
	var sb strings.Builder
	sb.WriteString(resp.Feedback)

	if len(resp.Breakdown) > 0 {
		sb.WriteString("\n\nScore breakdown:")
		for _, cs := range resp.Breakdown {
			sb.WriteString(fmt.Sprintf("\n- %s: %g/%g", cs.Criterion, cs.Score, cs.MaxScore))
			if cs.Comment != "" {
				sb.WriteString(" - " + cs.Comment)
			}
		}
	}
	if len(resp.Strengths) > 0 {
		sb.WriteString("\n\nStrengths:")
		for _, s := range resp.Strengths {
			sb.WriteString("\n- " + s)
		}
	}
	if len(resp.Improvements) > 0 {
		sb.WriteString("\n\nSuggestions:")
		for _, s := range resp.Improvements {
			sb.WriteString("\n- " + s)
		}
	}
	return sb.String()
}
