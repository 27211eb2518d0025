// Package quizcmder provides the quiz command for generating multiple choice
// quizzes and, optionally, taking them in the terminal.
package quizcmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/pkg/cliui"
	"github.com/papercomputeco/studyrag/pkg/config"
	"github.com/papercomputeco/studyrag/pkg/quiz"
	"github.com/papercomputeco/studyrag/pkg/quizstore"
	"github.com/papercomputeco/studyrag/pkg/stack"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	numberStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	letterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	cardStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("237")).
			Padding(0, 1)
)

type quizCommander struct {
	topic        string
	numQuestions int
	documentID   string
	ownerID      string
	showAnswers  bool
	interactive  bool
	noSave       bool
	configDir    string
	debug        bool

	cfg *config.Config
}

const quizLongDesc string = `Generate a multiple choice quiz.

Each question has four options and exactly one correct answer. With
--document-id the questions are grounded in that document's chunks.

Generated quizzes are saved to the quiz store unless --no-save is given.
Use --interactive to take the quiz in the terminal: move with j/k or the arrow
keys, answer with a-d or enter, quit with q. The score is recorded as an
attempt once every question is answered.

Examples:
  studyrag quiz "cell biology"
  studyrag quiz "photosynthesis" -n 10 --document-id bio-notes
  studyrag quiz "world war one" --interactive`

const quizShortDesc string = "Generate a quiz"

var quizFlags = append([]string{config.FlagQuizStoreDSN}, config.ProviderFlags...)

func NewQuizCmd() *cobra.Command {
	cmder := &quizCommander{}

	cmd := &cobra.Command{
		Use:   "quiz <topic>",
		Short: quizShortDesc,
		Long:  quizLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = config.ResolveForCommand(cmd, quizFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.topic = strings.Join(args, " ")
			return cmder.run(cmd.Context())
		},
	}

	config.AddRegisteredFlags(cmd, config.Flags, quizFlags)
	cmd.Flags().IntVarP(&cmder.numQuestions, "num-questions", "n", quiz.DefaultQuestions, "Number of questions (1-20)")
	cmd.Flags().StringVar(&cmder.documentID, "document-id", "", "Ground the questions in this document")
	cmd.Flags().StringVarP(&cmder.ownerID, "owner", "o", "local", "Owner the quiz belongs to")
	cmd.Flags().BoolVar(&cmder.showAnswers, "answers", false, "Show the correct answers")
	cmd.Flags().BoolVarP(&cmder.interactive, "interactive", "i", false, "Take the quiz in the terminal")
	cmd.Flags().BoolVar(&cmder.noSave, "no-save", false, "Do not save the quiz")

	return cmd
}

func (c *quizCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := stack.Build(ctx, c.cfg, stack.Options{
		ConfigDir:        c.configDir,
		WithoutQuizStore: c.noSave,
		Logger:           cliui.Logger(c.debug),
	})
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Println()
	var questions []quiz.Question
	err = cliui.Step(os.Stdout, fmt.Sprintf("Generating %d questions on %q", c.numQuestions, c.topic), func() error {
		questions, err = s.Quizzes.Generate(ctx, quiz.Request{
			Topic:        c.topic,
			NumQuestions: c.numQuestions,
			DocumentID:   c.documentID,
			OwnerID:      c.ownerID,
		})
		return err
	})
	if err != nil {
		return err
	}

	var saved *quizstore.Quiz
	if s.QuizStore != nil {
		saved, err = s.QuizStore.Save(ctx, &quizstore.Quiz{
			OwnerID:    c.ownerID,
			Topic:      c.topic,
			DocumentID: c.documentID,
			Questions:  questions,
		})
		if err != nil {
			return fmt.Errorf("saving quiz: %w", err)
		}
	}

	fmt.Println()
	if !c.interactive {
		RenderQuiz(os.Stdout, c.topic, questions, c.showAnswers)
		if saved != nil {
			fmt.Printf("  %s %s\n\n", cliui.DimStyle.Render("Saved as"), cliui.KeyStyle.Render(saved.ID))
		}
		return nil
	}

	res, err := Take(ctx, os.Stdin, os.Stdout, c.topic, questions)
	if err != nil {
		return err
	}
	if !res.Completed {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("Quiz not finished, no attempt recorded"))
		return nil
	}

	if saved != nil {
		_, err := s.QuizStore.SaveAttempt(ctx, &quizstore.Attempt{
			QuizID:         saved.ID,
			OwnerID:        c.ownerID,
			Score:          float64(res.Correct),
			TotalQuestions: len(questions),
		})
		if err != nil {
			return fmt.Errorf("recording attempt: %w", err)
		}
	}
	return nil
}

// RenderQuiz prints every question as a card. The correct option is
// highlighted when showAnswers is set.
func RenderQuiz(w io.Writer, topic string, questions []quiz.Question, showAnswers bool) {
	fmt.Fprintf(w, "  %s\n\n", titleStyle.Render("Quiz: "+topic))
	for i, q := range questions {
		fmt.Fprintln(w, indent(cardStyle.Render(renderQuestion(i+1, q, showAnswers))))
		fmt.Fprintln(w)
	}
}

func renderQuestion(n int, q quiz.Question, showAnswer bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", numberStyle.Render(fmt.Sprintf("%d.", n)), questionStyle.Render(q.Question))
	for i, opt := range q.Options {
		line := fmt.Sprintf("  %s %s", letterStyle.Render(string(rune('a'+i))+")"), optionStyle.Render(opt))
		if showAnswer && opt == q.CorrectAnswer {
			line = fmt.Sprintf("  %s %s %s", letterStyle.Render(string(rune('a'+i))+")"), answerStyle.Render(opt), cliui.SuccessMark)
		}
		b.WriteString(line)
		if i < len(q.Options)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// letterIndex maps "a".."d" (or "1".."4") to an option index, -1 otherwise.
func letterIndex(s string, n int) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 1 {
		return -1
	}

	i := -1
	switch c := s[0]; {
	case c >= 'a' && c <= 'z':
		i = int(c - 'a')
	case c >= '1' && c <= '9':
		i = int(c - '1')
	}
	if i >= n {
		return -1
	}
	return i
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
