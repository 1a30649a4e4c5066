// Package console runs the quiz interactively over a line-oriented reader and writer.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/logger"
)

const clientID = "console"

// Console drives one player through create, take and review.
type Console struct {
	service          *app.QuizService
	in               *bufio.Scanner
	out              io.Writer
	defaultQuestions int
}

func New(service *app.QuizService, in io.Reader, out io.Writer, defaultQuestions int) *Console {
	if defaultQuestions == 0 {
		defaultQuestions = domain.DefaultQuestions
	}
	return &Console{service: service, in: bufio.NewScanner(in), out: out, defaultQuestions: defaultQuestions}
}

// errQuit ends the session loop when the player quits or input runs out.
var errQuit = errors.New("quit")

// Run loops until the player declines another quiz or input ends.
func (c *Console) Run(ctx context.Context) error {
	defer c.service.Reset(ctx, clientID)
	for {
		if err := c.create(ctx); err != nil {
			return ignoreQuit(err)
		}
		if err := c.take(ctx); err != nil {
			return ignoreQuit(err)
		}
		again, err := c.prompt("Create a new quiz? [y/N]: ")
		if err != nil {
			return ignoreQuit(err)
		}
		c.service.Reset(ctx, clientID)
		if !strings.EqualFold(again, "y") && !strings.EqualFold(again, "yes") {
			return nil
		}
	}
}

func (c *Console) create(ctx context.Context) error {
	for {
		topic, err := c.prompt("Quiz topic: ")
		if err != nil {
			return err
		}
		rawCount, err := c.prompt(fmt.Sprintf("Number of questions (%d-%d) [%d]: ", domain.MinQuestions, domain.MaxQuestions, c.defaultQuestions))
		if err != nil {
			return err
		}
		count := c.defaultQuestions
		if rawCount != "" {
			n, err := strconv.Atoi(rawCount)
			if err != nil {
				c.printf("Number of questions must be between %d and %d.\n", domain.MinQuestions, domain.MaxQuestions)
				continue
			}
			count = n
		}

		c.printf("Generating your quiz...\n")
		snap, err := c.service.Create(ctx, clientID, topic, count)
		if err != nil {
			logger.Get().Debug("console create failed", zap.Error(err))
			c.printf("%s\n\n", err.Error())
			continue
		}
		c.printf("\n%s\n%s\n", snap.Title, snap.Intro)
		return nil
	}
}

func (c *Console) take(ctx context.Context) error {
	if _, err := c.prompt("Press Enter to start."); err != nil {
		return err
	}
	snap, err := c.service.Start(ctx, clientID)
	if err != nil {
		return err
	}

	for snap.Phase == domain.PhaseInProgress {
		c.renderQuestion(snap)
		cmd, err := c.prompt(commandPrompt(snap.Current))
		if err != nil {
			return err
		}
		next, err := c.handle(ctx, snap, cmd)
		if errors.Is(err, errQuit) {
			return err
		}
		if err != nil {
			c.printf("%s\n", err.Error())
		}
		snap = next
	}
	c.renderResult(snap)
	return nil
}

func (c *Console) handle(ctx context.Context, snap app.Snapshot, cmd string) (app.Snapshot, error) {
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "n":
		return c.service.Next(ctx, clientID)
	case "p":
		return c.service.Prev(ctx, clientID)
	case "f":
		return c.service.Finish(ctx, clientID)
	case "q":
		return snap, errQuit
	case "":
		return c.service.Snapshot(ctx, clientID)
	}
	choice, err := strconv.Atoi(cmd)
	if err != nil || choice < 1 || choice > len(snap.Current.Options) {
		return snap, fmt.Errorf("unknown command %q", cmd)
	}
	return c.service.SelectAnswer(ctx, clientID, snap.Current.Index, snap.Current.Options[choice-1].Text)
}

func (c *Console) renderQuestion(snap app.Snapshot) {
	q := snap.Current
	c.printf("\nQuestion %d of %d  (%.0f%%)  %s\n", q.Number, snap.TotalQuestions, q.ProgressPercent, snap.Elapsed)
	c.printf("%s\n", q.Text)
	for i, opt := range q.Options {
		c.printf("  %s %d. %s\n", marker(opt.Style), i+1, opt.Text)
	}
	if fb := q.Feedback; fb != nil {
		if fb.Correct {
			c.printf("Correct!\n")
		} else {
			c.printf("Incorrect. The correct answer is: %s\n", fb.CorrectAnswer)
		}
		c.printf("Explanation: %s\n", fb.Explanation)
	}
}

func (c *Console) renderResult(snap app.Snapshot) {
	res := snap.Result
	if res == nil {
		return
	}
	c.printf("\nQuiz Completed!\n")
	c.printf("Score: %d / %d (%s)   Time: %s\n\n", res.Score, res.Total, res.Band, res.Elapsed)
	for _, item := range res.Review {
		mark := "✗"
		if item.Correct {
			mark = "✓"
		}
		c.printf("%d. %s\n   %s Your answer: %s\n", item.Number, item.QuestionText, mark, item.UserAnswer)
		if !item.Correct {
			c.printf("   Correct answer: %s\n", item.CorrectAnswer)
		}
		c.printf("   Explanation: %s\n", item.Explanation)
	}
}

func commandPrompt(q *app.QuestionView) string {
	parts := []string{}
	if !q.Answered {
		parts = append(parts, fmt.Sprintf("1-%d answer", len(q.Options)))
	}
	if q.CanPrev {
		parts = append(parts, "p prev")
	}
	if q.CanNext {
		parts = append(parts, "n next")
	}
	if q.CanFinish {
		parts = append(parts, "f finish")
	}
	parts = append(parts, "q quit")
	return "[" + strings.Join(parts, ", ") + "]: "
}

func marker(style domain.OptionStyle) string {
	switch style {
	case domain.OptionCorrect:
		return "[✓]"
	case domain.OptionIncorrect:
		return "[✗]"
	case domain.OptionMuted:
		return "[·]"
	default:
		return "[ ]"
	}
}

func (c *Console) prompt(text string) (string, error) {
	c.printf("%s", text)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func ignoreQuit(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}
