package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/hanzi/internal/app"
	"github.com/example/hanzi/internal/content"
	"github.com/example/hanzi/internal/database"
	"github.com/example/hanzi/internal/excel"
	"github.com/example/hanzi/internal/quiz"
	"github.com/spf13/pflag"
)

type command struct {
	name  string
	usage string
	flags func(flags *pflag.FlagSet)
	run   func(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error
}

var commands = map[string]*command{}

func init() {
	for _, c := range []*command{
		{name: "init", usage: "load the built-in dataset (or --file) unless already loaded", flags: fileFlags, run: runInit},
		{name: "import", usage: "replace the content with a .xlsx or .csv dataset", flags: fileFlags, run: runImport},
		{name: "export", usage: "write the stored content to a .xlsx or .csv file", flags: fileFlags, run: runExport},
		{name: "characters", usage: "list characters by appearance frequency", run: runCharacters},
		{name: "register", usage: "create a user with a 4 digit PIN", flags: credentialFlags, run: runRegister},
		{name: "login", usage: "check a username and PIN", flags: credentialFlags, run: runLogin},
		{name: "view", usage: "show a character and mark it as viewed", flags: characterFlags, run: runView},
		{name: "complete", usage: "mark a character as completed (or --completed=false)", flags: completeFlags, run: runComplete},
		{name: "progress", usage: "show a user's progress and recent quiz results", flags: progressFlags, run: runProgress},
		{name: "reset", usage: "delete all progress of a user", flags: userFlags, run: runReset},
		{name: "promote", usage: "grant admin rights to a user", flags: userFlags, run: runPromote},
		{name: "users", usage: "list users with their completion", run: runUsers},
		{name: "verify", usage: "repair cached viewed counts", run: runVerify},
		{name: "quiz", usage: "run an interactive quiz over viewed characters", flags: quizFlags, run: runQuiz},
		{name: "watch", usage: "run the viewed count audit until interrupted", run: runWatch},
	} {
		commands[c.name] = c
	}
}

// console is the terminal a command talks to
type console struct {
	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

func (c *console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// readLine returns the next trimmed input line; false on EOF
func (c *console) readLine() (string, bool) {
	if c.scanner == nil {
		c.scanner = bufio.NewScanner(c.in)
	}
	if !c.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.scanner.Text()), true
}

func (c *console) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
}

func fileFlags(flags *pflag.FlagSet) {
	flags.String("file", "", "dataset file (.xlsx or .csv)")
	flags.String("sheet", "", "sheet to read (default: first sheet)")
	flags.Int("start-row", excel.DefaultImportConfig().StartRow, "first data row")
}

func userFlags(flags *pflag.FlagSet) {
	flags.String("user", "", "username")
}

func credentialFlags(flags *pflag.FlagSet) {
	userFlags(flags)
	flags.String("pin", "", "4 digit PIN")
}

func characterFlags(flags *pflag.FlagSet) {
	userFlags(flags)
	flags.String("character", "", "character id or glyph")
}

func completeFlags(flags *pflag.FlagSet) {
	characterFlags(flags)
	flags.Bool("completed", true, "completed flag to store")
}

func progressFlags(flags *pflag.FlagSet) {
	userFlags(flags)
	flags.Int("days", 30, "quiz statistics period in days")
}

func quizFlags(flags *pflag.FlagSet) {
	userFlags(flags)
	flags.String("kind", string(quiz.KindTranslation), "quiz kind: translation or sentence_blank")
	flags.Int("length", 0, "number of questions (default: quiz.length from config)")
}

func stringFlag(flags *pflag.FlagSet, name string, required bool) (string, error) {
	v, err := flags.GetString(name)
	if err != nil {
		return "", err
	}
	if required && v == "" {
		return "", fmt.Errorf("%w: --%s is required", errUsage, name)
	}
	return v, nil
}

func userID(ctx context.Context, a *app.App, flags *pflag.FlagSet) (int64, error) {
	name, err := stringFlag(flags, "user", true)
	if err != nil {
		return 0, err
	}
	id, err := a.UserByName(ctx, name)
	if errors.Is(err, database.ErrNotFound) {
		return 0, fmt.Errorf("user %q is not registered: %w", name, err)
	}
	return id, err
}

// resolveCharacter accepts a numeric id or the glyph itself
func resolveCharacter(ctx context.Context, a *app.App, flags *pflag.FlagSet) (int64, error) {
	v, err := stringFlag(flags, "character", true)
	if err != nil {
		return 0, err
	}
	if id, err := strconv.ParseInt(v, 10, 64); err == nil {
		return id, nil
	}

	all, err := a.Library.GetAllCharacters(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range all {
		if c.Glyph == v {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("character %q: %w", v, database.ErrNotFound)
}

func readDataset(flags *pflag.FlagSet, con *console) ([]content.Row, error) {
	cfg := excel.DefaultImportConfig()
	var err error
	if cfg.FilePath, err = stringFlag(flags, "file", true); err != nil {
		return nil, err
	}
	if cfg.SheetName, err = stringFlag(flags, "sheet", false); err != nil {
		return nil, err
	}
	if cfg.StartRow, err = flags.GetInt("start-row"); err != nil {
		return nil, err
	}

	rows, result, err := excel.ReadDataset(cfg)
	if err != nil {
		return nil, err
	}
	con.printf("read %d rows from %s (%d skipped)\n", len(rows), cfg.FilePath, result.Skipped)
	for _, msg := range result.Errors {
		con.printf("  %s\n", msg)
	}
	return rows, nil
}

func printLoad(con *console, r content.LoadResult) {
	con.printf("content %s: expected %d, found %d, committed %d\n", r.Action, r.Expected, r.Found, r.Committed)
}

func runInit(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error {
	var rows []content.Row
	if file, _ := flags.GetString("file"); file != "" {
		var err error
		if rows, err = readDataset(flags, con); err != nil {
			return err
		}
	}

	result, err := a.Initialize(ctx, rows)
	printLoad(con, result)
	return err
}

func runImport(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error {
	rows, err := readDataset(flags, con)
	if err != nil {
		return err
	}
	result, err := a.Library.Reload(ctx, rows)
	printLoad(con, result)
	return err
}

func runExport(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error {
	path, err := stringFlag(flags, "file", true)
	if err != nil {
		return err
	}
	rows, err := a.Library.Rows(ctx)
	if err != nil {
		return err
	}
	if err := excel.WriteDataset(path, rows); err != nil {
		return err
	}
	con.printf("exported %d rows to %s\n", len(rows), path)
	return nil
}

func runCharacters(ctx context.Context, a *app.App, _ *pflag.FlagSet, con *console) error {
	all, err := a.Library.GetAllCharacters(ctx)
	if err != nil {
		return err
	}

	w := con.table()
	fmt.Fprintln(w, "ID\tCHARACTER\tPINYIN\tENGLISH\tFREQUENCY")
	for _, c := range all {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", c.ID, c.Glyph, c.Pinyin, c.EnglishTranslation, c.AppearanceFrequency)
	}
	return w.Flush()
}

func runRegister(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error {
	name, err := stringFlag(flags, "user", true)
	if err != nil {
		return err
	}
	pin, err := stringFlag(flags, "pin", true)
	if err != nil {
		return err
	}

	user, err := a.Users.Create(ctx, name, pin)
	if err != nil {
		return err
	}
	con.printf("registered %s (id %d)\n", user.Username, user.ID)
	return nil
}

func runLogin(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error {
	name, err := stringFlag(flags, "user", true)
	if err != nil {
		return err
	}
	pin, err := stringFlag(flags, "pin", true)
	if err != nil {
		return err
	}

	user, err := a.Users.Authenticate(ctx, name, pin)
	if err != nil {
		return err
	}
	role := "user"
	if user.IsAdmin {
		role = "admin"
	}
	con.printf("welcome %s (%s), %d characters viewed\n", user.Username, role, user.ViewedCount)
	return nil
}

func runView(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error {
	uid, err := userID(ctx, a, flags)
	if err != nil {
		return err
	}
	cid, err := resolveCharacter(ctx, a, flags)
	if err != nil {
		return err
	}

	c, err := a.Library.GetCharacter(ctx, cid)
	if err != nil {
		return err
	}
	first, err := a.Progress.RecordView(ctx, uid, cid)
	if err != nil {
		return err
	}

	con.printf("%s  %s\n", c.Glyph, c.Pinyin)
	con.printf("  en: %s\n", c.EnglishTranslation)
	if c.HebrewTranslation != "" {
		con.printf("  he: %s\n", c.HebrewTranslation)
	}

	s, err := a.Library.GetSentenceByCharacterID(ctx, cid)
	switch {
	case err == nil:
		con.printf("\n%s\n%s\n%s\n", s.Text, s.Pinyin, s.EnglishTranslation)
	case !errors.Is(err, database.ErrNotFound):
		return err
	}

	if first {
		con.printf("\nnew character viewed\n")
	}
	return nil
}

func runComplete(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error {
	uid, err := userID(ctx, a, flags)
	if err != nil {
		return err
	}
	cid, err := resolveCharacter(ctx, a, flags)
	if err != nil {
		return err
	}
	completed, err := flags.GetBool("completed")
	if err != nil {
		return err
	}

	if err := a.Progress.SetCompleted(ctx, uid, cid, completed); err != nil {
		return err
	}
	con.printf("character %d completed=%t\n", cid, completed)
	return nil
}

func runProgress(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error {
	uid, err := userID(ctx, a, flags)
	if err != nil {
		return err
	}
	days, err := flags.GetInt("days")
	if err != nil {
		return err
	}

	summary, err := a.Statistics.ProgressSummary(ctx, uid)
	if err != nil {
		return err
	}
	con.printf("viewed %d of %d characters (%.2f%%), completed %d, practiced %d times\n",
		summary.ViewedCharacters, summary.TotalCharacters, summary.CompletionPercentage,
		summary.CompletedCharacters, summary.TotalPractices)

	viewed, err := a.Progress.ViewedCharacters(ctx, uid)
	if err != nil {
		return err
	}
	if len(viewed) > 0 {
		ids := make([]int64, len(viewed))
		for i, v := range viewed {
			ids[i] = v.CharacterID
		}
		chars, err := a.Library.GetCharacters(ctx, ids)
		if err != nil {
			return err
		}
		glyphs := make(map[int64]string, len(chars))
		for _, c := range chars {
			glyphs[c.ID] = c.Glyph
		}

		con.printf("\n")
		w := con.table()
		fmt.Fprintln(w, "CHARACTER\tPRACTICED\tLAST SEEN")
		for _, v := range viewed {
			fmt.Fprintf(w, "%s\t%d\t%s\n", glyphs[v.CharacterID], v.TimesPracticed, v.LastAccessedAt.Format(time.DateTime))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	end := time.Now().UTC()
	stats, err := a.Results.GetUserStatsByPeriod(ctx, uid, end.AddDate(0, 0, -days), end)
	if err != nil {
		return err
	}
	con.printf("\nquizzes in the last %d days: %d, %d/%d correct (%.2f%%)\n",
		days, stats.TotalQuizzes, stats.TotalCorrect, stats.TotalQuestions, stats.AverageScore)
	return nil
}

func runReset(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error {
	uid, err := userID(ctx, a, flags)
	if err != nil {
		return err
	}
	if err := a.Progress.ResetProgress(ctx, uid); err != nil {
		return err
	}
	con.printf("progress reset\n")
	return nil
}

func runPromote(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error {
	name, err := stringFlag(flags, "user", true)
	if err != nil {
		return err
	}
	if err := a.Users.PromoteToAdmin(ctx, name); err != nil {
		return err
	}
	con.printf("%s is now an admin\n", name)
	return nil
}

func runUsers(ctx context.Context, a *app.App, _ *pflag.FlagSet, con *console) error {
	users, err := a.Statistics.ListWithProgress(ctx)
	if err != nil {
		return err
	}

	w := con.table()
	fmt.Fprintln(w, "ID\tUSERNAME\tADMIN\tVIEWED\tCOMPLETION\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%t\t%d/%d\t%.2f%%\t%s\n",
			u.ID, u.Username, u.IsAdmin, u.ViewedCount, u.TotalCount, u.CompletionPercentage, u.CreatedAt.Format(time.DateOnly))
	}
	return w.Flush()
}

func runVerify(ctx context.Context, a *app.App, _ *pflag.FlagSet, con *console) error {
	repaired, err := a.Progress.VerifyViewedCounts(ctx)
	if err != nil {
		return err
	}
	con.printf("viewed counts checked, %d users repaired\n", repaired)
	return nil
}

func runQuiz(ctx context.Context, a *app.App, flags *pflag.FlagSet, con *console) error {
	uid, err := userID(ctx, a, flags)
	if err != nil {
		return err
	}
	kindName, err := stringFlag(flags, "kind", true)
	if err != nil {
		return err
	}
	kind, err := quiz.ParseKind(kindName)
	if err != nil {
		return fmt.Errorf("%w: %q", err, kindName)
	}
	length, err := flags.GetInt("length")
	if err != nil {
		return err
	}
	if length == 0 {
		length = a.Config.Quiz.Length
	}

	session, err := a.Quiz.StartQuiz(ctx, uid, kind, length)
	if errors.Is(err, quiz.ErrEmptyContent) {
		con.printf("no characters to quiz yet, view some first\n")
		return nil
	}
	if err != nil {
		return err
	}

	for session.State() == quiz.StateInProgress {
		q, err := a.Quiz.CurrentQuestion(session)
		if err != nil {
			return err
		}

		con.printf("\nQuestion %d/%d: %s\n", q.Number, q.Total, q.Prompt)
		if q.Pinyin != "" {
			con.printf("  %s\n", q.Pinyin)
		}
		if q.Hint != "" {
			con.printf("  (%s)\n", q.Hint)
		}
		for i, opt := range q.Options {
			con.printf("  %d) %s\n", i+1, opt)
		}

		choice, ok := askChoice(con, len(q.Options))
		if !ok {
			con.printf("\nquiz abandoned\n")
			return nil
		}

		answer, err := a.Quiz.SubmitAnswer(session, choice)
		if err != nil {
			return err
		}
		if answer.Correct {
			con.printf("correct\n")
		} else {
			con.printf("wrong, the answer is %d) %s\n", answer.CorrectIndex+1, answer.CorrectOption)
		}

		result, err := a.Quiz.Advance(ctx, session)
		if result != nil {
			con.printf("\nscore: %d/%d (%.2f%%)\n", result.Score, result.Total, result.Percentage)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// askChoice reads a 1-based option number until a valid one or "q" is
// entered. It returns the 0-based choice; false means the user quit.
func askChoice(con *console, n int) (int, bool) {
	for {
		con.printf("> ")
		line, ok := con.readLine()
		if !ok || line == "q" {
			return 0, false
		}
		choice, err := strconv.Atoi(line)
		if err == nil && choice >= 1 && choice <= n {
			return choice - 1, true
		}
		con.printf("enter a number from 1 to %d, or q to quit\n", n)
	}
}

func runWatch(ctx context.Context, a *app.App, _ *pflag.FlagSet, con *console) error {
	s := a.NewScheduler()
	if err := s.Start(ctx); err != nil {
		return err
	}
	con.printf("auditing viewed counts every %s, press Ctrl+C to stop\n", a.Config.Audit.Interval)

	<-ctx.Done()
	s.Stop()

	stats := s.Stats()
	con.printf("%d audits, %d users repaired\n", stats.Runs, stats.Repaired)
	return nil
}
