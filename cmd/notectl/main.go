// Command notectl is a small terminal client for the Note Squared API.
// It covers the day-to-day teacher flow: log in, manage the roster,
// record lessons, upload audio and follow processing until the outputs
// are ready.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/notesquared/backend/client"
	"go.uber.org/zap"
)

const defaultBaseURL = "http://localhost:8080/v1"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "notectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("no command given")
	}

	baseURL := os.Getenv("NOTECTL_API_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	api := client.New(baseURL)
	if token, err := loadToken(); err == nil && token != "" {
		api.SetToken(token)
	}

	ctx := context.Background()

	switch args[0] {
	case "login":
		return cmdLogin(ctx, api, args[1:])
	case "register":
		return cmdRegister(ctx, api, args[1:])
	case "whoami":
		return cmdWhoami(ctx, api)
	case "students":
		return cmdStudents(ctx, api, args[1:])
	case "add-student":
		return cmdAddStudent(ctx, api, args[1:])
	case "lessons":
		return cmdLessons(ctx, api, args[1:])
	case "new-lesson":
		return cmdNewLesson(ctx, api, args[1:])
	case "upload":
		return cmdUpload(ctx, api, args[1:])
	case "watch":
		return cmdWatch(api, args[1:])
	case "show":
		return cmdShow(ctx, api, args[1:])
	case "share":
		return cmdShare(ctx, api, args[1:])
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: notectl <command> [flags]

Commands:
  login        -email -password          authenticate and store the token
  register     -email -password -name    create a teacher account
  whoami                                 show the authenticated account
  students     [-archived]               list the roster
  add-student  -name -instrument [...]   add a student
  lessons      [-student id]             list lessons
  new-lesson   -student id [-date]       create a lesson
  upload       -lesson id -file path     upload lesson audio
  watch        -lesson id [-retry]       follow processing until done
  show         -lesson id                print a lesson with its outputs
  share        -output id                share an output

Environment:
  NOTECTL_API_URL   API base URL (default `+defaultBaseURL+`)
`)
}

func cmdLogin(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)
	if *email == "" || *password == "" {
		return fmt.Errorf("login requires -email and -password")
	}

	if _, err := api.Login(ctx, *email, *password); err != nil {
		return err
	}
	if err := saveToken(api.Token()); err != nil {
		return fmt.Errorf("logged in but failed to store token: %w", err)
	}
	fmt.Println("Logged in.")
	return nil
}

func cmdRegister(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	name := fs.String("name", "", "full name")
	fs.Parse(args)
	if *email == "" || *password == "" {
		return fmt.Errorf("register requires -email and -password")
	}

	if _, err := api.Register(ctx, *email, *password, *name); err != nil {
		return err
	}
	if err := saveToken(api.Token()); err != nil {
		return fmt.Errorf("registered but failed to store token: %w", err)
	}
	fmt.Println("Account created.")
	return nil
}

func cmdWhoami(ctx context.Context, api *client.Client) error {
	user, err := api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", user.FullName, user.Email)
	return nil
}

func cmdStudents(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("students", flag.ExitOnError)
	archived := fs.Bool("archived", false, "include archived students")
	fs.Parse(args)

	students, err := api.ListStudents(ctx, *archived)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		fmt.Println("No students yet.")
		return nil
	}
	for _, s := range students {
		flagStr := ""
		if s.IsArchived {
			flagStr = " (archived)"
		}
		fmt.Printf("%s  %-20s %s / %s%s\n", s.ID, s.FullName, s.Instrument, s.Level, flagStr)
	}
	return nil
}

func cmdAddStudent(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("add-student", flag.ExitOnError)
	name := fs.String("name", "", "student name")
	instrument := fs.String("instrument", "", "instrument")
	level := fs.String("level", "", "level (beginner, intermediate, advanced)")
	parentEmail := fs.String("parent-email", "", "parent email")
	parentName := fs.String("parent-name", "", "parent name")
	notes := fs.String("notes", "", "freeform notes")
	fs.Parse(args)
	if *name == "" || *instrument == "" {
		return fmt.Errorf("add-student requires -name and -instrument")
	}

	student, err := api.CreateStudent(ctx, &client.CreateStudentRequest{
		FullName:    *name,
		Instrument:  *instrument,
		Level:       *level,
		ParentEmail: *parentEmail,
		ParentName:  *parentName,
		Notes:       *notes,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added %s (%s)\n", student.FullName, student.ID)
	return nil
}

func cmdLessons(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("lessons", flag.ExitOnError)
	studentID := fs.String("student", "", "filter by student ID")
	fs.Parse(args)

	lessons, err := api.ListLessons(ctx, *studentID)
	if err != nil {
		return err
	}
	if len(lessons) == 0 {
		fmt.Println("No lessons yet.")
		return nil
	}
	for _, l := range lessons {
		fmt.Printf("%s  %s  %-20s %s\n", l.ID, l.LessonDate, l.StudentName, l.Status.Label())
	}
	return nil
}

func cmdNewLesson(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("new-lesson", flag.ExitOnError)
	studentID := fs.String("student", "", "student ID")
	date := fs.String("date", "", "lesson date (YYYY-MM-DD, default today)")
	fs.Parse(args)
	if *studentID == "" {
		return fmt.Errorf("new-lesson requires -student")
	}

	lesson, err := api.CreateLesson(ctx, *studentID, *date)
	if err != nil {
		return err
	}
	fmt.Printf("Created lesson %s for %s on %s\n", lesson.ID, lesson.StudentName, lesson.LessonDate)
	return nil
}

func cmdUpload(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	lessonID := fs.String("lesson", "", "lesson ID")
	path := fs.String("file", "", "audio file path")
	fs.Parse(args)
	if *lessonID == "" || *path == "" {
		return fmt.Errorf("upload requires -lesson and -file")
	}

	contentType, err := audioContentType(*path)
	if err != nil {
		return err
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	lesson, err := api.UploadLessonAudio(ctx, *lessonID, filepath.Base(*path), contentType, f)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded. Lesson %s is now %s.\n", lesson.ID, lesson.Status.Label())
	fmt.Printf("Run: notectl watch -lesson %s\n", lesson.ID)
	return nil
}

// cmdWatch follows a lesson through the pipeline, printing each status
// change until it reaches a terminal state.
func cmdWatch(api *client.Client, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	lessonID := fs.String("lesson", "", "lesson ID")
	retry := fs.Bool("retry", false, "retry once if the lesson has failed")
	fs.Parse(args)
	if *lessonID == "" {
		return fmt.Errorf("watch requires -lesson")
	}

	tracker := client.NewTracker(api, zap.NewNop())
	defer tracker.Dispose()

	ctx := context.Background()
	if err := tracker.Load(ctx, *lessonID); err != nil {
		return err
	}

	if *retry && tracker.Status() == client.StatusFailed {
		fmt.Println("Lesson failed previously, retrying...")
		if err := tracker.Retry(ctx); err != nil {
			return err
		}
	} else {
		tracker.EvaluateAndSchedule()
	}

	last := client.Status("")
	for {
		status := tracker.Status()
		if status != last {
			fmt.Printf("%s  %s\n", time.Now().Format("15:04:05"), status.Label())
			last = status
		}
		if !tracker.Polling() {
			break
		}
		time.Sleep(250 * time.Millisecond)
	}

	lesson := tracker.Lesson()
	if lesson == nil {
		return fmt.Errorf("lesson state unavailable")
	}
	if lesson.Status == client.StatusFailed {
		if lesson.ErrorMessage != "" {
			return fmt.Errorf("processing failed: %s", lesson.ErrorMessage)
		}
		return fmt.Errorf("processing failed")
	}

	fmt.Printf("\nOutputs:\n")
	for _, out := range lesson.Outputs {
		fmt.Printf("  %s  %s\n", out.ID, out.OutputType.Meta().Title)
	}
	return nil
}

func cmdShow(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	lessonID := fs.String("lesson", "", "lesson ID")
	fs.Parse(args)
	if *lessonID == "" {
		return fmt.Errorf("show requires -lesson")
	}

	lesson, err := api.GetLesson(ctx, *lessonID)
	if err != nil {
		return err
	}
	fmt.Printf("Lesson %s  %s  %s  %s\n", lesson.ID, lesson.LessonDate, lesson.StudentName, lesson.Status.Label())
	if lesson.ErrorMessage != "" {
		fmt.Printf("Error: %s\n", lesson.ErrorMessage)
	}
	for _, out := range lesson.Outputs {
		meta := out.OutputType.Meta()
		fmt.Printf("\n== %s (%s) ==\n%s\n", meta.Title, out.ID, out.Content)
	}
	return nil
}

func cmdShare(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("share", flag.ExitOnError)
	outputID := fs.String("output", "", "output ID")
	fs.Parse(args)
	if *outputID == "" {
		return fmt.Errorf("share requires -output")
	}

	out, err := api.ShareOutput(ctx, *outputID)
	if err != nil {
		return err
	}
	fmt.Printf("Shared %s.\n", out.OutputType.Meta().Title)
	return nil
}

// audioContentType maps a file extension to the upload MIME type
func audioContentType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg", nil
	case ".m4a":
		return "audio/mp4", nil
	case ".wav":
		return "audio/wav", nil
	case ".webm":
		return "audio/webm", nil
	}
	return "", fmt.Errorf("unsupported audio format, allowed: m4a, mp3, wav, webm")
}

// tokenPath returns the path where the auth token is stored
func tokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "notectl", "token"), nil
}

func loadToken() (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func saveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}
