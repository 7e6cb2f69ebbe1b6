package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Nm02/Asistente-Academico-IITA/api"
	"github.com/Nm02/Asistente-Academico-IITA/assistant"
	"github.com/Nm02/Asistente-Academico-IITA/config"
	"github.com/Nm02/Asistente-Academico-IITA/embeddings"
	"github.com/Nm02/Asistente-Academico-IITA/extract"
	"github.com/Nm02/Asistente-Academico-IITA/intent"
	"github.com/Nm02/Asistente-Academico-IITA/llm"
	"github.com/Nm02/Asistente-Academico-IITA/moodle"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("configuration: %v", err)
	}

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "courses":
		coursesCmd(cfg, logger)
	case "start":
		startCmd(cfg, logger)
	case "stop":
		stopCmd(cfg, logger)
	case "status":
		statusCmd(cfg, logger)
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	port := flags.Int("port", cfg.Port, "webhook server port")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := buildService(cfg, logger)
	if err != nil {
		logger.Fatalf("assistant setup: %v", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: api.New(svc, logger),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	logger.Printf("listening on :%d", *port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server: %v", err)
	}
}

func coursesCmd(cfg config.Config, logger *log.Logger) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := moodle.NewClient(cfg.MoodleURL, cfg.MoodleToken)

	info, err := client.GetSiteInfo(ctx)
	if err != nil {
		logger.Fatalf("site info: %v", err)
	}

	courses, err := client.GetUserCourses(ctx, info.UserID)
	if err != nil {
		logger.Fatalf("list courses: %v", err)
	}

	for _, course := range courses {
		fmt.Printf("[%d] %s\n", course.ID, course.FullName)
	}
}

// startCmd launches `serve` as a detached background process, appending its
// output to the log file and recording the pid.
func startCmd(cfg config.Config, logger *log.Logger) {
	if pid, alive := readPID(cfg.PIDFile); alive {
		logger.Fatalf("service already running with PID %d", pid)
	}

	self, err := os.Executable()
	if err != nil {
		logger.Fatalf("resolve executable: %v", err)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Fatalf("open log file: %v", err)
	}
	defer logFile.Close()

	cmd := exec.Command(self, "serve")
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		logger.Fatalf("start service: %v", err)
	}

	if err := os.WriteFile(cfg.PIDFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0o644); err != nil {
		logger.Fatalf("write pid file: %v", err)
	}

	logger.Printf("service started | PID: %d | logs: %s | pid file: %s", cmd.Process.Pid, cfg.LogFile, cfg.PIDFile)
}

func stopCmd(cfg config.Config, logger *log.Logger) {
	pid, alive := readPID(cfg.PIDFile)
	if pid == 0 {
		logger.Fatalf("no pid file at %s", cfg.PIDFile)
	}
	if !alive {
		logger.Printf("no process with PID %d, removing stale pid file", pid)
		_ = os.Remove(cfg.PIDFile)
		return
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		logger.Fatalf("stop PID %d: %v", pid, err)
	}
	_ = os.Remove(cfg.PIDFile)
	logger.Printf("SIGTERM sent to PID %d", pid)
}

func statusCmd(cfg config.Config, logger *log.Logger) {
	pid, alive := readPID(cfg.PIDFile)
	if pid == 0 {
		fmt.Println("no registered service")
		return
	}
	if alive {
		fmt.Printf("service active | PID: %d\n", pid)
	} else {
		fmt.Printf("service dead | stale PID: %d\n", pid)
	}
}

// readPID reads the pid file and probes the process with signal 0.
func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, syscall.Kill(pid, 0) == nil
}

func buildService(cfg config.Config, logger *log.Logger) (*assistant.Service, error) {
	client := moodle.NewClient(cfg.MoodleURL, cfg.MoodleToken)

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedder setup: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm setup: %w", err)
	}

	systemPrompt := ""
	if cfg.SystemPromptPath != "" {
		data, err := os.ReadFile(cfg.SystemPromptPath)
		if err != nil {
			return nil, fmt.Errorf("read system prompt: %w", err)
		}
		systemPrompt = string(data)
	}

	classifier := intent.NewClassifier(llmClient, logger)
	return assistant.NewService(client, embedder, llmClient, classifier, extract.PDFText, systemPrompt, logger), nil
}

func printUsage() {
	fmt.Println("Usage: asistente <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  serve    Run the webhook server in the foreground (use --port to override)")
	fmt.Println("  courses  List the courses the assistant account is enrolled in")
	fmt.Println("  start    Run the webhook server in the background (pid file + log file)")
	fmt.Println("  stop     Stop the background service")
	fmt.Println("  status   Report whether the background service is running")
}
