// chat-cli 在终端里和作品集助手对话，用于本地调试模板和补全接口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/peterh/liner"
	"github.com/portfolio/portfolio-assistant/internal/client"
	"github.com/portfolio/portfolio-assistant/internal/config"
	"github.com/portfolio/portfolio-assistant/internal/portfolio"
	"github.com/portfolio/portfolio-assistant/internal/responder"
	"github.com/portfolio/portfolio-assistant/internal/service"
	"github.com/portfolio/portfolio-assistant/pkg/logger"
)

var (
	botStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(lipgloss.Color("#4F46E5")).
			Padding(0, 1).
			Bold(true)
)

const helpText = `/quick [n]   list quick questions, or ask number n
/suggest     follow-up suggestions for the last topic
/topics      topics asked so far
/clear       start over
/quit        exit`

type repl struct {
	bot      *service.ChatbotService
	line     *liner.State
	renderer *glamour.TermRenderer
}

func main() {
	configPath := flag.String("config", "configs/assistant.yaml", "config file")
	logLevel := flag.String("log", "error", "log level")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	zapLogger, err := logger.NewLogger(*logLevel)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	profile, err := portfolio.Load(cfg.Chatbot.ProfilePath)
	if err != nil {
		log.Fatalf("加载作品集资料失败: %v", err)
	}

	completionClient := client.NewCompletionClient(cfg.DeepSeek, zapLogger)
	bot := service.NewChatbotService(
		completionClient,
		service.NewClassifierService(zapLogger),
		responder.NewDefaultBank(zapLogger),
		profile,
		cfg.Chatbot,
		zapLogger,
	)

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		renderer = nil
	}

	r := &repl{bot: bot, line: liner.NewLiner(), renderer: renderer}
	r.line.SetCtrlCAborts(true)
	defer r.line.Close()

	historyFile := filepath.Join(os.TempDir(), "portfolio-chat-history")
	if f, err := os.Open(historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.OpenFile(historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}()

	mode := "template replies only"
	if completionClient.Configured() {
		mode = "model: " + completionClient.Model()
	}
	fmt.Println(titleStyle.Render(profile.PersonalInfo.Name + " · portfolio assistant"))
	fmt.Println(infoStyle.Render(mode + " · /help for commands · Ctrl+C cancels a pending reply"))
	fmt.Println()
	r.printMessage(bot.Messages()[0].Content)

	r.run()
}

func (r *repl) run() {
	for {
		input, err := r.line.Prompt("you> ")
		if err != nil {
			// Ctrl+C 或 Ctrl+D
			fmt.Println()
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if !r.command(input) {
				return
			}
			continue
		}
		r.ask(input)
	}
}

// command 处理斜杠命令，返回 false 表示退出
func (r *repl) command(input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/exit":
		return false
	case "/help":
		fmt.Println(infoStyle.Render(helpText))
	case "/clear":
		r.bot.ClearSession()
		fmt.Println(infoStyle.Render("conversation cleared"))
		r.printMessage(r.bot.Messages()[0].Content)
	case "/topics":
		topics := r.bot.AskedTopics()
		if len(topics) == 0 {
			fmt.Println(infoStyle.Render("no topics yet"))
		} else {
			fmt.Println(infoStyle.Render(strings.Join(topics, ", ")))
		}
	case "/suggest":
		for _, q := range r.bot.SuggestedQuestions("") {
			fmt.Println(infoStyle.Render("• " + q))
		}
	case "/quick":
		quick := r.bot.QuickResponses()
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 1 || n > len(quick) {
				fmt.Println(errorStyle.Render("no such quick question"))
				return true
			}
			fmt.Println(infoStyle.Render("you> " + quick[n-1].Question))
			r.ask(quick[n-1].Question)
			return true
		}
		for i, q := range quick {
			fmt.Println(infoStyle.Render(fmt.Sprintf("%d. %s", i+1, q.Question)))
		}
	default:
		fmt.Println(errorStyle.Render("unknown command, try /help"))
	}
	return true
}

func (r *repl) ask(input string) {
	// Ctrl+C 在等待回复期间取消请求，而不是退出
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(infoStyle.Render("Thinking..."))
	resp, err := r.bot.SendMessage(ctx, input)
	switch {
	case errors.Is(err, service.ErrCancelled):
		fmt.Println(infoStyle.Render("(cancelled)"))
		return
	case err != nil:
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}

	r.printMessage(resp.Message)
	if resp.Err != nil && !errors.Is(resp.Err, client.ErrNotConfigured) {
		fmt.Println(infoStyle.Render("(offline reply: " + resp.Error + ")"))
	}
}

func (r *repl) printMessage(content string) {
	fmt.Print(botStyle.Render("assistant") + "\n")
	if r.renderer != nil {
		if rendered, err := r.renderer.Render(content); err == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Println(content)
	fmt.Println()
}
