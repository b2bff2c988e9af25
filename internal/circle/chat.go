package circle

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wisdomcircle/circled/internal/logging"
	"github.com/wisdomcircle/circled/internal/models"
	"github.com/wisdomcircle/circled/internal/notify"
	"github.com/wisdomcircle/circled/internal/session"
)

func newChatCmd() *cobra.Command {
	var icon string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, creds, err := authedClient(cmd)
			if err != nil {
				return err
			}

			if icon == "" {
				icon = defaultNotifyIcon()
			}

			incoming := make(chan models.Message, 64)
			sess := session.New(session.Options{
				Kind:       session.KindChat,
				Viewer:     models.Viewer{Username: creds.Username},
				Permission: defaultNotifyPermission(),
				Stream:     c,
				Poster:     c,
				Notifier:   notify.NewDesktop(logging.Component("notify"), icon),
				OnMessage: func(m models.Message) {
					select {
					case incoming <- m:
					default:
					}
				},
				Logger: logging.WithUser(creds.Username),
			})
			if err := sess.Start(cmd.Context()); err != nil {
				return err
			}
			defer sess.Close()

			model := newChatModel(sess, creds.Username, incoming)
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&icon, "icon", "", "notification icon path")
	return cmd
}

type chatIncomingMsg struct {
	msg models.Message
}

type chatPostedMsg struct {
	err error
}

type chatModel struct {
	sess     *session.Session
	self     string
	incoming <-chan models.Message

	width  int
	height int

	input   string
	sending bool
	status  string
}

func newChatModel(sess *session.Session, self string, incoming <-chan models.Message) *chatModel {
	return &chatModel{sess: sess, self: self, incoming: incoming}
}

func (m *chatModel) Init() tea.Cmd {
	return m.waitForMessageCmd()
}

func (m *chatModel) waitForMessageCmd() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.incoming
		if !ok {
			return nil
		}
		return chatIncomingMsg{msg: msg}
	}
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case chatIncomingMsg:
		return m, m.waitForMessageCmd()
	case chatPostedMsg:
		m.sending = false
		if typed.err != nil {
			m.status = typed.err.Error()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m *chatModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		body := strings.TrimSpace(m.input)
		if body == "" || m.sending {
			return m, nil
		}
		m.input = ""
		m.sending = true
		m.status = ""
		return m, m.sendCmd(body)
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(key.Runes)
		return m, nil
	}
	return m, nil
}

func (m *chatModel) sendCmd(body string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.sess.Send(context.Background(), body)
		return chatPostedMsg{err: err}
	}
}

func (m *chatModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	muted := lipgloss.NewStyle().Faint(true)
	mention := lipgloss.NewStyle().Bold(true)
	own := lipgloss.NewStyle().Faint(true)

	header := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("circle chat  %s", muted.Render("("+m.self+")")))
	if n := m.sess.Unread(); n > 0 {
		header += "  " + mention.Render(fmt.Sprintf("%d new", n))
	}

	contentH := m.height - 3
	if contentH < 0 {
		contentH = 0
	}

	msgs := m.sess.Messages()
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		line := fmt.Sprintf("%s %s: %s",
			muted.Render(msg.CreatedAt.Local().Format("15:04")), msg.Username, msg.Body)
		switch {
		case msg.Username == m.self:
			line = own.Render(line)
		case strings.Contains(msg.Body, models.MentionToken(m.self)):
			line = mention.Render(line)
		}
		lines = append(lines, line)
	}
	if len(lines) > contentH {
		lines = lines[len(lines)-contentH:]
	}
	for len(lines) < contentH {
		lines = append(lines, "")
	}

	prompt := "> " + m.input
	if m.sending {
		prompt = "> " + muted.Render("sending...")
	}
	footer := prompt
	if m.status != "" {
		footer = prompt + "  " + muted.Render(m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		append([]string{header}, append(lines, footer)...)...)
}
