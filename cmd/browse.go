package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mod-catalog-mirror/db"
	"mod-catalog-mirror/logger"
	"mod-catalog-mirror/ui"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse unrated mods and like or dislike them",
	Long: `Launch an interactive list of the mods a user has not rated yet.
Rated mods drop out of the list.`,
	Run: func(cmd *cobra.Command, _ []string) {
		username, _ := cmd.Flags().GetString("user")
		excluded, _ := cmd.Flags().GetStringSlice("exclude-category")

		a := bootstrap(configDir)
		defer a.close()

		user, err := db.FindUser(cmd.Context(), a.db, username)
		if err != nil {
			logger.Log.Fatalw("Unknown user", zap.String("user", username), zap.Error(err))
		}

		opts := db.DefaultModQueryOptions()
		opts.ExcludedCategories = excluded
		opts.UnratedBy = user.ID
		opts.Limit = 100

		m := newBrowseModel(cmd.Context(), a.db, user, opts)
		if _, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run(); err != nil {
			logger.Log.Errorw("Browse view failed", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().StringP("user", "u", "", "User giving the ratings")
	browseCmd.Flags().StringSlice("exclude-category", nil, "Hide mods in this category (repeatable)")
	_ = browseCmd.MarkFlagRequired("user")
}

type browseRow struct {
	mod        db.Mod
	categories []string
}

// browseModel represents the state of the browse TUI
type browseModel struct {
	ctx  context.Context
	db   *gorm.DB
	user db.User
	opts db.ModQueryOptions

	spinner       spinner.Model
	rows          []browseRow
	selectedIndex int
	loading       bool
	error         string
	message       string
}

func newBrowseModel(ctx context.Context, gdb *gorm.DB, user db.User, opts db.ModQueryOptions) browseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ui.ColorSpinner))

	return browseModel{
		ctx:     ctx,
		db:      gdb,
		user:    user,
		opts:    opts,
		spinner: s,
		loading: true,
	}
}

// Message types
type rowsLoadedMsg struct {
	rows []browseRow
}

type modRatedMsg struct {
	id    uuid.UUID
	name  string
	value db.RatingValue
}

type errorMsg string

type clearMessageMsg struct{}

func (m browseModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadRows())
}

func (m browseModel) loadRows() tea.Cmd {
	return func() tea.Msg {
		mods, err := db.QueryMods(m.ctx, m.db, m.opts)
		if err != nil {
			return errorMsg(err.Error())
		}
		ids := make([]uuid.UUID, len(mods))
		for i, mod := range mods {
			ids[i] = mod.ID
		}
		categories, err := db.ModCategoryNames(m.ctx, m.db, ids)
		if err != nil {
			return errorMsg(err.Error())
		}
		rows := make([]browseRow, len(mods))
		for i, mod := range mods {
			rows[i] = browseRow{mod: mod, categories: categories[mod.ID]}
		}
		return rowsLoadedMsg{rows: rows}
	}
}

func (m browseModel) rate(row browseRow, value db.RatingValue) tea.Cmd {
	return func() tea.Msg {
		if err := db.RateMod(m.ctx, m.db, row.mod.ID, m.user.ID, value); err != nil {
			return errorMsg(err.Error())
		}
		return modRatedMsg{id: row.mod.ID, name: row.mod.Name, value: value}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case rowsLoadedMsg:
		m.rows = msg.rows
		m.loading = false
		m.selectedIndex = 0
	case modRatedMsg:
		m.removeRow(msg.id)
		m.message = fmt.Sprintf("%s %s", msg.value, msg.name)
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearMessageMsg{}
		})
	case errorMsg:
		m.error = string(msg)
		m.loading = false
	case clearMessageMsg:
		m.message = ""
	}
	return m, nil
}

func (m browseModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case "down", "j":
		if m.selectedIndex < len(m.rows)-1 {
			m.selectedIndex++
		}
	case "l", "d":
		if m.loading || len(m.rows) == 0 {
			return m, nil
		}
		value := db.Like
		if msg.String() == "d" {
			value = db.Dislike
		}
		return m, m.rate(m.rows[m.selectedIndex], value)
	case "r":
		m.loading = true
		m.error = ""
		return m, tea.Batch(m.spinner.Tick, m.loadRows())
	}
	return m, nil
}

func (m *browseModel) removeRow(id uuid.UUID) {
	for i, row := range m.rows {
		if row.mod.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			break
		}
	}
	if m.selectedIndex >= len(m.rows) && m.selectedIndex > 0 {
		m.selectedIndex = len(m.rows) - 1
	}
}

// View renders the UI
func (m browseModel) View() string {
	if m.loading {
		return fmt.Sprintf("\n %s Loading mods...\n", m.spinner.View())
	}
	if m.error != "" {
		return ui.Error.Render("Error: "+m.error) + "\n"
	}
	if len(m.rows) == 0 {
		return "Nothing left to rate. Run a refresh to pick up new mods.\n"
	}

	var b strings.Builder
	b.WriteString(renderBrowseHeader())
	b.WriteString("\n")
	for i, row := range m.rows {
		b.WriteString(m.renderRow(i, row))
		b.WriteString("\n")
	}
	b.WriteString("\n" + renderBrowseFooter())

	if m.message != "" {
		b.WriteString("\n" + ui.Success.Render(m.message))
	}
	return b.String()
}

func renderBrowseHeader() string {
	headerStyle := ui.Title.Padding(0, 1)
	return headerStyle.Render(fmt.Sprintf("%-36s %-20s %7s  %s", "Mod", "Owner", "Rating", "Categories"))
}

func renderBrowseFooter() string {
	return ui.Muted.Render("↑/k: up  ↓/j: down  l: like  d: dislike  r: reload  q: quit")
}

func (m browseModel) renderRow(index int, row browseRow) string {
	rowStyle := lipgloss.NewStyle().Padding(0, 1)
	if index == m.selectedIndex {
		rowStyle = rowStyle.
			Background(lipgloss.Color(ui.ColorMuted)).
			Bold(true)
	}

	line := fmt.Sprintf("%-36s %-20s %7d  %s",
		truncate(row.mod.Name, 36),
		truncate(row.mod.Owner, 20),
		row.mod.Rating,
		truncate(strings.Join(row.categories, ", "), 40),
	)
	return rowStyle.Render(line)
}
