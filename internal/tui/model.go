package tui

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/csheth/wikitrail/internal/config"
	"github.com/csheth/wikitrail/internal/nav"
	"github.com/csheth/wikitrail/internal/session"
	"github.com/csheth/wikitrail/internal/visited"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Resolver     Resolver
	Tracker      *visited.Tracker
	TrailPath    string
	LandingTitle string
	PaneWidth    int
	Resume       bool
	Theme        config.ThemeConfig
}

// New returns a tea.Model ready to be mounted into a Program.
func New(cfg Config) tea.Model {
	composer := textinput.New()
	composer.Placeholder = "Search the encyclopedia…"
	composer.CharLimit = 200
	composer.Width = 60
	composer.Focus()

	paletteInput := textinput.New()
	paletteInput.Placeholder = "Filter links…"
	paletteInput.CharLimit = 120
	paletteInput.Width = 40

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	trail := nav.NewController()
	if cfg.Resume && cfg.TrailPath != "" {
		restored, err := session.Load(cfg.TrailPath)
		if err != nil {
			log.Printf("[session] restore failed: %v", err)
		} else {
			trail = restored
		}
	}

	m := &model{
		config:       cfg,
		stage:        stageSearch,
		composer:     composer,
		paletteInput: paletteInput,
		spinner:      spin,
		trail:        trail,
		jobs:         newJobBus(),
		styles:       newStyles(cfg.Theme),
		infoMessage:  "Type a search to open the first pane.",
	}
	if trail.Len() > 0 {
		m.stage = stageBrowse
		m.composer.Blur()
		m.infoMessage = fmt.Sprintf("Restored %d pane(s).", trail.Len())
	}
	return m
}

type stage int

const (
	stageSearch stage = iota
	stageBrowse
	stagePalette
)

const resizeStep = 50

type model struct {
	config Config
	stage  stage

	composer     textinput.Model
	paletteInput textinput.Model
	spinner      spinner.Model

	trail *nav.Controller
	jobs  *jobBus
	drag  *nav.Drag

	pendingFetches int
	linkCursor     int
	scrollOffset   int

	paletteMatches []nav.Link
	paletteCursor  int

	termWidth  int
	termHeight int

	infoMessage  string
	errorMessage string

	styles styles
}

type articleResultMsg struct {
	pane         nav.Pane
	searchResult bool
	err          error
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.trail.Len() == 0 && m.config.LandingTitle != "" && m.config.Resolver != nil {
		m.pendingFetches++
		m.infoMessage = fmt.Sprintf("Loading %s…", m.config.LandingTitle)
		job := resolveLinkJob(m.config.Resolver, m.config.LandingTitle, m.defaultPaneWidth())
		cmds = append(cmds, m.spinner.Tick, m.jobs.Start(jobKindResolve, job))
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.loading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.saveTrail()
			return m, tea.Quit
		case tea.KeyEsc:
			switch m.stage {
			case stagePalette:
				m.stage = stageBrowse
				m.paletteInput.Blur()
				return m, nil
			case stageSearch:
				if m.trail.Len() > 0 {
					m.stage = stageBrowse
					m.composer.Blur()
					return m, nil
				}
				m.saveTrail()
				return m, tea.Quit
			default:
				m.saveTrail()
				return m, tea.Quit
			}
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	case jobSignalMsg:
		return m, nil
	case jobResultEnvelope:
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case articleResultMsg:
		return m.handleArticleResult(msg)
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		return m, nil
	}
	return m, nil
}

// handleArticleResult applies a completed fetch. Results land in whatever
// order the fetches finish; a result from an older request still installs
// its pane relative to the trail's current state.
func (m *model) handleArticleResult(msg articleResultMsg) (tea.Model, tea.Cmd) {
	if m.pendingFetches > 0 {
		m.pendingFetches--
	}
	if msg.err != nil {
		m.errorMessage = msg.err.Error()
		m.infoMessage = "Nothing changed. Try another search or link."
		return m, nil
	}
	m.trail.Navigate(msg.pane, msg.searchResult)
	m.stage = stageBrowse
	m.composer.Blur()
	m.drag = nil
	m.linkCursor = 0
	m.scrollOffset = 0
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Opened %s.", trimmedTitle(msg.pane.Title))
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageSearch:
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(key)
		if key.Type == tea.KeyEnter {
			term := strings.TrimSpace(m.composer.Value())
			if term == "" {
				m.errorMessage = "Enter a search term."
				return m, cmd
			}
			m.composer.SetValue("")
			m.errorMessage = ""
			m.infoMessage = fmt.Sprintf("Searching for %q…", term)
			return m, tea.Batch(cmd, m.startSearch(term))
		}
		return m, cmd
	case stageBrowse:
		return m.handleBrowseKey(key)
	case stagePalette:
		return m.handlePaletteKey(key)
	}
	return m, nil
}

func (m *model) handleBrowseKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q":
		m.saveTrail()
		return m, tea.Quit
	case "/", "s":
		m.stage = stageSearch
		m.drag = nil
		m.composer.Focus()
		return m, textinput.Blink
	case "tab", "l", "right":
		m.focusPane(m.trail.Active() + 1)
		return m, nil
	case "shift+tab", "h", "left":
		m.focusPane(m.trail.Active() - 1)
		return m, nil
	case "j", "down":
		m.moveLinkCursor(1)
		return m, nil
	case "k", "up":
		m.moveLinkCursor(-1)
		return m, nil
	case "ctrl+d", "pgdown":
		m.scrollContent(m.paneHeight() / 2)
		return m, nil
	case "ctrl+u", "pgup":
		m.scrollContent(-m.paneHeight() / 2)
		return m, nil
	case "enter":
		return m, m.activateCursorLink()
	case "o":
		m.stage = stagePalette
		m.drag = nil
		m.paletteInput.SetValue("")
		m.paletteInput.Focus()
		m.paletteCursor = 0
		m.refreshPaletteMatches()
		return m, textinput.Blink
	case "x", "w":
		m.closeActivePane()
		return m, nil
	case "<":
		if m.trail.Active() >= 0 {
			m.trail.Resize(m.trail.Active(), -resizeStep)
		}
		return m, nil
	case ">":
		if m.trail.Active() >= 0 {
			m.trail.Resize(m.trail.Active(), resizeStep)
		}
		return m, nil
	}
	return m, nil
}

func (m *model) handlePaletteKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "down", "ctrl+n":
		if m.paletteCursor < len(m.paletteMatches)-1 {
			m.paletteCursor++
		}
		return m, nil
	case "up", "ctrl+p":
		if m.paletteCursor > 0 {
			m.paletteCursor--
		}
		return m, nil
	case "enter":
		if m.paletteCursor >= len(m.paletteMatches) {
			return m, nil
		}
		link := m.paletteMatches[m.paletteCursor]
		m.stage = stageBrowse
		m.paletteInput.Blur()
		return m, m.activateLink(link)
	}
	var cmd tea.Cmd
	m.paletteInput, cmd = m.paletteInput.Update(key)
	m.refreshPaletteMatches()
	return m, cmd
}

func (m *model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	// A release ends the drag whatever screen is showing, so an orphaned
	// drag cannot resume resizing after the button is let go.
	if msg.Type == tea.MouseRelease {
		m.drag = nil
		return nil
	}
	if m.stage != stageBrowse {
		return nil
	}
	switch msg.Type {
	case tea.MouseLeft:
		columns := m.layoutColumns()
		if index, ok := dividerAt(columns, msg.X); ok {
			m.drag = nav.StartDrag(index, msg.X)
			return nil
		}
		if index := paneAt(columns, msg.X); index >= 0 && index != m.trail.Active() {
			m.focusPane(index)
		}
	case tea.MouseMotion:
		if m.drag == nil {
			return nil
		}
		// A fetch completing mid-drag can replace or shorten the trail;
		// a drag whose divider no longer exists is abandoned.
		if m.drag.Index() >= m.trail.Len()-1 {
			m.drag = nil
			return nil
		}
		cells := m.drag.Move(msg.X)
		columns := m.layoutColumns()
		if units := cellsToUnits(columns, cells); units != 0 {
			m.trail.Resize(m.drag.Index(), units)
		}
	}
	return nil
}

func (m *model) startSearch(term string) tea.Cmd {
	m.pendingFetches++
	job := searchJob(m.config.Resolver, term, m.defaultPaneWidth())
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindSearch, job))
}

// activateLink records the visit immediately and resolves the target in
// the background. The trail only changes once the result arrives.
func (m *model) activateLink(link nav.Link) tea.Cmd {
	if link.Target == "" {
		return nil
	}
	if m.config.Tracker != nil {
		m.config.Tracker.Record(link.Target)
	}
	m.pendingFetches++
	m.infoMessage = fmt.Sprintf("Following %s…", trimmedTitle(link.Text))
	job := resolveLinkJob(m.config.Resolver, link.Target, m.defaultPaneWidth())
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindResolve, job))
}

func (m *model) activateCursorLink() tea.Cmd {
	links := m.activeLinks()
	if m.linkCursor < 0 || m.linkCursor >= len(links) {
		return nil
	}
	return m.activateLink(links[m.linkCursor])
}

func (m *model) closeActivePane() {
	active := m.trail.Active()
	if active < 0 {
		return
	}
	title := m.trail.Pane(active).Title
	m.trail.Close(active)
	m.drag = nil
	m.linkCursor = 0
	m.scrollOffset = 0
	m.infoMessage = fmt.Sprintf("Closed %s.", trimmedTitle(title))
	if m.trail.Len() == 0 {
		m.stage = stageSearch
		m.composer.Focus()
		m.infoMessage = "Trail empty. Type a search to start again."
	}
}

func (m *model) focusPane(index int) {
	if index < 0 || index >= m.trail.Len() || index == m.trail.Active() {
		return
	}
	m.trail.Focus(index)
	m.linkCursor = 0
	m.scrollOffset = 0
}

func (m *model) moveLinkCursor(delta int) {
	links := m.activeLinks()
	if len(links) == 0 {
		return
	}
	m.linkCursor += delta
	if m.linkCursor < 0 {
		m.linkCursor = 0
	}
	if m.linkCursor >= len(links) {
		m.linkCursor = len(links) - 1
	}
}

func (m *model) scrollContent(delta int) {
	m.scrollOffset += delta
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m *model) activeLinks() []nav.Link {
	active := m.trail.Active()
	if active < 0 {
		return nil
	}
	return m.trail.Pane(active).Links
}

func (m *model) refreshPaletteMatches() {
	links := m.activeLinks()
	query := strings.TrimSpace(m.paletteInput.Value())
	if query == "" {
		m.paletteMatches = append([]nav.Link(nil), links...)
	} else {
		texts := make([]string, len(links))
		for i, l := range links {
			texts[i] = l.Text
		}
		ranks := fuzzy.RankFindNormalizedFold(query, texts)
		sort.Sort(ranks)
		matches := make([]nav.Link, 0, len(ranks))
		for _, rank := range ranks {
			matches = append(matches, links[rank.OriginalIndex])
		}
		m.paletteMatches = matches
	}
	if m.paletteCursor >= len(m.paletteMatches) {
		m.paletteCursor = 0
	}
}

func (m *model) loading() bool {
	return m.pendingFetches > 0
}

func (m *model) defaultPaneWidth() int {
	if m.config.PaneWidth >= nav.MinPaneWidth {
		return m.config.PaneWidth
	}
	return 400
}

func (m *model) layoutColumns() []paneColumn {
	return computeColumns(m.trail.Panes(), m.trail.Active(), m.contentWidth())
}

func (m *model) contentWidth() int {
	if m.termWidth > 0 {
		return m.termWidth
	}
	return 120
}

func (m *model) paneHeight() int {
	height := m.termHeight - 6
	if height < 8 {
		height = 8
	}
	return height
}

func (m *model) saveTrail() {
	if m.config.TrailPath == "" {
		return
	}
	if err := session.Save(m.config.TrailPath, m.trail); err != nil {
		log.Printf("[session] save failed: %v", err)
	}
}

type styles struct {
	title         lipgloss.Style
	helper        lipgloss.Style
	errorText     lipgloss.Style
	statusBar     lipgloss.Style
	paneBorder    lipgloss.Style
	focusedBorder lipgloss.Style
	paneTitle     lipgloss.Style
	link          lipgloss.Style
	visitedLink   lipgloss.Style
	linkCursor    lipgloss.Style
	divider       lipgloss.Style
}

func newStyles(theme config.ThemeConfig) styles {
	accent := lipgloss.Color(theme.Accent)
	return styles{
		title:         lipgloss.NewStyle().Bold(true).Foreground(accent),
		helper:        lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Muted)),
		errorText:     lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Error)),
		statusBar:     lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Muted)).Padding(0, 1),
		paneBorder:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(theme.Border)).Padding(0, 1),
		focusedBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(theme.FocusedBorder)).Padding(0, 1),
		paneTitle:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		link:          lipgloss.NewStyle(),
		visitedLink:   lipgloss.NewStyle().Foreground(lipgloss.Color(theme.VisitedLink)),
		linkCursor:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		divider:       lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Border)),
	}
}
